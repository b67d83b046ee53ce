package metrics

import (
	"time"

	coremetrics "github.com/oficiosya/dispatch/core/metrics"
	"github.com/oficiosya/dispatch/core/model"
)

// MultiSink fans dispatch records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordDispatch(records []coremetrics.DispatchRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(records); err != nil {
			return err
		}
	}
	return nil
}

// RecordOutcome forwards the outcome to sinks that count outcomes.
func (m *MultiSink) RecordOutcome(outcome string) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.OutcomeRecorder); ok {
			if err := rec.RecordOutcome(outcome); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCandidateResponse forwards the latency to sinks that record it.
func (m *MultiSink) RecordCandidateResponse(status model.CandidateStatus, latency time.Duration) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.ResponseRecorder); ok {
			if err := rec.RecordCandidateResponse(status, latency); err != nil {
				return err
			}
		}
	}
	return nil
}
