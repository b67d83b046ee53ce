package metrics

import (
	"time"

	"github.com/oficiosya/dispatch/core/model"
)

// Candidate lifecycle moments recorded by sinks.
const (
	EventProposed   = "proposed"
	EventAccepted   = "accepted"
	EventDeclined   = "declined"
	EventSuperseded = "superseded"
)

// Dispatch outcomes recorded by sinks.
const (
	OutcomeDispatched      = "dispatched"
	OutcomeNoop            = "noop"
	OutcomeNoProfessionals = "no_professionals"
)

// DispatchRecord is one per-candidate dispatch data point.
type DispatchRecord struct {
	RequestID      string
	ProfessionalID string
	Urgency        model.Urgency
	Event          string
	DistanceKm     float64
	Score          float64
	RadiusKm       float64
	Time           time.Time
}

// MetricsSink records dispatch data points for observability purposes.
type MetricsSink interface {
	RecordDispatch(records []DispatchRecord) error
}

// OutcomeRecorder optionally counts dispatch outcomes.
type OutcomeRecorder interface {
	RecordOutcome(outcome string) error
}

// ResponseRecorder optionally records the time a candidate took to
// respond to an offer.
type ResponseRecorder interface {
	RecordCandidateResponse(status model.CandidateStatus, latency time.Duration) error
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordDispatch([]DispatchRecord) error { return nil }

func (NopSink) RecordOutcome(string) error { return nil }

func (NopSink) RecordCandidateResponse(model.CandidateStatus, time.Duration) error { return nil }
