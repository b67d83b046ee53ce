package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/oficiosya/dispatch/core/metrics"
	"github.com/oficiosya/dispatch/core/model"
)

// PromSink records dispatch events in Prometheus metrics.
type PromSink struct {
	candidates *prometheus.CounterVec
	outcomes   *prometheus.CounterVec
	response   *prometheus.HistogramVec
}

// NewPromSink registers dispatch metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	candidates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_candidates_total",
		Help: "Candidate lifecycle events by type",
	}, []string{"event", "urgency"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_requests_total",
		Help: "Dispatch passes by outcome",
	}, []string{"outcome"})
	response := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "candidate_response_seconds",
		Help:    "Time between offer creation and the candidate response",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"status"})

	if err := reg.Register(candidates); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			candidates = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(outcomes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			outcomes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(response); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			response = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{candidates: candidates, outcomes: outcomes, response: response}, nil
}

// RecordDispatch increments the candidate counter for each record.
func (s *PromSink) RecordDispatch(records []coremetrics.DispatchRecord) error {
	for _, r := range records {
		s.candidates.WithLabelValues(r.Event, r.Urgency.String()).Inc()
	}
	return nil
}

// RecordOutcome counts a dispatch pass outcome.
func (s *PromSink) RecordOutcome(outcome string) error {
	s.outcomes.WithLabelValues(outcome).Inc()
	return nil
}

// RecordCandidateResponse observes the candidate response latency.
func (s *PromSink) RecordCandidateResponse(status model.CandidateStatus, latency time.Duration) error {
	s.response.WithLabelValues(string(status)).Observe(latency.Seconds())
	return nil
}
