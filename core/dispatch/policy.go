package dispatch

import (
	"context"

	"github.com/oficiosya/dispatch/core/events"
	"github.com/oficiosya/dispatch/core/logger"
	"github.com/oficiosya/dispatch/internal/eventbus"
)

// RedispatchPolicy keeps rejected requests staffed. It consumes
// CandidateRejected events from the bus and tops the request back up to
// the candidate floor, so the "how many candidates to maintain" decision
// stays separate from the rejection-recording logic.
type RedispatchPolicy struct {
	orch *Orchestrator
	bus  eventbus.EventBus
	log  logger.Logger
}

// NewRedispatchPolicy creates the policy worker.
func NewRedispatchPolicy(orch *Orchestrator, bus eventbus.EventBus, log logger.Logger) *RedispatchPolicy {
	return &RedispatchPolicy{orch: orch, bus: bus, log: log}
}

// Run consumes rejection events until the context is canceled.
func (p *RedispatchPolicy) Run(ctx context.Context) {
	sub := p.bus.Subscribe()
	defer p.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			rej, isRejection := ev.(events.CandidateRejected)
			if !isRejection {
				continue
			}
			p.handle(ctx, rej)
		}
	}
}

func (p *RedispatchPolicy) handle(ctx context.Context, rej events.CandidateRejected) {
	res, err := p.orch.Redispatch(ctx, rej.RequestID)
	if err != nil {
		p.log.Errorf("redispatch after rejection of %s: %v", rej.RequestID, err)
		return
	}
	switch res.Outcome {
	case OutcomeDispatched:
		p.log.Infof("topped up request %s with %d candidates", rej.RequestID, len(res.Created))
	case OutcomeNoProfessionals:
		p.log.Warnf("no replacement professionals for request %s", rej.RequestID)
	}
}
