// Package dispatch owns the urgent-request lifecycle: candidate
// creation, notification fan-out, acceptance race resolution and
// cascading re-dispatch.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oficiosya/dispatch/core/events"
	"github.com/oficiosya/dispatch/core/geo"
	"github.com/oficiosya/dispatch/core/logger"
	"github.com/oficiosya/dispatch/core/match"
	"github.com/oficiosya/dispatch/core/metrics"
	"github.com/oficiosya/dispatch/core/model"
	"github.com/oficiosya/dispatch/core/pricing"
	"github.com/oficiosya/dispatch/core/settlement"
	"github.com/oficiosya/dispatch/core/store"
	"github.com/oficiosya/dispatch/internal/eventbus"
)

// Orchestrator drives the request state machine. All state transitions
// go through the store's conditional primitives; side effects
// (notifications, settlement) happen only after the transition is
// committed and are never rolled back.
type Orchestrator struct {
	store      store.Store
	finder     CandidateFinder
	bus        eventbus.EventBus
	settlement settlement.Gateway
	pricing    pricing.Rules
	metrics    metrics.MetricsSink
	logger     logger.Logger
	cfg        Config

	now   func() time.Time
	newID func() string
}

// NewOrchestrator creates an Orchestrator. The bus, settlement gateway
// and metrics sink may be nil; the corresponding side effects are then
// skipped.
func NewOrchestrator(st store.Store, finder CandidateFinder, bus eventbus.EventBus, gw settlement.Gateway, rules pricing.Rules, sink metrics.MetricsSink, log logger.Logger, cfg Config) (*Orchestrator, error) {
	if st == nil || finder == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewOrchestrator")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Orchestrator{
		store:      st,
		finder:     finder,
		bus:        bus,
		settlement: gw,
		pricing:    rules,
		metrics:    sink,
		logger:     log,
		cfg:        cfg,
		now:        time.Now,
		newID:      uuid.NewString,
	}, nil
}

// CreateRequest registers a new pending request and returns it. The
// caller is expected to follow up with Dispatch.
func (o *Orchestrator) CreateRequest(ctx context.Context, r model.UrgentRequest) (model.UrgentRequest, error) {
	if r.ID == "" {
		r.ID = o.newID()
	}
	r.Status = model.RequestPending
	r.CreatedAt = o.now()
	if err := o.store.CreateRequest(ctx, r); err != nil {
		return model.UrgentRequest{}, fmt.Errorf("create request: %w", err)
	}
	return r, nil
}

// Dispatch proposes professionals for the request. It is idempotent:
// an assigned or terminal request, or one already holding enough live
// candidates, is a no-op. Zero eligible professionals is a soft outcome
// reported in the result, not an error.
func (o *Orchestrator) Dispatch(ctx context.Context, requestID string) (DispatchResult, error) {
	return o.dispatch(ctx, requestID, o.cfg.DefaultRadiusKm, o.cfg.MaxCandidates, false)
}

// Redispatch tops the request up to the candidate floor at the widened
// radius, never re-proposing a professional already linked to the
// request. Invoked by the re-dispatch policy after a rejection.
func (o *Orchestrator) Redispatch(ctx context.Context, requestID string) (DispatchResult, error) {
	return o.dispatch(ctx, requestID, o.cfg.RedispatchRadiusKm, o.cfg.CandidateFloor, true)
}

func (o *Orchestrator) dispatch(ctx context.Context, requestID string, radiusKm float64, target int, redispatch bool) (DispatchResult, error) {
	res := DispatchResult{RequestID: requestID, RadiusKm: radiusKm, Outcome: OutcomeNoop}

	r, err := o.getRequest(ctx, requestID)
	if err != nil {
		return res, err
	}
	if r.Status != model.RequestPending {
		o.recordOutcome(metrics.OutcomeNoop)
		return res, nil
	}
	if _, err := o.store.AssignmentForRequest(ctx, requestID); err == nil {
		o.recordOutcome(metrics.OutcomeNoop)
		return res, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return res, fmt.Errorf("assignment lookup: %w", err)
	}

	existing, err := o.store.ListCandidates(ctx, requestID)
	if err != nil {
		return res, fmt.Errorf("list candidates: %w", err)
	}
	exclude := make(map[string]bool, len(existing))
	live := 0
	for _, c := range existing {
		exclude[c.ProfessionalID] = true
		if c.Status.Live() {
			live++
		}
	}
	if live >= o.cfg.CandidateFloor {
		o.recordOutcome(metrics.OutcomeNoop)
		return res, nil
	}

	want := target - live
	if want <= 0 {
		o.recordOutcome(metrics.OutcomeNoop)
		return res, nil
	}

	found, err := o.finder.FindCandidates(ctx, r.Lat, r.Lon, r.Category, radiusKm, exclude)
	if err != nil {
		return res, fmt.Errorf("find candidates: %w", err)
	}
	if len(found) == 0 {
		o.logger.Warnf("no eligible professionals for request %s within %.0f km", requestID, radiusKm)
		o.recordOutcome(metrics.OutcomeNoProfessionals)
		res.Outcome = OutcomeNoProfessionals
		return res, nil
	}
	if len(found) > want {
		found = found[:want]
	}

	now := o.now()
	var records []metrics.DispatchRecord
	for _, sp := range found {
		c := model.ProfessionalCandidate{
			RequestID:           requestID,
			ProfessionalID:      sp.Professional.ID,
			DistanceKm:          sp.DistanceKm,
			EstimatedArrivalMin: geo.ArrivalMinutes(sp.DistanceKm),
			Status:              model.CandidateAvailable,
			CreatedAt:           now,
		}
		if err := o.store.CreateCandidate(ctx, c); err != nil {
			if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
				// The request left pending under a concurrent cancel or
				// accept. Stop proposing; candidates created earlier in
				// this pass were superseded by that transition.
				o.logger.Warnf("dispatch of request %s short-circuited: %v", requestID, err)
				o.recordOutcome(metrics.OutcomeNoop)
				o.recordDispatch(records)
				res.Outcome = OutcomeNoop
				return res, nil
			}
			return res, fmt.Errorf("create candidate %s: %w", sp.Professional.ID, err)
		}
		res.Created = append(res.Created, c)
		o.logger.Debugw("candidate created", map[string]any{
			"request_id":      requestID,
			"professional_id": sp.Professional.ID,
			"distance_km":     sp.DistanceKm,
			"score":           sp.Score,
			"eta_min":         c.EstimatedArrivalMin,
		})
		o.publish(o.offerNotification(r, sp))
		records = append(records, metrics.DispatchRecord{
			RequestID:      requestID,
			ProfessionalID: sp.Professional.ID,
			Urgency:        r.Urgency,
			Event:          metrics.EventProposed,
			DistanceKm:     sp.DistanceKm,
			Score:          sp.Score,
			RadiusKm:       radiusKm,
			Time:           now,
		})
	}

	o.logger.Infof("dispatched request %s to %d professionals (radius %.0f km, redispatch=%t)",
		requestID, len(res.Created), radiusKm, redispatch)
	o.publish(events.RequestDispatched{
		RequestID:  requestID,
		RadiusKm:   radiusKm,
		Candidates: len(res.Created),
		Redispatch: redispatch,
	})
	o.recordOutcome(metrics.OutcomeDispatched)
	o.recordDispatch(records)

	res.Outcome = OutcomeDispatched
	return res, nil
}

// Accept resolves the acceptance race in favor of the calling
// professional. Exactly one Accept per request can succeed; late callers
// observe the candidate no longer available and get ErrInvalidState.
func (o *Orchestrator) Accept(ctx context.Context, requestID, professionalID string, proposedPrice *float64) (model.Assignment, error) {
	now := o.now()
	result, err := o.store.AcceptExclusive(ctx, requestID, professionalID, proposedPrice, now)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return model.Assignment{}, fmt.Errorf("candidate %s/%s: %w", requestID, professionalID, ErrNotFound)
		case errors.Is(err, store.ErrConflict):
			return model.Assignment{}, fmt.Errorf("request %s no longer available: %w", requestID, ErrInvalidState)
		default:
			return model.Assignment{}, fmt.Errorf("accept: %w", err)
		}
	}

	superseded := make([]string, 0, len(result.Superseded))
	var records []metrics.DispatchRecord
	records = append(records, o.candidateRecord(result.Accepted, metrics.EventAccepted, now))
	o.recordResponse(result.Accepted, now)
	o.publish(events.CandidateStatusChanged{RequestID: requestID, ProfessionalID: professionalID, Status: model.CandidateAccepted})
	for _, c := range result.Superseded {
		superseded = append(superseded, c.ProfessionalID)
		records = append(records, o.candidateRecord(c, metrics.EventSuperseded, now))
		o.publish(events.CandidateStatusChanged{RequestID: requestID, ProfessionalID: c.ProfessionalID, Status: model.CandidateSuperseded})
		o.publish(events.NotificationRequested{
			ProfessionalID: c.ProfessionalID,
			Title:          "Request taken",
			Body:           "Another professional accepted this urgent request.",
			Metadata:       map[string]string{"request_id": requestID},
		})
	}
	o.logger.Infof("request %s accepted by %s, %d candidates superseded", requestID, professionalID, len(superseded))
	o.publish(events.RequestAssigned{
		RequestID:      requestID,
		ProfessionalID: professionalID,
		AssignmentID:   result.Assignment.ID,
		Superseded:     superseded,
	})
	o.recordDispatch(records)

	// The assignment is durable at this point. Settlement runs after the
	// fact and its failure is retried by the settlement collaborator.
	if result.Assignment.AgreedPrice != nil {
		o.openEscrow(ctx, result.Assignment)
	}
	return result.Assignment, nil
}

func (o *Orchestrator) openEscrow(ctx context.Context, a model.Assignment) {
	if o.settlement == nil {
		return
	}
	deadline := o.now().Add(time.Duration(o.cfg.SettlementDeadlineHours) * time.Hour)
	escrowID, err := o.settlement.OpenEscrow(ctx, a.RequestID, *a.AgreedPrice, deadline)
	if err != nil {
		o.logger.Errorf("open escrow for request %s: %v", a.RequestID, err)
		o.publish(events.EscrowFailed{Op: "open", RequestID: a.RequestID, Err: err})
		return
	}
	if err := o.store.SetEscrow(ctx, a.ID, escrowID); err != nil {
		o.logger.Errorf("record escrow %s on assignment %s: %v", escrowID, a.ID, err)
	}
}

// Reject records the professional's refusal and emits the event the
// re-dispatch policy listens for.
func (o *Orchestrator) Reject(ctx context.Context, requestID, professionalID, reason string) error {
	now := o.now()
	err := o.store.TransitionCandidate(ctx, requestID, professionalID,
		model.CandidateAvailable, model.CandidateDeclined, reason, now)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("candidate %s/%s: %w", requestID, professionalID, ErrNotFound)
		case errors.Is(err, store.ErrConflict):
			return fmt.Errorf("candidate %s/%s already resolved: %w", requestID, professionalID, ErrInvalidState)
		default:
			return fmt.Errorf("reject: %w", err)
		}
	}
	o.logger.Infof("request %s declined by %s: %s", requestID, professionalID, reason)
	o.recordDispatch([]metrics.DispatchRecord{{
		RequestID:      requestID,
		ProfessionalID: professionalID,
		Event:          metrics.EventDeclined,
		Time:           now,
	}})
	o.publish(events.CandidateStatusChanged{RequestID: requestID, ProfessionalID: professionalID, Status: model.CandidateDeclined})
	o.publish(events.CandidateRejected{RequestID: requestID, ProfessionalID: professionalID, Reason: reason})
	return nil
}

// Cancel withdraws the request. Only the original requester may cancel,
// and only from pending or assigned. Live candidates are superseded and
// told the opportunity is gone.
func (o *Orchestrator) Cancel(ctx context.Context, requestID, requesterID string) error {
	r, err := o.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if r.RequesterID != requesterID {
		return fmt.Errorf("request %s belongs to another requester: %w", requestID, ErrNotAllowed)
	}
	if !r.Status.CanTransition(model.RequestCancelled) {
		return fmt.Errorf("request %s is %s: %w", requestID, r.Status, ErrInvalidState)
	}
	if err := o.store.TransitionRequest(ctx, requestID, r.Status, model.RequestCancelled); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("request %s changed state: %w", requestID, ErrInvalidState)
		}
		return fmt.Errorf("cancel: %w", err)
	}

	now := o.now()
	superseded, err := o.store.SupersedeAvailable(ctx, requestID, now)
	if err != nil {
		return fmt.Errorf("supersede candidates: %w", err)
	}
	notified := make([]string, 0, len(superseded))
	var records []metrics.DispatchRecord
	for _, c := range superseded {
		notified = append(notified, c.ProfessionalID)
		records = append(records, o.candidateRecord(c, metrics.EventSuperseded, now))
		o.publish(events.CandidateStatusChanged{RequestID: requestID, ProfessionalID: c.ProfessionalID, Status: model.CandidateSuperseded})
		o.publish(events.NotificationRequested{
			ProfessionalID: c.ProfessionalID,
			Title:          "Request cancelled",
			Body:           "The requester cancelled this urgent request.",
			Metadata:       map[string]string{"request_id": requestID},
		})
	}
	o.logger.Infof("request %s cancelled by requester, %d candidates notified", requestID, len(notified))
	o.recordDispatch(records)
	o.publish(events.RequestCancelled{RequestID: requestID, Notified: notified})
	return nil
}

// Complete marks the assignment done. Only the assigned professional may
// complete it; a pending escrow is released afterwards.
func (o *Orchestrator) Complete(ctx context.Context, assignmentID, professionalID string) error {
	a, err := o.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
		}
		return fmt.Errorf("assignment lookup: %w", err)
	}
	if a.ProfessionalID != professionalID {
		return fmt.Errorf("assignment %s belongs to another professional: %w", assignmentID, ErrNotAllowed)
	}
	if a.Status != model.AssignmentActive {
		return fmt.Errorf("assignment %s is %s: %w", assignmentID, a.Status, ErrInvalidState)
	}

	now := o.now()
	elapsed := int(now.Sub(a.AssignedAt).Minutes())
	if err := o.store.CompleteAssignment(ctx, assignmentID, now, elapsed); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("assignment %s changed state: %w", assignmentID, ErrInvalidState)
		}
		return fmt.Errorf("complete assignment: %w", err)
	}
	if err := o.store.TransitionRequest(ctx, a.RequestID, model.RequestAssigned, model.RequestCompleted); err != nil {
		// The request may have been cancelled between acceptance and
		// completion; the assignment record stays authoritative.
		o.logger.Warnf("request %s not transitioned to completed: %v", a.RequestID, err)
	}

	o.logger.Infof("assignment %s completed by %s in %d minutes", assignmentID, professionalID, elapsed)
	o.publish(events.RequestCompleted{RequestID: a.RequestID, AssignmentID: assignmentID, ElapsedMinutes: elapsed})

	if a.EscrowID != "" && o.settlement != nil {
		if err := o.settlement.ReleaseEscrow(ctx, a.EscrowID); err != nil {
			o.logger.Errorf("release escrow %s: %v", a.EscrowID, err)
			o.publish(events.EscrowFailed{Op: "release", RequestID: a.RequestID, Err: err})
		}
	}
	return nil
}

func (o *Orchestrator) getRequest(ctx context.Context, requestID string) (model.UrgentRequest, error) {
	r, err := o.store.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.UrgentRequest{}, fmt.Errorf("request %s: %w", requestID, ErrNotFound)
		}
		return model.UrgentRequest{}, fmt.Errorf("request lookup: %w", err)
	}
	return r, nil
}

func (o *Orchestrator) offerNotification(r model.UrgentRequest, sp match.ScoredProfessional) events.NotificationRequested {
	suggested := o.pricing.SuggestedPrice(r.Category, r.Urgency)
	return events.NotificationRequested{
		ProfessionalID: sp.Professional.ID,
		Title:          fmt.Sprintf("Urgent request %.1f km away", sp.DistanceKm),
		Body:           r.Description,
		Metadata: map[string]string{
			"request_id":      r.ID,
			"urgency":         r.Urgency.String(),
			"category":        r.Category,
			"distance_km":     fmt.Sprintf("%.2f", sp.DistanceKm),
			"suggested_price": fmt.Sprintf("%.2f", suggested),
		},
	}
}

func (o *Orchestrator) candidateRecord(c model.ProfessionalCandidate, event string, at time.Time) metrics.DispatchRecord {
	return metrics.DispatchRecord{
		RequestID:      c.RequestID,
		ProfessionalID: c.ProfessionalID,
		Event:          event,
		DistanceKm:     c.DistanceKm,
		Time:           at,
	}
}

func (o *Orchestrator) publish(e eventbus.Event) {
	if o.bus != nil {
		o.bus.Publish(e)
	}
}

func (o *Orchestrator) recordDispatch(records []metrics.DispatchRecord) {
	if len(records) == 0 {
		return
	}
	if err := o.metrics.RecordDispatch(records); err != nil {
		o.logger.Errorf("metrics error: %v", err)
	}
}

func (o *Orchestrator) recordOutcome(outcome string) {
	if rec, ok := o.metrics.(metrics.OutcomeRecorder); ok {
		if err := rec.RecordOutcome(outcome); err != nil {
			o.logger.Errorf("outcome metrics error: %v", err)
		}
	}
}

func (o *Orchestrator) recordResponse(c model.ProfessionalCandidate, at time.Time) {
	rec, ok := o.metrics.(metrics.ResponseRecorder)
	if !ok || c.CreatedAt.IsZero() {
		return
	}
	if err := rec.RecordCandidateResponse(model.CandidateAccepted, at.Sub(c.CreatedAt)); err != nil {
		o.logger.Errorf("response metrics error: %v", err)
	}
}
