// Package memory provides the in-memory implementation of the dispatch
// persistence contracts. Every conditional transition runs under one
// lock, which is what makes the acceptance race resolve to a single
// winner. It backs the tests and the demo command; a SQL-backed
// implementation is the production extension point.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oficiosya/dispatch/core/model"
	"github.com/oficiosya/dispatch/core/store"
)

// Store keeps requests, candidates, assignments and the professional
// directory in process memory.
type Store struct {
	mu            sync.Mutex
	requests      map[string]*model.UrgentRequest
	candidates    map[string][]*model.ProfessionalCandidate
	assignments   map[string]*model.Assignment
	byRequest     map[string]string // request ID → assignment ID
	professionals map[string]model.ProfessionalSnapshot

	newID func() string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		requests:      make(map[string]*model.UrgentRequest),
		candidates:    make(map[string][]*model.ProfessionalCandidate),
		assignments:   make(map[string]*model.Assignment),
		byRequest:     make(map[string]string),
		professionals: make(map[string]model.ProfessionalSnapshot),
		newID:         uuid.NewString,
	}
}

// CreateRequest stores a new request.
func (s *Store) CreateRequest(_ context.Context, r model.UrgentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; ok {
		return store.ErrConflict
	}
	cp := r
	s.requests[r.ID] = &cp
	return nil
}

// GetRequest returns a copy of the request.
func (s *Store) GetRequest(_ context.Context, id string) (model.UrgentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return model.UrgentRequest{}, store.ErrNotFound
	}
	return *r, nil
}

// TransitionRequest conditionally moves the request between statuses.
func (s *Store) TransitionRequest(_ context.Context, id string, from, to model.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	if r.Status != from {
		return store.ErrConflict
	}
	r.Status = to
	return nil
}

// PendingRequests returns copies of every pending request.
func (s *Store) PendingRequests(_ context.Context) ([]model.UrgentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.UrgentRequest
	for _, r := range s.requests {
		if r.Status == model.RequestPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

// CreateCandidate stores a new candidate record. The request must still
// be pending; checking that under the same lock is what keeps a
// concurrent cancel from acquiring candidates it can no longer
// supersede.
func (s *Store) CreateCandidate(_ context.Context, c model.ProfessionalCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[c.RequestID]
	if !ok {
		return store.ErrNotFound
	}
	if r.Status != model.RequestPending {
		return store.ErrConflict
	}
	for _, existing := range s.candidates[c.RequestID] {
		if existing.ProfessionalID == c.ProfessionalID {
			return store.ErrConflict
		}
	}
	cp := c
	s.candidates[c.RequestID] = append(s.candidates[c.RequestID], &cp)
	return nil
}

// ListCandidates returns copies of the candidates for a request.
func (s *Store) ListCandidates(_ context.Context, requestID string) ([]model.ProfessionalCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.candidates[requestID]
	out := make([]model.ProfessionalCandidate, 0, len(list))
	for _, c := range list {
		out = append(out, *c)
	}
	return out, nil
}

// IsCandidate reports whether the professional has a candidate record
// for the request, in any status.
func (s *Store) IsCandidate(_ context.Context, requestID, professionalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.candidates[requestID] {
		if c.ProfessionalID == professionalID {
			return true, nil
		}
	}
	return false, nil
}

// TransitionCandidate conditionally moves a candidate between statuses
// and records the response metadata.
func (s *Store) TransitionCandidate(_ context.Context, requestID, professionalID string, from, to model.CandidateStatus, notes string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCandidate(requestID, professionalID)
	if c == nil {
		return store.ErrNotFound
	}
	if c.Status != from {
		return store.ErrConflict
	}
	c.Status = to
	if notes != "" {
		c.Notes = notes
	}
	ts := at
	c.RespondedAt = &ts
	return nil
}

// SupersedeAvailable transitions every available candidate of the
// request to superseded.
func (s *Store) SupersedeAvailable(_ context.Context, requestID string, at time.Time) ([]model.ProfessionalCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supersedeLocked(requestID, "", at), nil
}

// AcceptExclusive resolves the acceptance race: the whole transaction
// runs under the store lock, so concurrent callers for the same request
// see exactly one success.
func (s *Store) AcceptExclusive(_ context.Context, requestID, professionalID string, price *float64, now time.Time) (store.AcceptResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findCandidate(requestID, professionalID)
	if c == nil {
		return store.AcceptResult{}, store.ErrNotFound
	}
	r, ok := s.requests[requestID]
	if !ok {
		return store.AcceptResult{}, store.ErrNotFound
	}
	if c.Status != model.CandidateAvailable || r.Status != model.RequestPending {
		return store.AcceptResult{}, store.ErrConflict
	}
	if _, taken := s.byRequest[requestID]; taken {
		return store.AcceptResult{}, store.ErrConflict
	}

	ts := now
	c.Status = model.CandidateAccepted
	c.RespondedAt = &ts
	if price != nil {
		p := *price
		c.ProposedPrice = &p
	}
	superseded := s.supersedeLocked(requestID, professionalID, now)
	r.Status = model.RequestAssigned

	a := &model.Assignment{
		ID:             s.newID(),
		RequestID:      requestID,
		ProfessionalID: professionalID,
		AssignedAt:     now,
		Status:         model.AssignmentActive,
	}
	if price != nil {
		p := *price
		a.AgreedPrice = &p
	}
	s.assignments[a.ID] = a
	s.byRequest[requestID] = a.ID

	return store.AcceptResult{Accepted: *c, Superseded: superseded, Assignment: *a}, nil
}

// GetAssignment returns a copy of the assignment.
func (s *Store) GetAssignment(_ context.Context, id string) (model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return model.Assignment{}, store.ErrNotFound
	}
	return *a, nil
}

// AssignmentForRequest returns the assignment bound to the request.
func (s *Store) AssignmentForRequest(_ context.Context, requestID string) (model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byRequest[requestID]
	if !ok {
		return model.Assignment{}, store.ErrNotFound
	}
	return *s.assignments[id], nil
}

// CompleteAssignment conditionally moves the assignment to completed.
func (s *Store) CompleteAssignment(_ context.Context, id string, completedAt time.Time, elapsedMinutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return store.ErrNotFound
	}
	if a.Status != model.AssignmentActive {
		return store.ErrConflict
	}
	ts := completedAt
	a.Status = model.AssignmentCompleted
	a.CompletedAt = &ts
	a.ElapsedMinutes = elapsedMinutes
	return nil
}

// SetEscrow records the escrow identifier on the assignment.
func (s *Store) SetEscrow(_ context.Context, assignmentID, escrowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[assignmentID]
	if !ok {
		return store.ErrNotFound
	}
	a.EscrowID = escrowID
	return nil
}

// UpsertProfessional adds or replaces a snapshot in the directory.
func (s *Store) UpsertProfessional(p model.ProfessionalSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.professionals[p.ID] = p
}

// Professionals implements the match.Directory working set.
func (s *Store) Professionals(_ context.Context) ([]model.ProfessionalSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ProfessionalSnapshot, 0, len(s.professionals))
	for _, p := range s.professionals {
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) findCandidate(requestID, professionalID string) *model.ProfessionalCandidate {
	for _, c := range s.candidates[requestID] {
		if c.ProfessionalID == professionalID {
			return c
		}
	}
	return nil
}

// supersedeLocked transitions every available candidate except the one
// belonging to keep. Caller holds the lock.
func (s *Store) supersedeLocked(requestID, keep string, at time.Time) []model.ProfessionalCandidate {
	var out []model.ProfessionalCandidate
	for _, c := range s.candidates[requestID] {
		if c.ProfessionalID == keep || c.Status != model.CandidateAvailable {
			continue
		}
		ts := at
		c.Status = model.CandidateSuperseded
		c.RespondedAt = &ts
		out = append(out, *c)
	}
	return out
}
