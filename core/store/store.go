// Package store defines the persistence contracts of the dispatch
// engine. Implementations must make the conditional transitions atomic:
// a transition compares the current status before writing, and
// AcceptExclusive resolves the acceptance race in a single serializable
// operation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/oficiosya/dispatch/core/model"
)

// ErrNotFound is returned when the addressed entity does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned when a conditional transition finds the entity
// in a state that forbids it.
var ErrConflict = errors.New("store: state conflict")

// RequestStore persists urgent requests. Requests are never deleted.
type RequestStore interface {
	CreateRequest(ctx context.Context, r model.UrgentRequest) error
	GetRequest(ctx context.Context, id string) (model.UrgentRequest, error)
	// TransitionRequest moves the request from one status to another,
	// failing with ErrConflict if the current status differs from from.
	TransitionRequest(ctx context.Context, id string, from, to model.RequestStatus) error
	PendingRequests(ctx context.Context) ([]model.UrgentRequest, error)
}

// CandidateStore persists candidate records. Candidates are never
// deleted; losing candidates are superseded.
type CandidateStore interface {
	// CreateCandidate stores a new candidate record. It fails with
	// ErrNotFound when the request does not exist and ErrConflict when
	// the request is no longer pending or the professional already has a
	// candidate record; the status check must be atomic with the write so
	// a concurrent cancel either sees the candidate or forbids it.
	CreateCandidate(ctx context.Context, c model.ProfessionalCandidate) error
	ListCandidates(ctx context.Context, requestID string) ([]model.ProfessionalCandidate, error)
	IsCandidate(ctx context.Context, requestID, professionalID string) (bool, error)
	// TransitionCandidate moves the candidate from one status to another
	// and records the response metadata, failing with ErrConflict if the
	// current status differs from from.
	TransitionCandidate(ctx context.Context, requestID, professionalID string, from, to model.CandidateStatus, notes string, at time.Time) error
	// SupersedeAvailable transitions every available candidate of the
	// request to superseded and returns the transitioned records.
	SupersedeAvailable(ctx context.Context, requestID string, at time.Time) ([]model.ProfessionalCandidate, error)
}

// AssignmentStore persists assignments.
type AssignmentStore interface {
	GetAssignment(ctx context.Context, id string) (model.Assignment, error)
	// AssignmentForRequest returns the assignment bound to the request,
	// or ErrNotFound when none exists.
	AssignmentForRequest(ctx context.Context, requestID string) (model.Assignment, error)
	// CompleteAssignment moves the assignment from active to completed,
	// failing with ErrConflict otherwise.
	CompleteAssignment(ctx context.Context, id string, completedAt time.Time, elapsedMinutes int) error
	SetEscrow(ctx context.Context, assignmentID, escrowID string) error
}

// AcceptResult is the outcome of a successful exclusive acceptance.
type AcceptResult struct {
	Accepted   model.ProfessionalCandidate
	Superseded []model.ProfessionalCandidate
	Assignment model.Assignment
}

// Acceptor resolves the acceptance race. AcceptExclusive atomically
// transitions the (requestID, professionalID) candidate from available
// to accepted, supersedes every sibling still available, moves the
// request from pending to assigned and creates the assignment. It fails
// with ErrNotFound when no such candidate exists and ErrConflict when
// the candidate or the request is no longer in the required state; under
// concurrent callers exactly one succeeds.
type Acceptor interface {
	AcceptExclusive(ctx context.Context, requestID, professionalID string, price *float64, now time.Time) (AcceptResult, error)
}

// Store bundles every persistence contract the orchestrator needs.
type Store interface {
	RequestStore
	CandidateStore
	AssignmentStore
	Acceptor
}
