// Package events defines the domain events the orchestrator publishes on
// the event bus.
//
// Available event types:
//   - RequestDispatched: candidates were created for a request
//   - NotificationRequested: a message should reach a professional
//   - CandidateRejected: a candidate declined, re-dispatch may follow
//   - RequestAssigned: one candidate won the acceptance race
//   - RequestCancelled: the requester withdrew the request
//   - RequestCompleted: the assigned professional finished the job
//   - EscrowFailed: a settlement call failed after the state was committed
//   - CandidateStatusChanged: one candidate moved between statuses
package events

import "github.com/oficiosya/dispatch/core/model"

// RequestDispatched is published after a dispatch or re-dispatch pass
// created candidate records.
type RequestDispatched struct {
	RequestID  string
	RadiusKm   float64
	Candidates int
	Redispatch bool
}

// NotificationRequested asks the delivery worker to reach a professional.
// Delivery is best-effort and decoupled from the state machine.
type NotificationRequested struct {
	ProfessionalID string
	Title          string
	Body           string
	Metadata       map[string]string
}

// CandidateRejected is published when a candidate declines an offer.
type CandidateRejected struct {
	RequestID      string
	ProfessionalID string
	Reason         string
}

// RequestAssigned is published when the acceptance race is resolved.
type RequestAssigned struct {
	RequestID      string
	ProfessionalID string
	AssignmentID   string
	Superseded     []string
}

// RequestCancelled is published when the requester cancels.
type RequestCancelled struct {
	RequestID string
	Notified  []string
}

// RequestCompleted is published when the assignment is completed.
type RequestCompleted struct {
	RequestID      string
	AssignmentID   string
	ElapsedMinutes int
}

// EscrowFailed is published when a settlement call fails. The state
// transition that triggered it is already durable; retrying is the
// settlement collaborator's policy.
type EscrowFailed struct {
	Op        string // "open" or "release"
	RequestID string
	Err       error
}

// CandidateStatusChanged mirrors an individual candidate transition for
// observers such as metrics sinks.
type CandidateStatusChanged struct {
	RequestID      string
	ProfessionalID string
	Status         model.CandidateStatus
}
