package model

import "time"

// Urgency classifies how quickly a request needs attention.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
)

// String returns a human-readable representation of the urgency level.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseUrgency maps a string to an Urgency. Unknown values default to medium.
func ParseUrgency(s string) Urgency {
	switch s {
	case "low":
		return UrgencyLow
	case "high":
		return UrgencyHigh
	default:
		return UrgencyMedium
	}
}

// RequestStatus is the lifecycle state of an urgent request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAssigned  RequestStatus = "assigned"
	RequestCancelled RequestStatus = "cancelled"
	RequestCompleted RequestStatus = "completed"
)

// CanTransition reports whether moving to the target status is allowed.
// Transitions are monotonic: pending→assigned→completed, and pending or
// assigned may be cancelled. Terminal states admit no transition.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	switch s {
	case RequestPending:
		return to == RequestAssigned || to == RequestCancelled
	case RequestAssigned:
		return to == RequestCompleted || to == RequestCancelled
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transition.
func (s RequestStatus) Terminal() bool {
	return s == RequestCancelled || s == RequestCompleted
}

// UrgentRequest is a time-critical service need posted by a requester.
// Requests are never deleted; they are retained for audit.
type UrgentRequest struct {
	ID             string
	RequesterID    string
	Description    string
	Lat            float64
	Lon            float64
	Urgency        Urgency
	Category       string // empty means any category
	BudgetEstimate *float64
	Status         RequestStatus
	CreatedAt      time.Time
}
