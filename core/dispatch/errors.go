package dispatch

import "errors"

// Caller-visible, recoverable outcomes. Downstream failures (notification
// or settlement gateways) are never surfaced through these: they are
// logged and retried by the owning collaborator, and never roll back a
// committed state transition.
var (
	// ErrNotFound reports that the request, candidate or assignment
	// does not exist.
	ErrNotFound = errors.New("dispatch: not found")

	// ErrInvalidState reports an operation attempted from a state that
	// forbids it, e.g. accepting a candidate that is no longer
	// available.
	ErrInvalidState = errors.New("dispatch: invalid state")

	// ErrNotAllowed reports that the caller does not own the entity it
	// is acting on.
	ErrNotAllowed = errors.New("dispatch: not allowed")
)
