// Package settlement defines the hand-off contract to the payment
// subsystem. The engine opens an escrow when a price is agreed and
// releases it on completion; capture, commission and refunds are the
// settlement subsystem's business.
package settlement

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the settlement gateway cannot be
// reached. Callers must treat it as retryable and never roll back the
// state transition that preceded the call.
var ErrUnavailable = errors.New("settlement: gateway unavailable")

// Gateway opens and releases escrowed payments.
type Gateway interface {
	// OpenEscrow creates a held payment for the request and returns the
	// escrow identifier. deadline is the settlement deadline.
	OpenEscrow(ctx context.Context, requestID string, amount float64, deadline time.Time) (string, error)
	// ReleaseEscrow releases a previously opened escrow to the
	// professional.
	ReleaseEscrow(ctx context.Context, escrowID string) error
}
