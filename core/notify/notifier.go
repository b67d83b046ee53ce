// Package notify defines the outbound notification contract. Delivery is
// multi-channel (push, email, SMS, in-app) behind a single gateway and is
// always best-effort: a failed delivery never affects dispatch state.
package notify

import (
	"context"
	"errors"
)

// ErrDeliveryFailed is returned when the gateway could not deliver on
// any channel.
var ErrDeliveryFailed = errors.New("notify: delivery failed")

// Notifier delivers a message to one professional.
type Notifier interface {
	Notify(ctx context.Context, professionalID, title, body string, metadata map[string]string) error
}
