package notify

import (
	"context"
	"fmt"
	"sync"
)

// Delivery is one recorded notification.
type Delivery struct {
	ProfessionalID string
	Title          string
	Body           string
	Metadata       map[string]string
}

// MockNotifier records notifications in memory for tests.
type MockNotifier struct {
	mu         sync.Mutex
	deliveries []Delivery
	failIDs    map[string]bool
}

// NewMockNotifier creates a MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{failIDs: make(map[string]bool)}
}

// FailFor makes deliveries to the given professional fail.
func (m *MockNotifier) FailFor(professionalID string) {
	m.mu.Lock()
	m.failIDs[professionalID] = true
	m.mu.Unlock()
}

// Notify records the delivery or returns an error if configured to fail.
func (m *MockNotifier) Notify(_ context.Context, professionalID, title, body string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[professionalID] {
		return fmt.Errorf("delivery to %s failed", professionalID)
	}
	m.deliveries = append(m.deliveries, Delivery{
		ProfessionalID: professionalID,
		Title:          title,
		Body:           body,
		Metadata:       metadata,
	})
	return nil
}

// Deliveries returns a copy of the recorded deliveries.
func (m *MockNotifier) Deliveries() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Delivery, len(m.deliveries))
	copy(out, m.deliveries)
	return out
}
