package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	coresettlement "github.com/oficiosya/dispatch/core/settlement"
)

// EscrowState is the lifecycle state of a mock escrow.
type EscrowState string

const (
	EscrowPending  EscrowState = "pending"
	EscrowReleased EscrowState = "released"
)

// MockEscrow is one escrow record held by the mock gateway.
type MockEscrow struct {
	ID        string
	RequestID string
	Amount    float64
	Deadline  time.Time
	State     EscrowState
}

// MockGateway implements the settlement gateway in memory for tests.
type MockGateway struct {
	mu      sync.Mutex
	escrows map[string]*MockEscrow
	Fail    bool
}

// NewMockGateway creates a MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{escrows: make(map[string]*MockEscrow)}
}

// OpenEscrow records a pending escrow.
func (m *MockGateway) OpenEscrow(_ context.Context, requestID string, amount float64, deadline time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return "", coresettlement.ErrUnavailable
	}
	e := &MockEscrow{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Amount:    amount,
		Deadline:  deadline,
		State:     EscrowPending,
	}
	m.escrows[e.ID] = e
	return e.ID, nil
}

// ReleaseEscrow releases a pending escrow.
func (m *MockGateway) ReleaseEscrow(_ context.Context, escrowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return coresettlement.ErrUnavailable
	}
	e, ok := m.escrows[escrowID]
	if !ok {
		return fmt.Errorf("unknown escrow %s", escrowID)
	}
	e.State = EscrowReleased
	return nil
}

// Escrow returns a copy of the escrow record.
func (m *MockGateway) Escrow(escrowID string) (MockEscrow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.escrows[escrowID]
	if !ok {
		return MockEscrow{}, false
	}
	return *e, true
}
