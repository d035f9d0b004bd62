package adapter

import (
	"context"
	"sync"
)

// Mock implements FlagPublisher for testing.
// Each method can be configured via function fields; calls are recorded.
type Mock struct {
	PublishAvailabilityFunc func(ctx context.Context, productID string, available bool) error
	MarkSavedFunc           func(ctx context.Context, productID string) error

	mu    sync.Mutex
	calls []Call
}

// Call is one recorded Mock invocation.
type Call struct {
	Method    string
	ProductID string
	Value     bool
}

// PublishAvailability calls the configured func or succeeds.
func (m *Mock) PublishAvailability(ctx context.Context, productID string, available bool) error {
	m.record(Call{Method: "PublishAvailability", ProductID: productID, Value: available})
	if m.PublishAvailabilityFunc != nil {
		return m.PublishAvailabilityFunc(ctx, productID, available)
	}
	return nil
}

// MarkSaved calls the configured func or succeeds.
func (m *Mock) MarkSaved(ctx context.Context, productID string) error {
	m.record(Call{Method: "MarkSaved", ProductID: productID, Value: true})
	if m.MarkSavedFunc != nil {
		return m.MarkSavedFunc(ctx, productID)
	}
	return nil
}

// Calls returns a copy of the recorded calls in arrival order.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Mock) record(c Call) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

// Verify Mock implements FlagPublisher at compile time.
var _ FlagPublisher = (*Mock)(nil)
