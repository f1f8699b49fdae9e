package adapters

import (
	"context"
	"sync"
)

// MemoryAdapter records every event it receives. Useful in tests.
type MemoryAdapter struct {
	mu     sync.Mutex
	events []Event
	err    error
}

var _ DispatchAdapter = (*MemoryAdapter)(nil)

// NewMemoryAdapter creates an empty MemoryAdapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{}
}

// Track records event and returns the configured error, if any.
func (m *MemoryAdapter) Track(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

// SetError makes subsequent Track calls return err after recording.
func (m *MemoryAdapter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Events returns a copy of the recorded events in arrival order.
func (m *MemoryAdapter) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Len returns the number of recorded events.
func (m *MemoryAdapter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// Reset drops the recorded events.
func (m *MemoryAdapter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
