package bridge

import (
	"context"
	"sync"
)

// Store keeps the most recent records for inspection.
type Store interface {
	Append(ctx context.Context, r Record) error
	// Recent returns up to limit records, oldest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// RingStore is a fixed-capacity in-memory Store. Once full, each append
// overwrites the oldest record.
type RingStore struct {
	mu    sync.Mutex
	buf   []Record
	next  int
	count int
}

var _ Store = (*RingStore)(nil)

// NewRingStore creates a RingStore holding up to capacity records.
func NewRingStore(capacity int) *RingStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingStore{buf: make([]Record, capacity)}
}

// Append stores r, evicting the oldest record when full.
func (s *RingStore) Append(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf[s.next] = r
	s.next = (s.next + 1) % len(s.buf)
	if s.count < len(s.buf) {
		s.count++
	}
	return nil
}

// Recent returns up to limit of the newest records, oldest first.
func (s *RingStore) Recent(_ context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > s.count {
		limit = s.count
	}
	out := make([]Record, 0, limit)
	start := s.next - limit
	if start < 0 {
		start += len(s.buf)
	}
	for i := 0; i < limit; i++ {
		out = append(out, s.buf[(start+i)%len(s.buf)])
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *RingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close does nothing.
func (s *RingStore) Close() error {
	return nil
}
