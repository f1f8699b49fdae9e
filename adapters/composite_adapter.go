package adapters

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// CompositeAdapter fans every event out to a fixed set of adapters.
// Each adapter gets its own copy of the event and is invoked even when
// others fail or panic.
type CompositeAdapter struct {
	adapters []DispatchAdapter
}

var _ DispatchAdapter = (*CompositeAdapter)(nil)

// NewCompositeAdapter creates a CompositeAdapter. Nil adapters are skipped.
func NewCompositeAdapter(adapters ...DispatchAdapter) *CompositeAdapter {
	c := &CompositeAdapter{}
	for _, a := range adapters {
		if !IsNilAdapter(a) {
			c.adapters = append(c.adapters, a)
		}
	}
	return c
}

// Len returns the number of underlying adapters.
func (c *CompositeAdapter) Len() int {
	return len(c.adapters)
}

// Track delivers event to every adapter concurrently and returns the
// combined errors once all of them have returned.
func (c *CompositeAdapter) Track(ctx context.Context, event Event) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	for i, a := range c.adapters {
		i, a := i, a
		g.Go(func() error {
			if err := SafeTrack(ctx, a, event.Clone()); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("adapter %d (%T): %w", i, a, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
