package ripple

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_EnqueueDrainPreservesOrder(t *testing.T) {
	q := NewQueue[Event]()
	q.Enqueue(Event{EventType: "click"})
	q.Enqueue(Event{EventType: "focus"})

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "click", drained[0].EventType)
	assert.Equal(t, "focus", drained[1].EventType)
}

func TestQueue_IsEmpty(t *testing.T) {
	q := NewQueue[int]()
	assert.True(t, q.IsEmpty())
	q.Enqueue(1)
	assert.False(t, q.IsEmpty())
}

func TestQueue_Len(t *testing.T) {
	q := NewQueue[int]()
	assert.Equal(t, 0, q.Len())
	q.Enqueue(1)
	q.Enqueue(2)
	assert.Equal(t, 2, q.Len())
}

func TestQueue_Drain(t *testing.T) {
	q := NewQueue[int]()
	q.Enqueue(1)
	q.Enqueue(2)

	assert.Equal(t, []int{1, 2}, q.Drain())
	assert.True(t, q.IsEmpty())
	assert.Empty(t, q.Drain())
}

func TestQueue_DrainConcurrentEnqueue(t *testing.T) {
	q := NewQueue[int]()
	const total = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			q.Enqueue(i)
		}
	}()

	var seen []int
	for len(seen) < total {
		seen = append(seen, q.Drain()...)
	}
	wg.Wait()

	require.Len(t, seen, total)
	for i, v := range seen {
		assert.Equal(t, i, v)
	}
}
