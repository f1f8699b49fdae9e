package ripple

import (
	"container/list"
	"sync"
)

// Queue represents a thread-safe FIFO queue.
type Queue[T any] struct {
	mu   sync.Mutex
	list *list.List
}

// NewQueue creates and returns a new empty Queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{list: list.New()}
}

// Enqueue adds an item to the end of the queue.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list.PushBack(item)
}

// Drain returns every queued item in order and empties the queue in one
// step, so items enqueued concurrently land either in the snapshot or in
// the queue, never both.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.toSliceLocked()
	q.list.Init()
	return items
}

// IsEmpty reports whether the queue has no elements.
func (q *Queue[T]) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.list.Len() == 0
}

// Len returns the number of items currently in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.list.Len()
}

func (q *Queue[T]) toSliceLocked() []T {
	items := make([]T, 0, q.list.Len())
	for e := q.list.Front(); e != nil; e = e.Next() {
		items = append(items, e.Value.(T))
	}
	return items
}
