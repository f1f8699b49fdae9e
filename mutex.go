package ripple

import "sync"

// Mutex runs tasks under mutual exclusion. The dispatcher uses it so that a
// manual Flush and the retry worker never drain the queue at the same time.
type Mutex struct {
	mu sync.Mutex
}

// NewMutex creates a new mutex
func NewMutex() *Mutex {
	return &Mutex{}
}

// RunAtomic executes a task with exclusive lock
func (m *Mutex) RunAtomic(task func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return task()
}

// TryRunAtomic executes task only if the lock is free and reports whether it ran.
func (m *Mutex) TryRunAtomic(task func()) bool {
	if !m.mu.TryLock() {
		return false
	}
	defer m.mu.Unlock()
	task()
	return true
}
