package ripple

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Tap30/ripple-ui-go/adapters"
)

// ScopeConfig describes one composition layer.
type ScopeConfig struct {
	// Context is this layer's contribution. It is copied on entry.
	Context Context
	// Adapter, when set, receives every event tracked at this layer or
	// below, unless a closer layer has its own adapter.
	Adapter DispatchAdapter
	// Disabled turns tracking off for this layer and everything below it.
	Disabled bool
	// Logger is the diagnostic channel. Children inherit it when nil.
	Logger LoggerAdapter
	// Clock overrides time.Now. Only honoured on a root scope.
	Clock func() time.Time
}

// Scope is one layer in a tree of nested analytics scopes. The path from the
// root to a scope determines the context its events carry and the adapter
// that receives them.
//
// A Scope is safe for concurrent use. Its contribution never changes after
// it is entered.
type Scope struct {
	parent       *Scope
	tree         *scopeTree
	contribution Context
	adapter      DispatchAdapter
	disabled     bool
	logger       LoggerAdapter
	exited       atomic.Bool
}

type scopeTree struct {
	now  func() time.Time
	last atomic.Int64
}

// timestamp returns the current time in milliseconds, never smaller than a
// value it returned before.
func (t *scopeTree) timestamp() int64 {
	now := t.now().UnixMilli()
	for {
		last := t.last.Load()
		if now <= last {
			return last
		}
		if t.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

var _ Tracker = (*Scope)(nil)

// NewScope creates a root scope.
func NewScope(config ScopeConfig) *Scope {
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := config.Logger
	if logger == nil {
		logger = adapters.NewConsoleLoggerAdapter(adapters.LogLevelWarn)
	}
	return &Scope{
		tree:         &scopeTree{now: clock},
		contribution: config.Context.Clone(),
		adapter:      config.Adapter,
		disabled:     config.Disabled,
		logger:       logger,
	}
}

// Enter pushes a child layer contributing ctx.
func (s *Scope) Enter(ctx Context) *Scope {
	return s.EnterWith(ScopeConfig{Context: ctx})
}

// EnterWith pushes a child layer described by config. Clock is ignored.
func (s *Scope) EnterWith(config ScopeConfig) *Scope {
	logger := config.Logger
	if logger == nil {
		logger = s.logger
	}
	return &Scope{
		parent:       s,
		tree:         s.tree,
		contribution: config.Context.Clone(),
		adapter:      config.Adapter,
		disabled:     config.Disabled,
		logger:       logger,
	}
}

// Exit pops the layer. The scope and its descendants stop tracking and no
// longer contribute context. Exit is idempotent.
func (s *Scope) Exit() {
	s.exited.Store(true)
}

// Exited reports whether s or one of its ancestors has exited.
func (s *Scope) Exited() bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.exited.Load() {
			return true
		}
	}
	return false
}

// Disabled reports whether tracking is turned off at s or above.
func (s *Scope) Disabled() bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.disabled {
			return true
		}
	}
	return false
}

// Parent returns the enclosing scope, or nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Contribution returns a copy of the context this layer contributes.
func (s *Scope) Contribution() Context {
	return s.contribution.Clone()
}

// Adapter returns the adapter events tracked at s are delivered to, or nil.
func (s *Scope) Adapter() DispatchAdapter {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.adapter != nil {
			return cur.adapter
		}
	}
	return nil
}

// Resolve folds the contributions from the root down to s. Nothing is
// cached; every call sees the chain as it is now.
func (s *Scope) Resolve() Context {
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.parent {
		if cur.exited.Load() {
			return Context{}
		}
		chain = append(chain, cur)
	}

	var resolved Context
	for i := len(chain) - 1; i >= 0; i-- {
		resolved = resolved.Overlay(chain[i].contribution)
	}
	return resolved
}

// Track finalizes p with a timestamp and the resolved context and hands it
// to exactly one adapter: the nearest one on the chain. It never fails;
// problems go to the diagnostic logger.
func (s *Scope) Track(ctx context.Context, p PartialEvent) {
	if s == nil || s.Disabled() || s.Exited() {
		return
	}
	if p.EventType == "" || p.ComponentType == "" {
		s.logger.Warn("Dropping event without eventType or componentType: %+v", p)
		return
	}

	event := adapters.Finalize(p, s.tree.timestamp(), s.Resolve())

	adapter := s.Adapter()
	if adapter == nil {
		s.logger.Debug("No dispatch adapter in scope, %s/%s not delivered", event.ComponentType, event.EventType)
		return
	}
	if adapters.IsNilAdapter(adapter) {
		s.logger.Error("Malformed dispatch adapter %T, %s/%s abandoned", adapter, event.ComponentType, event.EventType)
		return
	}

	if err := adapters.SafeTrack(ctx, adapter, event); err != nil {
		s.logger.Warn("Dispatch adapter failed for %s/%s: %v", event.ComponentType, event.EventType, err)
	}
}
