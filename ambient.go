package ripple

import "context"

// Tracker accepts partial events. *Scope and NoopTracker implement it.
type Tracker interface {
	Track(ctx context.Context, p PartialEvent)
}

// NoopTracker is the inert Tracker handed out when no scope is present.
type NoopTracker struct{}

// Track does nothing.
func (NoopTracker) Track(context.Context, PartialEvent) {}

type scopeKey struct{}

// NewContext returns a copy of ctx carrying s as the nearest scope.
func NewContext(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the nearest scope carried by ctx, if any.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok && s != nil
}

// FromContext returns the nearest scope, or a NoopTracker when ctx carries
// none. Use it where analytics is optional.
func FromContext(ctx context.Context) Tracker {
	if s, ok := ScopeFromContext(ctx); ok {
		return s
	}
	return NoopTracker{}
}

// RequireScope returns the nearest scope or ErrNoScope.
func RequireScope(ctx context.Context) (*Scope, error) {
	if s, ok := ScopeFromContext(ctx); ok {
		return s, nil
	}
	return nil, ErrNoScope
}

// MustFromContext returns the nearest scope and panics with ErrNoScope when
// there is none. Use it where analytics is mandatory.
func MustFromContext(ctx context.Context) *Scope {
	s, err := RequireScope(ctx)
	if err != nil {
		panic(err)
	}
	return s
}

// EnterContext enters a child of the scope in ctx and returns a context
// carrying it together with the child. Without a scope in ctx the child
// becomes a new root.
func EnterContext(ctx context.Context, config ScopeConfig) (context.Context, *Scope) {
	var child *Scope
	if parent, ok := ScopeFromContext(ctx); ok {
		child = parent.EnterWith(config)
	} else {
		child = NewScope(config)
	}
	return NewContext(ctx, child), child
}
