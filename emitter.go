package ripple

import "context"

// Emitter turns UI interactions of one control into partial events and
// passes them to the nearest scope in ctx. It never fails and never blocks
// on a missing scope.
type Emitter struct {
	ComponentType string
	ComponentID   string
	// Disabled opts this control out of analytics.
	Disabled bool
}

// Emit tracks eventType with metadata through the scope in ctx.
func (e Emitter) Emit(ctx context.Context, eventType string, metadata map[string]any) {
	if e.Disabled {
		return
	}
	FromContext(ctx).Track(ctx, PartialEvent{
		EventType:     eventType,
		ComponentType: e.ComponentType,
		ComponentID:   e.ComponentID,
		Metadata:      metadata,
	})
}
