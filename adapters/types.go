package adapters

import (
	"errors"
)

var (
	// ErrMissingEventType is returned when an event has no event type.
	ErrMissingEventType = errors.New("eventType is required")
	// ErrMissingComponentType is returned when an event has no component type.
	ErrMissingComponentType = errors.New("componentType is required")
)

// Context is the descriptive data attached to an event at tracking time.
// An empty string field means the field was not contributed.
type Context struct {
	View       string         `json:"view,omitempty"`
	Section    string         `json:"section,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	AppVersion string         `json:"appVersion,omitempty"`
	Custom     map[string]any `json:"custom,omitempty"`
}

// Overlay returns c with every field contributed by inner laid over it.
// Custom is merged key by key, inner keys winning. The result shares no map
// with c or inner.
func (c Context) Overlay(inner Context) Context {
	out := c
	if inner.View != "" {
		out.View = inner.View
	}
	if inner.Section != "" {
		out.Section = inner.Section
	}
	if inner.SessionID != "" {
		out.SessionID = inner.SessionID
	}
	if inner.UserID != "" {
		out.UserID = inner.UserID
	}
	if inner.Channel != "" {
		out.Channel = inner.Channel
	}
	if inner.AppVersion != "" {
		out.AppVersion = inner.AppVersion
	}

	out.Custom = nil
	if len(c.Custom)+len(inner.Custom) > 0 {
		out.Custom = make(map[string]any, len(c.Custom)+len(inner.Custom))
		for k, v := range c.Custom {
			out.Custom[k] = copyValue(v)
		}
		for k, v := range inner.Custom {
			out.Custom[k] = copyValue(v)
		}
	}
	return out
}

// IsZero reports whether no field is set.
func (c Context) IsZero() bool {
	return c.View == "" && c.Section == "" && c.SessionID == "" && c.UserID == "" &&
		c.Channel == "" && c.AppVersion == "" && len(c.Custom) == 0
}

// Clone returns a copy of c that shares no map or slice with it.
func (c Context) Clone() Context {
	out := c
	out.Custom = copyMap(c.Custom)
	return out
}

// PartialEvent is what a UI control builds on interaction. Timestamp and
// context are assigned when the event is tracked.
type PartialEvent struct {
	EventType     string
	ComponentType string
	ComponentID   string
	Metadata      map[string]any
}

// Event represents a finalized analytics event.
type Event struct {
	EventType     string         `json:"eventType"`
	ComponentType string         `json:"componentType"`
	ComponentID   string         `json:"componentId,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Timestamp     int64          `json:"timestamp"`
	Context       *Context       `json:"context,omitempty"`
}

// Validate checks that the required fields are present.
func (e Event) Validate() error {
	if e.EventType == "" {
		return ErrMissingEventType
	}
	if e.ComponentType == "" {
		return ErrMissingComponentType
	}
	return nil
}

// Clone returns a copy of e sharing no maps or slices with it.
func (e Event) Clone() Event {
	out := e
	out.Metadata = copyMap(e.Metadata)
	if e.Context != nil {
		ctx := e.Context.Clone()
		out.Context = &ctx
	}
	return out
}

// Finalize builds the immutable event for p at timestamp ts with the resolved
// context. Metadata and context are copied all the way down, so the caller
// may keep mutating its maps.
func Finalize(p PartialEvent, ts int64, ctx Context) Event {
	event := Event{
		EventType:     p.EventType,
		ComponentType: p.ComponentType,
		ComponentID:   p.ComponentID,
		Timestamp:     ts,
	}
	event.Metadata = copyMap(p.Metadata)
	if !ctx.IsZero() {
		resolved := ctx.Clone()
		event.Context = &resolved
	}
	return event
}

// copyMap copies m and every map[string]any and []any nested in it.
// Other values are copied as is.
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return copyMap(v)
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		if v == nil {
			return v
		}
		return append([]string(nil), v...)
	default:
		return v
	}
}
