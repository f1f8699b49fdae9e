package ripple

import (
	"context"
	"time"
)

// Component types.
const (
	ComponentButton     = "button"
	ComponentTextInput  = "text-input"
	ComponentDatePicker = "date-picker"
	ComponentModal      = "modal"
)

// Event types.
const (
	EventClick  = "click"
	EventFocus  = "focus"
	EventBlur   = "blur"
	EventChange = "change"
	EventOpen   = "open"
	EventClose  = "close"
	EventSelect = "select"
)

// Button emits click events.
type Button struct {
	ID       string
	Label    string
	Disabled bool
}

func (b Button) emitter() Emitter {
	return Emitter{ComponentType: ComponentButton, ComponentID: b.ID, Disabled: b.Disabled}
}

// Click records a click.
func (b Button) Click(ctx context.Context) {
	var meta map[string]any
	if b.Label != "" {
		meta = map[string]any{"label": b.Label}
	}
	b.emitter().Emit(ctx, EventClick, meta)
}

// TextInput emits focus, blur and change events. The typed value is never
// sent, only its length.
type TextInput struct {
	ID       string
	Name     string
	Disabled bool
}

func (t TextInput) emitter() Emitter {
	return Emitter{ComponentType: ComponentTextInput, ComponentID: t.ID, Disabled: t.Disabled}
}

func (t TextInput) meta() map[string]any {
	if t.Name == "" {
		return nil
	}
	return map[string]any{"name": t.Name}
}

// Focus records the input gaining focus.
func (t TextInput) Focus(ctx context.Context) {
	t.emitter().Emit(ctx, EventFocus, t.meta())
}

// Blur records the input losing focus.
func (t TextInput) Blur(ctx context.Context) {
	t.emitter().Emit(ctx, EventBlur, t.meta())
}

// Change records an edit.
func (t TextInput) Change(ctx context.Context, value string) {
	meta := t.meta()
	if meta == nil {
		meta = make(map[string]any, 1)
	}
	meta["valueLength"] = len([]rune(value))
	t.emitter().Emit(ctx, EventChange, meta)
}

// DatePicker emits open, select and close events.
type DatePicker struct {
	ID       string
	Disabled bool
}

func (d DatePicker) emitter() Emitter {
	return Emitter{ComponentType: ComponentDatePicker, ComponentID: d.ID, Disabled: d.Disabled}
}

// Open records the calendar popup opening.
func (d DatePicker) Open(ctx context.Context) {
	d.emitter().Emit(ctx, EventOpen, nil)
}

// Select records a picked date.
func (d DatePicker) Select(ctx context.Context, date time.Time) {
	d.emitter().Emit(ctx, EventSelect, map[string]any{"date": date.Format(time.DateOnly)})
}

// Close records the calendar popup closing.
func (d DatePicker) Close(ctx context.Context) {
	d.emitter().Emit(ctx, EventClose, nil)
}

// Modal emits open and close events.
type Modal struct {
	ID       string
	Disabled bool
}

func (m Modal) emitter() Emitter {
	return Emitter{ComponentType: ComponentModal, ComponentID: m.ID, Disabled: m.Disabled}
}

// Open records the modal opening.
func (m Modal) Open(ctx context.Context) {
	m.emitter().Emit(ctx, EventOpen, nil)
}

// Close records the modal closing, e.g. with reason "backdrop" or "confirm".
func (m Modal) Close(ctx context.Context, reason string) {
	var meta map[string]any
	if reason != "" {
		meta = map[string]any{"reason": reason}
	}
	m.emitter().Emit(ctx, EventClose, meta)
}
