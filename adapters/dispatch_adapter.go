package adapters

import (
	"context"
	"fmt"
	"reflect"
)

// DispatchAdapter is the sink capability that receives finalized events.
// Implement this interface to deliver events anywhere.
type DispatchAdapter interface {
	// Track delivers or schedules delivery of event.
	//
	// A nil error means the adapter accepted the event. Callers on the
	// tracking path log errors and never surface them to the UI.
	Track(ctx context.Context, event Event) error
}

// DispatchAdapterFunc adapts an ordinary function to DispatchAdapter.
type DispatchAdapterFunc func(ctx context.Context, event Event) error

// Track calls f(ctx, event).
func (f DispatchAdapterFunc) Track(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// IsNilAdapter reports whether a is nil or an interface holding a nil value,
// which cannot be invoked.
func IsNilAdapter(a DispatchAdapter) bool {
	if a == nil {
		return true
	}
	v := reflect.ValueOf(a)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// PanicError wraps a value recovered from a panicking adapter.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("dispatch adapter panicked: %v", e.Value)
}

// SafeTrack invokes a.Track and converts a panic into a *PanicError.
func SafeTrack(ctx context.Context, a DispatchAdapter, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return a.Track(ctx, event)
}
