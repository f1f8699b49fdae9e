package ripple

import (
	"errors"
	"fmt"
	"time"

	"github.com/Tap30/ripple-ui-go/adapters"
)

// Re-export adapter types for convenience
type (
	Event           = adapters.Event
	PartialEvent    = adapters.PartialEvent
	Context         = adapters.Context
	DispatchAdapter = adapters.DispatchAdapter
	HTTPAdapter     = adapters.HTTPAdapter
	HTTPResponse    = adapters.HTTPResponse
	LoggerAdapter   = adapters.LoggerAdapter
	LogLevel        = adapters.LogLevel
)

var (
	// ErrNoScope is raised by the strict accessors when no scope is attached
	// to the context.
	ErrNoScope = errors.New("ripple: no analytics scope in context")
	// ErrMissingEndpoint is returned when a dispatcher is built without an endpoint.
	ErrMissingEndpoint = errors.New("endpoint must be provided in config")
)

// HTTPError reports a non-2xx answer from the collector.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP request failed with status %d", e.Status)
}

type ClientConfig struct {
	// Endpoint is the collector base address, e.g. http://localhost:3000.
	Endpoint     string
	APIKey       string
	APIKeyHeader *string
	Debug        bool
	RetryEnabled bool
	// MaxRetries is the number of failed re-sends after which a queued event
	// is dropped. Zero means DefaultMaxRetries, negative means no ceiling.
	MaxRetries    int
	RetryInterval time.Duration
	// Context is contributed by the client's root scope.
	Context Context

	HTTPAdapter   HTTPAdapter
	LoggerAdapter LoggerAdapter
	// Adapters receive every event alongside the network dispatcher.
	Adapters []DispatchAdapter
}

type DispatcherConfig struct {
	Endpoint      string
	EventsPath    string
	HealthPath    string
	Headers       map[string]string
	Debug         bool
	RetryEnabled  bool
	MaxRetries    int
	RetryInterval time.Duration
}

const (
	DefaultEventsPath    = "/events"
	DefaultHealthPath    = "/health"
	DefaultMaxRetries    = 3
	DefaultRetryInterval = 2 * time.Second
)
