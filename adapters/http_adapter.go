package adapters

import "context"

// HTTPResponse represents the response from an HTTP request.
type HTTPResponse struct {
	OK     bool
	Status int
}

// HTTPAdapter is an interface for HTTP communication with the collector.
// Implement this interface to use custom HTTP clients.
type HTTPAdapter interface {
	// Send posts a single event to url.
	//
	// Parameters:
	//   - url: The collector events URL
	//   - event: The finalized event
	//   - headers: Optional custom headers to merge with defaults
	//
	// Returns HTTP response or error.
	Send(ctx context.Context, url string, event Event, headers map[string]string) (*HTTPResponse, error)

	// Probe issues a health check GET to url.
	Probe(ctx context.Context, url string) (*HTTPResponse, error)
}
