package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a single send or probe.
const DefaultRequestTimeout = 10 * time.Second

// NetHTTPAdapter is the standard HTTP adapter implementation using net/http package.
type NetHTTPAdapter struct {
	client *http.Client
}

// Ensure NetHTTPAdapter implements HTTPAdapter interface
var _ HTTPAdapter = (*NetHTTPAdapter)(nil)

// NewNetHTTPAdapter creates a new NetHTTPAdapter instance.
// A zero timeout uses DefaultRequestTimeout.
func NewNetHTTPAdapter(timeout time.Duration) *NetHTTPAdapter {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &NetHTTPAdapter{
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts event as JSON to url with the given headers.
func (h *NetHTTPAdapter) Send(ctx context.Context, url string, event Event, headers map[string]string) (*HTTPResponse, error) {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return h.do(req)
}

// Probe sends a GET to url.
func (h *NetHTTPAdapter) Probe(ctx context.Context, url string) (*HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return h.do(req)
}

func (h *NetHTTPAdapter) do(req *http.Request) (*HTTPResponse, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return &HTTPResponse{
		Status: resp.StatusCode,
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
	}, nil
}
