package ripple

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tap30/ripple-ui-go/adapters"
)

var errConnRefused = errors.New("connection refused")

type mockHTTPAdapter struct {
	mu         sync.Mutex
	offline    atomic.Bool
	failSends  int
	statusCode int
	noResponse bool
	calls      int
	probes     int
	delivered  []Event
	headers    map[string]string
	urls       []string
}

func (m *mockHTTPAdapter) Send(_ context.Context, url string, event Event, headers map[string]string) (*HTTPResponse, error) {
	if _, err := json.Marshal(event); err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.headers = headers
	m.urls = append(m.urls, url)

	if m.offline.Load() {
		return nil, errConnRefused
	}
	if m.noResponse {
		return nil, nil
	}
	if m.failSends > 0 {
		m.failSends--
		return &HTTPResponse{Status: 503}, nil
	}
	if m.statusCode != 0 {
		return &HTTPResponse{Status: m.statusCode}, nil
	}
	m.delivered = append(m.delivered, event)
	return &HTTPResponse{Status: 202, OK: true}, nil
}

func (m *mockHTTPAdapter) Probe(_ context.Context, url string) (*HTTPResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes++
	if m.offline.Load() {
		return nil, errConnRefused
	}
	return &HTTPResponse{Status: 200, OK: true}, nil
}

func (m *mockHTTPAdapter) deliveredTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.delivered))
	for _, e := range m.delivered {
		types = append(types, e.EventType)
	}
	return types
}

func (m *mockHTTPAdapter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestDispatcher(t *testing.T, httpAdapter HTTPAdapter, config DispatcherConfig) *Dispatcher {
	t.Helper()
	if config.Endpoint == "" {
		config.Endpoint = "http://test.com"
	}
	d, err := NewDispatcher(config, httpAdapter, adapters.NewNoOpLoggerAdapter())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func clickEvent(eventType string) Event {
	return Event{EventType: eventType, ComponentType: ComponentButton, Timestamp: time.Now().UnixMilli()}
}

func TestNewDispatcher(t *testing.T) {
	t.Run("should require an endpoint", func(t *testing.T) {
		_, err := NewDispatcher(DispatcherConfig{}, &mockHTTPAdapter{}, nil)
		assert.ErrorIs(t, err, ErrMissingEndpoint)
	})

	t.Run("should reject a malformed endpoint", func(t *testing.T) {
		_, err := NewDispatcher(DispatcherConfig{Endpoint: "http://[::1"}, &mockHTTPAdapter{}, nil)
		assert.Error(t, err)
	})

	t.Run("should apply defaults", func(t *testing.T) {
		d := newTestDispatcher(t, &mockHTTPAdapter{}, DispatcherConfig{Endpoint: "http://test.com/collector"})

		assert.Equal(t, DefaultMaxRetries, d.config.MaxRetries)
		assert.Equal(t, DefaultRetryInterval, d.config.RetryInterval)
		assert.Equal(t, "http://test.com/collector/events", d.eventsURL)
		assert.Equal(t, "http://test.com/collector/health", d.healthURL)
	})
}

func TestDispatcher_TrackDelivers(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
		Headers: map[string]string{"X-API-Key": "secret"},
	})

	require.NoError(t, d.Track(context.Background(), clickEvent("e1")))

	assert.Equal(t, []string{"e1"}, httpAdapter.deliveredTypes())
	assert.Equal(t, "secret", httpAdapter.headers["X-API-Key"])
	assert.Equal(t, []string{"http://test.com/events"}, httpAdapter.urls)
	assert.True(t, d.Online())
	assert.Zero(t, d.Pending())
}

func TestDispatcher_InitialProbe(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{})
	assert.False(t, d.Online())

	d.Start()

	assert.Eventually(t, d.Online, time.Second, 5*time.Millisecond)
}

func TestDispatcher_RetryPreservesOrder(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.offline.Store(true)
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
		RetryEnabled:  true,
		RetryInterval: 5 * time.Millisecond,
	})
	d.Start()

	for _, name := range []string{"e1", "e2", "e3"} {
		require.NoError(t, d.Track(context.Background(), clickEvent(name)))
	}
	assert.Equal(t, 3, d.Pending())
	assert.False(t, d.Online())

	// probe keeps failing: nothing is drained or dropped
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 3, d.Pending())
	assert.Empty(t, httpAdapter.deliveredTypes())

	httpAdapter.offline.Store(false)

	require.Eventually(t, func() bool {
		return len(httpAdapter.deliveredTypes()) == 3
	}, time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []string{"e1", "e2", "e3"}, httpAdapter.deliveredTypes())
	assert.Zero(t, d.Pending())
	assert.True(t, d.Online())
}

func TestDispatcher_RetryAfterTransientFailures(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{failSends: 2}
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
		RetryEnabled:  true,
		RetryInterval: 50 * time.Millisecond,
	})
	d.Start()

	for _, name := range []string{"e1", "e2", "e3"} {
		require.NoError(t, d.Track(context.Background(), clickEvent(name)))
	}

	require.Eventually(t, func() bool {
		return len(httpAdapter.deliveredTypes()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	// e3 went straight through; e1 and e2 follow in their enqueue order
	assert.Equal(t, []string{"e3", "e1", "e2"}, httpAdapter.deliveredTypes())
	assert.Equal(t, 5, httpAdapter.callCount())
}

func TestDispatcher_RetryCeiling(t *testing.T) {
	t.Run("drops after MaxRetries failed re-sends", func(t *testing.T) {
		httpAdapter := &mockHTTPAdapter{statusCode: 500}
		d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
			RetryEnabled:  true,
			MaxRetries:    2,
			RetryInterval: 5 * time.Millisecond,
		})
		d.Start()

		require.NoError(t, d.Track(context.Background(), clickEvent("e1")))

		require.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, 5*time.Millisecond)
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, 3, httpAdapter.callCount(), "one send plus two retries")
	})

	t.Run("negative MaxRetries retries forever", func(t *testing.T) {
		httpAdapter := &mockHTTPAdapter{statusCode: 500}
		d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
			RetryEnabled:  true,
			MaxRetries:    -1,
			RetryInterval: 2 * time.Millisecond,
		})
		d.Start()

		require.NoError(t, d.Track(context.Background(), clickEvent("e1")))

		require.Eventually(t, func() bool { return httpAdapter.callCount() >= 6 }, time.Second, 5*time.Millisecond)
		assert.Eventually(t, func() bool { return d.Pending() == 1 }, time.Second, time.Millisecond)
	})
}

func TestDispatcher_RetryDisabled(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.offline.Store(true)
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{RetryEnabled: false})

	assert.NoError(t, d.Track(context.Background(), clickEvent("e1")))
	assert.Zero(t, d.Pending())
}

func TestDispatcher_EncodeErrorIsReported(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{RetryEnabled: true})

	event := clickEvent("e1")
	event.Metadata = map[string]any{"bad": make(chan int)}

	err := d.Track(context.Background(), event)
	var typeErr *json.UnsupportedTypeError
	assert.ErrorAs(t, err, &typeErr)
	assert.Zero(t, d.Pending())
}

func TestDispatcher_Flush(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.offline.Store(true)
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
		RetryEnabled:  true,
		RetryInterval: time.Hour,
	})
	d.Start()

	require.NoError(t, d.Track(context.Background(), clickEvent("e1")))
	require.NoError(t, d.Track(context.Background(), clickEvent("e2")))
	require.Equal(t, 2, d.Pending())

	httpAdapter.offline.Store(false)
	d.Flush(context.Background())

	assert.Equal(t, []string{"e1", "e2"}, httpAdapter.deliveredTypes())
	assert.Zero(t, d.Pending())
}

func TestDispatcher_FlushFailureRequeues(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.offline.Store(true)
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
		RetryEnabled:  true,
		RetryInterval: time.Hour,
	})

	require.NoError(t, d.Track(context.Background(), clickEvent("e1")))
	d.Flush(context.Background())

	assert.Equal(t, 1, d.Pending())
	assert.Equal(t, 2, httpAdapter.callCount())
}

func TestDispatcher_CloseDropsQueue(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.offline.Store(true)
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
		RetryEnabled:  true,
		RetryInterval: time.Hour,
	})
	d.Start()

	require.NoError(t, d.Track(context.Background(), clickEvent("e1")))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.Zero(t, d.Pending())

	// after Close failures are no longer queued
	require.NoError(t, d.Track(context.Background(), clickEvent("e2")))
	assert.Zero(t, d.Pending())
}

func TestDispatcher_AsScopeAdapter(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{})
	root := newTestRoot(d, Context{AppVersion: "2.1.0"})

	root.Enter(Context{View: "search"}).Track(context.Background(), button(EventClick))

	httpAdapter.mu.Lock()
	defer httpAdapter.mu.Unlock()
	require.Len(t, httpAdapter.delivered, 1)
	assert.Equal(t, "2.1.0", httpAdapter.delivered[0].Context.AppVersion)
	assert.Equal(t, "search", httpAdapter.delivered[0].Context.View)
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{Status: 500}
	assert.Equal(t, "HTTP request failed with status 500", err.Error())
}

func TestDispatcher_RetriesWithoutStart(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.offline.Store(true)
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
		RetryEnabled:  true,
		RetryInterval: 5 * time.Millisecond,
	})
	root := newTestRoot(d, Context{})

	root.Track(context.Background(), button(EventClick))
	require.Equal(t, 1, d.Pending())

	httpAdapter.offline.Store(false)

	require.Eventually(t, func() bool {
		return len(httpAdapter.deliveredTypes()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{EventClick}, httpAdapter.deliveredTypes())
	assert.Zero(t, d.Pending())
}

func TestDispatcher_NilResponseIsAFailure(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{noResponse: true}
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
		RetryEnabled:  true,
		RetryInterval: time.Hour,
	})

	assert.NotPanics(t, func() {
		assert.NoError(t, d.Track(context.Background(), clickEvent("e1")))
	})
	assert.Equal(t, 1, d.Pending())

	assert.NotPanics(t, func() { d.Flush(context.Background()) })
	assert.Equal(t, 1, d.Pending())
}

func TestDispatcher_TrackRacingClose(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.offline.Store(true)
	d := newTestDispatcher(t, httpAdapter, DispatcherConfig{
		RetryEnabled:  true,
		RetryInterval: time.Hour,
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = d.Track(context.Background(), clickEvent(fmt.Sprintf("e%d-%d", i, j)))
			}
		}(i)
	}
	require.NoError(t, d.Close())
	wg.Wait()

	assert.Zero(t, d.Pending(), "nothing stays queued once closed")
}
