package ripple

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tap30/ripple-ui-go/adapters"
)

func stringPtr(s string) *string {
	return &s
}

func createTestConfig(httpAdapter HTTPAdapter) ClientConfig {
	return ClientConfig{
		APIKey:        "test-key",
		Endpoint:      "http://test.com",
		HTTPAdapter:   httpAdapter,
		LoggerAdapter: adapters.NewNoOpLoggerAdapter(),
	}
}

func TestClient_ConfigValidation(t *testing.T) {
	t.Run("should return error if Endpoint is missing", func(t *testing.T) {
		_, err := NewClient(ClientConfig{APIKey: "test-key"})
		assert.ErrorIs(t, err, ErrMissingEndpoint)
		assert.EqualError(t, err, "endpoint must be provided in config")
	})

	t.Run("should build with only an endpoint", func(t *testing.T) {
		client, err := NewClient(ClientConfig{Endpoint: "http://test.com"})
		require.NoError(t, err)
		assert.NotNil(t, client.Scope())
		assert.NotNil(t, client.Dispatcher())
	})
}

func TestClient_InitAndDispose(t *testing.T) {
	client, err := NewClient(createTestConfig(&mockHTTPAdapter{}))
	require.NoError(t, err)

	require.NoError(t, client.Init())
	require.NoError(t, client.Init())
	assert.Eventually(t, client.Dispatcher().Online, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Dispose())
	require.NoError(t, client.Dispose())
	assert.True(t, client.Scope().Exited())
}

func TestClient_TrackThroughNestedScopes(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	config := createTestConfig(httpAdapter)
	config.Context = Context{AppVersion: "3.4.0", Channel: "web"}

	client, err := NewClient(config)
	require.NoError(t, err)
	require.NoError(t, client.Init())
	defer client.Dispose()

	ctx := client.WithScope(context.Background())
	ctx, _ = EnterContext(ctx, ScopeConfig{Context: Context{View: "checkout"}})
	ctx, _ = EnterContext(ctx, ScopeConfig{Context: Context{Section: "payment"}})

	Button{ID: "pay"}.Click(ctx)

	httpAdapter.mu.Lock()
	defer httpAdapter.mu.Unlock()
	require.Len(t, httpAdapter.delivered, 1)
	got := httpAdapter.delivered[0]
	assert.Equal(t, "pay", got.ComponentID)
	assert.Equal(t, Context{AppVersion: "3.4.0", Channel: "web", View: "checkout", Section: "payment"}, *got.Context)
	assert.Equal(t, "test-key", httpAdapter.headers["X-API-Key"])
}

func TestClient_CustomAPIKeyHeader(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	config := createTestConfig(httpAdapter)
	config.APIKeyHeader = stringPtr("Authorization")

	client, err := NewClient(config)
	require.NoError(t, err)

	client.Track(context.Background(), button(EventClick))

	httpAdapter.mu.Lock()
	defer httpAdapter.mu.Unlock()
	assert.Equal(t, "test-key", httpAdapter.headers["Authorization"])
	assert.NotContains(t, httpAdapter.headers, "X-API-Key")
}

func TestClient_ExtraAdapters(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.offline.Store(true)
	mirror := adapters.NewMemoryAdapter()
	config := createTestConfig(httpAdapter)
	config.Adapters = []DispatchAdapter{mirror}

	client, err := NewClient(config)
	require.NoError(t, err)

	client.Track(context.Background(), button(EventClick))

	// the mirror still sees the event while the collector is down
	assert.Equal(t, 1, mirror.Len())
}

func TestClient_FlushRetriesQueue(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.offline.Store(true)
	config := createTestConfig(httpAdapter)
	config.RetryEnabled = true
	config.RetryInterval = time.Hour

	client, err := NewClient(config)
	require.NoError(t, err)
	require.NoError(t, client.Init())
	defer client.Dispose()

	client.Track(context.Background(), button(EventClick))
	require.Equal(t, 1, client.Dispatcher().Pending())

	httpAdapter.offline.Store(false)
	client.Flush(context.Background())

	assert.Equal(t, []string{EventClick}, httpAdapter.deliveredTypes())
}

func TestClient_DisposeBeforeInitStopsRetryWorker(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.offline.Store(true)
	config := createTestConfig(httpAdapter)
	config.RetryEnabled = true
	config.RetryInterval = time.Hour

	client, err := NewClient(config)
	require.NoError(t, err)

	// queuing starts the worker without Init
	client.Track(context.Background(), button(EventClick))
	require.Equal(t, 1, client.Dispatcher().Pending())

	require.NoError(t, client.Dispose())
	assert.Zero(t, client.Dispatcher().Pending())
	assert.True(t, client.Scope().Exited())
}
