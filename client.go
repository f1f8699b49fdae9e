package ripple

import (
	"context"
	"sync"

	"github.com/Tap30/ripple-ui-go/adapters"
)

// Client wires a network Dispatcher under a root Scope. It is the usual
// entry point for an application: create it once, Init it, hand its scope
// to the UI tree through WithScope and Dispose it on shutdown.
type Client struct {
	config        ClientConfig
	dispatcher    *Dispatcher
	root          *Scope
	loggerAdapter LoggerAdapter
	initialized   bool
	mu            sync.RWMutex
}

// NewClient validates config and builds the client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	logger := config.LoggerAdapter
	if logger == nil {
		level := adapters.LogLevelWarn
		if config.Debug {
			level = adapters.LogLevelDebug
		}
		logger = adapters.NewConsoleLoggerAdapter(level)
	}

	headers := map[string]string{}
	if config.APIKey != "" {
		apiKeyHeader := "X-API-Key"
		if config.APIKeyHeader != nil {
			apiKeyHeader = *config.APIKeyHeader
		}
		headers[apiKeyHeader] = config.APIKey
	}

	dispatcher, err := NewDispatcher(DispatcherConfig{
		Endpoint:      config.Endpoint,
		Headers:       headers,
		Debug:         config.Debug,
		RetryEnabled:  config.RetryEnabled,
		MaxRetries:    config.MaxRetries,
		RetryInterval: config.RetryInterval,
	}, config.HTTPAdapter, logger)
	if err != nil {
		return nil, err
	}

	var sink DispatchAdapter = dispatcher
	if len(config.Adapters) > 0 {
		sink = adapters.NewCompositeAdapter(append([]DispatchAdapter{dispatcher}, config.Adapters...)...)
	}

	return &Client{
		config:     config,
		dispatcher: dispatcher,
		root: NewScope(ScopeConfig{
			Context: config.Context,
			Adapter: sink,
			Logger:  logger,
		}),
		loggerAdapter: logger,
	}, nil
}

// Init starts the dispatcher. Calling it again is a no-op.
func (c *Client) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	c.dispatcher.Start()
	c.initialized = true
	c.loggerAdapter.Info("Client initialized successfully")
	return nil
}

// Scope returns the client's root scope.
func (c *Client) Scope() *Scope {
	return c.root
}

// Dispatcher returns the network dispatcher.
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// WithScope returns ctx carrying the root scope.
func (c *Client) WithScope(ctx context.Context) context.Context {
	return NewContext(ctx, c.root)
}

// Track tracks p at the root scope.
func (c *Client) Track(ctx context.Context, p PartialEvent) {
	c.mu.RLock()
	initialized := c.initialized
	c.mu.RUnlock()

	if !initialized {
		c.loggerAdapter.Warn("Track called before initialization")
	}
	c.root.Track(ctx, p)
}

// Flush resends queued events immediately.
func (c *Client) Flush(ctx context.Context) {
	c.loggerAdapter.Debug("Flushing events")
	c.dispatcher.Flush(ctx)
}

// Dispose stops the dispatcher, which may have started on its own when an
// event was queued before Init. Queued events that were never delivered are
// dropped.
func (c *Client) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		c.loggerAdapter.Info("Disposing client")
	}
	c.root.Exit()
	err := c.dispatcher.Close()
	c.initialized = false
	return err
}
