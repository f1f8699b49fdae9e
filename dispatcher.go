package ripple

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tap30/ripple-ui-go/adapters"
)

// Dispatcher is the network DispatchAdapter. It posts each event to the
// collector and keeps the ones that fail in an in-memory queue that a
// single background worker retries once the collector's health check
// answers again.
//
// The queue is not persisted: events still queued when the process exits
// are lost.
type Dispatcher struct {
	config        DispatcherConfig
	eventsURL     string
	healthURL     string
	queue         *Queue[pendingEvent]
	httpAdapter   HTTPAdapter
	loggerAdapter LoggerAdapter
	online        atomic.Bool
	// closeMu orders enqueues against Close so nothing is queued once the
	// queue has been dropped.
	closeMu       sync.Mutex
	closed        bool
	trigger       chan struct{}
	stopChan      chan struct{}
	drainMutex    *Mutex
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	startOnce     sync.Once
	stopOnce      sync.Once
}

var errNoResponse = errors.New("http adapter returned no response")

type pendingEvent struct {
	event   Event
	retries int
}

var _ DispatchAdapter = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher. A nil httpAdapter uses net/http and a
// nil logger logs warnings to stderr (everything when config.Debug is set).
func NewDispatcher(config DispatcherConfig, httpAdapter HTTPAdapter, logger LoggerAdapter) (*Dispatcher, error) {
	if config.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if config.EventsPath == "" {
		config.EventsPath = DefaultEventsPath
	}
	if config.HealthPath == "" {
		config.HealthPath = DefaultHealthPath
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = DefaultRetryInterval
	}

	eventsURL, err := url.JoinPath(config.Endpoint, config.EventsPath)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", config.Endpoint, err)
	}
	healthURL, err := url.JoinPath(config.Endpoint, config.HealthPath)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", config.Endpoint, err)
	}

	if httpAdapter == nil {
		httpAdapter = adapters.NewNetHTTPAdapter(0)
	}
	if logger == nil {
		level := adapters.LogLevelWarn
		if config.Debug {
			level = adapters.LogLevelDebug
		}
		logger = adapters.NewConsoleLoggerAdapter(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		config:        config,
		eventsURL:     eventsURL,
		healthURL:     healthURL,
		queue:         NewQueue[pendingEvent](),
		httpAdapter:   httpAdapter,
		loggerAdapter: logger,
		trigger:       make(chan struct{}, 1),
		stopChan:      make(chan struct{}),
		drainMutex:    NewMutex(),
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start probes the collector's health in the background and starts the
// retry worker. The probe result is advisory; Track never waits for it.
// The first queued event starts the dispatcher if Start was never called.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.closeMu.Lock()
		defer d.closeMu.Unlock()
		if d.closed {
			return
		}
		d.wg.Add(2)
		go func() {
			defer d.wg.Done()
			online := d.probe(d.ctx)
			d.debug("Initial health probe: online=%t", online)
		}()
		go d.retryLoop()
	})
}

// Online reports the last known reachability of the collector.
func (d *Dispatcher) Online() bool {
	return d.online.Load()
}

// Pending returns the number of events waiting for a retry.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Track sends event to the collector. Transport failures and non-2xx
// answers are absorbed: the event is queued for retry when retry is
// enabled and dropped otherwise. Only an event that cannot be encoded is
// reported as an error.
func (d *Dispatcher) Track(ctx context.Context, event Event) error {
	err := d.send(ctx, event)
	if err == nil {
		d.debug("Delivered %s/%s", event.ComponentType, event.EventType)
		return nil
	}
	if isEncodeError(err) {
		d.loggerAdapter.Error("Cannot encode %s/%s: %v", event.ComponentType, event.EventType, err)
		return err
	}

	d.online.Store(false)
	if !d.config.RetryEnabled || !d.enqueue(pendingEvent{event: event}) {
		d.loggerAdapter.Warn("Delivery of %s/%s failed, dropping: %v", event.ComponentType, event.EventType, err)
		return nil
	}

	d.loggerAdapter.Warn("Delivery of %s/%s failed, queued for retry: %v", event.ComponentType, event.EventType, err)
	d.Start()
	d.scheduleRetry()
	return nil
}

// enqueue queues p unless the dispatcher is closed and reports whether it did.
func (d *Dispatcher) enqueue(p pendingEvent) bool {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()
	if d.closed {
		return false
	}
	d.queue.Enqueue(p)
	return true
}

// Flush immediately resends every queued event once, without waiting for
// the back-off or the health probe.
func (d *Dispatcher) Flush(ctx context.Context) {
	d.drain(ctx)
}

// Close stops the retry worker and waits for it. Events still queued are
// dropped.
func (d *Dispatcher) Close() error {
	d.stopOnce.Do(func() {
		d.closeMu.Lock()
		d.closed = true
		d.closeMu.Unlock()

		close(d.stopChan)
		d.cancel()
		d.wg.Wait()

		if dropped := d.queue.Drain(); len(dropped) > 0 {
			d.loggerAdapter.Warn("Closing with %d undelivered events", len(dropped))
		}
	})
	return nil
}

func (d *Dispatcher) send(ctx context.Context, event Event) error {
	resp, err := d.httpAdapter.Send(ctx, d.eventsURL, event, d.config.Headers)
	if err != nil {
		return err
	}
	if resp == nil {
		return errNoResponse
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return &HTTPError{Status: resp.Status}
	}
	d.online.Store(true)
	return nil
}

func (d *Dispatcher) probe(ctx context.Context) bool {
	resp, err := d.httpAdapter.Probe(ctx, d.healthURL)
	online := err == nil && resp != nil && resp.Status >= 200 && resp.Status < 300
	d.online.Store(online)
	return online
}

func (d *Dispatcher) scheduleRetry() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// retryLoop waits for a trigger, then keeps cycling back-off, probe and
// drain until the queue is empty.
func (d *Dispatcher) retryLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopChan:
			return
		case <-d.trigger:
		}

		for !d.queue.IsEmpty() {
			if !d.sleep(d.config.RetryInterval) {
				return
			}
			if !d.probe(d.ctx) {
				d.debug("Collector offline, %d events stay queued", d.queue.Len())
				continue
			}
			if !d.drainMutex.TryRunAtomic(func() { d.drainLocked(d.ctx) }) {
				d.debug("Flush in progress, skipping retry drain")
			}
		}
	}
}

func (d *Dispatcher) sleep(interval time.Duration) bool {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-d.stopChan:
		return false
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	_ = d.drainMutex.RunAtomic(func() error {
		d.drainLocked(ctx)
		return nil
	})
}

// drainLocked resends a snapshot of the queue in enqueue order. Failures go
// back to the end of the queue until they exhaust MaxRetries.
func (d *Dispatcher) drainLocked(ctx context.Context) {
	pending := d.queue.Drain()
	if len(pending) == 0 {
		return
	}
	d.debug("Draining %d queued events", len(pending))

	delivered := 0
	for _, p := range pending {
		err := d.send(ctx, p.event)
		if err == nil {
			delivered++
			continue
		}

		p.retries++
		if d.config.MaxRetries > 0 && p.retries >= d.config.MaxRetries {
			d.loggerAdapter.Warn("Dropping %s/%s after %d retries: %v",
				p.event.ComponentType, p.event.EventType, p.retries, err)
			continue
		}
		d.online.Store(false)
		if !d.enqueue(p) {
			d.loggerAdapter.Warn("Dropping %s/%s, dispatcher closed", p.event.ComponentType, p.event.EventType)
		}
	}

	d.debug("Drain delivered %d of %d events", delivered, len(pending))
}

func (d *Dispatcher) debug(message string, args ...any) {
	if d.config.Debug {
		d.loggerAdapter.Debug(message, args...)
	}
}

func isEncodeError(err error) bool {
	var (
		typeErr      *json.UnsupportedTypeError
		valueErr     *json.UnsupportedValueError
		marshalerErr *json.MarshalerError
	)
	return errors.As(err, &typeErr) || errors.As(err, &valueErr) || errors.As(err, &marshalerErr)
}
