package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Broker states reported by Publisher.Status.
const (
	StatusConnected    = "connected"
	StatusReconnecting = "reconnecting"
	StatusDisconnected = "disconnected"
	StatusDisabled     = "disabled"
)

// Publisher puts encoded records onto a broker subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Status() string
	Close() error
}

// NATSPublisher publishes to a NATS server and reconnects forever.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to url.
func NewNATSPublisher(url string, logger *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("ripple-bridge"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	logger.Info("Connected to NATS", zap.String("url", conn.ConnectedUrl()))
	return &NATSPublisher{conn: conn, logger: logger}, nil
}

// Publish sends data on subject.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.conn.IsClosed() {
		return nats.ErrConnectionClosed
	}
	return p.conn.Publish(subject, data)
}

// Status maps the connection state onto the bridge's broker states.
func (p *NATSPublisher) Status() string {
	switch p.conn.Status() {
	case nats.CONNECTED:
		return StatusConnected
	case nats.RECONNECTING, nats.CONNECTING:
		return StatusReconnecting
	default:
		return StatusDisconnected
	}
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// LogPublisher stands in for a broker when none is configured.
type LogPublisher struct {
	logger *zap.Logger
}

var _ Publisher = (*LogPublisher)(nil)

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the message.
func (p *LogPublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.logger.Info("Publish", zap.String("subject", subject), zap.ByteString("data", data))
	return nil
}

// Status always reports disabled.
func (p *LogPublisher) Status() string {
	return StatusDisabled
}

// Close does nothing.
func (p *LogPublisher) Close() error {
	return nil
}
