package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultFileName = "ripple.yaml"

// Environment variables that override file values.
const (
	EnvListen   = "RIPPLE_LISTEN"
	EnvNATSURL  = "RIPPLE_NATS_URL"
	EnvEndpoint = "RIPPLE_ENDPOINT"
)

// Config holds the settings for the bridge, the demo client and the viewer.
type Config struct {
	Bridge  BridgeConfig  `yaml:"bridge"`
	Client  ClientConfig  `yaml:"client"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `yaml:"-"`
}

// BridgeConfig configures the HTTP to broker relay.
type BridgeConfig struct {
	Listen  string `yaml:"listen"`
	NATSURL string `yaml:"nats_url"` // empty: log instead of publishing
	Subject string `yaml:"subject"`
	// RecentLimit bounds the recent-events buffer.
	RecentLimit     int    `yaml:"recent_limit"`
	ArchivePath     string `yaml:"archive_path"` // empty: in-memory ring only
	AllowOrigin     string `yaml:"allow_origin"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// ClientConfig configures the demo SDK client.
type ClientConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Debug          bool   `yaml:"debug"`
	RetryEnabled   bool   `yaml:"retry_enabled"`
	MaxRetries     int    `yaml:"max_retries"`
	RetryInterval  string `yaml:"retry_interval"`
	RequestTimeout string `yaml:"request_timeout"`
}

// ViewerConfig configures the live viewer.
type ViewerConfig struct {
	StreamURL string `yaml:"stream_url"`
	History   int    `yaml:"history"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Bridge: BridgeConfig{
			Listen:          ":3000",
			Subject:         "ripple.ui.events",
			RecentLimit:     200,
			AllowOrigin:     "*",
			ShutdownTimeout: "5s",
		},
		Client: ClientConfig{
			Endpoint:       "http://localhost:3000",
			RetryEnabled:   true,
			MaxRetries:     3,
			RetryInterval:  "2s",
			RequestTimeout: "10s",
		},
		Viewer: ViewerConfig{
			StreamURL: "ws://localhost:3000/stream",
			History:   20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: "defaults",
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := decode(bytes.NewReader(data), &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			cfg.Source = path
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.Bridge.Listen = v
	}
	if v, ok := lookup(EnvNATSURL); ok {
		c.Bridge.NATSURL = v
	}
	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		c.Client.Endpoint = v
	}
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Bridge.Listen) == "" {
		errs = append(errs, errors.New("bridge.listen must not be empty"))
	}
	if strings.TrimSpace(c.Bridge.Subject) == "" {
		errs = append(errs, errors.New("bridge.subject must not be empty"))
	}
	if c.Bridge.RecentLimit <= 0 {
		errs = append(errs, fmt.Errorf("bridge.recent_limit must be positive, got %d", c.Bridge.RecentLimit))
	}
	if _, err := parseDuration("bridge.shutdown_timeout", c.Bridge.ShutdownTimeout); err != nil {
		errs = append(errs, err)
	}

	if u, err := url.Parse(c.Client.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("client.endpoint %q is not an absolute URL", c.Client.Endpoint))
	}
	if _, err := parseDuration("client.retry_interval", c.Client.RetryInterval); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseDuration("client.request_timeout", c.Client.RequestTimeout); err != nil {
		errs = append(errs, err)
	}

	if c.Viewer.History <= 0 {
		errs = append(errs, fmt.Errorf("viewer.history must be positive, got %d", c.Viewer.History))
	}

	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ShutdownTimeoutDuration returns the parsed bridge shutdown timeout.
func (b BridgeConfig) ShutdownTimeoutDuration() time.Duration {
	d, _ := parseDuration("", b.ShutdownTimeout)
	return d
}

// RetryIntervalDuration returns the parsed retry interval.
func (c ClientConfig) RetryIntervalDuration() time.Duration {
	d, _ := parseDuration("", c.RetryInterval)
	return d
}

// RequestTimeoutDuration returns the parsed per-request timeout.
func (c ClientConfig) RequestTimeoutDuration() time.Duration {
	d, _ := parseDuration("", c.RequestTimeout)
	return d
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", field, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must not be negative", field)
	}
	return d, nil
}

// NormalizeLogLevel lower-cases and validates a log level name.
func NormalizeLogLevel(level string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "", "info":
		return "info", nil
	case "debug", "warn", "error":
		return normalized, nil
	}
	return "", fmt.Errorf("logging.level %q is not one of debug, info, warn, error", level)
}
