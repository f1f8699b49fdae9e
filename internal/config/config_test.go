package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	want := Default()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
bridge:
  listen: ":4000"
  nats_url: nats://broker:4222
  archive_path: /tmp/events.db
client:
  retry_interval: 500ms
  max_retries: -1
logging:
  level: DEBUG
  format: console
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, ":4000", cfg.Bridge.Listen)
	assert.Equal(t, "nats://broker:4222", cfg.Bridge.NATSURL)
	assert.Equal(t, "/tmp/events.db", cfg.Bridge.ArchivePath)
	assert.Equal(t, "ripple.ui.events", cfg.Bridge.Subject, "untouched fields keep defaults")
	assert.Equal(t, 500*time.Millisecond, cfg.Client.RetryIntervalDuration())
	assert.Equal(t, -1, cfg.Client.MaxRetries)
	assert.True(t, cfg.Client.RetryEnabled)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("bridge:\n  port: 3000\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Bridge, cfg.Bridge)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvListen, "127.0.0.1:9000")
	t.Setenv(EnvNATSURL, "nats://env:4222")
	t.Setenv(EnvEndpoint, "http://collector:9000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Bridge.Listen)
	assert.Equal(t, "nats://env:4222", cfg.Bridge.NATSURL)
	assert.Equal(t, "http://collector:9000", cfg.Client.Endpoint)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Bridge.Subject = " "
	cfg.Bridge.RecentLimit = 0
	cfg.Client.Endpoint = "localhost"
	cfg.Client.RetryInterval = "soon"
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	require.Error(t, err)
	for _, fragment := range []string{"bridge.subject", "bridge.recent_limit", "client.endpoint", "client.retry_interval", "logging.level"} {
		assert.ErrorContains(t, err, fragment)
	}
}

func TestNormalizeLogLevel(t *testing.T) {
	level, err := NormalizeLogLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, "warn", level)

	level, err = NormalizeLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, "info", level)
}
