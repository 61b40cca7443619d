package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.Flurry.Connections)
	assert.Equal(t, 50*time.Millisecond, cfg.GetPollInterval())
	assert.Equal(t, time.Second, cfg.GetIdlePollInterval())
	assert.Equal(t, 30*time.Second, cfg.GetHTTPTimeout())
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 1000, cfg.History.Keep)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("EDITOR", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("EDITOR", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
flurry:
  connections: 4
tui:
  poll_interval: 10ms
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.Flurry.Connections)
	assert.Equal(t, 10*time.Millisecond, cfg.GetPollInterval())
	assert.Equal(t, 40, cfg.TUI.Split)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("EDITOR", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Editor = "nano"
	cfg.History.Limit = 5
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDurationAccessorsFallBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTP.Timeout = "soon"
	cfg.TUI.PollInterval = ""
	assert.Equal(t, 30*time.Second, cfg.GetHTTPTimeout())
	assert.Equal(t, 50*time.Millisecond, cfg.GetPollInterval())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero connections", func(c *Config) { c.Flurry.Connections = 0 }, "connections"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"negative keep", func(c *Config) { c.History.Keep = -1 }, "history keep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HITMAN_LOG_LEVEL", "warn")
	t.Setenv("HITMAN_LOG_FORMAT", "json")
	t.Setenv("HITMAN_CONNECTIONS", "3")
	t.Setenv("HITMAN_HISTORY_PATH", "/tmp/h.db")
	t.Setenv("HITMAN_HTTP_TIMEOUT", "5s")
	t.Setenv("EDITOR", "hx")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 3, cfg.Flurry.Connections)
	assert.Equal(t, "/tmp/h.db", cfg.History.Path)
	assert.Equal(t, 5*time.Second, cfg.GetHTTPTimeout())
	assert.Equal(t, "hx", cfg.Editor)
}

func TestEnvOverridesIgnoreBadConnections(t *testing.T) {
	t.Setenv("HITMAN_CONNECTIONS", "many")
	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	assert.Equal(t, 10, cfg.Flurry.Connections)
}
