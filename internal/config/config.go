// Package config holds hitman's application settings. Request scopes live in
// hitman.toml files and are handled by the env package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all hitman application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	HTTP    HTTPConfig    `yaml:"http"`
	Flurry  FlurryConfig  `yaml:"flurry"`
	TUI     TUIConfig     `yaml:"tui"`
	History HistoryConfig `yaml:"history"`

	// Editor opened by the TUI for editing request files.
	Editor string `yaml:"editor"`
}

// HTTPConfig configures the transport.
type HTTPConfig struct {
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"` // empty = hitman/<version>
}

// FlurryConfig configures flurry mode.
type FlurryConfig struct {
	Connections int `yaml:"connections"`
}

// TUIConfig configures the interactive UI.
type TUIConfig struct {
	PollInterval     string `yaml:"poll_interval"`
	IdlePollInterval string `yaml:"idle_poll_interval"`
	Split            int    `yaml:"split"` // width of the request list
}

// HistoryConfig configures the execution history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty = user cache dir
	Limit   int    `yaml:"limit"` // entries listed by `hitman history`
	Keep    int    `yaml:"keep"`  // entries kept on disk, 0 = unbounded
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		HTTP: HTTPConfig{
			Timeout: "30s",
		},
		Flurry: FlurryConfig{
			Connections: 10,
		},
		TUI: TUIConfig{
			PollInterval:     "50ms",
			IdlePollInterval: "1s",
			Split:            40,
		},
		History: HistoryConfig{
			Enabled: true,
			Limit:   20,
			Keep:    1000,
		},
		Editor: "vi",
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hitman", "config.yaml"), nil
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("HITMAN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("HITMAN_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}
	if v := os.Getenv("HITMAN_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Flurry.Connections = n
		}
	}
	if path := os.Getenv("HITMAN_HISTORY_PATH"); path != "" {
		c.History.Path = path
	}
	if timeout := os.Getenv("HITMAN_HTTP_TIMEOUT"); timeout != "" {
		c.HTTP.Timeout = timeout
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		c.Editor = editor
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// GetHTTPTimeout returns the request timeout as a duration.
func (c *Config) GetHTTPTimeout() time.Duration {
	return parseDuration(c.HTTP.Timeout, 30*time.Second)
}

// GetPollInterval returns how often the TUI checks a running request.
func (c *Config) GetPollInterval() time.Duration {
	return parseDuration(c.TUI.PollInterval, 50*time.Millisecond)
}

// GetIdlePollInterval returns the TUI tick interval while nothing runs.
func (c *Config) GetIdlePollInterval() time.Duration {
	return parseDuration(c.TUI.IdlePollInterval, time.Second)
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists the accepted logging formats.
var ValidLogFormats = []string{"console", "json"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Flurry.Connections < 1 {
		return fmt.Errorf("flurry connections must be at least 1, got %d", c.Flurry.Connections)
	}
	if c.History.Keep < 0 {
		return fmt.Errorf("history keep must not be negative, got %d", c.History.Keep)
	}
	if !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if !contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
