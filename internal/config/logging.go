package config

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
	File   string `yaml:"file"`   // TUI log file; empty disables TUI logging
}

// HasFile reports whether the TUI should log to a file.
func (c *LoggingConfig) HasFile() bool {
	return c.File != ""
}
