// Package logging builds the zap loggers used by the hitman commands.
//
// The console format prints bare messages, so request echo lines such as
// "> GET https://example.com" reach the terminal unchanged. The json format
// emits structured records for CI usage.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configure New.
type Options struct {
	Verbose bool
	Quiet   bool
	// Level applies when neither Verbose nor Quiet is set. Empty means info.
	Level  string
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// Level resolves the effective level. Verbose and Quiet cancel each other.
func (o Options) level() (zapcore.Level, error) {
	switch {
	case o.Verbose && o.Quiet:
		return zapcore.InfoLevel, nil
	case o.Verbose:
		return zapcore.DebugLevel, nil
	case o.Quiet:
		return zapcore.ErrorLevel, nil
	}
	return ParseLevel(o.Level)
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// New builds the command-line logger.
func New(opts Options) (*zap.Logger, error) {
	level, err := opts.level()
	if err != nil {
		return nil, err
	}

	var enc zapcore.Encoder
	switch opts.Format {
	case "", FormatConsole:
		enc = consoleEncoder()
	case FormatJSON:
		enc = jsonEncoder()
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(out)), level)
	return zap.New(core), nil
}

// NewFile builds a JSON logger appending to path, for the TUI which owns
// the terminal. The returned close func flushes and closes the file.
func NewFile(path, level string) (*zap.Logger, func() error, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := zap.New(zapcore.NewCore(jsonEncoder(), zapcore.AddSync(f), lvl))
	closeFn := func() error {
		_ = logger.Sync()
		return f.Close()
	}
	return logger, closeFn, nil
}
