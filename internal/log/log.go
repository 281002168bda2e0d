// Package log provides the logging infrastructure for vipudev.
//
// Loggers are injected via constructors rather than pulled from globals;
// each component narrows its logger with With("component", ...).
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger aliases *slog.Logger so components depend on the standard type
// without importing log/slog everywhere.
type Logger = *slog.Logger

// Config defines logger options.
type Config struct {
	// Level sets the minimum log level. Default: slog.LevelInfo.
	Level slog.Level

	// JSON enables JSON output instead of text.
	JSON bool

	// AddSource adds source file positions to log entries.
	AddSource bool
}

// New creates a logger writing to os.Stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a logger writing to w. Useful in tests to capture
// output in a buffer.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// NewNop creates a logger that discards everything. Tests only.
func NewNop() Logger {
	return slog.New(slog.DiscardHandler)
}
