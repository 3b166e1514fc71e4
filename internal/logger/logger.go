// Package logger holds the process-wide slog logger used by dtbctl.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// L is the global logger instance. It discards all output until Init is called.
var L = slog.New(slog.DiscardHandler)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Level   slog.Level // Minimum log level
	File    string     // Log file path; JSON lines are appended. Empty writes text to Output
	Output  io.Writer  // Destination when File is empty. Default: os.Stderr
}

// ParseLevel maps a level name (debug, info, warn, error) onto slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q (must be debug, info, warn, or error)", s)
	}
	return level, nil
}

// Init configures logging. The returned function closes the log file, if any.
func Init(opts Options) (func() error, error) {
	noop := func() error { return nil }

	if !opts.Enabled {
		L = slog.New(slog.DiscardHandler)
		return noop, nil
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	if opts.File == "" {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		L = slog.New(slog.NewTextHandler(out, handlerOpts))
		return noop, nil
	}

	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	L = slog.New(slog.NewJSONHandler(f, handlerOpts))
	return f.Close, nil
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
