// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
)

// New returns a logger writing to w at level. Development gets readable text;
// every other environment gets JSON lines.
func New(w io.Writer, environment string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if environment == "development" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With("service", "jcc-admin")
}

// Setup installs New(w, environment, level) as the default logger.
func Setup(w io.Writer, environment string, level slog.Level) *slog.Logger {
	logger := New(w, environment, level)
	slog.SetDefault(logger)
	return logger
}
