package util

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Development gets readable text at
// debug level; every other environment gets JSON at info level. Each record
// carries the service name so API and worker output can share a sink.
func NewLogger(env, service string) *slog.Logger {
	return newLogger(os.Stdout, env, service)
}

func newLogger(w io.Writer, env, service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: LogLevel(env)}

	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	if service != "" {
		logger = logger.With("service", service)
	}
	return logger
}

// LogLevel maps an environment name onto the minimum level logged.
func LogLevel(env string) slog.Level {
	if env == "development" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
