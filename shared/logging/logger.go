package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a slog logger configured for Cloud Logging compatibility.
func NewLogger(service string) *slog.Logger {
	return NewLoggerTo(os.Stdout, service, os.Getenv("LOG_LEVEL"))
}

// NewLoggerTo builds the same JSON logger on an arbitrary writer.
func NewLoggerTo(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: parseLevel(level)})
	return slog.New(handler).With(slog.String("service", service))
}

// WithRequestID attaches a request identifier to the logger context.
func WithRequestID(_ context.Context, logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With(slog.String("requestId", requestID))
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
