package utils

import (
	"context"
	"log/slog"
)

// Logger is a thin wrapper around slog so handlers and middleware share one
// logging surface.
type Logger struct {
	*slog.Logger
}

// NewSlogLogger wraps an slog.Logger.
func NewSlogLogger(logger *slog.Logger) *Logger {
	return &Logger{Logger: logger}
}

// WithRequestID returns a logger carrying the request id on every record.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With("request_id", requestID)}
}

type contextKey string

const loggerKey contextKey = "logger"

// IntoContext stores the logger in the context.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the request-scoped logger, falling back to the
// default slog logger when none was attached.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default()}
}
