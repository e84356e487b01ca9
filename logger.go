package larray

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with array-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithShape adds a shape field to the logger.
func (l *Logger) WithShape(shape []int) *Logger {
	return &Logger{
		Logger: l.Logger.With("shape", shape),
	}
}

// LogIndex logs a lazy indexing step.
func (l *Logger) LogIndex(ctx context.Context, key string, shape []int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "index composed",
			"key", key,
			"shape", shape,
		)
	}
}

// LogLoad logs a materialization.
func (l *Logger) LogLoad(ctx context.Context, elements int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"elements", elements,
			"duration", duration,
		)
	}
}

// LogSet logs a write.
func (l *Logger) LogSet(ctx context.Context, key string, elements int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "set failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "set completed",
			"key", key,
			"elements", elements,
		)
	}
}
