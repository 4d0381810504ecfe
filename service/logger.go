package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jcalabro/bloomer/registry"
)

// Logger wraps slog.Logger with bloomer-specific helpers so operations log
// consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// loggerFromConfig builds the logger described by cfg. Invalid settings
// have already been rejected by Config.Validate.
func loggerFromConfig(cfg Config) *Logger {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return NewJSONLogger(level)
	}
	return NewTextLogger(level)
}

// WithHandle adds a handle field to the logger.
func (l *Logger) WithHandle(h registry.Handle) *Logger {
	return &Logger{Logger: l.Logger.With("handle", h)}
}

// LogCreate logs a filter creation.
func (l *Logger) LogCreate(ctx context.Context, h registry.Handle, rate float64, expected int64, err error) {
	if err != nil {
		l.WarnContext(ctx, "create filter failed",
			"rate", rate,
			"expected", expected,
			"error", err,
		)
		return
	}
	l.WithHandle(h).DebugContext(ctx, "filter created",
		"rate", rate,
		"expected", expected,
	)
}

// LogSerialize logs a serialization fault.
func (l *Logger) LogSerialize(ctx context.Context, h registry.Handle, err error) {
	l.WithHandle(h).ErrorContext(ctx, "serialize failed",
		"error", err,
	)
}

// LogLoad logs loading a serialized filter.
func (l *Logger) LogLoad(ctx context.Context, h registry.Handle, size int, err error) {
	if err != nil {
		l.WarnContext(ctx, "load filter failed",
			"bytes", size,
			"error", err,
		)
		return
	}
	l.WithHandle(h).DebugContext(ctx, "filter loaded",
		"bytes", size,
	)
}

// LogBind logs an endpoint bind.
func (l *Logger) LogBind(ctx context.Context, h registry.Handle, id string, err error) {
	if err != nil {
		l.WithHandle(h).WarnContext(ctx, "bind endpoint failed",
			"error", err,
		)
		return
	}
	l.WithHandle(h).InfoContext(ctx, "endpoint bound",
		"endpoint", id,
	)
}
