package sharedcomp

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with store-specific fields.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithType adds the shared value type name to the logger.
func (l *Logger) WithType(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("type", name),
	}
}

// LogGrow logs a slot table growing to a new capacity.
func (l *Logger) LogGrow(capacity int) {
	l.Debug("slot table grown",
		"capacity", capacity,
	)
}

// LogTransplant logs a bulk move of values between stores.
func (l *Logger) LogTransplant(values int, duration time.Duration, err error) {
	if err != nil {
		l.Error("transplant failed",
			"values", values,
			"duration", duration,
			"error", err,
		)
		return
	}
	l.Debug("transplant completed",
		"values", values,
		"duration", duration,
	)
}

// LogReset logs a store being cleared for deserialization.
func (l *Logger) LogReset(types int) {
	l.Debug("store reset",
		"types", types,
	)
}

// LogLeak logs values still referenced when a store is closed.
func (l *Logger) LogLeak(live int) {
	l.Warn("shared values leaked at close",
		"live", live,
	)
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(op string, values int, bytes int64, duration time.Duration, err error) {
	if err != nil {
		l.Error("snapshot "+op+" failed",
			"values", values,
			"duration", duration,
			"error", err,
		)
		return
	}
	l.Info("snapshot "+op+" completed",
		"values", values,
		"bytes", bytes,
		"duration", duration,
	)
}
