package vicbf

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with filter-specific helpers.
// Keys are never logged, only their lengths.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(keyLen int, wrapped int) {
	if wrapped > 0 {
		l.Warn("insert wrapped counters",
			"key_len", keyLen,
			"wrapped", wrapped,
		)
	} else {
		l.Debug("insert completed",
			"key_len", keyLen,
		)
	}
}

// LogQuery logs a query operation.
func (l *Logger) LogQuery(keyLen int, found bool) {
	l.Debug("query completed",
		"key_len", keyLen,
		"found", found,
	)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(keyLen int, underflowed int) {
	if underflowed > 0 {
		l.Warn("delete underflowed counters; a key not present was likely deleted",
			"key_len", keyLen,
			"underflowed", underflowed,
		)
	} else {
		l.Debug("delete completed",
			"key_len", keyLen,
		)
	}
}

// LogSaturation logs a counter saturation event.
func (l *Logger) LogSaturation(index uint32) {
	l.Debug("counter saturated",
		"index", index,
	)
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(name string, err error) {
	if err != nil {
		l.Error("snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.Info("snapshot completed",
			"name", name,
		)
	}
}
