// Package log provides a structured logging interface for scieval.
//
// The Logger interface is slog-compatible in shape and is backed by zerolog
// (see NewZerologLogger). Evaluation runs log one record per fold and per
// scorer, so the attribute keys in attributes.go are shared across the
// model_selection and evaluation packages.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "Decision Tree",
//	    log.ComponentKey, "evaluation",
//	)
//	logger.Info("cross validation finished",
//	    log.ScoringKey, "recall_weighted",
//	    log.FoldsKey, 10,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key/value pairs. An error value under
// the key "error" (ErrAttrKey) gets its cockroachdb stack trace attached
// by the zerolog backend.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	//
	// Example:
	//   logger.Error("fold failed",
	//       log.ErrAttrKey, err,
	//       log.FoldKey, 3,
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates loggers. Both the zerolog provider and the test
// provider implement it.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific name/component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
