// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/sfmlex/core/errors"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RunIDKey is the context key for the ID of the current check run.
	RunIDKey ContextKey = "run_id"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	InitLogger(LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel maps a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, errors.NewValidation("log-level", "unknown level "+s)
}

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, errors.NewValidation("log-format", "unknown format "+s)
}

// InitLogger initializes the global logger to write to stderr. Stdout is
// left to reports.
func InitLogger(level Level, format Format) {
	InitLoggerTo(os.Stderr, level, format)
}

// InitLoggerTo initializes the global logger to write to w.
func InitLoggerTo(w io.Writer, level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if runID := GetRunID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger
}

// DebugContext logs a debug message with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

// InfoContext logs an info message with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

// WarnContext logs a warning message with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

// ErrorContext logs an error message with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// LexiconRead logs a parsed lexicon file.
func LexiconRead(ctx context.Context, path string, records int, size int64, args ...any) {
	allArgs := []any{
		"path", path,
		"records", records,
		"size", humanize.Bytes(uint64(max(size, 0))),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("lexicon_read", allArgs...)
}

// LexiconWritten logs a rewritten lexicon file.
func LexiconWritten(ctx context.Context, path string, size int64, args ...any) {
	allArgs := []any{
		"path", path,
		"size", humanize.Bytes(uint64(max(size, 0))),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("lexicon_written", allArgs...)
}

// CheckSummary logs the outcome of a check pass.
func CheckSummary(ctx context.Context, check string, problems int, duration time.Duration, args ...any) {
	allArgs := []any{
		"check", check,
		"problems", humanize.Comma(int64(problems)),
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	logger := LoggerFromContext(ctx)
	if problems > 0 {
		logger.Warn("check_summary", allArgs...)
		return
	}
	logger.Info("check_summary", allArgs...)
}

// SnapshotTaken logs a file stored in the snapshot store.
func SnapshotTaken(ctx context.Context, source, sha256 string, size int64) {
	LoggerFromContext(ctx).Info("snapshot_taken",
		"source", source,
		"sha256", sha256,
		"size", humanize.Bytes(uint64(max(size, 0))),
	)
}

// OperationError logs a failed operation with its error.
func OperationError(ctx context.Context, operation string, err error, args ...any) {
	allArgs := []any{
		"operation", operation,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Error("operation_error", allArgs...)
}
