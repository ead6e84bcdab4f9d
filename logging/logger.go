// Package logging provides the structured logger used across the fabric
// engine: a thin wrapper over slog.Logger with helpers for the handful
// of operations worth a consistent field set (open, load, search,
// fetch) rather than a generic "log anything" facade.
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with fabric-specific context.
type Logger struct {
	*slog.Logger
}

// New creates a Logger with the given handler. If handler is nil, it
// defaults to a text handler at info level writing to stderr.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSON creates a Logger that emits JSON-formatted records.
func NewJSON(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewText creates a Logger that emits human-readable text records.
func NewText(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// Noop returns a Logger that discards all output.
func Noop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// WithCorpus returns a Logger that tags every record with the corpus
// path it's operating against.
func (l *Logger) WithCorpus(path string) *Logger {
	return &Logger{Logger: l.Logger.With("corpus", path)}
}

// LogOpen logs a Fabric.Open call.
func (l *Logger) LogOpen(ctx context.Context, path string, version uint32, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed", "path", path, "version", version, "error", err)
		return
	}
	l.InfoContext(ctx, "opened store", "path", path, "version", version, "duration_ms", d.Milliseconds())
}

// LogLoad logs a feature materialization (Fabric.Load).
func (l *Logger) LogLoad(ctx context.Context, feature string, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "feature load failed", "feature", feature, "error", err)
		return
	}
	l.DebugContext(ctx, "feature loaded", "feature", feature, "duration_ms", d.Milliseconds())
}

// LogSearch logs a spin.Executor.Search call.
func (l *Logger) LogSearch(ctx context.Context, returnType string, matched int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "return_type", returnType, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "return_type", returnType, "matched", matched, "duration_ms", d.Milliseconds())
}

// LogFetch logs a remotestore.Fetch call.
func (l *Logger) LogFetch(ctx context.Context, uri string, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remote fetch failed", "uri", uri, "error", err)
		return
	}
	l.InfoContext(ctx, "remote fetch completed", "uri", uri, "duration_ms", d.Milliseconds())
}
