package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// ContextKey is the type for the context keys this package reads.
type ContextKey string

const (
	// RequestIDKey carries the request ID assigned by the router.
	RequestIDKey ContextKey = "request_id"
	// ActorIDKey carries the acting user, matching the actor recorded on
	// audit rows and ledger entries.
	ActorIDKey ContextKey = "actor_id"
)

// Logger is the slog-based logger of the background side of the system: the
// worker binary, its jobs and the outbox publisher. The request path logs
// through zerolog instead.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to stdout.
func New(level slog.Level, format string) *Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a Logger writing to w. Format "json" selects the
// JSON handler; anything else logs as text.
func NewWithWriter(w io.Writer, level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithContext returns a logger annotated with whatever request ID and actor
// the context carries.
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	logger := l.Logger

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	if actorID, ok := ctx.Value(ActorIDKey).(string); ok && actorID != "" {
		logger = logger.With("actor_id", actorID)
	}

	return logger
}

// InfoCtx logs at info level with the context's fields attached.
func (l *Logger) InfoCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Info(msg, args...)
}

// WarnCtx logs at warn level with the context's fields attached.
func (l *Logger) WarnCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Warn(msg, args...)
}

// ErrorCtx logs at error level with the context's fields attached.
func (l *Logger) ErrorCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Error(msg, args...)
}

// DebugCtx logs at debug level with the context's fields attached.
func (l *Logger) DebugCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
