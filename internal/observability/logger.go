// Package observability carries per-run identity through log lines.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRunID is the field name for the pipeline run ID.
	LogFieldRunID = "run_id"
	// LogFieldAppID is the field name for the frontmost application identifier.
	LogFieldAppID = "app_id"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldAction is the field name for the classified action.
	LogFieldAction = "action"
	// LogFieldSource is the field name for the classifier tier that decided.
	LogFieldSource = "source"
	// LogFieldPhase is the field name for the pipeline phase.
	LogFieldPhase = "phase"
)

// RequestContext represents one pipeline run with structured logging.
type RequestContext struct {
	RunID     string
	AppID     string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a new request context with a generated run ID.
// A nil logger uses slog.Default().
func NewRequestContext(logger *slog.Logger, appID string) *RequestContext {
	return NewRequestContextWithID(logger, generateRunID(), appID)
}

// NewRequestContextWithID creates a new request context with a specific run ID.
func NewRequestContextWithID(logger *slog.Logger, runID, appID string) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RunID:     runID,
		AppID:     appID,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// WithFields returns a new logger with the run attributes and attrs.
func (r *RequestContext) WithFields(attrs ...slog.Attr) *slog.Logger {
	combined := r.baseAttrsAppended(attrs...)
	args := make([]any, 0, len(combined))
	for _, attr := range combined {
		args = append(args, attr)
	}
	return r.Logger.With(args...)
}

// Info logs an info message.
func (r *RequestContext) Info(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, r.baseAttrsAppended(attrs...)...)
}

// Debug logs a debug message.
func (r *RequestContext) Debug(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, r.baseAttrsAppended(attrs...)...)
}

// Warn logs a warning message.
func (r *RequestContext) Warn(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, r.baseAttrsAppended(attrs...)...)
}

// Error logs an error message with the error.
func (r *RequestContext) Error(msg string, err error, attrs ...slog.Attr) {
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	r.Logger.LogAttrs(context.Background(), slog.LevelError, msg, r.baseAttrsAppended(attrs...)...)
}

// Duration returns the elapsed time since the run started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RequestContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RequestContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	base := []slog.Attr{slog.String(LogFieldRunID, r.RunID)}
	if r.AppID != "" {
		base = append(base, slog.String(LogFieldAppID, r.AppID))
	}
	return append(base, attrs...)
}

// generateRunID generates a unique run ID using full UUID.
func generateRunID() string {
	return uuid.New().String()
}

type ctxKey struct{}

// WithRequestContext adds the request context to the context.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqCtx)
}

// FromContext extracts the request context from the context.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	reqCtx, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return reqCtx, ok
}

// LoggerFrom returns a logger carrying the run attributes in ctx,
// or slog.Default() when ctx carries no run.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if reqCtx, ok := FromContext(ctx); ok {
		return reqCtx.WithFields()
	}
	return slog.Default()
}
