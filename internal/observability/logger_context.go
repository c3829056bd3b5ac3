// Package observability carries request-scoped logging state through context.
package observability

import (
	"context"
	"log/slog"
)

type loggerContextKey struct{}

type requestIDContextKey struct{}

type evaluationIDContextKey struct{}

// ContextWithLogger attaches a non-nil logger to the context.
func ContextWithLogger(ctx context.Context, lg *slog.Logger) context.Context {
	if ctx == nil || lg == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, lg)
}

// LoggerFromContext returns the logger stored in the context or slog.Default.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if lg, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && lg != nil {
		return lg
	}
	return slog.Default()
}

// ContextWithRequestID stores the originating HTTP request_id so the
// evaluation pipeline can correlate its logs with the request.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the stored request_id or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(requestIDContextKey{}).(string)
	return rid
}

// ContextWithEvaluation stores the evaluation id and returns a context whose
// logger carries it as evaluation_id.
func ContextWithEvaluation(ctx context.Context, evaluationID string) context.Context {
	if ctx == nil || evaluationID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, evaluationIDContextKey{}, evaluationID)
	return ContextWithLogger(ctx, LoggerFromContext(ctx).With(slog.String("evaluation_id", evaluationID)))
}

// EvaluationIDFromContext returns the stored evaluation id or "".
func EvaluationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(evaluationIDContextKey{}).(string)
	return id
}
