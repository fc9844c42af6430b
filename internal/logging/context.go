// internal/logging/context.go
package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	if target, ok := EmbedTargetFromContext(ctx); ok {
		fields = append(fields,
			zap.String("embed.method", target.Method),
			zap.String("embed.model", target.Model),
		)
	}

	if workerID, ok := WorkerIDFromContext(ctx); ok {
		fields = append(fields, zap.Int("worker.id", workerID))
	}

	return fields
}

type requestCtxKey struct{}
type embedTargetCtxKey struct{}
type workerCtxKey struct{}

// EmbedTarget names the backend and model an operation runs against.
type EmbedTarget struct {
	Method string
	Model  string
}

const maxIDLen = 128

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateID validates a request ID.
func validateID(id, name string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%s contains invalid UTF-8", name)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("%s exceeds max length %d", name, maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (must be alphanumeric, hyphen, underscore)", name)
	}
	return nil
}

// RequestIDFromContext extracts request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return r
	}
	return ""
}

// WithRequestID adds request ID to context.
// Invalid IDs are dropped and ctx is returned unchanged.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if err := validateID(requestID, "requestID"); err != nil {
		return ctx
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// WithEmbedTarget records the method and model names on ctx.
func WithEmbedTarget(ctx context.Context, method, model string) context.Context {
	return context.WithValue(ctx, embedTargetCtxKey{}, EmbedTarget{Method: method, Model: model})
}

// EmbedTargetFromContext returns the embed target stored on ctx.
func EmbedTargetFromContext(ctx context.Context) (EmbedTarget, bool) {
	t, ok := ctx.Value(embedTargetCtxKey{}).(EmbedTarget)
	return t, ok
}

// WithWorkerID records the dispatcher worker handling the operation.
func WithWorkerID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, workerCtxKey{}, id)
}

// WorkerIDFromContext returns the worker ID stored on ctx.
func WorkerIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(workerCtxKey{}).(int)
	return id, ok
}
