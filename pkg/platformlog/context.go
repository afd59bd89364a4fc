package platformlog

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is a type for context value keys.
// Using a custom type prevents collisions with other packages.
type ContextKey string

// Common context keys copied into event properties by Logger.WithContext
const (
	ContextKeyRequestID   ContextKey = "RequestId"     // HTTP request ID for tracing
	ContextKeyTraceID     ContextKey = "TraceId"       // Distributed trace ID
	ContextKeySpanID      ContextKey = "SpanId"        // Distributed tracing span ID
	ContextKeyUserID      ContextKey = "UserId"        // User ID for audit trails
	ContextKeyCorrelation ContextKey = "CorrelationId" // Correlation ID for event tracking
	ContextKeyOperation   ContextKey = "Operation"     // Operation being performed
)

var defaultContextKeys = []ContextKey{
	ContextKeyRequestID,
	ContextKeyTraceID,
	ContextKeySpanID,
	ContextKeyUserID,
	ContextKeyCorrelation,
	ContextKeyOperation,
}

type loggerKey struct{}

// NewContext returns a context carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger carried by ctx, or fallback when there is
// none.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok && l != nil {
		return l
	}
	return fallback
}

// WithContextFields returns a new context with the provided fields.
// This is useful for propagating logging context through a call chain.
//
// Example:
//
//	ctx = platformlog.WithContextFields(ctx, map[platformlog.ContextKey]interface{}{
//		platformlog.ContextKeyRequestID: "123",
//		platformlog.ContextKeyUserID:    "456",
//	})
func WithContextFields(ctx context.Context, fields map[ContextKey]interface{}) context.Context {
	for key, value := range fields {
		ctx = context.WithValue(ctx, key, value)
	}
	return ctx
}

// CorrelationContext adds a correlation ID to ctx, generating one when
// correlationID is empty, and returns the ID used.
func CorrelationContext(ctx context.Context, correlationID string) (context.Context, string) {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return context.WithValue(ctx, ContextKeyCorrelation, correlationID), correlationID
}

// ExtractContextFields returns the values stored in ctx under keys, or under
// the common keys when none are given.
func ExtractContextFields(ctx context.Context, keys ...ContextKey) map[string]interface{} {
	if len(keys) == 0 {
		keys = defaultContextKeys
	}
	fields := make(map[string]interface{})
	for _, key := range keys {
		if value := ctx.Value(key); value != nil {
			fields[string(key)] = value
		}
	}
	return fields
}

// WithContext returns a logger whose events carry the context fields found
// in ctx as properties.
//
// Example:
//
//	ctx, _ = platformlog.CorrelationContext(ctx, "")
//	logger.WithContext(ctx).Information("Charging {Amount}", 12.5)
func (l *Logger) WithContext(ctx context.Context, keys ...ContextKey) *Logger {
	child := l
	for name, value := range ExtractContextFields(ctx, keys...) {
		child = child.WithProperty(name, value)
	}
	return child
}
