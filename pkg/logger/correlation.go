package logger

import "context"

type correlationIDKey struct{}

// CorrelationIDHeader carries the request correlation ID on responses so
// clients can quote it when reporting failures.
const CorrelationIDHeader = "X-Correlation-ID"

// WithCorrelationID returns a context carrying the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext extracts the correlation ID from the context, or
// returns an empty string when none was set.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}
