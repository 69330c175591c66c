package contextutil

import "context"

type contextKey string

const traceIDKey contextKey = "traceID"

const unknownTraceID = "unknown-trace-id"

// WithTraceID returns a copy of ctx carrying the request trace id.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext is safe to call on contexts that never passed through
// the request middleware, such as background jobs and tests.
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		return traceID
	}
	return unknownTraceID
}
