package http

import "context"

type contextKey string

const (
	requestIDContextKey contextKey = "wikigen/request-id"
	userContextKey      contextKey = "wikigen/user"
)

// RequestIDFromContext extracts the request identifier from the context when available.
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDContextKey)
}

// UserFromContext returns the identity forwarded by the fronting proxy, if any.
func UserFromContext(ctx context.Context) string {
	return stringFromContext(ctx, userContextKey)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}
