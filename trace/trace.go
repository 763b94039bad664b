// Package trace carries correlation identifiers for IPTU API calls.
//
// The server assigns its own request id (returned in X-Request-ID); the call
// id handled here is generated client-side so that every log line and span of
// one logical call, retries included, can be grouped together.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// callIDKey is the context key for client-side call ids
	callIDKey contextKey = "iptuapi_call_id"

	// HeaderXRequestID carries the server-assigned request id
	HeaderXRequestID = "X-Request-ID"
	// HeaderRateLimitLimit is the request quota of the current window
	HeaderRateLimitLimit = "X-RateLimit-Limit"
	// HeaderRateLimitRemaining is the number of requests left in the current window
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	// HeaderRateLimitReset is the epoch second at which the window resets
	HeaderRateLimitReset = "X-RateLimit-Reset"
	// HeaderRetryAfter is the number of seconds to wait after a 429
	HeaderRetryAfter = "Retry-After"
)

// WithCallID stores a caller-chosen call id in the context
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDKey, callID)
}

// CallIDFromContext returns the call id from context if present
func CallIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if id, ok := ctx.Value(callIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureCallID returns the call id from context or generates a new UUID
func EnsureCallID(ctx context.Context) string {
	if id, ok := CallIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}
