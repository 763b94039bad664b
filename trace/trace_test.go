package trace

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderConstants(t *testing.T) {
	assert.Equal(t, "X-Request-ID", HeaderXRequestID)
	assert.Equal(t, "X-RateLimit-Limit", HeaderRateLimitLimit)
	assert.Equal(t, "X-RateLimit-Remaining", HeaderRateLimitRemaining)
	assert.Equal(t, "X-RateLimit-Reset", HeaderRateLimitReset)
	assert.Equal(t, "Retry-After", HeaderRetryAfter)
}

func TestCallIDContextRoundTrip(t *testing.T) {
	ctx := WithCallID(context.Background(), "call-123")
	got, ok := CallIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "call-123", got)
}

func TestCallIDFromContextMissing(t *testing.T) {
	_, ok := CallIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = CallIDFromContext(WithCallID(context.Background(), ""))
	assert.False(t, ok, "empty ids are treated as absent")
}

func TestEnsureCallIDUsesExisting(t *testing.T) {
	ctx := WithCallID(context.Background(), "existing")
	assert.Equal(t, "existing", EnsureCallID(ctx))
}

func TestEnsureCallIDGeneratesUUID(t *testing.T) {
	re := regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

	first := EnsureCallID(context.Background())
	second := EnsureCallID(context.Background())

	assert.Regexp(t, re, first)
	assert.NotEqual(t, first, second)
}
