package httpclient

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestErrorKindsAndRetryability(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		kind      Kind
		status    int
		retryable bool
		sentinel  error
	}{
		{"authentication", NewAuthenticationError("", "r"), KindAuthentication, 401, false, ErrAuthentication},
		{"forbidden", NewForbiddenError("", "pro", "r"), KindForbidden, 403, false, ErrForbidden},
		{"not_found", NewNotFoundError("", "", "r"), KindNotFound, 404, false, ErrNotFound},
		{"rate_limit", NewRateLimitError("", intPtr(60), "r"), KindRateLimit, 429, true, ErrRateLimited},
		{"validation_400", NewValidationError("", 400, nil, "r"), KindValidation, 400, false, ErrValidation},
		{"validation_422", NewValidationError("", 422, nil, "r"), KindValidation, 422, false, ErrValidation},
		{"server", NewServerError("", 503, "r"), KindServer, 503, true, ErrServer},
		{"generic", NewGenericError("", 418, "r"), KindGeneric, 418, false, nil},
		{"timeout", NewTimeoutError("", 30*time.Second), KindTimeout, 0, true, ErrTimeout},
		{"network", NewNetworkError("", errors.New("refused")), KindNetwork, 0, true, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.retryable, tt.err.Retryable())
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.NotEmpty(t, tt.err.Message, "default message expected")
			if tt.sentinel != nil {
				assert.ErrorIs(t, tt.err, tt.sentinel)
			}
		})
	}
}

func TestErrorDefaultMessages(t *testing.T) {
	assert.Equal(t, "invalid or expired API key", NewAuthenticationError("", "").Message)
	assert.Equal(t, "resource not found", NewNotFoundError("", "", "").Message)
	assert.Equal(t, "rate limit exceeded", NewRateLimitError("", nil, "").Message)
	assert.Equal(t, "custom", NewServerError("custom", 500, "").Message)
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "with_request_id",
			err:      NewNotFoundError("Imóvel não encontrado", "", "req_1"),
			expected: "not found error 404: Imóvel não encontrado (request_id: req_1)",
		},
		{
			name:     "without_request_id",
			err:      NewServerError("boom", 500, ""),
			expected: "server error 500: boom",
		},
		{
			name:     "network_includes_cause",
			err:      NewNetworkError("", errors.New("connection refused")),
			expected: "network error: connection error: connection refused",
		},
		{
			name:     "timeout",
			err:      NewTimeoutError("", 30*time.Second),
			expected: "timeout error: timed out after 30s",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorWithRetryableOverride(t *testing.T) {
	orig := NewGenericError("", 418, "")
	require.False(t, orig.Retryable())

	overridden := orig.WithRetryable(true)
	assert.True(t, overridden.Retryable())
	assert.False(t, orig.Retryable(), "original must be unchanged")

	net := NewNetworkError("", nil).WithRetryable(false)
	assert.False(t, net.Retryable())
	assert.Equal(t, KindNetwork, net.Kind)
}

func TestErrorPayloadAccessors(t *testing.T) {
	rl := NewRateLimitError("", intPtr(60), "")
	d, ok := rl.RetryAfterDuration()
	require.True(t, ok)
	assert.Equal(t, time.Minute, d)

	_, ok = NewRateLimitError("", nil, "").RetryAfterDuration()
	assert.False(t, ok)

	assert.Equal(t, 30, NewTimeoutError("", 30*time.Second).TimeoutSeconds())

	v := NewValidationError("", 422, map[string][]string{"cep": {"inválido"}}, "")
	assert.True(t, v.HasFieldError("cep"))
	assert.False(t, v.HasFieldError("sql"))
	assert.Equal(t, []string{"inválido"}, v.FieldErrors("cep"))
	assert.NotNil(t, NewValidationError("", 400, nil, "").Fields)

	f := NewForbiddenError("", "enterprise", "")
	assert.Equal(t, "enterprise", f.RequiredPlan)
}

func TestErrorLogFields(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want map[string]any
	}{
		{
			name: "rate_limit",
			err:  NewRateLimitError("", intPtr(30), "req_1"),
			want: map[string]any{
				"error_type": "rate limit", "error_message": "rate limit exceeded", "retryable": true,
				"status_code": 429, "request_id": "req_1", "retry_after": 30,
			},
		},
		{
			name: "forbidden",
			err:  NewForbiddenError("upgrade", "pro", ""),
			want: map[string]any{
				"error_type": "forbidden", "error_message": "upgrade", "retryable": false,
				"status_code": 403, "required_plan": "pro",
			},
		},
		{
			name: "validation",
			err:  NewValidationError("", 422, map[string][]string{"cep": {"inválido"}}, ""),
			want: map[string]any{
				"error_type": "validation", "error_message": "invalid parameters", "retryable": false,
				"status_code": 422, "errors": map[string][]string{"cep": {"inválido"}},
			},
		},
		{
			name: "timeout",
			err:  NewTimeoutError("", 30*time.Second),
			want: map[string]any{
				"error_type": "timeout", "error_message": "timed out after 30s", "retryable": true,
				"timeout_seconds": 30,
			},
		},
		{
			name: "canceled_network",
			err:  NewNetworkError("request canceled", errors.New("context canceled")).WithRetryable(false),
			want: map[string]any{
				"error_type": "network", "error_message": "request canceled", "retryable": false,
				"cause": "context canceled",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.LogFields())
		})
	}
}

func TestAsErrorThroughWrapping(t *testing.T) {
	inner := NewServerError("", 502, "req")
	wrapped := fmt.Errorf("consulta failed: %w", inner)

	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindServer, kind)
	assert.True(t, IsRetryable(wrapped))
	assert.ErrorIs(t, wrapped, ErrServer)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestErrorUnwrapCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewNetworkError("", cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "rate limit", KindRateLimit.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
