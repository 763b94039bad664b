package httpclient

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"time"
)

// Retry policy defaults
const (
	DefaultMaxRetries    = 3
	DefaultInitialDelay  = 500 * time.Millisecond
	DefaultMaxDelay      = 10 * time.Second
	DefaultBackoffFactor = 2.0
)

// ErrInvalidRetryPolicy is wrapped by every RetryPolicy.Validate failure
var ErrInvalidRetryPolicy = errors.New("invalid retry policy")

// RetryPolicy configures retries for failed attempts. Delays have millisecond granularity.
type RetryPolicy struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps every computed delay.
	MaxDelay time.Duration
	// BackoffFactor multiplies the delay after each retry.
	BackoffFactor float64
	// RetryableStatuses lists the HTTP statuses that trigger a retry.
	RetryableStatuses []int
}

// DefaultRetryPolicy returns 3 retries, 500ms doubling up to 10s, on 429 and 5xx gateway errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    DefaultMaxRetries,
		InitialDelay:  DefaultInitialDelay,
		MaxDelay:      DefaultMaxDelay,
		BackoffFactor: DefaultBackoffFactor,
		RetryableStatuses: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// Validate checks the policy invariants.
func (p RetryPolicy) Validate() error {
	switch {
	case p.MaxRetries < 0:
		return fmt.Errorf("%w: max retries must not be negative, got %d", ErrInvalidRetryPolicy, p.MaxRetries)
	case p.InitialDelay < time.Millisecond:
		return fmt.Errorf("%w: initial delay must be at least 1ms, got %s", ErrInvalidRetryPolicy, p.InitialDelay)
	case p.MaxDelay < p.InitialDelay:
		return fmt.Errorf("%w: max delay %s is lower than initial delay %s", ErrInvalidRetryPolicy, p.MaxDelay, p.InitialDelay)
	case p.BackoffFactor < 1 || math.IsNaN(p.BackoffFactor):
		return fmt.Errorf("%w: backoff factor must be >= 1, got %v", ErrInvalidRetryPolicy, p.BackoffFactor)
	}
	return nil
}

// IsRetryable reports whether statusCode is one of the retryable statuses.
func (p RetryPolicy) IsRetryable(statusCode int) bool {
	return slices.Contains(p.RetryableStatuses, statusCode)
}

// DelayForAttempt returns the wait before retry attemptIndex+1:
// InitialDelay * BackoffFactor^attemptIndex, truncated to whole milliseconds
// and capped at MaxDelay.
func (p RetryPolicy) DelayForAttempt(attemptIndex int) time.Duration {
	if attemptIndex < 0 {
		attemptIndex = 0
	}
	maxMs := p.MaxDelay.Milliseconds()
	delayMs := float64(p.InitialDelay.Milliseconds()) * math.Pow(p.BackoffFactor, float64(attemptIndex))
	if math.IsNaN(delayMs) || delayMs >= float64(maxMs) {
		return time.Duration(maxMs) * time.Millisecond
	}
	return time.Duration(int64(delayMs)) * time.Millisecond
}

// Wait sleeps for DelayForAttempt(attemptIndex) or until ctx is done.
func (p RetryPolicy) Wait(ctx context.Context, attemptIndex int) error {
	return sleep(ctx, p.DelayForAttempt(attemptIndex))
}

func (p RetryPolicy) clone() RetryPolicy {
	p.RetryableStatuses = slices.Clone(p.RetryableStatuses)
	return p
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
