// Package httpclient is the request execution engine of the IPTU API client.
//
// A Client sends one logical call as a sequence of attempts through a
// Transport, retrying transient failures according to a RetryPolicy, tracking
// the server-reported rate limit, and mapping failures to *Error values.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/iptuapi/iptuapi-go/internal/tracking"
	"github.com/iptuapi/iptuapi-go/logger"
	"github.com/iptuapi/iptuapi-go/trace"
)

var (
	// ErrMissingAPIKey is returned by New when no API key is provided
	ErrMissingAPIKey = errors.New("API key is required")
	// ErrBodyNotAllowed is returned when a GET call is given a body
	ErrBodyNotAllowed = errors.New("GET requests cannot carry a body")
)

// Client is the request engine. It is safe for concurrent use; the rate-limit
// snapshot and last request id are shared by all calls, last writer wins.
type Client struct {
	baseURL   string
	timeout   time.Duration
	retry     RetryPolicy
	log       logger.Logger
	transport Transport
	headers   map[string]string

	state responseState
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client. A nil cfg uses DefaultConfig; zero fields of cfg take their defaults.
func New(apiKey string, cfg *Config) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}

	c := &Client{
		baseURL:   cfg.BaseURL,
		timeout:   cfg.Timeout,
		log:       logger.OrNop(cfg.Logger),
		transport: cfg.Transport,
		sleep:     sleep,
	}
	if c.baseURL == "" {
		c.baseURL = defaults.BaseURL
	}
	if c.timeout <= 0 {
		c.timeout = defaults.Timeout
	}

	retry := *defaults.Retry
	if cfg.Retry != nil {
		retry = cfg.Retry.clone()
	}
	if err := retry.Validate(); err != nil {
		return nil, err
	}
	c.retry = retry

	if c.transport == nil {
		c.transport = NewHTTPTransport()
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaults.UserAgent
	}
	c.headers = map[string]string{
		HeaderAPIKey:      apiKey,
		headerContentType: mediaTypeJSON,
		headerAccept:      mediaTypeJSON,
		headerUserAgent:   userAgent,
	}

	return c, nil
}

// RateLimit returns the most recent rate-limit snapshot, if any response carried one.
func (c *Client) RateLimit() (RateLimit, bool) {
	return c.state.snapshot()
}

// LastRequestID returns the X-Request-ID of the most recent response.
func (c *Client) LastRequestID() string {
	return c.state.requestID()
}

// RetryPolicy returns a copy of the policy in effect.
func (c *Client) RetryPolicy() RetryPolicy {
	return c.retry.clone()
}

// Timeout returns the per-attempt timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Get performs a GET call.
func (c *Client) Get(ctx context.Context, path string, query Query) (*Result, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST call with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Result, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// call is the per-invocation state of Do
type call struct {
	method   string
	path     string
	url      string
	body     []byte
	callID   string
	attempts int
	status   int
	// requestID is the X-Request-ID of the latest response this call received
	requestID string
	log       logger.Logger
}

// Do performs one logical call, retrying transient failures. body, when not
// nil, is sent as JSON ([]byte and json.RawMessage are sent verbatim).
// Failures are returned as *Error, except for request-building errors which
// happen before any attempt.
func (c *Client) Do(ctx context.Context, method, path string, query Query, body any) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method = strings.ToUpper(method)

	payload, err := encodeBody(method, body)
	if err != nil {
		return nil, err
	}

	cl := &call{
		method: method,
		path:   path,
		url:    buildURL(c.baseURL, path, query),
		body:   payload,
		callID: trace.EnsureCallID(ctx),
	}
	cl.log = c.log.WithFields(map[string]any{"call_id": cl.callID})

	ctx, tc := tracking.StartCall(ctx, method, path, cl.callID)
	result, err := c.execute(ctx, cl)

	errorType := ""
	if err != nil {
		errorType = "error"
		if apiErr, ok := AsError(err); ok {
			errorType = apiErr.Kind.String()
			safeLog(func() {
				cl.log.WithFields(apiErr.LogFields()).Debug().
					Int("attempts", cl.attempts).Str("url", cl.url).Msg("Request failed")
			})
		}
	}
	tc.End(cl.attempts, cl.status, cl.requestID, errorType)

	return result, err
}

func (c *Client) execute(ctx context.Context, cl *call) (*Result, error) {
	maxRetries := c.retry.MaxRetries
	var lastErr *Error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retry.DelayForAttempt(attempt - 1)
			safeLog(func() {
				cl.log.Warn().
					Int64("delay_ms", delay.Milliseconds()).
					Int("attempt", attempt).
					Int("max_retries", maxRetries).
					Str("url", cl.url).
					Msgf("Request failed, retrying in %dms (attempt %d/%d)", delay.Milliseconds(), attempt, maxRetries)
			})
			if err := c.sleep(ctx, delay); err != nil {
				return nil, canceled(err)
			}
		}

		safeLog(func() {
			cl.log.Debug().Str("method", cl.method).Str("url", cl.url).Int("attempt", attempt).Msg("Request")
		})

		resp, err := c.transport.Do(ctx, &Request{
			Method:  cl.method,
			URL:     cl.url,
			Headers: maps.Clone(c.headers),
			Body:    cl.body,
			Timeout: c.timeout,
		})
		cl.attempts = attempt + 1

		if err == nil && resp == nil {
			err = errors.New("transport returned no response")
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, canceled(ctxErr)
			}
			tracking.RecordAttempt(ctx, cl.method, 0, tracking.OutcomeTransport)
			apiErr := MapTransportError(err, c.timeout)
			if attempt < maxRetries {
				lastErr = apiErr
				tracking.RecordRetry(ctx, cl.method, apiErr.Kind.String())
				continue
			}
			return nil, apiErr
		}

		cl.status = resp.StatusCode
		cl.requestID = resp.Header(HeaderXRequestID)
		if rl, ok := c.state.observe(resp.Headers); ok {
			tracking.RecordRateLimit(ctx, rl.Remaining)
		}
		safeLog(func() {
			cl.log.Debug().Int("status", resp.StatusCode).Str("url", cl.url).
				Str("request_id", cl.requestID).Msg("Response")
		})

		if resp.IsSuccess() {
			tracking.RecordAttempt(ctx, cl.method, resp.StatusCode, tracking.OutcomeSuccess)
			return c.success(cl, resp), nil
		}

		tracking.RecordAttempt(ctx, cl.method, resp.StatusCode, tracking.OutcomeHTTPError)
		if c.retry.IsRetryable(resp.StatusCode) && attempt < maxRetries {
			tracking.RecordRetry(ctx, cl.method, tracking.StatusReason(resp.StatusCode))
			continue
		}

		data, _ := decodeLenient(resp.Body)
		return nil, MapStatus(resp.StatusCode, data, resp.Headers, c.state.requestID())
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, NewGenericError("max retries exceeded", 0, c.state.requestID())
}

func (c *Client) success(cl *call, resp *Response) *Result {
	data, ok := decodeLenient(resp.Body)
	raw := resp.Body
	if !ok {
		raw = []byte("{}")
		if len(resp.Body) > 0 {
			safeLog(func() {
				cl.log.Debug().Int("status", resp.StatusCode).Str("url", cl.url).
					Msg("Response body is not valid JSON, using empty object")
			})
		}
	}
	return &Result{
		Data:      data,
		Response:  resp,
		Attempts:  cl.attempts,
		RequestID: cl.requestID,
		raw:       raw,
	}
}

func encodeBody(method string, body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if method == http.MethodGet {
		return nil, ErrBodyNotAllowed
	}
	switch b := body.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, nil
}

// canceled reports a call aborted by its context. It is never retried.
func canceled(err error) *Error {
	return NewNetworkError("request canceled", err).WithRetryable(false)
}

// safeLog keeps logger panics away from the call outcome
func safeLog(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
