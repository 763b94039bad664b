package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RequestInterceptor is called before the request is sent
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// ResponseInterceptor is called after the response headers are received
type ResponseInterceptor func(ctx context.Context, req *http.Request, resp *http.Response) error

// HTTPTransport is the default Transport, built on net/http.
type HTTPTransport struct {
	client               *http.Client
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// HTTPTransportOption configures an HTTPTransport
type HTTPTransportOption func(*HTTPTransport)

// WithHTTPClient replaces the underlying *http.Client. The client is used as
// is; it is not wrapped with OpenTelemetry instrumentation.
func WithHTTPClient(c *http.Client) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithRequestInterceptor adds a request interceptor
func WithRequestInterceptor(interceptor RequestInterceptor) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.requestInterceptors = append(t.requestInterceptors, interceptor)
	}
}

// WithResponseInterceptor adds a response interceptor
func WithResponseInterceptor(interceptor ResponseInterceptor) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.responseInterceptors = append(t.responseInterceptors, interceptor)
	}
}

// NewHTTPTransport creates a transport whose client propagates trace context
// and records client spans through otelhttp.
func NewHTTPTransport(opts ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Do performs one exchange. req.Timeout, when positive, bounds the whole
// exchange including reading the body.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	attemptCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()
	httpReq, err := t.buildRequest(attemptCtx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, attemptCtx, err)
	}
	defer httpResp.Body.Close()

	if err := t.runResponseInterceptors(attemptCtx, httpReq, httpResp); err != nil {
		return nil, fmt.Errorf("response interceptor failed: %w", err)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classify(ctx, attemptCtx, fmt.Errorf("failed to read response body: %w", err))
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    map[string][]string(httpResp.Header),
		Stats:      Stats{ElapsedTime: time.Since(start)},
	}, nil
}

func (t *HTTPTransport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	for _, interceptor := range t.requestInterceptors {
		if err := interceptor(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("request interceptor failed: %w", err)
		}
	}
	return httpReq, nil
}

func (t *HTTPTransport) runResponseInterceptors(ctx context.Context, req *http.Request, resp *http.Response) error {
	for _, interceptor := range t.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

// classify marks attempt deadline expiry as ErrTransportTimeout. Cancellation
// of the caller's context is returned unchanged.
func classify(parent, attemptCtx context.Context, err error) error {
	if parent.Err() != nil {
		return err
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTransportTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTransportTimeout, err)
	}
	return err
}
