package httpclient

import (
	"context"
	"time"

	"github.com/iptuapi/iptuapi-go/logger"
	"github.com/iptuapi/iptuapi-go/trace"
)

const (
	// DefaultBaseURL is the production IPTU API endpoint
	DefaultBaseURL = "https://iptuapi.com.br/api/v1"
	// DefaultTimeout bounds a single attempt
	DefaultTimeout = 30 * time.Second
	// Version is the client library version reported in the default User-Agent
	Version = "2.0.0"
	// DefaultUserAgent identifies this library to the API
	DefaultUserAgent = "iptuapi-go/" + Version

	// HeaderAPIKey carries the account API key on every request
	HeaderAPIKey = "X-API-Key"
	// HeaderXRequestID is the server-assigned correlation id
	HeaderXRequestID = trace.HeaderXRequestID

	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	headerUserAgent   = "User-Agent"
	mediaTypeJSON     = "application/json"
)

// Transport performs exactly one HTTP exchange. Implementations must return
// an error wrapping ErrTransportTimeout (or a net.Error reporting Timeout)
// when the attempt timed out; any other error is treated as a connection failure.
// A non-nil Response with any status code means the exchange completed.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req)
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Request is the wire-level description of one attempt
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// Config holds the client configuration. It is read once by New; later
// changes to the struct do not affect an existing Client.
type Config struct {
	// BaseURL is prefixed to every path (default: DefaultBaseURL)
	BaseURL string
	// Timeout bounds each attempt (default: DefaultTimeout)
	Timeout time.Duration
	// Retry is the retry policy (default: DefaultRetryPolicy)
	Retry *RetryPolicy
	// Logger receives retry and debug events (default: no-op)
	Logger logger.Logger
	// UserAgent is sent on every request (default: DefaultUserAgent)
	UserAgent string
	// Transport performs the HTTP exchange (default: NewHTTPTransport)
	Transport Transport
}

// DefaultConfig returns the configuration used when New receives nil.
func DefaultConfig() *Config {
	retry := DefaultRetryPolicy()
	return &Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		Retry:     &retry,
		UserAgent: DefaultUserAgent,
	}
}
