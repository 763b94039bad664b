package httpclient

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies an Error
type Kind int

const (
	// KindGeneric covers non-2xx statuses without a dedicated kind
	KindGeneric Kind = iota
	// KindAuthentication is a 401: missing, invalid or expired API key
	KindAuthentication
	// KindForbidden is a 403: the plan does not include the resource
	KindForbidden
	// KindNotFound is a 404
	KindNotFound
	// KindRateLimit is a 429
	KindRateLimit
	// KindValidation is a 400 or 422
	KindValidation
	// KindServer is a 500, 502, 503 or 504
	KindServer
	// KindTimeout is an attempt that exceeded the configured timeout
	KindTimeout
	// KindNetwork is any other transport failure
	KindNetwork
)

var kindNames = map[Kind]string{
	KindGeneric:        "api",
	KindAuthentication: "authentication",
	KindForbidden:      "forbidden",
	KindNotFound:       "not found",
	KindRateLimit:      "rate limit",
	KindValidation:     "validation",
	KindServer:         "server",
	KindTimeout:        "timeout",
	KindNetwork:        "network",
}

// retryableKinds is the static retryability table. Generic may be overridden per error.
var retryableKinds = map[Kind]bool{
	KindNetwork:   true,
	KindTimeout:   true,
	KindServer:    true,
	KindRateLimit: true,
}

var defaultMessages = map[Kind]string{
	KindGeneric:        "API error",
	KindAuthentication: "invalid or expired API key",
	KindForbidden:      "plan not authorized for this resource",
	KindNotFound:       "resource not found",
	KindRateLimit:      "rate limit exceeded",
	KindValidation:     "invalid parameters",
	KindServer:         "internal server error",
	KindTimeout:        "request timed out",
	KindNetwork:        "connection error",
}

// String returns the lowercase kind name
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Retryable reports the static retryability of the kind.
func (k Kind) Retryable() bool {
	return retryableKinds[k]
}

// Sentinel errors for errors.Is checks. Every *Error matches the sentinel of its Kind.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrValidation     = errors.New("validation failed")
	ErrServer         = errors.New("server error")
	ErrTimeout        = errors.New("request timed out")
	ErrNetwork        = errors.New("network error")
)

var kindSentinels = map[Kind]error{
	KindAuthentication: ErrAuthentication,
	KindForbidden:      ErrForbidden,
	KindNotFound:       ErrNotFound,
	KindRateLimit:      ErrRateLimited,
	KindValidation:     ErrValidation,
	KindServer:         ErrServer,
	KindTimeout:        ErrTimeout,
	KindNetwork:        ErrNetwork,
}

// Error is the single error type returned by the client. Kind selects which
// of the payload fields are meaningful.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is 0 for transport failures
	StatusCode int
	// RequestID is the server correlation id of the failing attempt, when known
	RequestID string

	// RequiredPlan is set for KindForbidden when the API names the plan needed
	RequiredPlan string
	// Resource optionally names the missing resource for KindNotFound
	Resource string
	// RetryAfter is the Retry-After header in seconds for KindRateLimit, nil when absent
	RetryAfter *int
	// Fields maps field names to messages for KindValidation
	Fields map[string][]string
	// Timeout is the configured attempt timeout for KindTimeout
	Timeout time.Duration

	// Err is the underlying cause, when there is one
	Err error

	retryable *bool
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil && e.Kind == KindNetwork {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.RequestID != "" {
		b.WriteString(" (request_id: ")
		b.WriteString(e.RequestID)
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for the kind sentinels.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// Retryable reports whether the failure is transient. The per-error override
// set by WithRetryable wins over the kind's static flag.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.Kind.Retryable()
}

// WithRetryable returns a copy of the error with the retryability overridden.
func (e *Error) WithRetryable(retryable bool) *Error {
	c := *e
	c.retryable = &retryable
	return &c
}

// RetryAfterDuration returns the Retry-After hint as a duration.
func (e *Error) RetryAfterDuration() (time.Duration, bool) {
	if e.RetryAfter == nil {
		return 0, false
	}
	return time.Duration(*e.RetryAfter) * time.Second, true
}

// TimeoutSeconds returns the configured timeout in whole seconds.
func (e *Error) TimeoutSeconds() int {
	return int(e.Timeout / time.Second)
}

// HasFieldError reports whether the validation payload names field.
func (e *Error) HasFieldError(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// FieldErrors returns the validation messages for field.
func (e *Error) FieldErrors(field string) []string {
	return e.Fields[field]
}

// LogFields flattens the error for structured logging. Kind payload keys
// are present only when set.
func (e *Error) LogFields() map[string]any {
	fields := map[string]any{
		"error_type":    e.Kind.String(),
		"error_message": e.Message,
		"retryable":     e.Retryable(),
	}
	if e.StatusCode != 0 {
		fields["status_code"] = e.StatusCode
	}
	if e.RequestID != "" {
		fields["request_id"] = e.RequestID
	}
	if e.RequiredPlan != "" {
		fields["required_plan"] = e.RequiredPlan
	}
	if e.Resource != "" {
		fields["resource"] = e.Resource
	}
	if e.RetryAfter != nil {
		fields["retry_after"] = *e.RetryAfter
	}
	if len(e.Fields) > 0 {
		fields["errors"] = e.Fields
	}
	if e.Kind == KindTimeout {
		fields["timeout_seconds"] = e.TimeoutSeconds()
	}
	if e.Err != nil {
		fields["cause"] = e.Err.Error()
	}
	return fields
}

func newError(kind Kind, message string, status int, requestID string) *Error {
	if message == "" {
		message = defaultMessages[kind]
	}
	return &Error{Kind: kind, Message: message, StatusCode: status, RequestID: requestID}
}

// NewAuthenticationError creates a 401 error
func NewAuthenticationError(message, requestID string) *Error {
	return newError(KindAuthentication, message, 401, requestID)
}

// NewForbiddenError creates a 403 error
func NewForbiddenError(message, requiredPlan, requestID string) *Error {
	e := newError(KindForbidden, message, 403, requestID)
	e.RequiredPlan = requiredPlan
	return e
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(message, resource, requestID string) *Error {
	e := newError(KindNotFound, message, 404, requestID)
	e.Resource = resource
	return e
}

// NewRateLimitError creates a 429 error. retryAfter is nil when the server sent no hint.
func NewRateLimitError(message string, retryAfter *int, requestID string) *Error {
	e := newError(KindRateLimit, message, 429, requestID)
	e.RetryAfter = retryAfter
	return e
}

// NewValidationError creates a validation error for status 400 or 422
func NewValidationError(message string, status int, fields map[string][]string, requestID string) *Error {
	if fields == nil {
		fields = map[string][]string{}
	}
	e := newError(KindValidation, message, status, requestID)
	e.Fields = fields
	return e
}

// NewServerError creates a 5xx error
func NewServerError(message string, status int, requestID string) *Error {
	return newError(KindServer, message, status, requestID)
}

// NewGenericError creates an error for any other non-2xx status
func NewGenericError(message string, status int, requestID string) *Error {
	return newError(KindGeneric, message, status, requestID)
}

// NewTimeoutError creates a transport timeout error
func NewTimeoutError(message string, timeout time.Duration) *Error {
	if message == "" {
		message = fmt.Sprintf("timed out after %s", timeout)
	}
	e := newError(KindTimeout, message, 0, "")
	e.Timeout = timeout
	return e
}

// NewNetworkError creates a connection failure error wrapping cause
func NewNetworkError(message string, cause error) *Error {
	e := newError(KindNetwork, message, 0, "")
	e.Err = cause
	return e
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of the *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	if e, ok := AsError(err); ok {
		return e.Kind, true
	}
	return KindGeneric, false
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable()
}
