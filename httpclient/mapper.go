package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"
)

// ErrTransportTimeout must be wrapped by transports when an attempt times out.
var ErrTransportTimeout = errors.New("transport: operation timed out")

// MapStatus builds the *Error for a non-2xx response.
// body is the leniently decoded response body and may be nil.
// The request id comes from the response's X-Request-ID header, falling back to lastRequestID.
func MapStatus(statusCode int, body any, headers map[string][]string, lastRequestID string) *Error {
	fields, _ := body.(map[string]any)
	message, _ := fields["detail"].(string)

	requestID := lastRequestID
	if id, ok := headerValue(headers, HeaderXRequestID); ok && id != "" {
		requestID = id
	}

	switch statusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return NewValidationError(message, statusCode, validationFields(fields["errors"]), requestID)
	case http.StatusUnauthorized:
		return NewAuthenticationError(message, requestID)
	case http.StatusForbidden:
		plan, _ := fields["required_plan"].(string)
		return NewForbiddenError(message, plan, requestID)
	case http.StatusNotFound:
		return NewNotFoundError(message, "", requestID)
	case http.StatusTooManyRequests:
		return NewRateLimitError(message, retryAfterSeconds(headers), requestID)
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return NewServerError(message, statusCode, requestID)
	default:
		return NewGenericError(message, statusCode, requestID)
	}
}

// MapTransportError classifies a transport failure. No status table is consulted.
func MapTransportError(err error, timeout time.Duration) *Error {
	if isTimeout(err) {
		e := NewTimeoutError("", timeout)
		e.Err = err
		return e
	}
	return NewNetworkError("", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, ErrTransportTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// validationFields accepts {"field": ["msg", ...]} and tolerates {"field": "msg"}.
func validationFields(raw any) map[string][]string {
	out := map[string][]string{}
	m, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	for field, v := range m {
		switch msgs := v.(type) {
		case []any:
			list := make([]string, 0, len(msgs))
			for _, msg := range msgs {
				if s, ok := msg.(string); ok {
					list = append(list, s)
				}
			}
			out[field] = list
		case string:
			out[field] = []string{msgs}
		}
	}
	return out
}

func retryAfterSeconds(headers map[string][]string) *int {
	raw, ok := headerValue(headers, "retry-after")
	if !ok {
		return nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return nil
	}
	return &secs
}

// decodeLenient returns the decoded body, or an empty object when the body is
// empty or malformed. Only the engine's success and error paths use it.
func decodeLenient(body []byte) (any, bool) {
	var v any
	if len(body) == 0 || json.Unmarshal(body, &v) != nil || v == nil {
		return map[string]any{}, false
	}
	return v, true
}
