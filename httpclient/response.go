package httpclient

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Response is a completed HTTP exchange. Header names keep the case the
// transport delivered them in; lookups through Header are case-insensitive.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string][]string
	Stats      Stats
}

// Stats contains attempt execution statistics
type Stats struct {
	ElapsedTime time.Duration
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// JSON decodes the body into generic Go values (map[string]any, []any, ...).
// It returns nil for an empty or malformed body.
func (r *Response) JSON() any {
	if len(r.Body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil
	}
	return v
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Header returns the first value of the named header, matched case-insensitively.
func (r *Response) Header(name string) string {
	values := r.HeaderValues(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// HeaderValues returns every value of the named header, matched case-insensitively.
func (r *Response) HeaderValues(name string) []string {
	return headerValues(r.Headers, name)
}

func headerValues(headers map[string][]string, name string) []string {
	if v, ok := headers[name]; ok {
		return v
	}
	if v, ok := headers[http.CanonicalHeaderKey(name)]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func headerValue(headers map[string][]string, name string) (string, bool) {
	values := headerValues(headers, name)
	if len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}
