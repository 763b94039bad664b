package httpclient

import "encoding/json"

// Result is the outcome of a successful call.
type Result struct {
	// Data is the decoded JSON body; an empty object when the body was empty or malformed
	Data any
	// Response is the final 2xx response
	Response *Response
	// Attempts is the number of transport attempts the call took
	Attempts int
	// RequestID is the X-Request-ID of the final response
	RequestID string

	raw []byte
}

// Decode unmarshals the JSON body into v.
func (r *Result) Decode(v any) error {
	return json.Unmarshal(r.raw, v)
}

// Map returns Data as an object, or nil when the body is not a JSON object.
func (r *Result) Map() map[string]any {
	m, _ := r.Data.(map[string]any)
	return m
}

// List returns Data as an array, or nil when the body is not a JSON array.
func (r *Result) List() []any {
	l, _ := r.Data.([]any)
	return l
}
