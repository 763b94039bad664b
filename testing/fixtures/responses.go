package fixtures

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/iptuapi/iptuapi-go/httpclient"
	"github.com/iptuapi/iptuapi-go/testing/mocks"
)

// Default values of the headers attached by SuccessResponse
const (
	DefaultRateLimit     = 1000
	DefaultRemaining     = 999
	DefaultReset         = int64(1704067200)
	DefaultRequestID     = "req_test123"
	ContentTypeJSON      = "application/json"
	headerContentType    = "Content-Type"
	headerRateLimit      = "X-RateLimit-Limit"
	headerRateRemaining  = "X-RateLimit-Remaining"
	headerRateLimitReset = "X-RateLimit-Reset"
	headerRequestID      = "X-Request-ID"
)

// JSONResponse builds a response whose body is data encoded as JSON.
// A []byte or string data is used verbatim.
func JSONResponse(status int, data any, headers map[string]string) *httpclient.Response {
	var body []byte
	switch d := data.(type) {
	case nil:
	case []byte:
		body = d
	case string:
		body = []byte(d)
	default:
		var err error
		body, err = json.Marshal(d)
		if err != nil {
			panic("fixtures: cannot marshal response body: " + err.Error())
		}
	}

	h := map[string][]string{headerContentType: {ContentTypeJSON}}
	for k, v := range headers {
		h[k] = []string{v}
	}
	return &httpclient.Response{StatusCode: status, Body: body, Headers: h}
}

// RateLimitHeaders returns the three rate-limit headers and a request id
func RateLimitHeaders(limit, remaining int, reset int64, requestID string) map[string]string {
	return map[string]string{
		headerRateLimit:      strconv.Itoa(limit),
		headerRateRemaining:  strconv.Itoa(remaining),
		headerRateLimitReset: strconv.FormatInt(reset, 10),
		headerRequestID:      requestID,
	}
}

// SuccessResponse builds a 200 response carrying the default rate-limit headers and request id.
func SuccessResponse(data any) *httpclient.Response {
	return JSONResponse(http.StatusOK, data,
		RateLimitHeaders(DefaultRateLimit, DefaultRemaining, DefaultReset, DefaultRequestID))
}

// ErrorResponse builds an error response with {"detail": detail} merged with extra.
func ErrorResponse(status int, detail string, extra map[string]any, headers map[string]string) *httpclient.Response {
	body := map[string]any{"detail": detail}
	for k, v := range extra {
		body[k] = v
	}
	return JSONResponse(status, body, headers)
}

// NewTransportWith returns a mock transport with responses queued in order.
func NewTransportWith(resps ...*httpclient.Response) *mocks.MockTransport {
	return mocks.NewMockTransport().AddResponses(resps...)
}
