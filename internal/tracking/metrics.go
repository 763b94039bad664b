// Package tracking records OpenTelemetry metrics and spans for IPTU API calls.
// It uses the global providers, so it is a no-op until the host application
// installs an SDK.
package tracking

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// instrumentationName is the meter and tracer scope name
	instrumentationName = "github.com/iptuapi/iptuapi-go/httpclient"

	metricCallDuration       = "iptuapi.client.request.duration" // Histogram in seconds, one point per logical call
	metricAttempts           = "iptuapi.client.attempts"         // Counter, one per transport attempt
	metricRetries            = "iptuapi.client.retries"          // Counter, one per scheduled retry
	metricRateLimitRemaining = "iptuapi.client.ratelimit.remaining"

	spanName = "iptuapi.request"

	attrMethod     = "http.request.method"
	attrPath       = "url.path"
	attrStatusCode = "http.response.status_code"
	attrOutcome    = "iptuapi.outcome"
	attrErrorType  = "error.type"
	attrAttempts   = "iptuapi.attempts"
	attrCallID     = "iptuapi.call_id"
	attrRequestID  = "iptuapi.request_id"
	attrReason     = "iptuapi.retry.reason"
)

// Outcome values for attempts and calls
const (
	OutcomeSuccess   = "success"
	OutcomeHTTPError = "http_error"
	OutcomeTransport = "transport_error"
)

var (
	meterOnce   sync.Once
	meterInitMu sync.Mutex
	meter       metric.Meter

	callDuration       metric.Float64Histogram
	attemptCounter     metric.Int64Counter
	retryCounter       metric.Int64Counter
	rateLimitRemaining metric.Int64Gauge
)

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize iptuapi metric %s: %v\n", metricName, err)
	}
}

func initMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if meter != nil {
		return
	}
	meter = otel.Meter(instrumentationName)

	var err error
	callDuration, err = meter.Float64Histogram(
		metricCallDuration,
		metric.WithDescription("Duration of IPTU API calls including retries"),
		metric.WithUnit("s"),
	)
	logMetricError(metricCallDuration, err)

	attemptCounter, err = meter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of transport attempts"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	retryCounter, err = meter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of retries scheduled after a failed attempt"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(metricRetries, err)

	rateLimitRemaining, err = meter.Int64Gauge(
		metricRateLimitRemaining,
		metric.WithDescription("Remaining requests reported by the API"),
		metric.WithUnit("{request}"),
	)
	logMetricError(metricRateLimitRemaining, err)
}

func ensureMeter() {
	meterOnce.Do(initMeter)
}

// RecordAttempt counts one transport attempt. status is 0 for transport failures.
func RecordAttempt(ctx context.Context, method string, status int, outcome string) {
	ensureMeter()
	if attemptCounter == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrOutcome, outcome),
	}
	if status != 0 {
		attrs = append(attrs, attribute.Int(attrStatusCode, status))
	}
	attemptCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRetry counts one scheduled retry. reason is a status code or an error kind.
func RecordRetry(ctx context.Context, method, reason string) {
	ensureMeter()
	if retryCounter == nil {
		return
	}
	retryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrReason, reason),
	))
}

// RecordRateLimit records the remaining quota of the latest response.
func RecordRateLimit(ctx context.Context, remaining int) {
	ensureMeter()
	if rateLimitRemaining == nil {
		return
	}
	rateLimitRemaining.Record(ctx, int64(remaining))
}

// Call tracks one logical call from start to its terminal outcome.
type Call struct {
	ctx     context.Context
	span    trace.Span
	method  string
	started time.Time
}

// StartCall opens the call span. The returned context carries it.
func StartCall(ctx context.Context, method, path, callID string) (context.Context, *Call) {
	ensureMeter()
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrMethod, method),
			attribute.String(attrPath, path),
			attribute.String(attrCallID, callID),
		),
	)
	return ctx, &Call{ctx: ctx, span: span, method: method, started: time.Now()}
}

// End closes the span and records the call duration. errorType is empty on success.
func (c *Call) End(attempts, status int, requestID, errorType string) {
	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, c.method),
	}
	spanAttrs := []attribute.KeyValue{attribute.Int(attrAttempts, attempts)}
	if status != 0 {
		attrs = append(attrs, attribute.Int(attrStatusCode, status))
	}
	if requestID != "" {
		spanAttrs = append(spanAttrs, attribute.String(attrRequestID, requestID))
	}

	if errorType != "" {
		attrs = append(attrs, attribute.String(attrErrorType, errorType))
		c.span.SetStatus(codes.Error, errorType)
	} else {
		c.span.SetStatus(codes.Ok, "")
	}
	c.span.SetAttributes(append(spanAttrs, attrs...)...)
	c.span.End()

	if callDuration != nil {
		callDuration.Record(c.ctx, time.Since(c.started).Seconds(), metric.WithAttributes(attrs...))
	}
}

// StatusReason formats a status code as a retry reason.
func StatusReason(status int) string {
	return strconv.Itoa(status)
}

// ResetForTesting resets the metric state for testing purposes.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	meter = nil
	callDuration = nil
	attemptCounter = nil
	retryCounter = nil
	rateLimitRemaining = nil
	meterOnce = sync.Once{}
}
