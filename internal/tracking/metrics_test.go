package tracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestMeterProvider(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	ResetForTesting()

	original := otel.GetMeterProvider()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		otel.SetMeterProvider(original)
		ResetForTesting()
	})

	return reader
}

func setupTestTracerProvider(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	original := otel.GetTracerProvider()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(original)
	})

	return exporter
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != instrumentationName {
			continue
		}
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumCounter(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum data")
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestRecordAttempt(t *testing.T) {
	reader := setupTestMeterProvider(t)
	ctx := context.Background()

	RecordAttempt(ctx, "GET", 500, OutcomeHTTPError)
	RecordAttempt(ctx, "GET", 200, OutcomeSuccess)
	RecordAttempt(ctx, "GET", 0, OutcomeTransport)

	metrics := collect(t, reader)
	m, ok := metrics[metricAttempts]
	require.True(t, ok, "expected attempts counter")
	assert.Equal(t, int64(3), sumCounter(t, m))

	sum := m.Data.(metricdata.Sum[int64])
	for _, dp := range sum.DataPoints {
		outcome, ok := dp.Attributes.Value(attrOutcome)
		require.True(t, ok)
		_, hasStatus := dp.Attributes.Value(attrStatusCode)
		assert.Equal(t, outcome.AsString() != OutcomeTransport, hasStatus,
			"status code attribute only for completed exchanges")
	}
}

func TestRecordRetry(t *testing.T) {
	reader := setupTestMeterProvider(t)
	ctx := context.Background()

	RecordRetry(ctx, "GET", StatusReason(503))
	RecordRetry(ctx, "GET", "network")

	m, ok := collect(t, reader)[metricRetries]
	require.True(t, ok, "expected retries counter")
	assert.Equal(t, int64(2), sumCounter(t, m))

	reasons := map[string]bool{}
	for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
		v, ok := dp.Attributes.Value(attrReason)
		require.True(t, ok)
		reasons[v.AsString()] = true
	}
	assert.Equal(t, map[string]bool{"503": true, "network": true}, reasons)
}

func TestRecordRateLimit(t *testing.T) {
	reader := setupTestMeterProvider(t)

	RecordRateLimit(context.Background(), 999)
	RecordRateLimit(context.Background(), 998)

	m, ok := collect(t, reader)[metricRateLimitRemaining]
	require.True(t, ok, "expected rate limit gauge")
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok, "expected int64 gauge data")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(998), gauge.DataPoints[0].Value)
}

func TestCallEndSuccess(t *testing.T) {
	reader := setupTestMeterProvider(t)
	exporter := setupTestTracerProvider(t)

	_, call := StartCall(context.Background(), "GET", "/consulta/sql", "call-1")
	call.End(2, 200, "req_1", "")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, spanName, span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)

	v, ok := attrValue(span.Attributes, attrAttempts)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())
	v, ok = attrValue(span.Attributes, attrRequestID)
	require.True(t, ok)
	assert.Equal(t, "req_1", v.AsString())
	v, ok = attrValue(span.Attributes, attrCallID)
	require.True(t, ok)
	assert.Equal(t, "call-1", v.AsString())

	m, ok := collect(t, reader)[metricCallDuration]
	require.True(t, ok, "expected duration histogram")
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	_, hasError := hist.DataPoints[0].Attributes.Value(attrErrorType)
	assert.False(t, hasError)
}

func TestCallEndError(t *testing.T) {
	reader := setupTestMeterProvider(t)
	exporter := setupTestTracerProvider(t)

	_, call := StartCall(context.Background(), "GET", "/consulta/sql", "call-2")
	call.End(1, 0, "", "timeout")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "timeout", spans[0].Status.Description)
	_, hasRequestID := attrValue(spans[0].Attributes, attrRequestID)
	assert.False(t, hasRequestID)

	hist := collect(t, reader)[metricCallDuration].Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	v, ok := hist.DataPoints[0].Attributes.Value(attrErrorType)
	require.True(t, ok)
	assert.Equal(t, "timeout", v.AsString())
}

func TestRecordWithoutProviderDoesNotPanic(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	assert.NotPanics(t, func() {
		ctx, call := StartCall(context.Background(), "POST", "/x", "id")
		RecordAttempt(ctx, "POST", 201, OutcomeSuccess)
		RecordRetry(ctx, "POST", "network")
		RecordRateLimit(ctx, 1)
		call.End(1, 201, "", "")
	})
}
