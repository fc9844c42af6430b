package telemetry

import (
	"context"
	"reflect"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry is an enabled Telemetry that keeps spans and metrics in
// memory. Pass its Tracer or Meter to the component under test.
type TestTelemetry struct {
	*Telemetry

	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

func NewTestTelemetry() *TestTelemetry {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()

	tel := &Telemetry{
		config:         cfg,
		tracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		meterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
	tel.healthy.Store(true)
	return &TestTelemetry{Telemetry: tel, spans: spans, reader: reader}
}

// Spans returns the ended spans in end order.
func (t *TestTelemetry) Spans() []sdktrace.ReadOnlySpan {
	return t.spans.Ended()
}

// Span returns the last ended span called name, failing tb if none.
func (t *TestTelemetry) Span(tb testing.TB, name string) sdktrace.ReadOnlySpan {
	tb.Helper()
	spans := t.Spans()
	for i := len(spans) - 1; i >= 0; i-- {
		if spans[i].Name() == name {
			return spans[i]
		}
	}
	tb.Fatalf("no ended span %q among %d", name, len(spans))
	return nil
}

// SpanAttributes returns the attributes of Span(name) keyed by name.
func (t *TestTelemetry) SpanAttributes(tb testing.TB, name string) map[string]any {
	tb.Helper()
	out := map[string]any{}
	for _, kv := range t.Span(tb, name).Attributes() {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

// AssertSpanAttribute fails tb unless Span(name) has key == want. An int
// want is compared as int64, the SDK's integer type.
func (t *TestTelemetry) AssertSpanAttribute(tb testing.TB, name, key string, want any) {
	tb.Helper()
	if n, ok := want.(int); ok {
		want = int64(n)
	}
	got, ok := t.SpanAttributes(tb, name)[key]
	if !ok {
		tb.Errorf("span %q has no attribute %q", name, key)
		return
	}
	if !reflect.DeepEqual(got, want) {
		tb.Errorf("span %q attribute %q = %v, want %v", name, key, got, want)
	}
}

// AssertSpanStatus fails tb unless Span(name) ended with code.
func (t *TestTelemetry) AssertSpanStatus(tb testing.TB, name string, code codes.Code) {
	tb.Helper()
	if got := t.Span(tb, name).Status().Code; got != code {
		tb.Errorf("span %q status %s, want %s", name, got, code)
	}
}

// Metric collects once and returns the metric called name.
func (t *TestTelemetry) Metric(tb testing.TB, name string) (metricdata.Metrics, bool) {
	tb.Helper()
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(context.Background(), &rm); err != nil {
		tb.Fatalf("collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// SumOf returns the total of an int64 counter across attribute sets that
// include every attr given.
func (t *TestTelemetry) SumOf(tb testing.TB, name string, attrs ...attribute.KeyValue) int64 {
	tb.Helper()
	m, ok := t.Metric(tb, name)
	if !ok {
		tb.Fatalf("no metric %q", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		tb.Fatalf("metric %q is %T, not an int64 sum", name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if hasAll(dp.Attributes, attrs) {
			total += dp.Value
		}
	}
	return total
}

func hasAll(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		v, ok := set.Value(kv.Key)
		if !ok || v.Emit() != kv.Value.Emit() {
			return false
		}
	}
	return true
}
