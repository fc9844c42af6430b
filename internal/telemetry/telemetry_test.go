package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	assert.False(t, tel.IsEnabled())
	assert.Equal(t, HealthStatus{Healthy: true}, tel.Health())
	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = ""

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_WithTraceExporter(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Metrics.Enabled = false
	exporter := tracetest.NewInMemoryExporter()

	tel, err := New(context.Background(), cfg, WithTraceExporter(exporter))
	require.NoError(t, err)
	assert.True(t, tel.IsEnabled())
	assert.False(t, tel.Health().Degraded)

	_, span := tel.Tracer("embedd").Start(context.Background(), "embed")
	span.End()
	require.NoError(t, tel.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "embed", spans[0].Name)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, tel.Shutdown(ctx))
	assert.False(t, tel.Health().Healthy)
}

func TestTelemetry_Degraded(t *testing.T) {
	tel := &Telemetry{config: NewDefaultConfig()}
	tel.healthy.Store(true)
	tel.setDegraded("tracer provider failed: %v", "boom")
	tel.setDegraded("meter provider failed: %v", "bang")

	status := tel.Health()
	assert.True(t, status.Degraded)
	assert.Equal(t, []string{"tracer provider failed: boom", "meter provider failed: bang"}, status.Reasons)
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry

	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.Nil(t, tel.LoggerProvider())
	assert.False(t, tel.IsEnabled())
	assert.True(t, tel.Health().Degraded)
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.ForceFlush(context.Background()))
	tel.SetLoggerProvider(nil)
}

func TestTestTelemetry(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("embedd").Start(ctx, "tei.EmbedBatch")
	span.SetAttributes(attribute.String("embed.model", "sentence-transformers/all-MiniLM-L6-v2"), attribute.Int("embed.batch_size", 3))
	span.SetStatus(codes.Error, "unavailable")
	span.End()

	tt.AssertSpanAttribute(t, "tei.EmbedBatch", "embed.model", "sentence-transformers/all-MiniLM-L6-v2")
	tt.AssertSpanAttribute(t, "tei.EmbedBatch", "embed.batch_size", 3)
	tt.AssertSpanStatus(t, "tei.EmbedBatch", codes.Error)
	assert.Len(t, tt.Spans(), 1)

	counter, err := tt.Meter("embedd").Int64Counter("embedd.test.calls")
	require.NoError(t, err)
	counter.Add(ctx, 2, metric.WithAttributes(attribute.String("embed.method", "grpc")))
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("embed.method", "fastembed")))

	assert.Equal(t, int64(3), tt.SumOf(t, "embedd.test.calls"))
	assert.Equal(t, int64(2), tt.SumOf(t, "embedd.test.calls", attribute.String("embed.method", "grpc")))
	_, ok := tt.Metric(t, "embedd.test.missing")
	assert.False(t, ok)
	assert.True(t, tt.IsEnabled())
}

func TestNewResource(t *testing.T) {
	cfg := NewDefaultConfig()
	res, err := newResource(cfg)
	require.NoError(t, err)

	v, ok := res.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "embedd", v.AsString())
}
