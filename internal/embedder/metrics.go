package embedder

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/embedd/internal/embedder"

// Metrics holds embedding metrics. A nil *Metrics records nothing.
type Metrics struct {
	meter         metric.Meter
	logger        *zap.Logger
	duration      metric.Float64Histogram
	batchSize     metric.Int64Histogram
	errors        metric.Int64Counter
	resourceInits metric.Int64Counter
}

// NewMetrics creates Metrics on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	return NewMetricsWithMeter(otel.Meter(instrumentationName), logger)
}

// NewMetricsWithMeter creates Metrics on the given meter.
func NewMetricsWithMeter(meter metric.Meter, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  meter,
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.duration, err = m.meter.Float64Histogram(
		"embedd.embedding.duration_seconds",
		metric.WithDescription("Duration of embed calls in seconds, labeled by method (fastembed, grpc) and model. Includes lazy model load or connect on first use."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.batchSize, err = m.meter.Int64Histogram(
		"embedd.embedding.batch_size",
		metric.WithDescription("Number of input items per embed call."),
		metric.WithUnit("{item}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 25, 50, 100, 250, 500),
	)
	if err != nil {
		m.logger.Warn("failed to create batch size histogram", zap.Error(err))
	}

	m.errors, err = m.meter.Int64Counter(
		"embedd.embedding.errors_total",
		metric.WithDescription("Failed embed calls by method and model. Includes model load failures, connect failures and RPC errors."),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.logger.Warn("failed to create errors counter", zap.Error(err))
	}

	m.resourceInits, err = m.meter.Int64Counter(
		"embedd.embedding.resource_inits_total",
		metric.WithDescription("Heavy backend resources built per worker (loaded models, RPC clients), labeled by method, model and outcome."),
		metric.WithUnit("{init}"),
	)
	if err != nil {
		m.logger.Warn("failed to create resource init counter", zap.Error(err))
	}
}

// RecordEmbed records one embed call.
func (m *Metrics) RecordEmbed(ctx context.Context, method, model string, duration time.Duration, batchSize int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("model", model),
	)

	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), attrs)
	}
	if batchSize > 0 && m.batchSize != nil {
		m.batchSize.Record(ctx, int64(batchSize), attrs)
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}

// RecordResourceInit records one attempt to build a heavy resource.
func (m *Metrics) RecordResourceInit(ctx context.Context, method, model string, err error) {
	if m == nil || m.resourceInits == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.resourceInits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	))
}
