package local

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/fyrsmithlabs/embedd/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type fakeEngine struct {
	dim    int
	err    error
	closed *atomic.Int32
}

func (f *fakeEngine) Embed(texts []string, _ int) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, s := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(s))
		out[i] = v
	}
	return out, nil
}

func (f *fakeEngine) Close() error {
	f.closed.Add(1)
	return nil
}

type fakeLoader struct {
	loads    atomic.Int32
	closed   atomic.Int32
	failNext atomic.Int32
	embedErr error
	last     LoadOptions
}

func (l *fakeLoader) load(opts LoadOptions) (Engine, error) {
	l.last = opts
	if l.failNext.Add(-1) >= 0 {
		return nil, errors.New("download failed")
	}
	l.failNext.Store(0)
	l.loads.Add(1)
	info, _ := Models.ByID(engineToID[opts.Code])
	return &fakeEngine{dim: info.Dimension, err: l.embedErr, closed: &l.closed}, nil
}

func newTestEmbedder(t *testing.T, opts ...Option) (*Embedder, *fakeLoader) {
	t.Helper()
	fl := &fakeLoader{}
	opts = append([]Option{WithLoader(fl.load)}, opts...)
	return New(Config{CacheDir: t.TempDir()}, opts...), fl
}

func TestEmbed_AllMiniLML6V2(t *testing.T) {
	e, fl := newTestEmbedder(t)
	wc := embedder.NewWorkerContext(0)
	defer wc.Close()

	res, err := e.Embed(context.Background(), wc, 0, embedder.Texts{"hello", "world"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 384, res.Dimension)
	assert.Len(t, res.Flat, 768)
	assert.Equal(t, float32(5), res.Row(0)[0])
	assert.Equal(t, "fast-all-MiniLM-L6-v2", fl.last.Code)
	assert.Equal(t, 512, fl.last.MaxLength)
}

func TestEmbed_CachedPerWorker(t *testing.T) {
	e, fl := newTestEmbedder(t)
	wc := embedder.NewWorkerContext(0)

	first, err := e.Embed(context.Background(), wc, 3, embedder.Texts{"a", "b", "c"})
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), wc, 3, embedder.Texts{"x", "y", "z"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), fl.loads.Load())
	assert.Equal(t, first.Count, second.Count)
	assert.Equal(t, first.Dimension, second.Dimension)
	assert.True(t, wc.Has(MethodID, 3))

	other := embedder.NewWorkerContext(1)
	_, err = e.Embed(context.Background(), other, 3, embedder.Texts{"a"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), fl.loads.Load())

	require.NoError(t, wc.Close())
	require.NoError(t, other.Close())
	assert.Equal(t, int32(2), fl.closed.Load())
}

func TestEmbed_UnknownModel(t *testing.T) {
	e, fl := newTestEmbedder(t)

	_, err := e.Embed(context.Background(), embedder.NewWorkerContext(0), 99, embedder.Texts{"a"})
	assert.ErrorIs(t, err, embedder.ErrUnknownModel)
	assert.Zero(t, fl.loads.Load())
}

func TestEmbed_EmptyInput(t *testing.T) {
	e, _ := newTestEmbedder(t)
	wc := embedder.NewWorkerContext(0)

	_, err := e.Embed(context.Background(), wc, 0, embedder.Texts{})
	assert.ErrorIs(t, err, embedder.ErrEmptyInput)
	_, err = e.Embed(context.Background(), wc, 0, nil)
	assert.ErrorIs(t, err, embedder.ErrEmptyInput)
}

func TestEmbed_CancelledContext(t *testing.T) {
	e, fl := newTestEmbedder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Embed(ctx, embedder.NewWorkerContext(0), 0, embedder.Texts{"a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fl.loads.Load())
}

func TestEmbed_LoadFailureNotCached(t *testing.T) {
	reader := metric.NewManualReader()
	m := embedder.NewMetricsWithMeter(metric.NewMeterProvider(metric.WithReader(reader)).Meter("test"), zap.NewNop())
	tl := logging.NewTestLogger()
	e, fl := newTestEmbedder(t, WithMetrics(m), WithLogger(tl.Logger))
	fl.failNext.Store(1)
	wc := embedder.NewWorkerContext(0)

	_, err := e.Embed(context.Background(), wc, 1, embedder.Texts{"a"})
	require.ErrorIs(t, err, embedder.ErrBackendInit)
	assert.False(t, wc.Has(MethodID, 1))
	tl.AssertLogged(t, zap.WarnLevel, "model load failed")

	res, err := e.Embed(context.Background(), wc, 1, embedder.Texts{"a"})
	require.NoError(t, err)
	assert.Equal(t, 768, res.Dimension)
	tl.AssertLogged(t, zap.InfoLevel, "model loaded")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var inits int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "embedd.embedding.resource_inits_total" {
				continue
			}
			for _, dp := range md.Data.(metricdata.Sum[int64]).DataPoints {
				inits += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), inits)
}

func TestEmbed_EngineFailure(t *testing.T) {
	e, fl := newTestEmbedder(t)
	fl.embedErr = errors.New("onnx session error")

	_, err := e.Embed(context.Background(), embedder.NewWorkerContext(0), 0, embedder.Texts{"a"})
	assert.ErrorIs(t, err, embedder.ErrEmbedFailed)
	assert.Contains(t, err.Error(), "onnx session error")
}

func TestEmbedder_Identity(t *testing.T) {
	e := New(Config{})

	assert.Equal(t, int32(0), e.MethodID())
	assert.Equal(t, "fastembed", e.MethodName())
	assert.Len(t, e.Models(), 6)
	assert.True(t, e.SupportsModelID(5, embedder.InputText))
	assert.False(t, e.SupportsModelID(5, embedder.InputImage))
	assert.False(t, e.SupportsModelID(6, embedder.InputText))
	assert.Equal(t, Config{CacheDir: "./fastembed_models", MaxLength: 512, BatchSize: 256}, e.cfg)
}
