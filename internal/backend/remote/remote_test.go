package remote

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fyrsmithlabs/embedd/internal/config"
	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/fyrsmithlabs/embedd/internal/logging"
	"github.com/fyrsmithlabs/embedd/internal/tei"
	"github.com/fyrsmithlabs/embedd/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// teiServer answers EmbedBatch from a scripted handler.
type teiServer struct {
	tei.UnimplementedEmbedServer

	mu      sync.Mutex
	handler func(*tei.EmbedBatchRequest) (*tei.EmbedBatchResponse, error)
	auth    []string
	models  []string
}

func (s *teiServer) EmbedBatch(ctx context.Context, req *tei.EmbedBatchRequest) (*tei.EmbedBatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, _ := metadata.FromIncomingContext(ctx)
	s.auth = append(s.auth, md.Get("authorization")...)
	s.models = append(s.models, req.Model)
	return s.handler(req)
}

func (s *teiServer) set(h func(*tei.EmbedBatchRequest) (*tei.EmbedBatchResponse, error)) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// perInput returns one vector per input: [len(input), i, 0.5].
func perInput(req *tei.EmbedBatchRequest) (*tei.EmbedBatchResponse, error) {
	resp := &tei.EmbedBatchResponse{}
	for i, in := range req.Inputs {
		resp.Embeddings = append(resp.Embeddings, &tei.Embedding{Values: []float32{float32(len(in)), float32(i), 0.5}})
	}
	return resp, nil
}

type harness struct {
	srv   *teiServer
	dials *atomic.Int32
	e     *Embedder
	log   *logging.TestLogger
	tel   *telemetry.TestTelemetry
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := &teiServer{handler: perInput}
	gs := grpc.NewServer(tei.ServerCodec())
	tei.RegisterEmbedServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	dials := &atomic.Int32{}
	tl := logging.NewTestLogger()
	tt := telemetry.NewTestTelemetry()
	e := New(cfg,
		WithLogger(tl.Logger),
		WithTracer(tt.Tracer(tracerName)),
		WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			dials.Add(1)
			return lis.DialContext(ctx)
		})),
	)
	return &harness{srv: srv, dials: dials, e: e, log: tl, tel: tt}
}

func TestEmbed_FlattensInInputOrder(t *testing.T) {
	h := newHarness(t, Config{})
	wc := embedder.NewWorkerContext(0)
	defer wc.Close()

	res, err := h.e.Embed(context.Background(), wc, 0, embedder.Texts{"a", "bbb", "cc"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 3, res.Dimension)
	assert.Equal(t, []float32{1, 0, 0.5, 3, 1, 0.5, 2, 2, 0.5}, res.Flat)
	assert.Equal(t, []string{"sentence-transformers/all-MiniLM-L6-v2"}, h.srv.models)
	assert.Empty(t, h.srv.auth)

	h.tel.AssertSpanAttribute(t, "tei.EmbedBatch", "embed.model", "sentence-transformers/all-MiniLM-L6-v2")
	h.tel.AssertSpanAttribute(t, "tei.EmbedBatch", "embed.batch_size", 3)
	h.tel.AssertSpanAttribute(t, "tei.EmbedBatch", "embed.dimension", 3)
	h.tel.AssertSpanStatus(t, "tei.EmbedBatch", otelcodes.Unset)
}

func TestEmbed_ReusesConnection(t *testing.T) {
	h := newHarness(t, Config{})
	wc := embedder.NewWorkerContext(0)
	defer wc.Close()

	for i := 0; i < 3; i++ {
		_, err := h.e.Embed(context.Background(), wc, 1, embedder.Texts{"x"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), h.dials.Load())
	assert.True(t, wc.Has(MethodID, embedder.SingletonModel))
}

func TestEmbed_MalformedReplyDropsConnection(t *testing.T) {
	tests := []struct {
		name   string
		inputs embedder.Texts
		reply  *tei.EmbedBatchResponse
	}{
		{name: "zero embeddings", inputs: embedder.Texts{"a"}, reply: &tei.EmbedBatchResponse{}},
		{
			name:   "count mismatch",
			inputs: embedder.Texts{"a", "b"},
			reply:  &tei.EmbedBatchResponse{Embeddings: []*tei.Embedding{{Values: []float32{1, 2}}}},
		},
		{
			name:   "ragged",
			inputs: embedder.Texts{"a", "b"},
			reply:  &tei.EmbedBatchResponse{Embeddings: []*tei.Embedding{{Values: []float32{1, 2}}, {Values: []float32{1}}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Config{})
			wc := embedder.NewWorkerContext(0)
			defer wc.Close()

			h.srv.set(func(*tei.EmbedBatchRequest) (*tei.EmbedBatchResponse, error) { return tt.reply, nil })
			_, err := h.e.Embed(context.Background(), wc, 0, tt.inputs)
			require.ErrorIs(t, err, embedder.ErrEmbedFailed)
			assert.False(t, wc.Has(MethodID, embedder.SingletonModel))
			h.log.AssertLogged(t, zapcore.WarnLevel, "dropping connection: malformed reply")
			h.tel.AssertSpanStatus(t, "tei.EmbedBatch", otelcodes.Error)

			h.srv.set(perInput)
			_, err = h.e.Embed(context.Background(), wc, 0, embedder.Texts{"a"})
			require.NoError(t, err)
			assert.Equal(t, int32(2), h.dials.Load())
		})
	}
}

func TestEmbed_RPCErrorDropsConnection(t *testing.T) {
	for _, code := range []codes.Code{
		codes.Unavailable,
		codes.Internal,
		codes.Unknown,
		codes.DeadlineExceeded,
		codes.ResourceExhausted,
		codes.InvalidArgument,
	} {
		t.Run(code.String(), func(t *testing.T) {
			h := newHarness(t, Config{})
			wc := embedder.NewWorkerContext(0)
			defer wc.Close()

			_, err := h.e.Embed(context.Background(), wc, 0, embedder.Texts{"a"})
			require.NoError(t, err)
			require.True(t, wc.Has(MethodID, embedder.SingletonModel))

			h.srv.set(func(*tei.EmbedBatchRequest) (*tei.EmbedBatchResponse, error) {
				return nil, status.Error(code, "server said no")
			})
			_, err = h.e.Embed(context.Background(), wc, 0, embedder.Texts{"a"})
			require.ErrorIs(t, err, embedder.ErrEmbedFailed)
			assert.Contains(t, err.Error(), "server said no")
			assert.False(t, wc.Has(MethodID, embedder.SingletonModel))
			h.log.AssertField(t, "dropping connection: rpc failed", "code", code.String())
			h.tel.AssertSpanStatus(t, "tei.EmbedBatch", otelcodes.Error)
			assert.Equal(t, code.String(), h.tel.Span(t, "tei.EmbedBatch").Status().Description)

			h.srv.set(perInput)
			_, err = h.e.Embed(context.Background(), wc, 0, embedder.Texts{"a"})
			require.NoError(t, err)
			assert.Equal(t, int32(2), h.dials.Load())
		})
	}
}

func TestEmbed_SendsAPIKey(t *testing.T) {
	h := newHarness(t, Config{APIKey: config.Secret("s3cr3t")})
	wc := embedder.NewWorkerContext(0)
	defer wc.Close()

	_, err := h.e.Embed(context.Background(), wc, 0, embedder.Texts{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer s3cr3t"}, h.srv.auth)
	h.log.AssertNoSecrets(t)
}

func TestEmbed_ConnectFailure(t *testing.T) {
	dials := atomic.Int32{}
	e := New(Config{}, WithDialOptions(grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
		dials.Add(1)
		return nil, errors.New("connection refused")
	})))
	e.connectTimeout = 200 * time.Millisecond
	wc := embedder.NewWorkerContext(0)

	_, err := e.Embed(context.Background(), wc, 0, embedder.Texts{"a"})
	require.ErrorIs(t, err, embedder.ErrBackendInit)
	assert.Equal(t, 0, wc.Len())
	assert.Positive(t, dials.Load())
}

func TestEmbed_Validation(t *testing.T) {
	e := New(Config{})
	wc := embedder.NewWorkerContext(0)

	_, err := e.Embed(context.Background(), wc, 7, embedder.Texts{"a"})
	assert.ErrorIs(t, err, embedder.ErrUnknownModel)
	_, err = e.Embed(context.Background(), wc, 0, embedder.Texts{})
	assert.ErrorIs(t, err, embedder.ErrEmptyInput)
	_, err = e.Embed(context.Background(), wc, 0, embedder.Texts{"\xff"})
	assert.ErrorIs(t, err, embedder.ErrInvalidInput)
	assert.Equal(t, 0, wc.Len())
}

func TestEmbedder_Identity(t *testing.T) {
	e := New(Config{})

	assert.Equal(t, int32(1), e.MethodID())
	assert.Equal(t, "grpc", e.MethodName())
	assert.Equal(t, DefaultEndpoint, e.cfg.Endpoint)

	info, ok := e.GetModel("sentence-transformers/bge-large-en-v1.5")
	require.True(t, ok)
	assert.Equal(t, int32(1), info.ID)
	_, ok = e.GetModel("AllMiniLML6V2")
	assert.False(t, ok)
	assert.True(t, e.SupportsModelID(1, embedder.InputText))
	assert.False(t, e.SupportsModelID(1, embedder.InputImage))
}
