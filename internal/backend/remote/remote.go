// Package remote is the embedding backend that forwards batches to a Text
// Embeddings Inference server over gRPC.
//
// Each worker owns one connection, opened on its first call and dropped
// after any failed call so the next call reconnects. Calls are never
// retried.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/fyrsmithlabs/embedd/internal/config"
	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/fyrsmithlabs/embedd/internal/logging"
	"github.com/fyrsmithlabs/embedd/internal/tei"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	DefaultEndpoint = "127.0.0.1:50051"

	keepAliveInterval = 75 * time.Second
	keepAliveTimeout  = 20 * time.Second
	connectTimeout    = 5 * time.Second
)

const tracerName = "github.com/fyrsmithlabs/embedd/internal/backend/remote"

// Config selects the server.
type Config struct {
	Endpoint string
	APIKey   config.Secret
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithDialOptions appends options after the built-in ones, so they win.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(e *Embedder) { e.dialOpts = append(e.dialOpts, opts...) }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Embedder) { e.logger = l.Named("grpc") }
}

// WithTracer replaces the global tracer for EmbedBatch spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Embedder) { e.tracer = t }
}

// WithMetrics records connection attempts.
func WithMetrics(m *embedder.Metrics) Option {
	return func(e *Embedder) { e.metrics = m }
}

// Embedder is the gRPC backend.
type Embedder struct {
	cfg            Config
	dialOpts       []grpc.DialOption
	connectTimeout time.Duration
	logger         *logging.Logger
	metrics        *embedder.Metrics
	tracer         trace.Tracer
}

var _ embedder.Embedder = (*Embedder)(nil)

// New returns the remote backend. No connection is made until Embed.
func New(cfg Config, opts ...Option) *Embedder {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	e := &Embedder{
		cfg:            cfg,
		connectTimeout: connectTimeout,
		logger:         logging.NewNop(),
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Embedder) MethodID() int32    { return MethodID }
func (e *Embedder) MethodName() string { return MethodName }

func (e *Embedder) Models() []embedder.ModelInfo { return Models }

func (e *Embedder) GetModel(name string) (embedder.ModelInfo, bool) {
	return Models.ByName(name)
}

func (e *Embedder) SupportsModelID(modelID int32, t embedder.InputType) bool {
	return Models.Supports(modelID, t)
}

// Embed sends one EmbedBatch request and flattens the reply in input order.
func (e *Embedder) Embed(ctx context.Context, wc *embedder.WorkerContext, modelID int32, in embedder.Input) (*embedder.Result, error) {
	info, ok := Models.ByID(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no model id %d", embedder.ErrUnknownModel, MethodName, modelID)
	}
	texts, err := embedder.TextsOf(in)
	if err != nil {
		return nil, err
	}

	c, _, err := embedder.Acquire(wc, MethodID, embedder.SingletonModel, func() (*clientConn, error) {
		return e.connect(ctx)
	})
	if err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "tei.EmbedBatch", trace.WithAttributes(
		attribute.String("embed.model", info.Name),
		attribute.Int("embed.batch_size", len(texts)),
	))
	defer span.End()

	if e.cfg.APIKey.IsSet() {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", e.cfg.APIKey.Bearer())
	}

	resp, err := c.client.EmbedBatch(ctx, &tei.EmbedBatchRequest{
		Inputs:    texts,
		Truncate:  true,
		Normalize: true,
		Model:     info.Name,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, status.Code(err).String())
		e.release(ctx, wc, "rpc failed", err)
		return nil, fmt.Errorf("%w: %s: %v", embedder.ErrEmbedFailed, info.Name, err)
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb != nil {
			vectors[i] = emb.Values
		}
	}
	res, err := embedder.FlattenN(vectors, len(texts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "bad embedding shape")
		e.release(ctx, wc, "malformed reply", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("embed.dimension", res.Dimension))
	return res, nil
}

// release drops the worker's connection so its next call dials afresh.
// Any failed call clears the slot, whatever the status code.
func (e *Embedder) release(ctx context.Context, wc *embedder.WorkerContext, reason string, cause error) {
	e.logger.Warn(ctx, "dropping connection: "+reason,
		zap.String("endpoint", e.cfg.Endpoint),
		zap.Stringer("code", status.Code(cause)),
		zap.Error(cause),
	)
	if err := wc.Release(MethodID, embedder.SingletonModel); err != nil {
		e.logger.Debug(ctx, "closing connection", zap.Error(err))
	}
}

// clientConn is the per-worker cached resource.
type clientConn struct {
	cc     *grpc.ClientConn
	client tei.EmbedClient
}

func (c *clientConn) Close() error {
	return c.cc.Close()
}

func (e *Embedder) connect(ctx context.Context) (*clientConn, error) {
	e.logger.Info(ctx, "connecting to tei", zap.String("endpoint", e.cfg.Endpoint))

	c, err := e.dial(ctx)
	e.metrics.RecordResourceInit(ctx, MethodName, "", err)
	if err != nil {
		e.logger.Error(ctx, "tei connection failed", zap.String("endpoint", e.cfg.Endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: connecting to %s: %v", embedder.ErrBackendInit, e.cfg.Endpoint, err)
	}

	e.logger.Info(ctx, "tei connection established", zap.String("endpoint", e.cfg.Endpoint))
	return c, nil
}

// dial opens a connection and waits until it is ready or connectTimeout
// passes. HTTP/2 flow control keeps grpc's default BDP-based window.
func (e *Embedder) dial(ctx context.Context) (*clientConn, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    keepAliveInterval,
			Timeout: keepAliveTimeout,
		}),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: e.connectTimeout,
		}),
		grpc.WithContextDialer(dialTCP),
	}
	opts = append(opts, e.dialOpts...)

	cc, err := grpc.NewClient("passthrough:///"+e.cfg.Endpoint, opts...)
	if err != nil {
		return nil, err
	}

	if err := waitReady(ctx, cc, e.connectTimeout); err != nil {
		_ = cc.Close()
		return nil, err
	}
	return &clientConn{cc: cc, client: tei.NewEmbedClient(cc)}, nil
}

func waitReady(ctx context.Context, cc *grpc.ClientConn, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cc.Connect()
	for {
		state := cc.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("connection shut down")
		}
		if !cc.WaitForStateChange(ctx, state) {
			return fmt.Errorf("not ready after %s (last state %s): %w", timeout, state, ctx.Err())
		}
	}
}

func dialTCP(ctx context.Context, addr string) (net.Conn, error) {
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return conn, nil
}
