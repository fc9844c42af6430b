// Package local is the in-process embedding backend. It runs ONNX models
// through fastembed-go, loading each model lazily once per worker.
package local

import (
	"context"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/fyrsmithlabs/embedd/internal/logging"
	"go.uber.org/zap"
)

// Config tunes model loading and inference.
type Config struct {
	CacheDir  string
	MaxLength int
	BatchSize int
}

func (c Config) withDefaults() Config {
	if c.CacheDir == "" {
		c.CacheDir = "./fastembed_models"
	}
	if c.MaxLength <= 0 {
		c.MaxLength = 512
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 256
	}
	return c
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithLoader replaces DefaultLoader.
func WithLoader(l Loader) Option {
	return func(e *Embedder) { e.load = l }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Embedder) { e.logger = l.Named("fastembed") }
}

// WithMetrics records model loads.
func WithMetrics(m *embedder.Metrics) Option {
	return func(e *Embedder) { e.metrics = m }
}

// Embedder is the fastembed backend. It holds no per-model state; loaded
// engines live in the caller's WorkerContext.
type Embedder struct {
	cfg     Config
	load    Loader
	logger  *logging.Logger
	metrics *embedder.Metrics
}

var _ embedder.Embedder = (*Embedder)(nil)

// New returns the local backend.
func New(cfg Config, opts ...Option) *Embedder {
	e := &Embedder{
		cfg:    cfg.withDefaults(),
		load:   DefaultLoader,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Embedder) MethodID() int32    { return MethodID }
func (e *Embedder) MethodName() string { return MethodName }

func (e *Embedder) Models() []embedder.ModelInfo { return Models }

// GetModel resolves catalog names, engine codes and hub names.
func (e *Embedder) GetModel(name string) (embedder.ModelInfo, bool) {
	return ParseModelName(name)
}

func (e *Embedder) SupportsModelID(modelID int32, t embedder.InputType) bool {
	return Models.Supports(modelID, t)
}

// Embed runs the model on every text and returns one row per text.
func (e *Embedder) Embed(ctx context.Context, wc *embedder.WorkerContext, modelID int32, in embedder.Input) (*embedder.Result, error) {
	info, ok := Models.ByID(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no model id %d", embedder.ErrUnknownModel, MethodName, modelID)
	}
	texts, err := embedder.TextsOf(in)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine, _, err := embedder.Acquire(wc, MethodID, modelID, func() (Engine, error) {
		return e.loadModel(ctx, info)
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	vectors, err := engine.Embed(texts, e.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", embedder.ErrEmbedFailed, info.Name, err)
	}
	res, err := embedder.FlattenN(vectors, len(texts))
	if err != nil {
		return nil, err
	}

	e.logger.Trace(ctx, "embedded batch",
		zap.String("model", info.Name),
		zap.Int("count", res.Count),
		zap.Int("dimension", res.Dimension),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (e *Embedder) loadModel(ctx context.Context, info embedder.ModelInfo) (Engine, error) {
	code, ok := EngineCode(info.ID)
	if !ok {
		return nil, fmt.Errorf("%w: no engine code for %s", embedder.ErrBackendInit, info.Name)
	}

	start := time.Now()
	engine, err := e.load(LoadOptions{
		Code:      code,
		CacheDir:  e.cfg.CacheDir,
		MaxLength: e.cfg.MaxLength,
	})
	e.metrics.RecordResourceInit(ctx, MethodName, info.Name, err)
	if err != nil {
		e.logger.Warn(ctx, "model load failed",
			zap.String("model", info.Name),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: loading %s: %v", embedder.ErrBackendInit, info.Name, err)
	}

	e.logger.Info(ctx, "model loaded",
		zap.String("model", info.Name),
		zap.String("engine_code", code),
		zap.Duration("elapsed", time.Since(start)),
	)
	return engine, nil
}
