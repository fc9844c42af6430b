// Package dispatch runs embedding calls on a fixed pool of workers.
//
// Each worker owns one embedder.WorkerContext, so loaded models and gRPC
// connections are built at most once per worker and never shared. Callers
// block until their job finishes. There is no batching, caching or retry.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/fyrsmithlabs/embedd/internal/logging"
	"go.uber.org/zap"
)

// ErrClosed is returned for calls made after Close.
var ErrClosed = errors.New("dispatcher closed")

// Config sizes the pool.
type Config struct {
	Workers   int
	QueueSize int
}

// Target is a resolved (backend, model) pair.
type Target struct {
	MethodID  int32
	ModelID   int32
	Method    string
	Model     string
	InputType embedder.InputType
}

type result struct {
	res *embedder.Result
	err error
}

type job struct {
	ctx    context.Context
	target Target
	in     embedder.Input
	done   chan result
}

// Dispatcher owns the workers.
type Dispatcher struct {
	registry *embedder.Registry
	logger   *logging.Logger
	metrics  *embedder.Metrics
	workers  int

	jobs   chan *job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts cfg.Workers workers reading from a queue of cfg.QueueSize jobs.
func New(registry *embedder.Registry, cfg Config, logger *logging.Logger, metrics *embedder.Metrics) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		registry: registry,
		logger:   logger.Named("dispatch"),
		metrics:  metrics,
		workers:  cfg.Workers,
		jobs:     make(chan *job, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.work(id)
		}(i)
	}
	d.logger.Info(ctx, "dispatcher started", zap.Int("workers", cfg.Workers), zap.Int("queue_size", cfg.QueueSize))
	return d
}

// Registry returns the backend set the dispatcher resolves against.
func (d *Dispatcher) Registry() *embedder.Registry { return d.registry }

// Workers returns the pool size.
func (d *Dispatcher) Workers() int { return d.workers }

// QueueDepth returns the number of jobs waiting for a worker.
func (d *Dispatcher) QueueDepth() int { return len(d.jobs) }

// Resolve maps names to a Target. Errors wrap embedder.ErrUnknownMethod,
// embedder.ErrUnknownModel or embedder.ErrUnsupportedInput.
func (d *Dispatcher) Resolve(method, model string, t embedder.InputType) (Target, error) {
	methodID, ok := d.registry.ResolveMethodName(method)
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", embedder.ErrUnknownMethod, method)
	}
	modelID, err := d.registry.LookupModel(methodID, model, t)
	if err != nil {
		return Target{}, err
	}

	e, _ := d.registry.FindByMethodID(methodID)
	if info, ok := e.GetModel(model); ok {
		model = info.Name
	}
	return Target{MethodID: methodID, ModelID: modelID, Method: method, Model: model, InputType: t}, nil
}

// Embed runs in on target and waits for the result. If ctx ends before a
// worker takes the job, Embed returns ctx.Err() and the job never runs.
// Once taken, the job runs to completion under ctx.
func (d *Dispatcher) Embed(ctx context.Context, target Target, in embedder.Input) (*embedder.Result, error) {
	if in == nil || in.Len() == 0 {
		return nil, embedder.ErrEmptyInput
	}
	if in.Type() != target.InputType {
		return nil, fmt.Errorf("%w: target expects %s, got %s", embedder.ErrUnsupportedInput, target.InputType, in.Type())
	}
	if in.Type() == embedder.InputText {
		if _, err := embedder.TextsOf(in); err != nil {
			return nil, err
		}
	}

	j := &job{ctx: ctx, target: target, in: in, done: make(chan result, 1)}
	if err := d.enqueue(ctx, j); err != nil {
		return nil, err
	}
	r := <-j.done
	return r.res, r.err
}

func (d *Dispatcher) enqueue(ctx context.Context, j *job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.ctx.Done():
		return ErrClosed
	}
}

// Close stops the workers, releases every worker's resources and fails
// queued jobs with ErrClosed. Jobs already running finish first.
func (d *Dispatcher) Close() error {
	d.cancel()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()

	for {
		select {
		case j := <-d.jobs:
			j.done <- result{err: ErrClosed}
		default:
			d.logger.Info(context.Background(), "dispatcher stopped")
			return nil
		}
	}
}

func (d *Dispatcher) work(id int) {
	wc := embedder.NewWorkerContext(id)
	defer func() {
		if err := wc.Close(); err != nil {
			d.logger.Warn(context.Background(), "releasing worker resources", zap.Int("worker", id), zap.Error(err))
		}
	}()

	for {
		select {
		case <-d.ctx.Done():
			return
		case j := <-d.jobs:
			j.done <- d.run(wc, j)
		}
	}
}

func (d *Dispatcher) run(wc *embedder.WorkerContext, j *job) (r result) {
	ctx := logging.WithWorkerID(j.ctx, wc.ID())
	ctx = logging.WithEmbedTarget(ctx, j.target.Method, j.target.Model)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			d.logger.Error(ctx, "backend panicked", zap.Any("panic", p))
			r = result{err: fmt.Errorf("%w: backend panic: %v", embedder.ErrEmbedFailed, p)}
		}
		d.metrics.RecordEmbed(ctx, j.target.Method, j.target.Model, time.Since(start), j.in.Len(), r.err)
	}()

	e, ok := d.registry.FindByMethodID(j.target.MethodID)
	if !ok {
		return result{err: fmt.Errorf("%w: id %d", embedder.ErrUnknownMethod, j.target.MethodID)}
	}

	res, err := e.Embed(ctx, wc, j.target.ModelID, j.in)
	if err != nil {
		d.logger.Warn(ctx, "embed failed", zap.Int("batch_size", j.in.Len()), zap.Error(err))
		return result{err: err}
	}
	d.logger.Debug(ctx, "embed complete",
		zap.Int("count", res.Count),
		zap.Int("dimension", res.Dimension),
		zap.Duration("duration", time.Since(start)),
	)
	return result{res: res}
}
