// Package embeddertest provides an in-memory Embedder for tests.
package embeddertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fyrsmithlabs/embedd/internal/embedder"
)

// DefaultDimension is used for catalog entries that declare no dimension.
const DefaultDimension = 4

// Fake is a deterministic Embedder. Each worker builds one fakeModel per
// model ID, mirroring the real backends' caching.
type Fake struct {
	id      int32
	name    string
	catalog embedder.Catalog

	builds    atomic.Int64
	closes    atomic.Int64
	failInits atomic.Int64

	mu       sync.Mutex
	embedErr error
}

// NewFake creates a Fake backend with the given identity and catalog.
func NewFake(id int32, name string, catalog embedder.Catalog) *Fake {
	return &Fake{id: id, name: name, catalog: catalog}
}

// TextCatalog returns a one-model text catalog, the shape most tests need.
func TextCatalog(name string, dim int) embedder.Catalog {
	return embedder.Catalog{
		{ID: 0, Name: name, Inputs: []embedder.InputType{embedder.InputText}, Dimension: dim},
	}
}

func (f *Fake) MethodID() int32    { return f.id }
func (f *Fake) MethodName() string { return f.name }

func (f *Fake) Models() []embedder.ModelInfo {
	return append([]embedder.ModelInfo(nil), f.catalog...)
}

func (f *Fake) GetModel(name string) (embedder.ModelInfo, bool) {
	return f.catalog.ByName(name)
}

func (f *Fake) SupportsModelID(modelID int32, t embedder.InputType) bool {
	return f.catalog.Supports(modelID, t)
}

// FailNextInits makes the next n resource builds fail.
func (f *Fake) FailNextInits(n int) {
	f.failInits.Store(int64(n))
}

// SetEmbedError makes every Embed call fail with err after its resource is
// acquired. Pass nil to clear.
func (f *Fake) SetEmbedError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedErr = err
}

// Builds returns the number of successful resource builds.
func (f *Fake) Builds() int64 { return f.builds.Load() }

// Closes returns the number of released resources.
func (f *Fake) Closes() int64 { return f.closes.Load() }

func (f *Fake) Embed(ctx context.Context, wc *embedder.WorkerContext, modelID int32, in embedder.Input) (*embedder.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, ok := f.catalog.ByID(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", embedder.ErrUnknownModel, modelID)
	}
	texts, err := embedder.TextsOf(in)
	if err != nil {
		return nil, err
	}

	fm, _, err := embedder.Acquire(wc, f.id, modelID, func() (*fakeModel, error) {
		if f.failInits.Add(-1) >= 0 {
			return nil, fmt.Errorf("%w: fake init failure", embedder.ErrBackendInit)
		}
		f.failInits.Store(0)
		f.builds.Add(1)
		dim := model.Dimension
		if dim == 0 {
			dim = DefaultDimension
		}
		return &fakeModel{dim: dim, owner: f}, nil
	})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	embedErr := f.embedErr
	f.mu.Unlock()
	if embedErr != nil {
		return nil, errors.Join(embedder.ErrEmbedFailed, embedErr)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = Vector(text, fm.dim)
	}
	return embedder.FlattenN(vectors, len(texts))
}

// Vector is the deterministic embedding Fake produces for text.
func Vector(text string, dim int) []float32 {
	v := make([]float32, dim)
	for j := range v {
		v[j] = float32(len(text)) + float32(j)/10
	}
	return v
}

type fakeModel struct {
	dim   int
	owner *Fake
}

func (m *fakeModel) Close() error {
	m.owner.closes.Add(1)
	return nil
}
