package embedder

import (
	"errors"
	"fmt"
	"io"
)

// SingletonModel is the slot model ID for resources shared by all models of
// a backend, such as an RPC client.
const SingletonModel int32 = -1

type slotKey struct {
	method int32
	model  int32
}

// WorkerContext holds the heavy resources one worker has built. It must only
// be used from the goroutine that owns it.
type WorkerContext struct {
	id    int
	slots map[slotKey]io.Closer
}

// NewWorkerContext creates an empty context for worker id.
func NewWorkerContext(id int) *WorkerContext {
	return &WorkerContext{
		id:    id,
		slots: make(map[slotKey]io.Closer),
	}
}

// ID returns the owning worker's ID.
func (w *WorkerContext) ID() int {
	return w.id
}

// Len returns the number of cached resources.
func (w *WorkerContext) Len() int {
	return len(w.slots)
}

// Has reports whether a resource is cached for (methodID, modelID).
func (w *WorkerContext) Has(methodID, modelID int32) bool {
	_, ok := w.slots[slotKey{methodID, modelID}]
	return ok
}

// Acquire returns the cached resource for (methodID, modelID), building it
// with build on first use. A failed build leaves the slot empty so the next
// call retries. created reports whether build ran successfully.
func Acquire[T io.Closer](w *WorkerContext, methodID, modelID int32, build func() (T, error)) (res T, created bool, err error) {
	key := slotKey{methodID, modelID}
	if cached, ok := w.slots[key]; ok {
		typed, ok := cached.(T)
		if !ok {
			var zero T
			return zero, false, fmt.Errorf("%w: slot %d/%d holds %T", ErrBackendInit, methodID, modelID, cached)
		}
		return typed, false, nil
	}

	res, err = build()
	if err != nil {
		var zero T
		return zero, false, err
	}
	w.slots[key] = res
	return res, true, nil
}

// Release closes and drops the resource for (methodID, modelID), if any.
func (w *WorkerContext) Release(methodID, modelID int32) error {
	key := slotKey{methodID, modelID}
	res, ok := w.slots[key]
	if !ok {
		return nil
	}
	delete(w.slots, key)
	return res.Close()
}

// Close releases every cached resource. The context is empty afterwards and
// may be reused.
func (w *WorkerContext) Close() error {
	var errs []error
	for key, res := range w.slots {
		if err := res.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %d/%d: %w", key.method, key.model, err))
		}
		delete(w.slots, key)
	}
	return errors.Join(errs...)
}
