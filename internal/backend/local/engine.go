package local

import (
	"errors"
	"io"
)

// ErrRuntimeUnavailable is returned by the default loader in builds
// without cgo, where the ONNX engine cannot be linked.
var ErrRuntimeUnavailable = errors.New("fastembed: runtime not available (built without cgo)")

// Engine is one loaded model.
type Engine interface {
	io.Closer
	Embed(texts []string, batchSize int) ([][]float32, error)
}

// LoadOptions describes the model a Loader should load.
type LoadOptions struct {
	Code      string
	CacheDir  string
	MaxLength int
}

// Loader builds an Engine. It is called at most once per model per worker.
type Loader func(LoadOptions) (Engine, error)
