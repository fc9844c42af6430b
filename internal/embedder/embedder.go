package embedder

import (
	"context"
	"errors"
)

var (
	// ErrUnknownMethod indicates no backend is registered under the given ID or name.
	ErrUnknownMethod = errors.New("unknown embedding method")

	// ErrUnknownModel indicates the backend has no model with the given ID or name.
	ErrUnknownModel = errors.New("unknown embedding model")

	// ErrUnsupportedInput indicates the model does not accept the input modality.
	ErrUnsupportedInput = errors.New("unsupported input type")

	// ErrEmptyInput indicates empty or nil input items.
	ErrEmptyInput = errors.New("empty or nil input")

	// ErrInvalidInput indicates an item that cannot be sent to any backend,
	// such as text that is not valid UTF-8.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendInit indicates a heavy backend resource could not be built.
	ErrBackendInit = errors.New("backend initialization failed")

	// ErrEmbedFailed indicates the engine or service rejected the call or
	// returned a malformed response.
	ErrEmbedFailed = errors.New("embedding generation failed")

	// ErrDuplicateMethod indicates two backends share a method ID or name.
	ErrDuplicateMethod = errors.New("duplicate embedding method")
)

// Embedder is the contract every backend implements.
type Embedder interface {
	// MethodID returns the process-unique backend ID.
	MethodID() int32

	// MethodName returns the process-unique backend name.
	MethodName() string

	// Embed embeds in with model modelID. Heavy resources are built lazily and
	// cached in wc. The call blocks until the backend answers.
	Embed(ctx context.Context, wc *WorkerContext, modelID int32, in Input) (*Result, error)

	// GetModel looks up a catalog entry by name.
	GetModel(name string) (ModelInfo, bool)

	// SupportsModelID reports whether modelID exists and accepts t.
	SupportsModelID(modelID int32, t InputType) bool

	// Models returns the static catalog.
	Models() []ModelInfo
}
