package embedder

import "fmt"

// Registry is the read-only set of backends available to the process.
type Registry struct {
	embedders []Embedder
}

// NewRegistry registers embedders in the given order. Method IDs and names
// must be unique.
func NewRegistry(embedders ...Embedder) (*Registry, error) {
	ids := make(map[int32]string, len(embedders))
	names := make(map[string]int32, len(embedders))

	for _, e := range embedders {
		if e == nil {
			return nil, fmt.Errorf("registering embedder: nil backend")
		}
		if prev, ok := ids[e.MethodID()]; ok {
			return nil, fmt.Errorf("%w: id %d used by %q and %q", ErrDuplicateMethod, e.MethodID(), prev, e.MethodName())
		}
		if prev, ok := names[e.MethodName()]; ok {
			return nil, fmt.Errorf("%w: name %q used by ids %d and %d", ErrDuplicateMethod, e.MethodName(), prev, e.MethodID())
		}
		ids[e.MethodID()] = e.MethodName()
		names[e.MethodName()] = e.MethodID()
	}

	return &Registry{embedders: append([]Embedder(nil), embedders...)}, nil
}

// Methods returns the registered backends in registration order.
func (r *Registry) Methods() []Embedder {
	return append([]Embedder(nil), r.embedders...)
}

// FindByMethodID returns the backend registered under id.
func (r *Registry) FindByMethodID(id int32) (Embedder, bool) {
	for _, e := range r.embedders {
		if e.MethodID() == id {
			return e, true
		}
	}
	return nil, false
}

// ResolveMethodName returns the ID of the backend named name. Matching is
// exact and case-sensitive.
func (r *Registry) ResolveMethodName(name string) (int32, bool) {
	for _, e := range r.embedders {
		if e.MethodName() == name {
			return e.MethodID(), true
		}
	}
	return 0, false
}

// ValidateModel resolves modelName within backend methodID and checks that it
// accepts t. Unknown backend, unknown model and unsupported modality all
// report false; use LookupModel to tell them apart.
func (r *Registry) ValidateModel(methodID int32, modelName string, t InputType) (int32, bool) {
	id, err := r.LookupModel(methodID, modelName, t)
	return id, err == nil
}

// LookupModel is ValidateModel with a distinct error per failure cause:
// ErrUnknownMethod, ErrUnknownModel or ErrUnsupportedInput.
func (r *Registry) LookupModel(methodID int32, modelName string, t InputType) (int32, error) {
	e, ok := r.FindByMethodID(methodID)
	if !ok {
		return 0, fmt.Errorf("%w: id %d", ErrUnknownMethod, methodID)
	}
	m, ok := e.GetModel(modelName)
	if !ok {
		return 0, fmt.Errorf("%w: %q for method %q", ErrUnknownModel, modelName, e.MethodName())
	}
	if !m.SupportsInputType(t) {
		return 0, fmt.Errorf("%w: model %q does not accept %s", ErrUnsupportedInput, m.Name, t)
	}
	return m.ID, nil
}
