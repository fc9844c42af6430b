package embedder

import "slices"

// ModelInfo describes one model of a backend. Values are defined at compile
// time and never mutated.
type ModelInfo struct {
	ID   int32
	Name string
	// Inputs lists the modalities the model accepts.
	Inputs []InputType
	// Dimension is the fixed output width, 0 when not known statically.
	Dimension int
}

// SupportsInputType reports whether the model accepts t.
func (m ModelInfo) SupportsInputType(t InputType) bool {
	return slices.Contains(m.Inputs, t)
}

// Catalog is the static model table of one backend.
type Catalog []ModelInfo

// ByID returns the model with the given ID.
func (c Catalog) ByID(id int32) (ModelInfo, bool) {
	for _, m := range c {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ByName returns the model with the given name. Matching is exact and
// case-sensitive.
func (c Catalog) ByName(name string) (ModelInfo, bool) {
	for _, m := range c {
		if m.Name == name {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// Supports reports whether model id exists and accepts t.
func (c Catalog) Supports(id int32, t InputType) bool {
	m, ok := c.ByID(id)
	return ok && m.SupportsInputType(t)
}
