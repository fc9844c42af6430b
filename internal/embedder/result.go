package embedder

import "fmt"

// Result is a batch of equally sized vectors laid out row-major in Flat.
type Result struct {
	Flat      []float32
	Count     int
	Dimension int
}

// Row returns the i-th vector. The returned slice aliases Flat.
func (r *Result) Row(i int) []float32 {
	start := i * r.Dimension
	return r.Flat[start : start+r.Dimension : start+r.Dimension]
}

// Rows reshapes Flat into Count vectors of length Dimension, preserving item
// order. The rows alias Flat.
func (r *Result) Rows() [][]float32 {
	rows := make([][]float32, r.Count)
	for i := range rows {
		rows[i] = r.Row(i)
	}
	return rows
}

// Validate checks the shape invariant.
func (r *Result) Validate() error {
	if r.Count <= 0 || r.Dimension <= 0 {
		return fmt.Errorf("%w: invalid shape %dx%d", ErrEmbedFailed, r.Count, r.Dimension)
	}
	if len(r.Flat) != r.Count*r.Dimension {
		return fmt.Errorf("%w: buffer has %d values, want %d", ErrEmbedFailed, len(r.Flat), r.Count*r.Dimension)
	}
	return nil
}

// Flatten copies per-item vectors into one contiguous buffer in input order.
//
// It fails when there are no vectors (the dimension is undefined), when the
// first vector is empty, or when vectors differ in length.
func Flatten(vectors [][]float32) (*Result, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrEmbedFailed)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length embedding", ErrEmbedFailed)
	}

	flat := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, want %d", ErrEmbedFailed, i, len(v), dim)
		}
		flat = append(flat, v...)
	}

	return &Result{Flat: flat, Count: len(vectors), Dimension: dim}, nil
}

// FlattenN is Flatten plus a check that exactly n vectors were returned.
func FlattenN(vectors [][]float32, n int) (*Result, error) {
	if len(vectors) != n && len(vectors) != 0 {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrEmbedFailed, len(vectors), n)
	}
	return Flatten(vectors)
}
