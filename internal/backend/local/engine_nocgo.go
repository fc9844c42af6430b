//go:build !cgo

package local

// DefaultLoader always fails without cgo. The catalog and name lookups
// keep working.
func DefaultLoader(LoadOptions) (Engine, error) {
	return nil, ErrRuntimeUnavailable
}
