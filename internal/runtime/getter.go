package runtime

import "github.com/dagrun/dagrun/internal/shape"

// Getter wraps one positional argument whose NodeDefinition opted into
// getter-wrapped inputs (NodeDefinition.GetterArgs): instead of a failed
// upstream resolution failing the whole node outright, the handler receives
// a Getter and decides for itself whether the missing value is fatal.
type Getter struct {
	value any
	err   error
}

// Err returns the error the wrapped input resolved with, or nil on success.
func (g Getter) Err() error {
	return g.err
}

// Value returns the raw resolved value (nil if the input errored).
func (g Getter) Value() any {
	return g.value
}

// As coerces the wrapped value into T, failing if the input itself already
// errored.
func As[T any](g Getter) (T, error) {
	var zero T
	if g.err != nil {
		return zero, g.err
	}
	return shape.Coerce[T](g.value)
}
