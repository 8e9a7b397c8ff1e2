package di

import (
	"errors"
	"fmt"
)

// Registry provides values for registry bindings at construction time.
//
// It is intentionally:
// - read-only
// - side effect free
// - construction-time only
//
// Expected usage (generated):
//
//	tracer, err := di.ResolveAs[Tracer](reg, "app.tracer")
type Registry interface {
	Resolve(key string) (val any, ok bool, err error)
}

// ErrRegistryPanic wraps a panic raised by a Registry implementation during ResolveAs.
var ErrRegistryPanic = errors.New("registry: panic during Resolve")

// MapRegistry is a simple in-memory registry.
// It is not safe for concurrent writes; fill it before constructing contexts.
type MapRegistry struct {
	items map[string]any
}

func NewMapRegistry() *MapRegistry {
	return &MapRegistry{items: map[string]any{}}
}

// Provide stores a value under a key and returns the registry for chaining.
func (r *MapRegistry) Provide(key string, val any) *MapRegistry {
	r.items[key] = val
	return r
}

// Resolve implements Registry.
func (r *MapRegistry) Resolve(key string) (any, bool, error) {
	v, ok := r.items[key]
	return v, ok, nil
}

// ResolveAs looks key up in reg and asserts the value to T.
//
// It returns:
//   - ErrNilRegistry if reg is nil
//   - the registry's own error, unchanged
//   - ErrRegistryPanic if reg panics
//   - MissingKeyError if the key is absent
//   - WrongTypeError if the stored value is not a T
func ResolveAs[T any](reg Registry, key string) (T, error) {
	var zero T
	if reg == nil {
		return zero, ErrNilRegistry
	}
	raw, ok, err := resolve(reg, key)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, MissingKeyError{Key: key}
	}
	v, ok := raw.(T)
	if !ok {
		return zero, NewWrongTypeError(key, typeOf[T](), raw)
	}
	return v, nil
}

// resolve calls reg.Resolve and converts a panic into an error.
func resolve(reg Registry, key string) (val any, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			val, ok = nil, false
			err = fmt.Errorf("%w: %q: %v", ErrRegistryPanic, key, rec)
		}
	}()
	return reg.Resolve(key)
}
