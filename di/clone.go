package di

// Cloner is implemented by every generated context and by the views of interfaces
// declared with the Clone marker.
//
// CloneContext is type-erased so that one method can be shared by every interface
// in an inheritance tree; use Clone to get a typed copy back.
type Cloner interface {
	CloneContext() any
}

// Clone returns a copy of v with the same static type.
//
// Generated contexts return *C and generated views re-wrap the copy in the same view,
// so the assertion only fails for hand-written Cloner implementations that return
// something else. That case is reported as WrongTypeError.
func Clone[T Cloner](v T) (T, error) {
	raw := v.CloneContext()
	out, ok := raw.(T)
	if !ok {
		var zero T
		return zero, NewWrongTypeError("CloneContext", typeOf[T](), raw)
	}
	return out, nil
}

// MustClone is Clone that panics on a WrongTypeError.
func MustClone[T Cloner](v T) T {
	out, err := Clone(v)
	if err != nil {
		panic(err)
	}
	return out
}

// Replacement rebuilds one binding from its current value.
//
// It is the argument of generated WithX and ProvideWithX methods.
type Replacement[T any] func(current T) (T, error)

// Replace returns a Replacement that swaps in v unconditionally.
func Replace[T any](v T) Replacement[T] {
	return func(T) (T, error) { return v, nil }
}

// ReplaceFrom returns a Replacement that builds a fresh value with f.
func ReplaceFrom[T any](f Factory[T]) Replacement[T] {
	return func(T) (T, error) { return Build(f) }
}

// Substitute calls a type-erased ProvideWithX method and asserts the result to C.
//
//	next, err := di.Substitute[AppInterface](app.ProvideWithLogger, di.Replace[Logger](quiet))
func Substitute[C any, T any](
	with func(func(T) (T, error)) (any, error),
	replace Replacement[T],
) (C, error) {
	var zero C
	if with == nil || replace == nil {
		return zero, ErrNilReplacement
	}
	raw, err := with(replace)
	if err != nil {
		return zero, err
	}
	out, ok := raw.(C)
	if !ok {
		return zero, NewWrongTypeError("ProvideWith", typeOf[C](), raw)
	}
	return out, nil
}
