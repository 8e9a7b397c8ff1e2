package di

// Factory builds one dependency value.
//
// A binding written as `logger: Logger [StdoutLoggerFactory{}]` is generated as
// di.Build[Logger](StdoutLoggerFactory{}), so StdoutLoggerFactory must implement
// Factory[Logger]. Retries, if any, belong inside Build.
type Factory[T any] interface {
	Build() (T, error)
}

// FactoryFunc adapts a plain constructor function to Factory.
type FactoryFunc[T any] func() (T, error)

// Build implements Factory.
func (f FactoryFunc[T]) Build() (T, error) {
	if f == nil {
		var zero T
		return zero, ErrNilFactory
	}
	return f()
}

// ArgFactory builds a dependency value from an explicit argument, usually a smaller
// context holding the values the dependency needs.
type ArgFactory[A, T any] interface {
	BuildFrom(arg A) (T, error)
}

// ArgFactoryFunc adapts a plain function to ArgFactory.
type ArgFactoryFunc[A, T any] func(A) (T, error)

// BuildFrom implements ArgFactory.
func (f ArgFactoryFunc[A, T]) BuildFrom(arg A) (T, error) {
	if f == nil {
		var zero T
		return zero, ErrNilFactory
	}
	return f(arg)
}

// Build runs f and returns its value.
//
// It returns ErrNilFactory instead of panicking when f is nil.
func Build[T any](f Factory[T]) (T, error) {
	if f == nil {
		var zero T
		return zero, ErrNilFactory
	}
	return f.Build()
}

// Bind turns an ArgFactory into a Factory by fixing its argument.
//
// Together with Lift it bridges the two calling conventions in both directions
// without changing what gets built.
func Bind[A, T any](f ArgFactory[A, T], arg A) Factory[T] {
	return boundFactory[A, T]{f: f, arg: arg}
}

// Lift turns a Factory into an ArgFactory that ignores its argument.
func Lift[A, T any](f Factory[T]) ArgFactory[A, T] {
	return liftedFactory[A, T]{f: f}
}

type boundFactory[A, T any] struct {
	f   ArgFactory[A, T]
	arg A
}

func (b boundFactory[A, T]) Build() (T, error) {
	if b.f == nil {
		var zero T
		return zero, ErrNilFactory
	}
	return b.f.BuildFrom(b.arg)
}

type liftedFactory[A, T any] struct {
	f Factory[T]
}

func (l liftedFactory[A, T]) BuildFrom(A) (T, error) {
	return Build(l.f)
}
