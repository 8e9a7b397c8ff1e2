package di

import (
	"errors"
	"reflect"
	"strconv"
)

var (
	// ErrNilFactory is returned when Build (or a generated constructor) is handed a nil factory.
	ErrNilFactory = errors.New("di: nil factory")

	// ErrNilRegistry is returned when a context has registry bindings but was
	// constructed with a nil Registry.
	ErrNilRegistry = errors.New("di: nil registry")

	// ErrNilReplacement is returned by generated WithX / ProvideWithX methods when the
	// replacement function is nil.
	ErrNilReplacement = errors.New("di: nil replacement")
)

// ConstructionError is returned by a generated constructor (or WithX method) when the
// strategy of one binding fails. It names the context and the field so the failing
// dependency is obvious without a stack trace.
type ConstructionError struct {
	Context string
	Field   string
	Err     error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	// Example: di: AppContext.logger: build failed: boom
	msg := "di: " + e.Context + "." + e.Field + ": build failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the factory error.
func (e *ConstructionError) Unwrap() error { return e.Err }

// MissingKeyError is returned when a registry has no value for a key.
type MissingKeyError struct{ Key string }

// Error implements the error interface.
func (e MissingKeyError) Error() string {
	// Example: di: registry key "app.tracer" missing
	return "di: registry key " + strconv.Quote(e.Key) + " missing"
}

// WrongTypeError is returned when a value exists but has a different type than the
// binding (or view) expects.
type WrongTypeError struct {
	// Key is the registry key, or the name of the generated view being re-wrapped.
	Key string

	// Want is the expected Go type as written in the spec.
	Want string

	// GotType is reflect.TypeOf(value).String() for the value found.
	GotType string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	// Example: di: "app.tracer" has wrong type (string), want Tracer
	msg := "di: " + strconv.Quote(e.Key) + " has wrong type (" + e.GotType + ")"
	if e.Want != "" {
		msg += ", want " + e.Want
	}
	return msg
}

// NewWrongTypeError builds a WrongTypeError for the dynamic type of got.
func NewWrongTypeError(key, want string, got any) WrongTypeError {
	return WrongTypeError{Key: key, Want: want, GotType: typeName(got)}
}

func typeOf[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
