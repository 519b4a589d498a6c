package domain

// Result is the outcome of one pipeline step: a value or a typed failure.
// A failed Result may still carry a usable default in Value.
type Result[T any] struct {
	Value T
	Err   error
}

// Success wraps a value.
func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failure wraps an error, keeping fallback as the value.
func Failure[T any](fallback T, err error) Result[T] {
	return Result[T]{Value: fallback, Err: err}
}

// OK reports whether the step succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}
