package domain

// Sourced is the result of reading one collaborator. A non-nil Err marks the
// source unavailable; consumers then use the zero value.
type Sourced[T any] struct {
	Value T
	Err   error
}

func Available[T any](v T) Sourced[T] {
	return Sourced[T]{Value: v}
}

func Unavailable[T any](err error) Sourced[T] {
	return Sourced[T]{Err: err}
}

// OK reports whether the source answered
func (s Sourced[T]) OK() bool {
	return s.Err == nil
}

// OrZero returns the value, or the zero value when the source was unavailable
func (s Sourced[T]) OrZero() T {
	if s.Err != nil {
		var zero T
		return zero
	}
	return s.Value
}
