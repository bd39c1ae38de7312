// Package validation provides a result type that accumulates every failure
// instead of stopping at the first one.
package validation

import "github.com/josh-kwaku/payments-processing/internal/errmsg"

// Result is either a valid value or a non-empty ordered list of messages.
type Result[T any] struct {
	value T
	errs  errmsg.List
}

func Valid[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Invalid[T any](format string, args ...any) Result[T] {
	return Result[T]{errs: errmsg.List{errmsg.New(format, args...)}}
}

// Failed builds an invalid result from an existing list. An empty list is a
// programming error.
func Failed[T any](errs errmsg.List) Result[T] {
	if len(errs) == 0 {
		panic("validation.Failed: empty error list")
	}
	return Result[T]{errs: errs}
}

func (r Result[T]) IsValid() bool {
	return len(r.errs) == 0
}

func (r Result[T]) Errors() errmsg.List {
	return r.errs
}

// Get returns the value and nil, or the zero value and the failures.
func (r Result[T]) Get() (T, errmsg.List) {
	if !r.IsValid() {
		var zero T
		return zero, r.errs
	}
	return r.value, nil
}

func Map[T, R any](r Result[T], f func(T) R) Result[R] {
	if !r.IsValid() {
		return Result[R]{errs: r.errs}
	}
	return Valid(f(r.value))
}

func Combine2[A, B, R any](a Result[A], b Result[B], f func(A, B) R) Result[R] {
	if errs := merge(a.errs, b.errs); len(errs) > 0 {
		return Result[R]{errs: errs}
	}
	return Valid(f(a.value, b.value))
}

func Combine3[A, B, C, R any](a Result[A], b Result[B], c Result[C], f func(A, B, C) R) Result[R] {
	if errs := merge(a.errs, b.errs, c.errs); len(errs) > 0 {
		return Result[R]{errs: errs}
	}
	return Valid(f(a.value, b.value, c.value))
}

func Combine4[A, B, C, D, R any](a Result[A], b Result[B], c Result[C], d Result[D], f func(A, B, C, D) R) Result[R] {
	if errs := merge(a.errs, b.errs, c.errs, d.errs); len(errs) > 0 {
		return Result[R]{errs: errs}
	}
	return Valid(f(a.value, b.value, c.value, d.value))
}

func merge(lists ...errmsg.List) errmsg.List {
	var out errmsg.List
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
