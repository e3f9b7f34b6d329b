package xf

import (
	"errors"
	"fmt"
)

type (
	// Reducer folds a message into acc. A non-nil error is a fault.
	Reducer func(acc any, vals ...any) (any, error)

	// Transformer derives a new Reducer from a downstream one.
	Transformer func(rf Reducer) Reducer

	// Reduced wraps a final accumulator. Returning it terminates the fold.
	Reduced struct {
		Value any
	}
)

// Halt wraps v as a terminal accumulator. Wrapping is idempotent.
func Halt(v any) Reduced {
	if r, ok := v.(Reduced); ok {
		return r
	}
	return Reduced{Value: v}
}

// IsReduced reports whether acc is a terminal accumulator.
func IsReduced(acc any) bool {
	_, ok := acc.(Reduced)
	return ok
}

// Unreduced strips the Reduced wrapper, if any.
func Unreduced(acc any) any {
	if r, ok := acc.(Reduced); ok {
		return r.Value
	}
	return acc
}

// Compose chains transformers so that Compose(t1, t2, t3)(rf) equals
// t1(t2(t3(rf))). With no arguments it returns the identity transformer.
func Compose(ts ...Transformer) Transformer {
	return func(rf Reducer) Reducer {
		for i := len(ts) - 1; i >= 0; i-- {
			rf = ts[i](rf)
		}
		return rf
	}
}

// ErrNilReducer is returned by Fold when rf is nil.
var ErrNilReducer = errors.New("nil reducer")

// Fold applies rf to init and each message in order. It stops early on a
// Reduced accumulator, which is returned as is, or on the first fault.
func Fold(rf Reducer, init any, msgs ...[]any) (acc any, err error) {
	if rf == nil {
		return init, ErrNilReducer
	}
	acc = init
	for i, msg := range msgs {
		if IsReduced(acc) {
			return acc, nil
		}
		acc, err = rf(acc, msg...)
		if err != nil {
			return acc, fmt.Errorf("fold message %d: %w", i, err)
		}
	}
	return acc, nil
}

// Msg is shorthand for building a message tuple.
func Msg(vals ...any) []any { return vals }
