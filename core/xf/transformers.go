package xf

import (
	"github.com/leonoel/mission/core/ds"
	"github.com/leonoel/mission/internal/digest"
)

// Map reshapes every message with f before passing it downstream.
func Map(f func(vals ...any) []any) Transformer {
	return func(rf Reducer) Reducer {
		return func(acc any, vals ...any) (any, error) {
			return rf(acc, f(vals...)...)
		}
	}
}

// Filter forwards messages for which keep returns true and drops the rest.
func Filter(keep func(vals ...any) bool) Transformer {
	return func(rf Reducer) Reducer {
		return func(acc any, vals ...any) (any, error) {
			if !keep(vals...) {
				return acc, nil
			}
			return rf(acc, vals...)
		}
	}
}

// Remove is the complement of Filter.
func Remove(drop func(vals ...any) bool) Transformer {
	return Filter(func(vals ...any) bool { return !drop(vals...) })
}

// MapCat expands each message into zero or more messages, forwarded in
// order. Expansion stops early once downstream terminates.
func MapCat(f func(vals ...any) [][]any) Transformer {
	return func(rf Reducer) Reducer {
		return func(acc any, vals ...any) (any, error) {
			var err error
			for _, out := range f(vals...) {
				if acc, err = rf(acc, out...); err != nil {
					return acc, err
				}
				if IsReduced(acc) {
					return acc, nil
				}
			}
			return acc, nil
		}
	}
}

// Take forwards the first n messages and then terminates.
func Take(n int) Transformer {
	return func(rf Reducer) Reducer {
		left := n
		return func(acc any, vals ...any) (any, error) {
			if left <= 0 {
				return Halt(acc), nil
			}
			left--
			acc, err := rf(acc, vals...)
			if err != nil {
				return acc, err
			}
			if left == 0 {
				return Halt(acc), nil
			}
			return acc, nil
		}
	}
}

// HaltWhen terminates, without forwarding, on the first message matching
// pred.
func HaltWhen(pred func(vals ...any) bool) Transformer {
	return func(rf Reducer) Reducer {
		return func(acc any, vals ...any) (any, error) {
			if pred(vals...) {
				return Halt(acc), nil
			}
			return rf(acc, vals...)
		}
	}
}

// Dedupe drops messages equal to one already seen by this instantiation.
// Two tuples are equal when every value has the same dynamic type and Go-syntax
// rendering; see digest.Of.
func Dedupe() Transformer {
	return func(rf Reducer) Reducer {
		seen := make(map[digest.Sum]struct{})
		return func(acc any, vals ...any) (any, error) {
			sum := digest.Of(vals...)
			if _, ok := seen[sum]; ok {
				return acc, nil
			}
			seen[sum] = struct{}{}
			return rf(acc, vals...)
		}
	}
}

// DedupeWindow is like Dedupe but only remembers the n most recently seen
// messages, which bounds its memory on unbounded streams.
func DedupeWindow(n int) Transformer {
	return func(rf Reducer) Reducer {
		seen := ds.NewLRU[digest.Sum](n)
		return func(acc any, vals ...any) (any, error) {
			sum := digest.Of(vals...)
			if seen.Touch(sum) {
				return acc, nil
			}
			return rf(acc, vals...)
		}
	}
}

// Tap calls f with every message and forwards it unchanged.
func Tap(f func(vals ...any)) Transformer {
	return func(rf Reducer) Reducer {
		return func(acc any, vals ...any) (any, error) {
			f(vals...)
			return rf(acc, vals...)
		}
	}
}
