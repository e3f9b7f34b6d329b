// Package xf provides reducing functions and composable transformers over
// them.
//
// A [Reducer] folds one message, a tuple of values, into an accumulator and
// returns the next accumulator. A [Transformer] wraps a Reducer to produce a
// new one; chaining transformers with [Compose] builds behavior out of small
// independent steps:
//
//	rf := xf.Compose(
//	    xf.Filter(func(vals ...any) bool { return vals[0] != "DEBUG" }),
//	    xf.Map(func(vals ...any) []any { return []any{strings.ToUpper(vals[1].(string))} }),
//	    xf.Take(10),
//	)(base)
//
// The leftmost transformer sees each message first. A transformer may pass a
// message through, drop it by returning the accumulator untouched, reshape
// it, or call downstream any number of times.
//
// # Termination
//
// A reducer ends a fold by returning a [Reduced] accumulator. [Fold] stops at
// the first Reduced value, and the actor runtime treats it as the terminal
// state of a process.
//
// # State
//
// Stateful transformers such as [Take] and [Dedupe] allocate their state when
// applied to a downstream reducer, so every instantiation owns private state.
package xf
