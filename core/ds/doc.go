// Package ds provides generic data structures used by the actor runtime and
// the process combinators.
package ds
