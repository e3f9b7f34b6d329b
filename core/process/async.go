package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/leonoel/mission/core/xf"
)

// ErrContractViolation marks a fault raised by an Operation that already
// reported success.
var ErrContractViolation = errors.New("async operation contract violation")

// Operation is a callback-style asynchronous operation. For each input it
// must eventually call exactly one of resolve or reject, from any goroutine,
// and it must not block the caller. ctx is cancelled when the owning process
// stops.
//
// Calling both callbacks or neither is a precondition violation. The only
// misbehavior Async reacts to is reject after resolve, which fails the
// process with ErrContractViolation; a second resolve is logged and dropped.
type Operation func(ctx context.Context, in []any, resolve func(vals ...any), reject func(err error))

const (
	opPending int32 = iota
	opResolved
	opRejected
)

// Async makes a mission out of op. Every inbound message starts op; the
// resolved values are forwarded downstream in mailbox order and a rejection
// fails the process.
func Async(op Operation) Mission {
	return func(p Ctx, rf xf.Reducer) xf.Reducer {
		return func(acc any, vals ...any) (any, error) {
			var settled atomic.Int32
			resolve := func(out ...any) {
				if !settled.CompareAndSwap(opPending, opResolved) {
					p.Log().Warn("async operation settled twice", slog.Any("in", vals))
					return
				}
				p.Post(rf, out...)
			}
			reject := func(err error) {
				if settled.CompareAndSwap(opPending, opRejected) {
					p.Fail(err)
					return
				}
				if settled.Load() == opResolved {
					p.Fail(fmt.Errorf("%w: rejected after resolve: %w", ErrContractViolation, err))
					return
				}
				p.Log().Warn("async operation rejected twice", slog.Any("in", vals), slog.Any("error", err))
			}
			op(p, vals, resolve, reject)
			return acc, nil
		}
	}
}
