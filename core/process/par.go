package process

import (
	"github.com/leonoel/mission/core/actor"
	"github.com/leonoel/mission/core/ds"
	"github.com/leonoel/mission/core/xf"
)

type side uint8

const (
	sideNone side = iota
	sideA
	sideB
)

// pending buffers the unpaired outputs of exactly one branch. The tag says
// which; an empty queue means neither. A tuple offered by the other branch
// is paired immediately, so both sides are never buffered at once.
type pending struct {
	side side
	q    ds.Queue[[]any]
}

// offer records vals from s and, when the other branch has a tuple waiting,
// pops it and returns the pair with A's values first.
func (p *pending) offer(s side, vals []any) ([]any, bool) {
	if p.q.IsEmpty() || p.side == s {
		p.side = s
		p.q.Push(vals)
		return nil, false
	}
	other, _ := p.q.Pop()
	if p.q.IsEmpty() {
		p.side = sideNone
	}
	if s == sideA {
		return concat(vals, other), true
	}
	return concat(other, vals), true
}

func (p *pending) buffered() (side, int) { return p.side, p.q.Len() }

func concat(a, b []any) []any {
	out := make([]any, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// Par runs missions side by side on the same input and emits their outputs
// paired by position: the k-th output of a joins the k-th output of b,
// whatever order they arrive in, as one message with a's values first.
//
// a runs inside the owning process; b runs in a child process with its own
// execution context, so the branches make progress in parallel. More than
// two missions fold pairwise from the left, so Par(a, b, c) emits
// (a ++ b) ++ c.
//
// When a branch halts, the outputs it already produced still pair with the
// other branch's later outputs. Par halts once no buffered output can find a
// partner any more.
func Par(a, b Mission, more ...Mission) Mission {
	m := par(a, b)
	for _, c := range more {
		m = par(m, c)
	}
	return m
}

func par(a, b Mission) Mission {
	return func(p Ctx, rf xf.Reducer) xf.Reducer {
		var (
			pend pending
			// aDone and bDone mark halted branches; downstream marks a
			// halted rf.
			aDone, bDone, downstream bool
		)

		// settle halts once a finished branch leaves nothing to pair.
		settle := func(acc any, err error) (any, error) {
			if err != nil || downstream {
				return acc, err
			}
			s, n := pend.buffered()
			if (aDone && !(s == sideA && n > 0)) || (bDone && !(s == sideB && n > 0)) {
				return xf.Halt(acc), nil
			}
			return acc, nil
		}

		join := func(s side) xf.Reducer {
			return func(acc any, vals ...any) (any, error) {
				out, ok := pend.offer(s, vals)
				if !ok {
					return acc, nil
				}
				next, err := rf(acc, out...)
				if xf.IsReduced(next) {
					downstream = true
				}
				return next, err
			}
		}

		fromB := join(sideB)
		child := p.Spawn(b,
			func(vals ...any) {
				p.Post(func(acc any, vals ...any) (any, error) { return settle(fromB(acc, vals...)) }, vals...)
			},
			// runs after the child's last output was posted, and after its
			// fault if it failed
			WithOnStop(func(actor.State) {
				p.Post(func(acc any, _ ...any) (any, error) {
					bDone = true
					return settle(acc, nil)
				})
			}),
		)
		arf := a(p, join(sideA))

		return func(acc any, vals ...any) (any, error) {
			child.Send(vals...)
			if aDone {
				return acc, nil
			}
			next, err := arf(acc, vals...)
			if err != nil || downstream {
				return next, err
			}
			if xf.IsReduced(next) {
				aDone = true
				next = xf.Unreduced(next)
			}
			return settle(next, nil)
		}
	}
}
