package process

import (
	"github.com/leonoel/mission/core/actor"
	"github.com/leonoel/mission/core/xf"
)

// Partition routes each message to a child process running m, one child per
// key. Messages with the same key are handled in order by the same child;
// children for different keys run in parallel. Child outputs are forwarded
// downstream through the owning process, in the order they are emitted per
// child.
//
// A child that terminates is forgotten and replaced by a fresh instance the
// next time its key shows up. A child fault fails the owning process.
func Partition(key func(vals ...any) string, m Mission) Mission {
	return func(p Ctx, rf xf.Reducer) xf.Reducer {
		children := make(map[string]*Process)
		emit := func(out ...any) { p.Post(rf, out...) }

		return func(acc any, vals ...any) (any, error) {
			k := key(vals...)
			c, ok := children[k]
			if !ok || c.State() != actor.Running {
				var child *Process
				child = p.Spawn(m, emit, WithOnStop(func(actor.State) {
					p.Post(func(acc any, _ ...any) (any, error) {
						if children[k] == child {
							delete(children, k)
						}
						return acc, nil
					})
				}))
				c = child
				children[k] = c
			}
			c.Send(vals...)
			return acc, nil
		}
	}
}
