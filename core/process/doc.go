// Package process builds concurrent units of computation out of two parts:
// an [actor.Actor], which serializes execution, and a [Mission], which
// supplies behavior as a chain of reducing functions.
//
// # Missions
//
// A Mission turns a downstream [xf.Reducer] into a new one, like an
// [xf.Transformer], but it also receives the [Ctx] of the process it runs
// in. Through the Ctx a mission can schedule more work on its own mailbox,
// arm timers, spawn children or raise faults. Every transformer is a mission
// via [Lift].
//
//	m := process.Chain(
//	    process.Lift(xf.Filter(isWarnOrWorse)),
//	    process.Async(lookupOwner),
//	)
//	p := process.Spawn(m, printLine, func(err error) { log.Error("process failed", slog.Any("error", err)) })
//	p.Send("WARN", "disk almost full")
//
// # Spawning
//
// [Spawn] creates the actor. Its accumulator starts as the sink and the
// innermost reducer calls the sink with every message that reaches it, so a
// mission emits output simply by calling downstream. A mission ends the
// process by returning an [xf.Reduced] accumulator; a fault (error return
// or panic) fails it and reports to the error handler exactly once. After
// either, sends are dropped.
//
// # Combinators
//
//   - [Par] runs missions side by side and pairs their outputs by position.
//   - [Async] adapts a callback-style operation into a mission.
//   - [Partition] runs one child process per key.
//
// Faults never cross process boundaries on their own. Children spawned via
// [Ctx.Spawn] route their faults into the parent, which fails in turn.
package process
