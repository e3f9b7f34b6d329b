// Package actor implements a single-writer actor: one accumulator slot, one
// unbounded FIFO mailbox, and at most one handler execution in flight.
//
// Each mailbox entry pairs a [Handler] with the message it should receive.
// [Actor.Send] enqueues the actor's bound handler, [Actor.Post] enqueues any
// handler. Neither call blocks. When the mailbox turns non-empty while the
// actor is idle, a drain task is started on the [Scheduler]; it applies
// entries in FIFO order until the mailbox is empty again. Sends issued from
// inside a handler are appended to the mailbox and never run inline.
//
// # Lifecycle
//
//	Running ──(Validate reports terminal)──▶ Terminated
//	Running ──(handler error or panic)─────▶ Failed
//
// [Actor.Stop] and cancellation of [Options.Context] also lead to Terminated.
// If the [Scheduler] stops first, the actor fails with [ErrSchedulerStopped].
//
// Both end states are final. Leaving Running discards the mailbox, cancels
// [Actor.Context] and closes [Actor.Done]; later sends are dropped silently.
// On failure [Options.OnFault] is invoked exactly once with the fault; on
// termination it is cleared and never invoked.
//
// An actor created with [Options.Paused] queues messages without draining
// until [Actor.Resume]; this lets the owner finish wiring before the first
// handler runs.
//
// Idle actors own no goroutine, so spawning many short-lived actors is cheap.
package actor
