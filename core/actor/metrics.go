package actor

import "github.com/leonoel/mission/core/metrics"

// Metrics is the instrumentation surface of the actor runtime. name is the
// actor's Options.Name, so cardinality follows the number of actor kinds,
// not the number of actors. All methods must be safe for concurrent use.
type Metrics interface {
	// Message handling
	MessageDuration(name string) metrics.Timer
	MessageProcessed(name string, success bool)
	MessagePanic(name string)

	// MailboxDelta adds delta to the number of queued messages.
	MailboxDelta(name string, delta int)

	// Lifecycle
	ActorStarted(name string)
	ActorStopped(name string, state State)

	// Scheduler
	SchedulerInflight(count int)
	SchedulerTaskDuration() metrics.Timer
	SchedulerTaskCompleted(success bool)
}

// nopMetrics is a no-op implementation of Metrics.
type nopMetrics struct{}

func (nopMetrics) MessageDuration(string) metrics.Timer { return metrics.Nop }
func (nopMetrics) MessageProcessed(string, bool)        {}
func (nopMetrics) MessagePanic(string)                  {}

func (nopMetrics) MailboxDelta(string, int) {}

func (nopMetrics) ActorStarted(string)        {}
func (nopMetrics) ActorStopped(string, State) {}

func (nopMetrics) SchedulerInflight(int)                {}
func (nopMetrics) SchedulerTaskDuration() metrics.Timer { return metrics.Nop }
func (nopMetrics) SchedulerTaskCompleted(bool)          {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
