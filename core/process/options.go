package process

import (
	"context"
	"log/slog"

	"github.com/leonoel/mission/core/actor"
)

// Option configures Spawn.
type Option func(*options)

type options struct {
	id      string
	name    string
	ctx     context.Context
	log     *slog.Logger
	sched   actor.Scheduler
	metrics actor.Metrics
	clock   Clock
	onStop  func(actor.State)
}

func newOptions(opts []Option) options {
	o := options{
		name:    "process",
		ctx:     context.Background(),
		log:     slog.Default(),
		sched:   actor.DefaultScheduler(),
		metrics: actor.NopMetrics(),
		clock:   RealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithID sets the process ID. Defaults to a random nanoid.
func WithID(id string) Option { return func(o *options) { o.id = id } }

// WithName sets the metrics label of the process (default "process").
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithContext sets the parent of the context handed to missions.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithScheduler sets where mailbox drains and Ctx.Schedule tasks run.
func WithScheduler(s actor.Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.sched = s
		}
	}
}

func WithMetrics(m actor.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock sets the time source used by Ctx.Now and Ctx.After.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithOnStop registers f to run once the process has left Running, after the
// error handler. f runs on the process's drain and must not block.
func WithOnStop(f func(actor.State)) Option { return func(o *options) { o.onStop = f } }
