package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leonoel/mission/core/actor"
	"github.com/leonoel/mission/core/xf"
)

var (
	ErrNotSink   = errors.New("accumulator is not a sink")
	ErrNilFault  = errors.New("fault raised without an error")
	ErrNoMission = errors.New("nil mission")
)

type (
	// Sink performs the effects of a process's output.
	Sink func(vals ...any)

	// ErrorHandler receives the fault that failed a process. It is the
	// supervisor: retrying, ignoring or propagating is its decision.
	ErrorHandler func(err error)

	// Mission derives the reducer a process runs from the downstream reducer
	// rf. It is called once per spawn, so any state it allocates is private
	// to that process.
	Mission func(p Ctx, rf xf.Reducer) xf.Reducer

	// Ctx is a mission's handle on the process it runs in. The embedded
	// context is cancelled when the process stops.
	Ctx interface {
		context.Context
		ID() string
		Log() *slog.Logger
		// Send enqueues a message for the process's own reducer.
		Send(vals ...any)
		// Post enqueues a message for h, which runs against the process
		// accumulator in mailbox order.
		Post(h xf.Reducer, vals ...any)
		// Fail enqueues a fault; it fails the process when reached.
		Fail(err error)
		// After sends vals to the process once d has elapsed. The timer is
		// stopped when the process stops.
		After(d time.Duration, vals ...any) (stop func() bool)
		Now() time.Time
		// Schedule runs f on an independent execution context. f must not
		// touch process state except through Send, Post or Fail.
		Schedule(f func())
		// Spawn starts a child process whose faults fail this process. The
		// child is stopped when this process stops.
		Spawn(m Mission, sink Sink, opts ...Option) *Process
	}
)

// Lift turns a transformer into a mission that ignores its Ctx.
func Lift(t xf.Transformer) Mission {
	return func(_ Ctx, rf xf.Reducer) xf.Reducer { return t(rf) }
}

// Chain composes missions the way xf.Compose composes transformers: the
// first mission sees each message first.
func Chain(ms ...Mission) Mission {
	return func(p Ctx, rf xf.Reducer) xf.Reducer {
		for i := len(ms) - 1; i >= 0; i-- {
			rf = ms[i](p, rf)
		}
		return rf
	}
}

// Process is a running mission.
type Process struct {
	a    *actor.Actor
	opts options
}

// Spawn starts m with sink as its output and onError as its supervisor and
// returns immediately. The mission is instantiated before any message is
// handled; messages it sends during instantiation are queued.
func Spawn(m Mission, sink Sink, onError ErrorHandler, opts ...Option) *Process {
	o := newOptions(opts)
	if sink == nil {
		sink = func(...any) {}
	}

	p := &Process{opts: o}

	var rf xf.Reducer
	p.a = actor.New(actor.Options{
		ID:        o.id,
		Name:      o.name,
		Context:   o.ctx,
		Logger:    o.log,
		Scheduler: o.sched,
		Metrics:   o.metrics,
		Validate:  xf.IsReduced,
		OnFault:   actor.FaultHandler(onError),
		OnStop:    o.onStop,
		Paused:    true,
	}, sink, func(acc any, vals ...any) (any, error) {
		return rf(acc, vals...)
	})

	if m == nil {
		rf = func(acc any, _ ...any) (any, error) { return acc, ErrNoMission }
	} else {
		rf = m(&procCtx{p: p}, apply)
	}
	p.a.Resume()
	return p
}

// apply is the innermost reducer: the accumulator is the current output
// action, so it is invoked and handed back unchanged.
func apply(acc any, vals ...any) (any, error) {
	switch f := acc.(type) {
	case Sink:
		f(vals...)
	case func(...any):
		f(vals...)
	default:
		return acc, fmt.Errorf("%w: %T", ErrNotSink, acc)
	}
	return acc, nil
}

func (p *Process) ID() string { return p.a.ID() }

// Send enqueues a message. It never blocks and is a no-op once the process
// has stopped.
func (p *Process) Send(vals ...any) { p.a.Send(vals...) }

func (p *Process) State() actor.State { return p.a.State() }

// Done is closed when the process stops.
func (p *Process) Done() <-chan struct{} { return p.a.Done() }

// Result returns the final accumulator with any Reduced wrapper removed, and
// the fault if the process failed. It returns actor.ErrRunning while the
// process runs.
func (p *Process) Result() (any, error) {
	acc, err := p.a.Result()
	return xf.Unreduced(acc), err
}

type procCtx struct {
	p *Process
}

func (c *procCtx) Deadline() (time.Time, bool) { return c.p.a.Context().Deadline() }
func (c *procCtx) Done() <-chan struct{}       { return c.p.a.Context().Done() }
func (c *procCtx) Err() error                  { return c.p.a.Context().Err() }
func (c *procCtx) Value(key any) any           { return c.p.a.Context().Value(key) }

func (c *procCtx) ID() string        { return c.p.a.ID() }
func (c *procCtx) Log() *slog.Logger { return c.p.a.Log() }
func (c *procCtx) Send(vals ...any)  { c.p.a.Send(vals...) }
func (c *procCtx) Now() time.Time    { return c.p.opts.clock.Now() }
func (c *procCtx) Schedule(f func()) { c.p.opts.sched.Schedule(f) }

func (c *procCtx) Post(h xf.Reducer, vals ...any) { c.p.a.Post(actor.Handler(h), vals...) }

func (c *procCtx) Fail(err error) {
	if err == nil {
		err = ErrNilFault
	}
	c.p.a.Post(func(acc any, _ ...any) (any, error) { return acc, err })
}

func (c *procCtx) After(d time.Duration, vals ...any) func() bool {
	stop := c.p.opts.clock.AfterFunc(d, func() { c.p.a.Send(vals...) })
	unregister := context.AfterFunc(c.p.a.Context(), func() { stop() })
	return func() bool {
		unregister()
		return stop()
	}
}

func (c *procCtx) Spawn(m Mission, sink Sink, opts ...Option) *Process {
	o := c.p.opts
	inherited := []Option{
		WithName(o.name),
		WithLogger(c.p.a.Log()),
		WithScheduler(o.sched),
		WithMetrics(o.metrics),
		WithClock(o.clock),
	}
	// the context goes last: a child never outlives its parent
	return Spawn(m, sink, c.Fail, append(append(inherited, opts...), WithContext(c.p.a.Context()))...)
}

var _ Ctx = (*procCtx)(nil)
