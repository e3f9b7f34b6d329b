package actor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/leonoel/mission/core/ds"
)

type (
	// Handler folds one message into the accumulator. A non-nil error is a
	// fault and fails the actor.
	Handler func(acc any, vals ...any) (any, error)

	// FaultHandler receives the fault that failed an actor.
	FaultHandler func(err error)
)

type Options struct {
	// ID identifies the actor in logs. Defaults to a random nanoid.
	ID string
	// Name labels metrics. Defaults to "actor".
	Name string
	// Context parents the actor's context. Cancelling it stops the actor
	// as if Stop had been called.
	Context   context.Context
	Logger    *slog.Logger
	Scheduler Scheduler
	Metrics   Metrics
	// Validate is called with every new accumulator; true means terminal.
	Validate func(acc any) bool
	// OnFault is invoked at most once, when the actor fails.
	OnFault FaultHandler
	// OnStop is invoked once the actor has left Running, after OnFault.
	OnStop func(state State)
	// Paused creates the actor paused: messages queue up until Resume.
	Paused bool
}

// work is one mailbox entry.
type work struct {
	h    Handler
	vals []any
}

type Actor struct {
	id      string
	name    string
	log     *slog.Logger
	sched   Scheduler
	metrics Metrics

	ctx    context.Context
	cancel context.CancelFunc

	handler  Handler
	validate func(any) bool
	onStop   func(State)

	mu       sync.Mutex
	mailbox  ds.Queue[work]
	draining bool
	paused   bool
	state    State
	onFault  FaultHandler
	fault    error
	// release unregisters the context watchers once stopped.
	release []func() bool

	// acc is only touched by the single in-flight drain.
	acc any

	done chan struct{}
}

// New creates an idle actor holding init and bound to h.
func New(opt Options, init any, h Handler) *Actor {
	if opt.ID == "" {
		opt.ID = gonanoid.Must(10)
	}
	if opt.Name == "" {
		opt.Name = "actor"
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Scheduler == nil {
		opt.Scheduler = DefaultScheduler()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopMetrics()
	}

	ctx, cancel := context.WithCancel(opt.Context)

	a := &Actor{
		id:       opt.ID,
		name:     opt.Name,
		log:      opt.Logger.With(slog.String("actor", opt.ID)),
		sched:    opt.Scheduler,
		metrics:  opt.Metrics,
		ctx:      ctx,
		cancel:   cancel,
		handler:  h,
		validate: opt.Validate,
		onStop:   opt.OnStop,
		onFault:  opt.OnFault,
		paused:   opt.Paused,
		acc:      init,
		done:     make(chan struct{}),
	}
	a.metrics.ActorStarted(a.name)

	parent, sctx := opt.Context, a.sched.Context()
	stopParent := context.AfterFunc(parent, a.Stop)
	stopSched := context.AfterFunc(sctx, func() {
		if parent.Err() != nil {
			a.Stop()
			return
		}
		a.stop(Failed, fmt.Errorf("%w: %w", ErrSchedulerStopped, context.Cause(sctx)))
	})
	a.mu.Lock()
	a.release = []func() bool{stopParent, stopSched}
	a.mu.Unlock()
	return a
}

func (a *Actor) ID() string { return a.id }

// Context is cancelled when the actor leaves Running.
func (a *Actor) Context() context.Context { return a.ctx }

// Log returns the actor's logger.
func (a *Actor) Log() *slog.Logger { return a.log }

// Done is closed when the actor leaves Running.
func (a *Actor) Done() <-chan struct{} { return a.done }

func (a *Actor) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Result returns the final accumulator and, if the actor failed, its fault.
// It returns ErrRunning while the actor runs.
func (a *Actor) Result() (any, error) {
	select {
	case <-a.done:
	default:
		return nil, ErrRunning
	}
	return a.acc, a.fault
}

// Send enqueues vals for the bound handler.
func (a *Actor) Send(vals ...any) { a.Post(a.handler, vals...) }

// Post enqueues vals for h. h runs against the actor's accumulator like the
// bound handler does; its result replaces the accumulator.
func (a *Actor) Post(h Handler, vals ...any) {
	a.mu.Lock()
	if a.state != Running {
		a.mu.Unlock()
		return
	}
	a.mailbox.Push(work{h: h, vals: vals})
	start := !a.draining && !a.paused
	if start {
		a.draining = true
	}
	a.mu.Unlock()

	a.metrics.MailboxDelta(a.name, 1)
	if start {
		a.sched.Schedule(a.drain)
	}
}

// Stop terminates the actor from outside. The mailbox is discarded and
// OnFault is cleared; a handler already in flight runs to completion but its
// result is dropped. No-op once the actor has stopped.
func (a *Actor) Stop() { a.stop(Terminated, nil) }

// Resume starts draining an actor created with Options.Paused.
func (a *Actor) Resume() {
	a.mu.Lock()
	a.paused = false
	start := a.state == Running && !a.draining && !a.mailbox.IsEmpty()
	if start {
		a.draining = true
	}
	a.mu.Unlock()

	if start {
		a.sched.Schedule(a.drain)
	}
}

func (a *Actor) drain() {
	for {
		a.mu.Lock()
		if a.state != Running || a.paused {
			a.draining = false
			a.mu.Unlock()
			return
		}
		w, ok := a.mailbox.Pop()
		if !ok {
			a.draining = false
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()
		a.metrics.MailboxDelta(a.name, -1)

		next, err := a.invoke(w)
		if err != nil {
			a.stop(Failed, err)
			return
		}
		a.mu.Lock()
		if a.state != Running {
			// stopped from outside while the handler ran
			a.mu.Unlock()
			return
		}
		a.acc = next
		a.mu.Unlock()
		if a.validate != nil && a.validate(next) {
			a.stop(Terminated, nil)
			return
		}
	}
}

func (a *Actor) invoke(w work) (next any, err error) {
	defer a.metrics.MessageDuration(a.name).ObserveDuration()
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			a.metrics.MessagePanic(a.name)
			a.log.Error("actor panicked", slog.Any("recovered", r), slog.String("stack", string(stack)), slog.Any("msg", w.vals))
			next, err = a.acc, &PanicError{Recovered: r, Stack: stack}
		}
		a.metrics.MessageProcessed(a.name, err == nil)
	}()
	return w.h(a.acc, w.vals...)
}

func (a *Actor) stop(state State, fault error) {
	a.mu.Lock()
	if a.state != Running {
		a.mu.Unlock()
		return
	}
	a.state = state
	a.fault = fault
	dropped := a.mailbox.Clear()
	a.draining = false
	onFault := a.onFault
	a.onFault = nil
	release := a.release
	a.release = nil
	a.mu.Unlock()

	for _, f := range release {
		f()
	}
	a.metrics.MailboxDelta(a.name, -dropped)
	a.cancel()

	if state == Failed {
		a.log.Warn("actor failed", slog.Any("error", fault), slog.Int("dropped", dropped))
		if onFault != nil {
			onFault(fault)
		}
	} else {
		a.log.Debug("actor terminated", slog.Int("dropped", dropped))
	}

	a.metrics.ActorStopped(a.name, state)
	if a.onStop != nil {
		a.onStop(state)
	}
	close(a.done)
}
