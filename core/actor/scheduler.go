package actor

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Scheduler runs tasks on independent goroutines. Actors use it to start
// mailbox drains; processes use it for background work.
type Scheduler interface {
	Schedule(f func())
	// Wait blocks until all in-flight tasks complete.
	Wait()
	// Context ends when the scheduler stops accepting tasks. Actors still
	// running at that point fail with ErrSchedulerStopped.
	Context() context.Context
}

type scheduler struct {
	ctx     context.Context
	log     *slog.Logger
	metrics Metrics

	// sem bounds concurrency; nil means unbounded.
	sem      chan struct{}
	inflight atomic.Int32
	wg       sync.WaitGroup
}

// Schedule starts f on its own goroutine. Once the scheduler's context is
// cancelled f is dropped, which also stalls any actor whose drain it was.
func (s *scheduler) Schedule(f func()) {
	if s.ctx.Err() != nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if !s.acquire() {
			return
		}
		defer s.release()
		s.run(f)
	}()
}

func (s *scheduler) acquire() bool {
	if s.sem != nil {
		select {
		case <-s.ctx.Done():
			return false
		case s.sem <- struct{}{}:
		}
	}
	s.metrics.SchedulerInflight(int(s.inflight.Add(1)))
	return true
}

func (s *scheduler) release() {
	s.metrics.SchedulerInflight(int(s.inflight.Add(-1)))
	if s.sem != nil {
		<-s.sem
	}
}

func (s *scheduler) run(f func()) {
	defer s.metrics.SchedulerTaskDuration().ObserveDuration()
	defer func() {
		if r := recover(); r != nil {
			s.metrics.SchedulerTaskCompleted(false)
			s.log.Error("scheduled task panicked", slog.Any("recovered", r), slog.String("stack", string(debug.Stack())))
		}
	}()

	f()
	s.metrics.SchedulerTaskCompleted(true)
}

func (s *scheduler) Wait() { s.wg.Wait() }

func (s *scheduler) Context() context.Context { return s.ctx }

// NewScheduler creates a scheduler that runs at most max tasks at once. If
// max <= 0, concurrency is unlimited. Once ctx is cancelled new tasks are
// dropped and tasks waiting for a slot give up.
func NewScheduler(max int, ctx context.Context) Scheduler {
	return NewSchedulerWithMetrics(max, ctx, nil, NopMetrics())
}

// NewSchedulerWithMetrics creates a scheduler with logging and metrics support.
func NewSchedulerWithMetrics(max int, ctx context.Context, log *slog.Logger, metrics Metrics) Scheduler {
	var sem chan struct{}
	if max > 0 {
		sem = make(chan struct{}, max)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &scheduler{
		ctx:     ctx,
		sem:     sem,
		log:     log,
		metrics: metrics,
	}
}

var defaultScheduler = NewScheduler(0, context.Background())

// DefaultScheduler returns the shared unbounded scheduler used when
// Options.Scheduler is nil.
func DefaultScheduler() Scheduler { return defaultScheduler }
