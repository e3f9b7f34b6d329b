package process

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// capture is a sink that records every output tuple.
type capture struct {
	mu  sync.Mutex
	out [][]any
	ch  chan []any
}

func newCapture() *capture { return &capture{ch: make(chan []any, 4096)} }

func (c *capture) sink(vals ...any) {
	c.mu.Lock()
	c.out = append(c.out, vals)
	c.mu.Unlock()
	c.ch <- vals
}

func (c *capture) values() [][]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]any{}, c.out...)
}

func (c *capture) next(t *testing.T) []any {
	t.Helper()
	select {
	case v := <-c.ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for output")
		return nil
	}
}

// faults records error handler invocations.
type faults struct {
	mu   sync.Mutex
	errs []error
}

func (f *faults) handle(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func (f *faults) list() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error{}, f.errs...)
}

func waitDone(t *testing.T, p *Process) {
	t.Helper()
	select {
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for process to stop")
	case <-p.Done():
	}
}

// manualClock fires timers only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Time
	f       func()
	stopped bool
}

func newManualClock() *manualClock { return &manualClock{now: time.Unix(1_700_000_000, 0)} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	tm := &manualTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, tm)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		was := !tm.stopped
		tm.stopped = true
		return was
	}
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, tm := range c.timers {
		if !tm.stopped && !tm.at.After(c.now) {
			tm.stopped = true
			due = append(due, tm.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func requireNoOutput(t *testing.T, c *capture, wait time.Duration) {
	t.Helper()
	select {
	case v := <-c.ch:
		require.Failf(t, "unexpected output", "%v", v)
	case <-time.After(wait):
	}
}
