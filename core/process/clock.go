package process

import "time"

// Clock is the time source of a process: wall-clock reads and timers for
// delayed sends. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once d has elapsed, unless stop is called first.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// RealClock returns the Clock backed by package time.
func RealClock() Clock { return realClock{} }
