package actor

import (
	"errors"
	"fmt"
)

var (
	ErrRunning = errors.New("actor still running")
	// ErrSchedulerStopped fails actors whose scheduler context ends while
	// they are still running; no drain can be started for them any more.
	ErrSchedulerStopped = errors.New("scheduler stopped")
)

// PanicError is the fault recorded when a handler panics.
type PanicError struct {
	Recovered any
	Stack     []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panicked: %v", e.Recovered) }

// Unwrap exposes a recovered error value, e.g. from panic(err).
func (e *PanicError) Unwrap() error {
	if err, ok := e.Recovered.(error); ok {
		return err
	}
	return nil
}
