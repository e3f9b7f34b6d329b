// Package metrics holds backend-agnostic instrumentation types so the core
// packages never import a metrics library directly. Adapters (see
// adapters/prometheus) provide the concrete implementations.
package metrics

import "time"

// Timer measures one operation. Call ObserveDuration when it completes:
//
//	defer m.MessageDuration(name).ObserveDuration()
type Timer interface {
	ObserveDuration()
}

// Nop is a Timer that records nothing.
var Nop Timer = nopTimer{}

type nopTimer struct{}

func (nopTimer) ObserveDuration() {}

// Since starts a Timer that hands the elapsed time to observe.
func Since(observe func(time.Duration)) Timer {
	return &stopwatch{start: time.Now(), observe: observe}
}

type stopwatch struct {
	start   time.Time
	observe func(time.Duration)
}

func (s *stopwatch) ObserveDuration() { s.observe(time.Since(s.start)) }
