// Package timer provides single-shot and repeating timers with start/stop/active
// semantics on top of a clock.Clock.
//
// Timers are not goroutine-safe. They are owned by the UI loop and, with a
// clock.Real built around loop.Post, fire on it as well.
package timer

import (
	"time"

	"github.com/driftsync/syncshell/internal/clock"
)

// Timer calls a function after an interval, once or repeatedly.
type Timer struct {
	clock      clock.Clock
	interval   time.Duration
	singleShot bool
	fn         func()

	pending clock.Timer
	gen     uint64
	active  bool
}

// NewSingleShot creates a stopped timer that fires once per Start.
func NewSingleShot(c clock.Clock, interval time.Duration, fn func()) *Timer {
	return &Timer{clock: c, interval: interval, singleShot: true, fn: fn}
}

// NewRepeating creates a stopped timer that fires every interval until stopped.
func NewRepeating(c clock.Clock, interval time.Duration, fn func()) *Timer {
	return &Timer{clock: c, interval: interval, fn: fn}
}

// Start arms the timer. Starting an active timer restarts its interval.
func (t *Timer) Start() {
	t.Stop()
	t.arm()
}

// Stop disarms the timer. Stopping an inactive timer does nothing.
func (t *Timer) Stop() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.active = false
	// A callback already handed to the loop must not run after Stop.
	t.gen++
}

// IsActive reports whether the timer is armed.
func (t *Timer) IsActive() bool {
	return t.active
}

// Interval returns the configured interval.
func (t *Timer) Interval() time.Duration {
	return t.interval
}

func (t *Timer) arm() {
	t.gen++
	gen := t.gen
	t.active = true
	t.pending = t.clock.AfterFunc(t.interval, func() { t.fire(gen) })
}

func (t *Timer) fire(gen uint64) {
	if !t.active || gen != t.gen {
		return
	}
	if t.singleShot {
		t.active = false
		t.pending = nil
	} else {
		t.arm()
	}
	t.fn()
}
