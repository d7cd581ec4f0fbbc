// Package debounce delays "transfers finished" notifications so a burst of
// completions produces one notification instead of a flicker of them.
package debounce

import (
	"time"

	"github.com/driftsync/syncshell/internal/clock"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/timer"
)

// Counter reports the engine's pending transfer count for a direction.
type Counter interface {
	PendingTransfers(d models.Direction) int
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(d models.Direction) int

// PendingTransfers implements Counter.
func (f CounterFunc) PendingTransfers(d models.Direction) int { return f(d) }

// Handlers are invoked when a finished signal fires.
type Handlers struct {
	DirectionFinished func(d models.Direction)
	AllFinished       func()
}

// Debouncer tracks per-direction and all-transfers finished signals. Each
// signal has at most one pending timer. Not safe for concurrent use.
type Debouncer struct {
	counter  Counter
	handlers Handlers

	dirTimers [2]*timer.Timer
	allTimer  *timer.Timer
	active    [2]bool
	busy      bool
}

// New creates a debouncer with the default delay.
func New(c clock.Clock, counter Counter, h Handlers) *Debouncer {
	return NewWithDelay(c, counter, h, constants.FinishedDebounceDelay)
}

// NewWithDelay creates a debouncer with a custom quiet period.
func NewWithDelay(c clock.Clock, counter Counter, h Handlers, delay time.Duration) *Debouncer {
	d := &Debouncer{counter: counter, handlers: h}
	for _, dir := range models.Directions {
		dir := dir
		d.dirTimers[dir] = timer.NewSingleShot(c, delay, func() { d.fireDirection(dir) })
	}
	d.allTimer = timer.NewSingleShot(c, delay, d.fireAll)
	return d
}

// OnTransferStarted marks dir active and cancels the timers that a new
// transfer makes stale.
func (d *Debouncer) OnTransferStarted(dir models.Direction) {
	d.active[dir] = true
	d.busy = true
	d.dirTimers[dir].Stop()
	d.allTimer.Stop()
}

// OnTransferCompleted re-evaluates both directions after a transfer in dir
// finished. A successful drain arms the direction's timer; an error fires
// the handler immediately. A pending timer is never re-armed or pre-empted.
func (d *Debouncer) OnTransferCompleted(dir models.Direction, hadError bool) {
	d.active[dir] = true

	var pending [2]int
	for _, dr := range models.Directions {
		pending[dr] = d.counter.PendingTransfers(dr)
	}

	for _, dr := range models.Directions {
		t := d.dirTimers[dr]
		if pending[dr] != 0 || !d.active[dr] {
			t.Stop()
			continue
		}
		if t.IsActive() {
			continue
		}
		if hadError {
			d.fireDirection(dr)
		} else {
			t.Start()
		}
	}

	if pending[models.Download] != 0 || pending[models.Upload] != 0 || !d.busy {
		d.allTimer.Stop()
		return
	}
	if d.allTimer.IsActive() {
		return
	}
	if hadError {
		d.fireAll()
	} else {
		d.allTimer.Start()
	}
}

// MarkBusy records that the panel is showing transfers. The all-finished
// signal only fires after a busy period; firing it clears the mark.
func (d *Debouncer) MarkBusy() {
	d.busy = true
}

// Busy reports whether a busy period is open.
func (d *Debouncer) Busy() bool {
	return d.busy
}

// Pending reports whether dir's timer is armed.
func (d *Debouncer) Pending(dir models.Direction) bool {
	return d.dirTimers[dir].IsActive()
}

// AllPending reports whether the all-finished timer is armed.
func (d *Debouncer) AllPending() bool {
	return d.allTimer.IsActive()
}

// Active reports whether dir has shown a transfer since its last finish.
func (d *Debouncer) Active(dir models.Direction) bool {
	return d.active[dir]
}

// Stop cancels every pending timer.
func (d *Debouncer) Stop() {
	for _, t := range d.dirTimers {
		t.Stop()
	}
	d.allTimer.Stop()
}

func (d *Debouncer) fireDirection(dir models.Direction) {
	if d.counter.PendingTransfers(dir) != 0 {
		return
	}
	d.active[dir] = false
	if d.handlers.DirectionFinished != nil {
		d.handlers.DirectionFinished(dir)
	}
}

func (d *Debouncer) fireAll() {
	for _, dir := range models.Directions {
		if d.counter.PendingTransfers(dir) != 0 {
			return
		}
	}
	d.busy = false
	if d.handlers.AllFinished != nil {
		d.handlers.AllFinished()
	}
}
