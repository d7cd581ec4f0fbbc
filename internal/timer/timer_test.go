package timer

import (
	"testing"
	"time"

	"github.com/driftsync/syncshell/internal/clock"
)

func newFake() *clock.Fake {
	return clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestSingleShot(t *testing.T) {
	c := newFake()
	fired := 0
	tm := NewSingleShot(c, 100*time.Millisecond, func() { fired++ })

	if tm.IsActive() {
		t.Fatal("New timer should be inactive")
	}

	tm.Start()
	if !tm.IsActive() {
		t.Fatal("Started timer should be active")
	}

	c.Advance(99 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("Fired early: %d", fired)
	}

	c.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("Expected 1 fire, got %d", fired)
	}
	if tm.IsActive() {
		t.Error("Single-shot timer should be inactive after firing")
	}

	c.Advance(time.Second)
	if fired != 1 {
		t.Errorf("Single-shot fired again: %d", fired)
	}
}

func TestRestartExtendsInterval(t *testing.T) {
	c := newFake()
	fired := 0
	tm := NewSingleShot(c, 100*time.Millisecond, func() { fired++ })

	tm.Start()
	c.Advance(80 * time.Millisecond)
	tm.Start()
	c.Advance(80 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("Restart should push the deadline out, fired=%d", fired)
	}
	c.Advance(20 * time.Millisecond)
	if fired != 1 {
		t.Errorf("Expected 1 fire, got %d", fired)
	}
	if c.Pending() != 0 {
		t.Errorf("Expected no pending clock callbacks, got %d", c.Pending())
	}
}

func TestStop(t *testing.T) {
	c := newFake()
	fired := 0
	tm := NewSingleShot(c, 50*time.Millisecond, func() { fired++ })

	tm.Start()
	tm.Stop()
	tm.Stop()
	if tm.IsActive() {
		t.Error("Stopped timer should be inactive")
	}

	c.Advance(time.Second)
	if fired != 0 {
		t.Errorf("Stopped timer fired %d times", fired)
	}
}

func TestRepeating(t *testing.T) {
	c := newFake()
	ticks := 0
	var tm *Timer
	tm = NewRepeating(c, 60*time.Millisecond, func() {
		ticks++
		if ticks == 5 {
			tm.Stop()
		}
	})

	tm.Start()
	c.Advance(130 * time.Millisecond)
	if ticks != 2 {
		t.Fatalf("Expected 2 ticks after 130ms, got %d", ticks)
	}
	if !tm.IsActive() {
		t.Fatal("Repeating timer should stay active")
	}

	c.Advance(time.Second)
	if ticks != 5 {
		t.Errorf("Expected timer to stop itself at 5 ticks, got %d", ticks)
	}
	if tm.IsActive() {
		t.Error("Timer stopped from its callback should be inactive")
	}
}

// Stale callbacks already queued on the loop are ignored.
func TestStaleCallbackIgnored(t *testing.T) {
	fired := 0
	tm := &Timer{clock: stubClock{}, interval: time.Millisecond, singleShot: true, fn: func() { fired++ }}
	tm.Start()
	gen := tm.gen
	tm.Stop()
	tm.fire(gen)
	if fired != 0 {
		t.Errorf("Callback from a stopped arm should be dropped, fired=%d", fired)
	}
}

type stubClock struct{}

func (stubClock) Now() time.Time { return time.Time{} }

func (stubClock) AfterFunc(time.Duration, func()) clock.Timer { return stubTimer{} }

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }
