// Package clock abstracts wall-clock time and one-shot callbacks so the panel's
// timers can be driven deterministically in tests.
package clock

import (
	"time"
)

// Timer is a pending callback created by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the callback from running. Returns false if it already
	// ran or was stopped.
	Stop() bool
}

// Clock provides the current time and delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// PostFunc hands a callback to the goroutine that owns UI state.
type PostFunc func(func())

// Real is the wall clock. When a PostFunc is set, expired callbacks are
// delivered through it instead of running on the runtime timer goroutine.
type Real struct {
	post PostFunc
}

// NewReal creates a wall clock. post may be nil.
func NewReal(post PostFunc) *Real {
	return &Real{post: post}
}

// Now returns the current time.
func (r *Real) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f after d.
func (r *Real) AfterFunc(d time.Duration, f func()) Timer {
	if r.post == nil {
		return time.AfterFunc(d, f)
	}
	post := r.post
	return time.AfterFunc(d, func() { post(f) })
}

// NowMillis returns c.Now() as milliseconds since the Unix epoch.
func NowMillis(c Clock) int64 {
	return c.Now().UnixMilli()
}
