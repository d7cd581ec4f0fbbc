// Package loop runs the single goroutine that owns all panel state.
//
// Engine callbacks, timer expirations and user intents are posted here and
// executed one at a time, each to completion.
package loop

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/driftsync/syncshell/internal/constants"
)

// ErrStopped is returned by Call once the loop has exited.
var ErrStopped = errors.New("loop stopped")

// Loop is a serial callback executor.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	logger zerolog.Logger
}

// New creates a loop with the given queue size (<= 0 uses the default).
func New(queueSize int, logger zerolog.Logger) *Loop {
	if queueSize <= 0 {
		queueSize = constants.LoopQueueSize
	}
	return &Loop{
		queue:  make(chan func(), queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post enqueues fn. It blocks while the queue is full and returns false if
// the loop has already exited.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes posted callbacks until ctx is cancelled. A panicking callback
// is logged and does not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			l.exec(fn)
		}
	}
}

// Done is closed once Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Str("panic", fmt.Sprint(r)).Msg("UI loop callback panicked")
		}
	}()
	fn()
}
