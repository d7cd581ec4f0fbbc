package events

import (
	"context"
)

// Handler reacts to one kind of event.
type Handler func(Event)

// Dispatcher routes events to handlers registered per event type. Handlers run
// through the post function, normally loop.Post, so they execute on the UI loop.
type Dispatcher struct {
	handlers map[EventType][]Handler
	post     func(func()) bool
}

// NewDispatcher creates a dispatcher. A nil post runs handlers inline.
func NewDispatcher(post func(func()) bool) *Dispatcher {
	if post == nil {
		post = func(fn func()) bool {
			fn()
			return true
		}
	}
	return &Dispatcher{
		handlers: make(map[EventType][]Handler),
		post:     post,
	}
}

// On registers h for events of type t. Register before calling Run.
func (d *Dispatcher) On(t EventType, h Handler) {
	d.handlers[t] = append(d.handlers[t], h)
}

// Handles reports whether any handler is registered for t.
func (d *Dispatcher) Handles(t EventType) bool {
	return len(d.handlers[t]) > 0
}

// Dispatch delivers ev to its handlers. Returns false if the event had no
// handler or could not be posted.
func (d *Dispatcher) Dispatch(ev Event) bool {
	hs := d.handlers[ev.Type()]
	if len(hs) == 0 {
		return false
	}
	return d.post(func() {
		for _, h := range hs {
			h(ev)
		}
	})
}

// Run dispatches events from ch until ctx is cancelled or ch is closed.
func (d *Dispatcher) Run(ctx context.Context, ch <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			d.Dispatch(ev)
		}
	}
}
