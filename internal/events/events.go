// Package events carries engine notifications and shell state changes between
// the engine, the UI loop and the front ends (GUI, tray, TUI).
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/models"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog EventType = "log"

	// Engine transfer callbacks
	EventTransferStarted   EventType = "transfer_started"   // Transfer began (bytes moving)
	EventTransferUpdated   EventType = "transfer_updated"   // Progress update
	EventTransferFinished  EventType = "transfer_finished"  // Completed, with or without error
	EventTransferCancelled EventType = "transfer_cancelled" // Cancelled by user

	// Engine sync callbacks
	EventSyncState     EventType = "sync_state"     // Scanning/waiting flags changed
	EventAccountUpdate EventType = "account_update" // Storage usage changed

	// Shell-side state
	EventStatusChanged EventType = "status_changed" // Aggregate state changed
	EventRecentFiles   EventType = "recent_files"   // Recent file list redrawn
	EventConfigChanged EventType = "config_changed" // Preferences saved
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	Source  string
	Error   error
}

// TransferEvent is published for every transfer callback from the engine.
// Error is only set on EventTransferFinished when the transfer failed.
type TransferEvent struct {
	BaseEvent
	TaskID   string
	Snapshot models.TransferSnapshot
	Speed    int64 // engine's current speed for the direction, bytes/sec
	Error    error
}

// SyncStateEvent reports the engine's scanning and waiting flags.
type SyncStateEvent struct {
	BaseEvent
	Scanning bool
	Waiting  bool
}

// AccountEvent reports storage usage.
type AccountEvent struct {
	BaseEvent
	UsedBytes  int64
	TotalBytes int64
}

// StatusEvent is published by the info panel whenever the aggregate state changes.
type StatusEvent struct {
	BaseEvent
	State   models.ActiveState
	Text    string
	Icon    string
	Busy    bool
	Tooltip string
}

// RecentFilesEvent carries the redrawn recent file list, most recent first.
type RecentFilesEvent struct {
	BaseEvent
	Entries []models.RecentFileEntry
}

// ConfigChangedEvent is published after preferences are saved.
type ConfigChangedEvent struct {
	BaseEvent
	Path string
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// Events for a full subscriber are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message, source string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: BaseEvent{
			EventType: EventLog,
			Time:      time.Now(),
		},
		Level:   level,
		Message: message,
		Source:  source,
		Error:   err,
	})
}

// PublishTransfer is a convenience method for transfer callbacks.
func (eb *EventBus) PublishTransfer(eventType EventType, taskID string, snap models.TransferSnapshot, speed int64, err error) {
	eb.Publish(&TransferEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Time:      time.Now(),
		},
		TaskID:   taskID,
		Snapshot: snap,
		Speed:    speed,
		Error:    err,
	})
}

// PublishSyncState is a convenience method for scanning/waiting flag changes.
func (eb *EventBus) PublishSyncState(scanning, waiting bool) {
	eb.Publish(&SyncStateEvent{
		BaseEvent: BaseEvent{
			EventType: EventSyncState,
			Time:      time.Now(),
		},
		Scanning: scanning,
		Waiting:  waiting,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			close(subCh)
			break
		}
	}
}

// UnsubscribeAll removes a channel obtained from SubscribeAll.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			close(subCh)
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}

// ResetDroppedEventCount resets the dropped event counter to zero
func (eb *EventBus) ResetDroppedEventCount() int64 {
	return eb.droppedEvents.Swap(0)
}
