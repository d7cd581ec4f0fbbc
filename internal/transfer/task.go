// Package transfer is an in-process transfer engine. It tracks uploads and
// downloads reported by the caller (or by the Simulator), smooths their speed
// and publishes every change on the event bus. It does not move bytes.
package transfer

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/models"
)

// TaskState represents the current state of a transfer task.
type TaskState string

const (
	TaskQueued    TaskState = "queued"    // Tracked, no bytes moved yet
	TaskActive    TaskState = "active"    // Transferring bytes
	TaskPaused    TaskState = "paused"    // Paused by user (task or direction)
	TaskCompleted TaskState = "completed" // Successfully completed
	TaskFailed    TaskState = "failed"    // Failed with error
	TaskCancelled TaskState = "cancelled" // Cancelled by user
)

// Task is a single upload or download.
type Task struct {
	ID        string // uuid, stable across the task's lifetime
	Tag       int    // engine tag used by the pause/cancel API
	Handle    uint64 // remote node handle
	Direction models.Direction
	Name      string
	LocalPath string
	Size      int64
	Sync      bool // started by a sync rather than by the user

	State          TaskState
	CompletedBytes int64
	Speed          float64 // bytes/sec, EMA smoothed
	Error          error
	heldByUser     bool // paused through PauseTransfer, survives direction resume

	lastBytes      int64
	lastUpdateTime time.Time
	activeSince    time.Time     // start of the current active stretch
	activeTotal    time.Duration // accumulated active time before activeSince

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	mu sync.RWMutex
}

func newTask(tag int, handle uint64, dir models.Direction, name, localPath string, size int64, sync bool, now time.Time) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Tag:       tag,
		Handle:    handle,
		Direction: dir,
		Name:      name,
		LocalPath: localPath,
		Size:      size,
		Sync:      sync,
		State:     TaskQueued,
		CreatedAt: now,
	}
}

// GetState returns the current state (thread-safe).
func (t *Task) GetState() TaskState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.State
}

// GetSpeed returns the smoothed speed in bytes/sec (thread-safe).
func (t *Task) GetSpeed() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Speed
}

// IsTerminal reports whether the task completed, failed or was cancelled.
func (t *Task) IsTerminal() bool {
	return isTerminal(t.GetState())
}

func isTerminal(s TaskState) bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// activate moves a queued or paused task to active. Caller holds t.mu.
func (t *Task) activate(now time.Time) {
	if t.StartedAt.IsZero() {
		t.StartedAt = now
	}
	t.State = TaskActive
	t.activeSince = now
	t.lastUpdateTime = now
	t.lastBytes = t.CompletedBytes
}

// pause stops the active clock. Caller holds t.mu.
func (t *Task) pause(now time.Time) {
	if t.State == TaskActive {
		t.activeTotal += now.Sub(t.activeSince)
	}
	t.State = TaskPaused
	t.Speed = 0
}

// finish moves the task to a terminal state. Caller holds t.mu.
func (t *Task) finish(state TaskState, err error, now time.Time) {
	if t.State == TaskActive {
		t.activeTotal += now.Sub(t.activeSince)
	}
	t.State = state
	t.Error = err
	t.Speed = 0
	t.CompletedAt = now
	if state == TaskCompleted {
		t.CompletedBytes = t.Size
	}
}

// updateBytes records progress and recomputes the EMA speed. Samples closer
// than MinSpeedSampleInterval only move the byte counter. Caller holds t.mu.
func (t *Task) updateBytes(completed int64, now time.Time) {
	if completed > t.Size && t.Size > 0 {
		completed = t.Size
	}
	t.CompletedBytes = completed

	elapsed := now.Sub(t.lastUpdateTime)
	if elapsed < constants.MinSpeedSampleInterval || completed <= t.lastBytes {
		return
	}

	instant := float64(completed-t.lastBytes) / elapsed.Seconds()
	if t.Speed > 0 {
		t.Speed = constants.SpeedSmoothingAlpha*instant + (1-constants.SpeedSmoothingAlpha)*t.Speed
	} else {
		t.Speed = instant
	}
	t.lastBytes = completed
	t.lastUpdateTime = now
}

// meanSpeed is bytes moved over time spent active. Caller holds t.mu (read).
func (t *Task) meanSpeed(now time.Time) int64 {
	active := t.activeTotal
	if t.State == TaskActive {
		active += now.Sub(t.activeSince)
	}
	if active <= 0 {
		return 0
	}
	return int64(float64(t.CompletedBytes) / active.Seconds())
}

// snapshot builds the engine-facing view of the task. Caller holds t.mu (read).
func (t *Task) snapshot(now time.Time) models.TransferSnapshot {
	state := models.TransferNone
	switch t.State {
	case TaskActive, TaskQueued:
		state = models.TransferActive
	case TaskPaused:
		state = models.TransferPaused
	}
	return models.TransferSnapshot{
		Tag:            t.Tag,
		Direction:      t.Direction,
		FileName:       t.Name,
		LocalPath:      t.LocalPath,
		RemoteHandle:   t.Handle,
		CompletedBytes: t.CompletedBytes,
		TotalBytes:     t.Size,
		MeanSpeed:      t.meanSpeed(now),
		State:          state,
		SyncTransfer:   t.Sync,
	}
}

// Info is a copy of a task for display.
type Info struct {
	ID             string
	Tag            int
	Direction      models.Direction
	Name           string
	LocalPath      string
	Size           int64
	CompletedBytes int64
	State          TaskState
	Speed          float64
	Error          error
	CreatedAt      time.Time
	StartedAt      time.Time
	CompletedAt    time.Time
}

// Progress returns completed/size in 0..1.
func (i Info) Progress() float64 {
	if i.Size <= 0 {
		if i.State == TaskCompleted {
			return 1
		}
		return 0
	}
	return float64(i.CompletedBytes) / float64(i.Size)
}

func (t *Task) info() Info {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Info{
		ID:             t.ID,
		Tag:            t.Tag,
		Direction:      t.Direction,
		Name:           t.Name,
		LocalPath:      t.LocalPath,
		Size:           t.Size,
		CompletedBytes: t.CompletedBytes,
		State:          t.State,
		Speed:          t.Speed,
		Error:          t.Error,
		CreatedAt:      t.CreatedAt,
		StartedAt:      t.StartedAt,
		CompletedAt:    t.CompletedAt,
	}
}
