package transfer

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/driftsync/syncshell/internal/clock"
	"github.com/driftsync/syncshell/internal/engine"
	"github.com/driftsync/syncshell/internal/events"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/ratelimit"
)

// ErrCancelled is the error carried by EventTransferFinished when the user
// cancelled the transfer.
var ErrCancelled = engine.ErrCancelled

// Queue tracks transfers for both directions and implements engine.Engine.
// All methods are safe for concurrent use; events are published outside
// the queue lock.
type Queue struct {
	mu       sync.RWMutex
	tasks    map[int]*Task
	order    []int // tags in insertion order
	nextTag  int
	nextNode uint64

	totals [2]int
	paused [2]bool

	blockedPath string
	serversBusy bool
	scanning    bool
	waiting     bool

	bandwidth  *ratelimit.Bandwidth
	spaceCheck SpaceCheck

	bus   *events.EventBus
	clock clock.Clock
}

// SpaceCheck reports an error when need more bytes do not fit at path.
type SpaceCheck func(path string, need int64) error

var _ engine.Engine = (*Queue)(nil)

// NewQueue creates an empty queue. bus may be nil.
func NewQueue(bus *events.EventBus, clk clock.Clock) *Queue {
	if clk == nil {
		clk = clock.NewReal(nil)
	}
	return &Queue{
		tasks:    make(map[int]*Task),
		nextTag:  1,
		nextNode: 0x1000,
		bus:      bus,
		clock:    clk,
	}
}

// Add registers a new transfer and bumps the direction's total. The task
// stays queued until Start.
func (q *Queue) Add(dir models.Direction, name, localPath string, size int64, sync bool) *Task {
	q.mu.Lock()
	tag := q.nextTag
	q.nextTag++
	q.nextNode++
	t := newTask(tag, q.nextNode, dir, name, localPath, size, sync, q.clock.Now())
	q.tasks[tag] = t
	q.order = append(q.order, tag)
	q.totals[dir]++
	q.mu.Unlock()
	return t
}

func (q *Queue) lookup(tag int) (*Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	t, ok := q.tasks[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %d", engine.ErrUnknownTransfer, tag)
	}
	return t, nil
}

// Start begins moving bytes. In a paused direction the task goes straight to
// the paused state.
func (q *Queue) Start(tag int) error {
	t, err := q.lookup(tag)
	if err != nil {
		return err
	}
	dirPaused := q.AreTransfersPaused(t.Direction)
	now := q.clock.Now()

	t.mu.Lock()
	if t.State != TaskQueued {
		state := t.State
		t.mu.Unlock()
		return fmt.Errorf("transfer %d cannot start from state %s", tag, state)
	}
	if dirPaused {
		t.State = TaskPaused
	} else {
		t.activate(now)
	}
	snap := t.snapshot(now)
	t.mu.Unlock()

	q.publish(events.EventTransferStarted, t, snap, nil)

	if err := q.checkSpace(snap); err != nil {
		return q.Fail(tag, err)
	}
	return nil
}

// checkSpace runs the space check for downloads with an absolute target.
func (q *Queue) checkSpace(snap models.TransferSnapshot) error {
	q.mu.RLock()
	check := q.spaceCheck
	q.mu.RUnlock()
	if check == nil || snap.Direction != models.Download || !filepath.IsAbs(snap.LocalPath) {
		return nil
	}
	return check(snap.LocalPath, snap.TotalBytes-snap.CompletedBytes)
}

// SetSpaceCheck installs the free space check run when a download starts.
// A failing check fails the download with the check's error.
func (q *Queue) SetSpaceCheck(fn SpaceCheck) {
	q.mu.Lock()
	q.spaceCheck = fn
	q.mu.Unlock()
}

// SetBandwidth installs the per-direction limits that workers moving bytes
// consult. nil removes all limits.
func (q *Queue) SetBandwidth(b *ratelimit.Bandwidth) {
	q.mu.Lock()
	q.bandwidth = b
	q.mu.Unlock()
}

// Bandwidth returns the installed limits, possibly nil. A nil *Bandwidth
// allows everything.
func (q *Queue) Bandwidth() *ratelimit.Bandwidth {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.bandwidth
}

// Update records progress for an active transfer.
func (q *Queue) Update(tag int, completedBytes int64) error {
	t, err := q.lookup(tag)
	if err != nil {
		return err
	}
	now := q.clock.Now()

	t.mu.Lock()
	if t.State != TaskActive {
		t.mu.Unlock()
		return nil
	}
	t.updateBytes(completedBytes, now)
	snap := t.snapshot(now)
	t.mu.Unlock()

	q.publish(events.EventTransferUpdated, t, snap, nil)
	return nil
}

// Complete marks the transfer done.
func (q *Queue) Complete(tag int) error {
	return q.finish(tag, TaskCompleted, nil)
}

// Fail marks the transfer failed with err.
func (q *Queue) Fail(tag int, err error) error {
	if err == nil {
		err = errors.New("transfer failed")
	}
	return q.finish(tag, TaskFailed, err)
}

func (q *Queue) finish(tag int, state TaskState, err error) error {
	t, lerr := q.lookup(tag)
	if lerr != nil {
		return lerr
	}
	now := q.clock.Now()

	t.mu.Lock()
	if isTerminal(t.State) {
		t.mu.Unlock()
		return nil
	}
	t.finish(state, err, now)
	snap := t.snapshot(now)
	t.mu.Unlock()

	q.publish(events.EventTransferFinished, t, snap, err)
	return nil
}

// Retry requeues a failed or cancelled transfer and counts it again.
func (q *Queue) Retry(tag int) error {
	t, err := q.lookup(tag)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.State != TaskFailed && t.State != TaskCancelled {
		state := t.State
		t.mu.Unlock()
		return fmt.Errorf("transfer %d cannot be retried from state %s", tag, state)
	}
	t.State = TaskQueued
	t.Error = nil
	t.CompletedBytes = 0
	t.Speed = 0
	t.heldByUser = false
	dir := t.Direction
	t.mu.Unlock()

	q.mu.Lock()
	q.totals[dir]++
	q.mu.Unlock()
	return nil
}

// PendingTransfers counts non-terminal transfers in d.
func (q *Queue) PendingTransfers(d models.Direction) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	n := 0
	for _, t := range q.tasks {
		if t.Direction == d && !t.IsTerminal() {
			n++
		}
	}
	return n
}

func (q *Queue) TotalTransfers(d models.Direction) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.totals[d]
}

// ResetTotals zeroes d's total once nothing is pending in it.
func (q *Queue) ResetTotals(d models.Direction) {
	if q.PendingTransfers(d) > 0 {
		return
	}
	q.mu.Lock()
	q.totals[d] = 0
	q.mu.Unlock()
}

// CurrentSpeed sums the smoothed speed of active transfers in d.
func (q *Queue) CurrentSpeed(d models.Direction) int64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.speedLocked(d)
}

func (q *Queue) speedLocked(d models.Direction) int64 {
	var total float64
	for _, t := range q.tasks {
		if t.Direction != d {
			continue
		}
		t.mu.RLock()
		if t.State == TaskActive {
			total += t.Speed
		}
		t.mu.RUnlock()
	}
	return int64(total)
}

func (q *Queue) AreTransfersPaused(d models.Direction) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.paused[d]
}

// PauseTransfers pauses or resumes every transfer in d. Transfers the user
// paused individually stay paused on resume.
func (q *Queue) PauseTransfers(pause bool, d models.Direction) error {
	now := q.clock.Now()

	q.mu.Lock()
	q.paused[d] = pause
	var changed []*Task
	for _, tag := range q.order {
		t := q.tasks[tag]
		if t.Direction != d {
			continue
		}
		t.mu.Lock()
		switch {
		case pause && t.State == TaskActive:
			t.pause(now)
			changed = append(changed, t)
		case !pause && t.State == TaskPaused && !t.heldByUser:
			t.activate(now)
			changed = append(changed, t)
		}
		t.mu.Unlock()
	}
	q.mu.Unlock()

	for _, t := range changed {
		q.publishSnapshot(events.EventTransferUpdated, t)
	}
	return nil
}

// PauseTransfer pauses or resumes a single transfer. Resuming inside a paused
// direction only clears the per-transfer hold.
func (q *Queue) PauseTransfer(tag int, pause bool) error {
	t, err := q.lookup(tag)
	if err != nil {
		return err
	}
	dirPaused := q.AreTransfersPaused(t.Direction)
	now := q.clock.Now()

	t.mu.Lock()
	if isTerminal(t.State) {
		t.mu.Unlock()
		return fmt.Errorf("%w: %d already finished", engine.ErrUnknownTransfer, tag)
	}
	t.heldByUser = pause
	changed := false
	switch {
	case pause && t.State != TaskPaused:
		t.pause(now)
		changed = true
	case !pause && t.State == TaskPaused && !dirPaused:
		t.activate(now)
		changed = true
	}
	t.mu.Unlock()

	if changed {
		q.publishSnapshot(events.EventTransferUpdated, t)
	}
	return nil
}

// CancelTransfer cancels one transfer. Its finish event carries ErrCancelled.
func (q *Queue) CancelTransfer(tag int) error {
	if _, err := q.lookup(tag); err != nil {
		return err
	}
	return q.finish(tag, TaskCancelled, ErrCancelled)
}

// CancelTransfers cancels every unfinished transfer in d.
func (q *Queue) CancelTransfers(d models.Direction) error {
	var errs []error
	for _, info := range q.Tasks() {
		if info.Direction != d || isTerminal(info.State) {
			continue
		}
		if err := q.CancelTransfer(info.Tag); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClearCompleted forgets terminal transfers and returns how many went.
func (q *Queue) ClearCompleted() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.order[:0]
	removed := 0
	for _, tag := range q.order {
		if q.tasks[tag].IsTerminal() {
			delete(q.tasks, tag)
			removed++
			continue
		}
		kept = append(kept, tag)
	}
	q.order = kept
	return removed
}

// Tasks returns every tracked transfer in insertion order.
func (q *Queue) Tasks() []Info {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]Info, 0, len(q.order))
	for _, tag := range q.order {
		out = append(out, q.tasks[tag].info())
	}
	return out
}

// Task returns one transfer by tag.
func (q *Queue) Task(tag int) (Info, bool) {
	t, err := q.lookup(tag)
	if err != nil {
		return Info{}, false
	}
	return t.info(), true
}

// Snapshot returns the engine view of the transfer, for the info panel's
// per-direction line.
func (q *Queue) Snapshot(tag int) (models.TransferSnapshot, bool) {
	t, err := q.lookup(tag)
	if err != nil {
		return models.TransferSnapshot{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot(q.clock.Now()), true
}

// Stats holds per-state counts.
type Stats struct {
	Queued    int
	Active    int
	Paused    int
	Completed int
	Failed    int
	Cancelled int
}

// Total returns the number of tracked transfers.
func (s Stats) Total() int {
	return s.Queued + s.Active + s.Paused + s.Completed + s.Failed + s.Cancelled
}

// GetStats counts transfers by state.
func (q *Queue) GetStats() Stats {
	var s Stats
	for _, info := range q.Tasks() {
		switch info.State {
		case TaskQueued:
			s.Queued++
		case TaskActive:
			s.Active++
		case TaskPaused:
			s.Paused++
		case TaskCompleted:
			s.Completed++
		case TaskFailed:
			s.Failed++
		case TaskCancelled:
			s.Cancelled++
		}
	}
	return s
}

// ActiveTags returns the tags of unfinished transfers in d, lowest first.
func (q *Queue) ActiveTags(d models.Direction) []int {
	var tags []int
	for _, info := range q.Tasks() {
		if info.Direction == d && !isTerminal(info.State) {
			tags = append(tags, info.Tag)
		}
	}
	sort.Ints(tags)
	return tags
}

// Sync flags

func (q *Queue) BlockedPath() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.blockedPath
}

func (q *Queue) ServersBusy() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.serversBusy
}

func (q *Queue) Scanning() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.scanning
}

// Waiting is set explicitly or implied by a blocked path or busy servers.
func (q *Queue) Waiting() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.waiting || q.blockedPath != "" || q.serversBusy
}

func (q *Queue) SetBlockedPath(path string) {
	q.setFlags(func() { q.blockedPath = path })
}

func (q *Queue) SetServersBusy(busy bool) {
	q.setFlags(func() { q.serversBusy = busy })
}

func (q *Queue) SetScanning(scanning bool) {
	q.setFlags(func() { q.scanning = scanning })
}

func (q *Queue) SetWaiting(waiting bool) {
	q.setFlags(func() { q.waiting = waiting })
}

func (q *Queue) setFlags(apply func()) {
	q.mu.Lock()
	apply()
	scanning := q.scanning
	waiting := q.waiting || q.blockedPath != "" || q.serversBusy
	q.mu.Unlock()
	if q.bus != nil {
		q.bus.PublishSyncState(scanning, waiting)
	}
}

func (q *Queue) publishSnapshot(eventType events.EventType, t *Task) {
	t.mu.RLock()
	snap := t.snapshot(q.clock.Now())
	t.mu.RUnlock()
	q.publish(eventType, t, snap, nil)
}

func (q *Queue) publish(eventType events.EventType, t *Task, snap models.TransferSnapshot, err error) {
	if q.bus == nil {
		return
	}
	q.bus.PublishTransfer(eventType, t.ID, snap, q.CurrentSpeed(t.Direction), err)
}
