// Package status derives the info panel's presentation state from engine
// counters, transfer snapshots and the user's pause toggle.
package status

import (
	"path/filepath"

	"github.com/driftsync/syncshell/internal/clock"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/timer"
)

// Aggregator owns the panel state. It is driven from the UI loop and is not
// safe for concurrent use.
type Aggregator struct {
	appName string
	dirs    [2]DirectionState
	state   AggregateState

	scanning *timer.Timer
	frame    int

	// OnStateChanged runs after a transition into a different ActiveState.
	OnStateChanged func(AggregateState)
	// OnAnimationFrame runs on every scanning animation step with the frame asset.
	OnAnimationFrame func(icon string)
}

// NewAggregator creates an aggregator in the Starting state. appName is used
// in the status headline.
func NewAggregator(c clock.Clock, appName string) *Aggregator {
	a := &Aggregator{appName: appName, frame: 1}
	for _, d := range models.Directions {
		a.dirs[d].Direction = d
	}
	a.scanning = timer.NewRepeating(c, constants.ScanningAnimationInterval, a.animationStep)
	a.state = AggregateState{Active: models.StateStarting, Directions: a.dirs}
	return a
}

// SetTransfer records the latest snapshot for its direction. speed is the
// engine's current speed for that direction. A zero sample keeps the previous
// speed unless the previous speed is the paused sentinel.
func (a *Aggregator) SetTransfer(snap models.TransferSnapshot, speed int64) {
	d := &a.dirs[snap.Direction]
	d.TransferState = snap.State
	d.MeanSpeed = snap.MeanSpeed
	d.RemainingBytes = snap.TotalBytes - snap.CompletedBytes
	if speed != 0 || d.Speed < 0 {
		d.Speed = speed
	}
	d.HasTransfer = true
	d.FileName = snap.FileName
	d.Tag = snap.Tag
	d.CompletedBytes = snap.CompletedBytes
	d.TotalBytes = snap.TotalBytes
}

// Update recomputes the aggregate state. Side effects (animation timer,
// headline, OnStateChanged) run only when the ActiveState changes.
func (a *Aggregator) Update(counts Counts, flags Flags) AggregateState {
	for _, dir := range models.Directions {
		d := &a.dirs[dir]
		d.Pending = max(counts.Pending(dir), 0)
		d.Total = max(counts.Total(dir), d.Pending)
		d.Current = d.Total - d.Pending + 1
	}
	a.dirs[models.Download].PausedPref = flags.DownloadsPaused
	a.dirs[models.Upload].PausedPref = flags.UploadsPaused

	for _, dir := range models.Directions {
		d := a.dirs[dir]
		if d.Pending > 0 && d.HasTransfer {
			a.state.Busy = true
		}
	}

	changed := false
	switch {
	case flags.Paused:
		a.dirs[models.Download].Speed = -1
		a.dirs[models.Upload].Speed = -1
		changed = a.enter(models.StatePaused)

	default:
		if a.dirs[models.Download].Speed < 0 && a.dirs[models.Upload].Speed < 0 {
			a.dirs[models.Download].Speed = 0
			a.dirs[models.Upload].Speed = 0
		}

		if flags.Waiting {
			a.state.BlockedMessage, a.state.BlockedTooltip = blockedMessage(flags)
			changed = a.enter(models.StateWaiting)
		} else {
			a.state.BlockedMessage, a.state.BlockedTooltip = "", ""
			if flags.Indexing {
				changed = a.enter(models.StateScanning)
			} else {
				changed = a.enter(models.StateUpdated)
			}
		}
	}

	a.state.Directions = a.dirs
	if changed && a.OnStateChanged != nil {
		a.OnStateChanged(a.state)
	}
	return a.state
}

func blockedMessage(flags Flags) (msg, tooltip string) {
	switch {
	case flags.BlockedPath != "":
		abs, err := filepath.Abs(flags.BlockedPath)
		if err != nil {
			abs = flags.BlockedPath
		}
		return "Blocked file: " + filepath.Base(abs), abs
	case flags.ServersBusy:
		return "Servers are too busy. Please wait...", ""
	}
	return "", ""
}

// enter switches to s, returning false if already there.
func (a *Aggregator) enter(s models.ActiveState) bool {
	if a.state.Active == s {
		return false
	}
	a.state.Active = s

	switch s {
	case models.StatePaused:
		a.scanning.Stop()
		a.state.Text = "File transfers paused"
		a.state.Icon = IconPaused
	case models.StateWaiting:
		a.scanning.Stop()
		a.state.Text = a.appName + " is waiting"
		a.state.Icon = IconScanning
	case models.StateScanning:
		if !a.scanning.IsActive() {
			a.frame = 1
			a.scanning.Start()
		}
		a.state.Text = a.appName + " is scanning"
		a.state.Icon = IconScanning
	case models.StateUpdated:
		a.scanning.Stop()
		a.state.Text = a.appName + " is up to date"
		a.state.Icon = IconUpdated
	}
	return true
}

func (a *Aggregator) animationStep() {
	a.frame = a.frame%constants.ScanningAnimationFrames + 1
	if a.OnAnimationFrame != nil {
		a.OnAnimationFrame(ScanningFrame(a.frame))
	}
}

// AnimationIcon returns the current scanning frame asset while scanning, and
// the static status icon otherwise.
func (a *Aggregator) AnimationIcon() string {
	if a.scanning.IsActive() {
		return ScanningFrame(a.frame)
	}
	return a.state.Icon
}

// Animating reports whether the scanning animation timer is running.
func (a *Aggregator) Animating() bool {
	return a.scanning.IsActive()
}

// State returns the last computed state.
func (a *Aggregator) State() AggregateState {
	return a.state
}

// ResetDirection clears the counters and speeds of d. Called once the
// direction's finished notification fires.
func (a *Aggregator) ResetDirection(d models.Direction) {
	a.dirs[d] = DirectionState{Direction: d, PausedPref: a.dirs[d].PausedPref}
	a.state.Directions = a.dirs
}

// MarkIdle returns the panel to the "up to date" page once all transfers finished.
func (a *Aggregator) MarkIdle() {
	a.state.Busy = false
}

// Reset forces the next Update to re-run its state transition, e.g. after the
// display language changes.
func (a *Aggregator) Reset() {
	a.scanning.Stop()
	a.state.Active = models.StateStarting
}
