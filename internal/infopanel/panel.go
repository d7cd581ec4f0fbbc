// Package infopanel is the controller behind the info window: it feeds
// engine callbacks into the status aggregator, the finish debouncer and the
// recent file ring, and forwards user actions back to the engine.
package infopanel

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftsync/syncshell/internal/clock"
	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/debounce"
	"github.com/driftsync/syncshell/internal/engine"
	"github.com/driftsync/syncshell/internal/events"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/notify"
	"github.com/driftsync/syncshell/internal/platform"
	"github.com/driftsync/syncshell/internal/recent"
	"github.com/driftsync/syncshell/internal/status"
	"github.com/driftsync/syncshell/internal/timer"
	"github.com/driftsync/syncshell/internal/tray"
)

// Options configures a Panel. Engine and Clock are required.
type Options struct {
	AppName  string
	Version  string
	Engine   engine.Engine
	Clock    clock.Clock
	Bus      *events.EventBus // optional; receives StatusEvent and RecentFilesEvent
	Notifier *notify.Notifier // optional
	Shell    platform.Shell   // optional; needed to open folders
	Syncs    func() []config.SyncFolder
	Logger   zerolog.Logger

	// Paused is the initial global pause toggle. The engine is expected to
	// be paused already.
	Paused bool
}

// Usage is the account storage shown at the bottom of the panel.
type Usage struct {
	UsedBytes  int64
	TotalBytes int64
}

// Percent is the used share rounded up, or 0 without a total.
func (u Usage) Percent() int {
	if u.TotalBytes <= 0 {
		return 0
	}
	return int(math.Ceil(100 * float64(u.UsedBytes) / float64(u.TotalBytes)))
}

// Text returns the "N% of X" and "Usage: Y" lines. Both are empty while
// the total is unknown.
func (u Usage) Text() (percent, used string) {
	if u.TotalBytes <= 0 {
		return "", ""
	}
	return fmt.Sprintf("%d%% of %s", u.Percent(), status.FormatSize(u.TotalBytes)),
		"Usage: " + status.FormatSize(u.UsedBytes)
}

// Panel is the info panel controller. All methods must run on the UI loop.
type Panel struct {
	opts   Options
	eng    engine.Engine
	clk    clock.Clock
	logger zerolog.Logger

	agg  *status.Aggregator
	deb  *debounce.Debouncer
	ring *recent.Ring
	poll *timer.Timer

	paused   bool
	drained  [2]bool // direction looked finished at the previous poll
	indexing bool
	waiting  bool
	usage    Usage
	last     events.StatusEvent

	// OnState receives every recomputed state.
	OnState func(status.AggregateState)
	// OnRecentFiles receives the coalesced recent file rows.
	OnRecentFiles func([]recent.Row)
	// OnUsage receives the usage lines whenever they change.
	OnUsage func(percent, used string)
	// OnAnimationFrame receives scanning animation frames.
	OnAnimationFrame func(icon string)
	// OnAddSync is called when the user picks "Add Sync".
	OnAddSync func()
	// OnPausedChanged is called after the global pause toggle flips.
	OnPausedChanged func(paused bool)
}

// New wires the panel's components together.
func New(opts Options) *Panel {
	if opts.AppName == "" {
		opts.AppName = constants.AppName
	}
	p := &Panel{
		opts:   opts,
		eng:    opts.Engine,
		clk:    opts.Clock,
		logger: opts.Logger,
		paused: opts.Paused,
	}
	p.agg = status.NewAggregator(opts.Clock, opts.AppName)
	p.agg.OnAnimationFrame = func(icon string) {
		if p.OnAnimationFrame != nil {
			p.OnAnimationFrame(icon)
		}
	}
	p.deb = debounce.New(opts.Clock, opts.Engine, debounce.Handlers{
		DirectionFinished: p.directionFinished,
		AllFinished:       p.allFinished,
	})
	p.ring = recent.NewRing(opts.Clock, p.recentUpdated)
	p.poll = timer.NewRepeating(opts.Clock, constants.StatusPollInterval, p.onPoll)
	return p
}

// Start begins polling the engine.
func (p *Panel) Start() {
	p.Tick()
	p.poll.Start()
}

// Stop cancels every timer the panel owns.
func (p *Panel) Stop() {
	p.poll.Stop()
	p.deb.Stop()
}

// State returns the last computed state.
func (p *Panel) State() status.AggregateState { return p.agg.State() }

// AnimationIcon returns the current scanning frame or the static icon.
func (p *Panel) AnimationIcon() string { return p.agg.AnimationIcon() }

// Recent returns the recent file rows relative to now.
func (p *Panel) Recent() []recent.Row { return p.ring.View(p.clk.Now()) }

// RecentEntries returns the recent files, most recent first.
func (p *Panel) RecentEntries() []models.RecentFileEntry { return p.ring.Entries() }

// Paused reports the user's global pause toggle.
func (p *Panel) Paused() bool { return p.paused }

// onPoll runs on every poll interval.
func (p *Panel) onPoll() {
	p.Tick()
	p.closeMissedFinishes()
}

// closeMissedFinishes completes a burst whose finish event never arrived.
// A direction is treated as finished once it has been active, with nothing
// pending and no timer armed, for two polls in a row.
func (p *Panel) closeMissedFinishes() {
	for _, d := range models.Directions {
		stale := p.deb.Active(d) && !p.deb.Pending(d) && p.eng.PendingTransfers(d) == 0
		if stale && p.drained[d] {
			p.logger.Warn().Stringer("direction", d).Msg("finish event missed, closing transfer burst")
			p.deb.OnTransferCompleted(d, false)
			stale = false
		}
		p.drained[d] = stale
	}
}

// Tick polls the engine and recomputes the state.
func (p *Panel) Tick() {
	counts := status.Counts{
		PendingDownloads: p.eng.PendingTransfers(models.Download),
		PendingUploads:   p.eng.PendingTransfers(models.Upload),
		TotalDownloads:   p.eng.TotalTransfers(models.Download),
		TotalUploads:     p.eng.TotalTransfers(models.Upload),
	}
	flags := status.Flags{
		Paused:          p.paused,
		Waiting:         p.waiting || p.eng.Waiting(),
		Indexing:        p.indexing || p.eng.Scanning(),
		BlockedPath:     p.eng.BlockedPath(),
		ServersBusy:     p.eng.ServersBusy(),
		DownloadsPaused: p.eng.AreTransfersPaused(models.Download),
		UploadsPaused:   p.eng.AreTransfersPaused(models.Upload),
	}

	state := p.agg.Update(counts, flags)
	if state.Busy {
		p.deb.MarkBusy()
	}
	p.publishState(state)
	if p.OnState != nil {
		p.OnState(state)
	}
}

func (p *Panel) publishState(state status.AggregateState) {
	ev := events.StatusEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventStatusChanged},
		State:     state.Active,
		Text:      tray.StatusLine(state),
		Icon:      state.Icon,
		Busy:      state.Busy,
		Tooltip:   tray.Tooltip(p.opts.AppName, p.opts.Version, state),
	}
	if ev.State == p.last.State && ev.Text == p.last.Text && ev.Icon == p.last.Icon &&
		ev.Busy == p.last.Busy && ev.Tooltip == p.last.Tooltip {
		return
	}
	p.last = ev
	if p.opts.Bus != nil {
		ev.Time = time.Now()
		p.opts.Bus.Publish(&ev)
	}
}

// OnTransferStart records a transfer that began moving bytes.
func (p *Panel) OnTransferStart(snap models.TransferSnapshot) {
	p.agg.SetTransfer(snap, p.eng.CurrentSpeed(snap.Direction))
	p.deb.OnTransferStarted(snap.Direction)
	p.Tick()
}

// OnTransferUpdate records a progress callback.
func (p *Panel) OnTransferUpdate(snap models.TransferSnapshot) {
	p.agg.SetTransfer(snap, p.eng.CurrentSpeed(snap.Direction))
	p.Tick()
}

// OnTransferFinish records a finished transfer. Successful transfers are
// added to the recent files; err == nil means success.
func (p *Panel) OnTransferFinish(snap models.TransferSnapshot, err error) {
	p.agg.SetTransfer(snap, p.eng.CurrentSpeed(snap.Direction))
	if err == nil {
		p.ring.Push(models.RecentFileEntry{
			DisplayName:  snap.FileName,
			RemoteHandle: snap.RemoteHandle,
			LocalPath:    snap.LocalPath,
			ContentKey:   fmt.Sprintf("%016x", snap.RemoteHandle),
		})
	} else {
		p.logger.Debug().Err(err).Str("file", snap.FileName).Stringer("direction", snap.Direction).Msg("transfer finished with error")
		if p.opts.Notifier != nil && !errors.Is(err, engine.ErrCancelled) {
			p.opts.Notifier.TransferFailed(snap.FileName, err)
		}
	}
	p.Tick()
	p.deb.OnTransferCompleted(snap.Direction, err != nil)
}

// SetIndexing sets the local scan flag.
func (p *Panel) SetIndexing(indexing bool) { p.indexing = indexing }

// SetWaiting sets the engine waiting flag.
func (p *Panel) SetWaiting(waiting bool) { p.waiting = waiting }

// SetUsage updates the account storage figures.
func (p *Panel) SetUsage(used, total int64) {
	p.usage = Usage{UsedBytes: used, TotalBytes: total}
	p.emitUsage()
}

// IncreaseUsedStorage adds bytes to the used figure, e.g. after an upload.
func (p *Panel) IncreaseUsedStorage(bytes int64) {
	p.usage.UsedBytes += bytes
	p.emitUsage()
}

// Usage returns the current storage figures.
func (p *Panel) Usage() Usage { return p.usage }

func (p *Panel) emitUsage() {
	if p.OnUsage == nil || p.usage.TotalBytes <= 0 {
		return
	}
	p.OnUsage(p.usage.Text())
}

func (p *Panel) directionFinished(d models.Direction) {
	p.logger.Debug().Stringer("direction", d).Msg("direction finished")
	p.agg.ResetDirection(d)
	p.eng.ResetTotals(d)
	p.Tick()
}

func (p *Panel) allFinished() {
	p.logger.Info().Msg("all transfers finished")
	p.agg.MarkIdle()
	p.emitUsage()
	if p.opts.Notifier != nil {
		p.opts.Notifier.AllTransfersCompleted()
	}
	p.Tick()
}

func (p *Panel) recentUpdated(entries []models.RecentFileEntry) {
	if p.opts.Bus != nil {
		p.opts.Bus.Publish(&events.RecentFilesEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventRecentFiles, Time: time.Now()},
			Entries:   entries,
		})
	}
	if p.OnRecentFiles != nil {
		p.OnRecentFiles(recent.View(entries, p.clk.Now()))
	}
}

// ClearRecentFiles empties the recent file list, e.g. on logout.
func (p *Panel) ClearRecentFiles() { p.ring.Clear() }

// LanguageChanged re-renders the status text.
func (p *Panel) LanguageChanged() {
	p.agg.Reset()
	p.Tick()
}
