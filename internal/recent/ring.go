// Package recent keeps the three most recently completed files for display.
package recent

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/driftsync/syncshell/internal/clock"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/icons"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/timer"
)

// Ring holds up to constants.RecentFileSlots entries, most recent first.
// Redraws are coalesced: OnUpdate runs at most once per RecentFilesRedrawDelay.
type Ring struct {
	slots  [constants.RecentFileSlots]models.RecentFileEntry
	clock  clock.Clock
	redraw *timer.Timer

	// OnUpdate receives the current entries after each coalesced redraw.
	OnUpdate func([]models.RecentFileEntry)
}

// NewRing creates an empty ring.
func NewRing(c clock.Clock, onUpdate func([]models.RecentFileEntry)) *Ring {
	r := &Ring{clock: c, OnUpdate: onUpdate}
	r.redraw = timer.NewSingleShot(c, constants.RecentFilesRedrawDelay, r.flush)
	return r
}

// Push inserts entry at the front, shifting older entries down and dropping
// the oldest. The timestamp is set to the current wall-clock milliseconds.
func (r *Ring) Push(entry models.RecentFileEntry) {
	entry.TimestampMillis = clock.NowMillis(r.clock)
	copy(r.slots[1:], r.slots[:len(r.slots)-1])
	r.slots[0] = entry
	r.scheduleRedraw()
}

// Clear empties every slot.
func (r *Ring) Clear() {
	r.slots = [constants.RecentFileSlots]models.RecentFileEntry{}
	r.scheduleRedraw()
}

// Entries returns the non-empty slots, most recent first.
func (r *Ring) Entries() []models.RecentFileEntry {
	out := make([]models.RecentFileEntry, 0, len(r.slots))
	for _, e := range r.slots {
		if !e.IsZero() {
			out = append(out, e)
		}
	}
	return out
}

// RedrawPending reports whether a coalesced redraw is scheduled.
func (r *Ring) RedrawPending() bool {
	return r.redraw.IsActive()
}

func (r *Ring) scheduleRedraw() {
	if !r.redraw.IsActive() {
		r.redraw.Start()
	}
}

func (r *Ring) flush() {
	if r.OnUpdate != nil {
		r.OnUpdate(r.Entries())
	}
}

// Row is a render-ready recent file line.
type Row struct {
	Name  string
	Icon  string
	Age   string
	Entry models.RecentFileEntry
}

// View renders entries relative to now.
func View(entries []models.RecentFileEntry, now time.Time) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			Name:  e.DisplayName,
			Icon:  icons.Medium(e.DisplayName),
			Age:   Age(e.TimestampMillis, now),
			Entry: e,
		})
	}
	return rows
}

// View renders the ring's current entries relative to now.
func (r *Ring) View(now time.Time) []Row {
	return View(r.Entries(), now)
}

// Age formats a push timestamp as "just now" or "3 minutes ago".
func Age(timestampMillis int64, now time.Time) string {
	then := time.UnixMilli(timestampMillis)
	if now.Sub(then) < time.Second {
		return "just now"
	}
	return humanize.RelTime(then, now, "ago", "from now")
}
