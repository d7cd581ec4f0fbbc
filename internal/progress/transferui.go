// Package progress renders engine transfers as terminal progress bars.
package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/driftsync/syncshell/internal/engine"
	"github.com/driftsync/syncshell/internal/events"
	"github.com/driftsync/syncshell/internal/models"
)

// TransferUI draws one mpb bar per running transfer. Without a terminal it
// prints a line per start and finish instead.
type TransferUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool

	mu        sync.Mutex
	bars      map[int]*transferBar
	completed int
	failed    int
	cancelled int
}

type transferBar struct {
	bar        *mpb.Bar
	snap       models.TransferSnapshot
	lastUpdate time.Time
}

// NewTransferUI writes to f, drawing bars only when f is a terminal.
func NewTransferUI(f *os.File) *TransferUI {
	isTerminal := term.IsTerminal(int(f.Fd()))
	if isTerminal {
		enableANSI(f)
	}
	return NewTransferUIWithWriter(f, isTerminal)
}

// NewTransferUIWithWriter is NewTransferUI with explicit terminal detection.
func NewTransferUIWithWriter(w io.Writer, isTerminal bool) *TransferUI {
	u := &TransferUI{
		out:        w,
		isTerminal: isTerminal,
		bars:       make(map[int]*transferBar),
	}
	if isTerminal {
		u.progress = mpb.New(
			mpb.WithOutput(w),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(100),
		)
	}
	return u
}

// IsTerminal reports whether bars are drawn.
func (u *TransferUI) IsTerminal() bool { return u.isTerminal }

// Writer prints above the bars while they are drawn.
func (u *TransferUI) Writer() io.Writer {
	if u.progress != nil {
		return u.progress
	}
	return u.out
}

// Run handles transfer events from ch until it closes or ctx ends.
func (u *TransferUI) Run(ctx context.Context, ch <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			u.Handle(ev)
		}
	}
}

// Handle applies one event. Non-transfer events are ignored.
func (u *TransferUI) Handle(ev events.Event) {
	te, ok := ev.(*events.TransferEvent)
	if !ok {
		return
	}
	switch te.Type() {
	case events.EventTransferStarted:
		u.start(te.Snapshot)
	case events.EventTransferUpdated:
		u.update(te.Snapshot)
	case events.EventTransferFinished:
		u.finish(te.Snapshot, te.Error)
	}
}

func (u *TransferUI) start(snap models.TransferSnapshot) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.bars[snap.Tag]; ok {
		return
	}
	tb := &transferBar{snap: snap, lastUpdate: time.Now()}
	u.bars[snap.Tag] = tb

	if !u.isTerminal {
		fmt.Fprintf(u.out, "%s %s (%s)\n", verb(snap.Direction, false), displayPath(snap), humanize.IBytes(uint64(max(snap.TotalBytes, 0))))
		return
	}

	arrow := "↓"
	if snap.Direction == models.Upload {
		arrow = "↑"
	}
	tb.bar = u.progress.New(snap.TotalBytes,
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(arrow+" "+displayPath(snap), decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
			decor.Name("  "),
			decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 60, decor.WCSyncSpace),
			decor.Name("  ETA "),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
		mpb.BarRemoveOnComplete(),
	)
	if snap.CompletedBytes > 0 {
		tb.bar.SetCurrent(snap.CompletedBytes)
	}
}

func (u *TransferUI) update(snap models.TransferSnapshot) {
	u.mu.Lock()
	defer u.mu.Unlock()
	tb, ok := u.bars[snap.Tag]
	if !ok {
		return
	}
	now := time.Now()
	if tb.bar != nil {
		tb.bar.EwmaSetCurrent(snap.CompletedBytes, now.Sub(tb.lastUpdate))
	}
	tb.snap = snap
	tb.lastUpdate = now
}

func (u *TransferUI) finish(snap models.TransferSnapshot, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	tb, ok := u.bars[snap.Tag]
	delete(u.bars, snap.Tag)

	var msg string
	switch {
	case err == nil:
		u.completed++
		if ok && tb.bar != nil {
			tb.bar.SetTotal(snap.TotalBytes, true)
		}
		msg = fmt.Sprintf("✓ %s %s (%s)\n", verb(snap.Direction, true), displayPath(snap), humanize.IBytes(uint64(max(snap.TotalBytes, 0))))
	case errors.Is(err, engine.ErrCancelled):
		u.cancelled++
		if ok && tb.bar != nil {
			tb.bar.Abort(true)
		}
		msg = fmt.Sprintf("- %s cancelled\n", displayPath(snap))
	default:
		u.failed++
		if ok && tb.bar != nil {
			tb.bar.Abort(false)
		}
		msg = fmt.Sprintf("✗ %s: %v\n", displayPath(snap), err)
	}

	if u.progress != nil {
		_, _ = u.progress.Write([]byte(msg))
		return
	}
	_, _ = io.WriteString(u.out, msg)
}

// Summary returns the finished transfer counts so far.
func (u *TransferUI) Summary() (completed, failed, cancelled int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.completed, u.failed, u.cancelled
}

// Active returns the number of transfers with an open bar.
func (u *TransferUI) Active() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.bars)
}

// Wait aborts bars that never finished and waits for mpb to flush.
func (u *TransferUI) Wait() {
	if u.progress == nil {
		return
	}
	u.mu.Lock()
	for tag, tb := range u.bars {
		if tb.bar != nil {
			tb.bar.Abort(true)
		}
		delete(u.bars, tag)
	}
	u.mu.Unlock()
	u.progress.Wait()
}

func verb(d models.Direction, done bool) string {
	switch {
	case d == models.Upload && done:
		return "Uploaded"
	case d == models.Upload:
		return "Uploading"
	case done:
		return "Downloaded"
	}
	return "Downloading"
}

func displayPath(snap models.TransferSnapshot) string {
	if snap.LocalPath != "" {
		return truncatePath(snap.LocalPath, 2)
	}
	return snap.FileName
}

// truncatePath keeps the last maxComponents elements of path.
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	return "…/" + strings.Join(parts[len(parts)-maxComponents:], "/")
}
