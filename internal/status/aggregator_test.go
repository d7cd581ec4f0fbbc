package status

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/driftsync/syncshell/internal/clock"
	"github.com/driftsync/syncshell/internal/models"
)

func newTestAggregator() (*Aggregator, *clock.Fake) {
	c := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewAggregator(c, "DriftSync"), c
}

func TestPriority(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  models.ActiveState
	}{
		{"nothing", Flags{}, models.StateUpdated},
		{"indexing", Flags{Indexing: true}, models.StateScanning},
		{"waiting", Flags{Waiting: true}, models.StateWaiting},
		{"waiting beats indexing", Flags{Waiting: true, Indexing: true}, models.StateWaiting},
		{"paused", Flags{Paused: true}, models.StatePaused},
		{"paused beats waiting", Flags{Paused: true, Waiting: true}, models.StatePaused},
		{"paused beats everything", Flags{Paused: true, Waiting: true, Indexing: true, ServersBusy: true}, models.StatePaused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAggregator()
			got := a.Update(Counts{}, tt.flags)
			if got.Active != tt.want {
				t.Errorf("Active = %v, want %v", got.Active, tt.want)
			}
		})
	}
}

// Every combination of the three inputs resolves by strict priority.
func TestPriorityExhaustive(t *testing.T) {
	for mask := 0; mask < 8; mask++ {
		flags := Flags{Paused: mask&1 != 0, Waiting: mask&2 != 0, Indexing: mask&4 != 0}
		want := models.StateUpdated
		switch {
		case flags.Paused:
			want = models.StatePaused
		case flags.Waiting:
			want = models.StateWaiting
		case flags.Indexing:
			want = models.StateScanning
		}

		a, _ := newTestAggregator()
		// Start from every possible previous state too.
		for prev := 0; prev < 8; prev++ {
			a.Update(Counts{}, Flags{Paused: prev&1 != 0, Waiting: prev&2 != 0, Indexing: prev&4 != 0})
			if got := a.Update(Counts{}, flags).Active; got != want {
				t.Errorf("flags %+v after %d: got %v, want %v", flags, prev, got, want)
			}
		}
	}
}

func TestHeadlineAndIcon(t *testing.T) {
	a, _ := newTestAggregator()

	tests := []struct {
		flags Flags
		text  string
		icon  string
	}{
		{Flags{Paused: true}, "File transfers paused", IconPaused},
		{Flags{Waiting: true}, "DriftSync is waiting", IconScanning},
		{Flags{Indexing: true}, "DriftSync is scanning", IconScanning},
		{Flags{}, "DriftSync is up to date", IconUpdated},
	}
	for _, tt := range tests {
		s := a.Update(Counts{}, tt.flags)
		if s.Text != tt.text || s.Icon != tt.icon {
			t.Errorf("flags %+v: got (%q, %q), want (%q, %q)", tt.flags, s.Text, s.Icon, tt.text, tt.icon)
		}
	}
}

func TestSideEffectsOnlyOnChange(t *testing.T) {
	a, _ := newTestAggregator()
	changes := 0
	a.OnStateChanged = func(AggregateState) { changes++ }

	a.Update(Counts{}, Flags{Indexing: true})
	a.Update(Counts{}, Flags{Indexing: true})
	a.Update(Counts{}, Flags{Indexing: true})
	if changes != 1 {
		t.Errorf("Expected 1 change notification, got %d", changes)
	}

	a.Update(Counts{}, Flags{})
	a.Update(Counts{}, Flags{})
	if changes != 2 {
		t.Errorf("Expected 2 change notifications, got %d", changes)
	}
}

func TestScanningAnimation(t *testing.T) {
	a, c := newTestAggregator()
	var frames []string
	a.OnAnimationFrame = func(icon string) { frames = append(frames, icon) }

	a.Update(Counts{}, Flags{Indexing: true})
	if !a.Animating() {
		t.Fatal("Scanning should start the animation")
	}

	c.Advance(60 * time.Millisecond)
	// Re-entering the same state must not restart the timer.
	a.Update(Counts{}, Flags{Indexing: true})
	c.Advance(60 * time.Millisecond)

	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %v", frames)
	}
	if frames[0] != "scanning_anime2.png" || frames[1] != "scanning_anime3.png" {
		t.Errorf("Unexpected frames: %v", frames)
	}

	c.Advance(60 * time.Millisecond * 16)
	if got := frames[len(frames)-1]; got != "scanning_anime1.png" {
		t.Errorf("Animation should wrap to frame 1 after 18, got %s", got)
	}
	if a.AnimationIcon() != "scanning_anime1.png" {
		t.Errorf("AnimationIcon = %s", a.AnimationIcon())
	}

	a.Update(Counts{}, Flags{Paused: true})
	if a.Animating() {
		t.Error("Paused should stop the animation")
	}
	n := len(frames)
	c.Advance(time.Second)
	if len(frames) != n {
		t.Error("Animation frames emitted after stop")
	}
	if a.AnimationIcon() != IconPaused {
		t.Errorf("AnimationIcon after stop = %s", a.AnimationIcon())
	}
}

func TestWaitingStopsAnimation(t *testing.T) {
	a, _ := newTestAggregator()
	a.Update(Counts{}, Flags{Indexing: true})
	a.Update(Counts{}, Flags{Waiting: true})
	if a.Animating() {
		t.Error("Waiting should stop the animation")
	}
}

func TestPausedSpeedSentinel(t *testing.T) {
	a, _ := newTestAggregator()
	a.SetTransfer(models.TransferSnapshot{Direction: models.Download, TotalBytes: 100}, 50000)

	s := a.Update(Counts{PendingDownloads: 1, TotalDownloads: 1}, Flags{Paused: true})
	if s.Download().Speed != -1 || s.Upload().Speed != -1 {
		t.Fatalf("Paused should set sentinel speeds, got %d/%d", s.Download().Speed, s.Upload().Speed)
	}
	if s.Download().Label() != "1 of 1 (paused)" {
		t.Errorf("Label while paused = %q", s.Download().Label())
	}

	s = a.Update(Counts{PendingDownloads: 1, TotalDownloads: 1}, Flags{})
	if s.Download().Speed != 0 || s.Upload().Speed != 0 {
		t.Errorf("Resume should clear sentinels, got %d/%d", s.Download().Speed, s.Upload().Speed)
	}
}

func TestZeroSampleReplacesSentinel(t *testing.T) {
	a, _ := newTestAggregator()
	a.Update(Counts{}, Flags{Paused: true})

	a.SetTransfer(models.TransferSnapshot{Direction: models.Download}, 0)
	if got := a.Update(Counts{}, Flags{Paused: true}).Download().Speed; got != -1 {
		t.Fatalf("Paused update re-applies the sentinel, got %d", got)
	}

	a.Update(Counts{}, Flags{})
	a.SetTransfer(models.TransferSnapshot{Direction: models.Download}, 0)
	if got := a.Update(Counts{}, Flags{}).Download().Speed; got != 0 {
		t.Errorf("Zero sample should stay zero after resume, got %d", got)
	}
}

func TestSentinelResetNeedsBothNegative(t *testing.T) {
	a, _ := newTestAggregator()
	a.Update(Counts{}, Flags{Paused: true})

	// The engine reports an upload sample before the shell leaves Paused.
	a.SetTransfer(models.TransferSnapshot{Direction: models.Upload}, 30000)

	s := a.Update(Counts{}, Flags{})
	if s.Download().Speed != -1 {
		t.Errorf("Download sentinel should survive when upload already has a sample, got %d", s.Download().Speed)
	}
	if s.Upload().Speed != 30000 {
		t.Errorf("Upload speed = %d", s.Upload().Speed)
	}
}

func TestZeroSampleKeepsPreviousSpeed(t *testing.T) {
	a, _ := newTestAggregator()
	snap := models.TransferSnapshot{Direction: models.Upload, TotalBytes: 1000, CompletedBytes: 100, MeanSpeed: 300}

	a.SetTransfer(snap, 40000)
	a.SetTransfer(snap, 0)

	s := a.Update(Counts{PendingUploads: 1, TotalUploads: 1}, Flags{})
	if s.Upload().Speed != 40000 {
		t.Errorf("Zero sample should keep previous speed, got %d", s.Upload().Speed)
	}
	if s.Upload().RemainingBytes != 900 || s.Upload().MeanSpeed != 300 {
		t.Errorf("Snapshot not recorded: %+v", s.Upload())
	}
	if s.Upload().RemainingTime() != "00:00:03" {
		t.Errorf("RemainingTime = %s", s.Upload().RemainingTime())
	}
}

func TestCountsClamped(t *testing.T) {
	a, _ := newTestAggregator()

	s := a.Update(Counts{PendingDownloads: 5, TotalDownloads: 2, PendingUploads: 3, TotalUploads: 10}, Flags{})
	if d := s.Download(); d.Total != 5 || d.Current != 1 {
		t.Errorf("Download counts: total=%d current=%d, want 5/1", d.Total, d.Current)
	}
	if u := s.Upload(); u.Total != 10 || u.Current != 8 {
		t.Errorf("Upload counts: total=%d current=%d, want 10/8", u.Total, u.Current)
	}

	s = a.Update(Counts{PendingDownloads: -2, TotalDownloads: -7}, Flags{})
	if d := s.Download(); d.Pending != 0 || d.Total != 0 || d.Current != 1 {
		t.Errorf("Negative counts should clamp: %+v", d)
	}
}

func TestBlockedMessage(t *testing.T) {
	a, _ := newTestAggregator()

	blocked := filepath.Join(t.TempDir(), "locked.xlsx")
	s := a.Update(Counts{}, Flags{Waiting: true, BlockedPath: blocked, ServersBusy: true})
	if s.BlockedMessage != "Blocked file: locked.xlsx" {
		t.Errorf("BlockedMessage = %q", s.BlockedMessage)
	}
	if s.BlockedTooltip != blocked {
		t.Errorf("BlockedTooltip = %q, want %q", s.BlockedTooltip, blocked)
	}

	s = a.Update(Counts{}, Flags{Waiting: true, ServersBusy: true})
	if s.BlockedMessage != "Servers are too busy. Please wait..." || s.BlockedTooltip != "" {
		t.Errorf("Busy message = %q / %q", s.BlockedMessage, s.BlockedTooltip)
	}

	s = a.Update(Counts{}, Flags{Waiting: true})
	if s.BlockedMessage != "" {
		t.Errorf("Waiting without cause should clear the message, got %q", s.BlockedMessage)
	}

	a.Update(Counts{}, Flags{Waiting: true, ServersBusy: true})
	s = a.Update(Counts{}, Flags{Indexing: true})
	if s.BlockedMessage != "" {
		t.Errorf("Message should clear once unblocked, got %q", s.BlockedMessage)
	}
}

func TestBusyIsStickyUntilIdle(t *testing.T) {
	a, _ := newTestAggregator()

	s := a.Update(Counts{PendingDownloads: 1, TotalDownloads: 1}, Flags{})
	if s.Busy {
		t.Error("Pending without a shown transfer should not be busy")
	}

	a.SetTransfer(models.TransferSnapshot{Direction: models.Download, TotalBytes: 10}, 0)
	s = a.Update(Counts{PendingDownloads: 1, TotalDownloads: 1}, Flags{})
	if !s.Busy {
		t.Fatal("Expected busy with a pending shown transfer")
	}

	s = a.Update(Counts{TotalDownloads: 1}, Flags{})
	if !s.Busy {
		t.Error("Busy should stay set until MarkIdle")
	}

	a.MarkIdle()
	if a.State().Busy {
		t.Error("MarkIdle should clear Busy")
	}
}

func TestResetDirection(t *testing.T) {
	a, _ := newTestAggregator()
	a.SetTransfer(models.TransferSnapshot{Direction: models.Upload, TotalBytes: 500, MeanSpeed: 10, FileName: "a.txt"}, 25000)
	a.Update(Counts{PendingUploads: 1, TotalUploads: 3}, Flags{UploadsPaused: true})

	a.ResetDirection(models.Upload)
	u := a.State().Upload()
	if u.Speed != 0 || u.MeanSpeed != 0 || u.RemainingBytes != 0 || u.Total != 0 || u.Current != 0 || u.HasTransfer {
		t.Errorf("ResetDirection left state behind: %+v", u)
	}
	if !u.PausedPref {
		t.Error("ResetDirection should keep the pause preference")
	}
	if u.Direction != models.Upload {
		t.Errorf("Direction lost: %v", u.Direction)
	}
}

func TestResetForcesTransition(t *testing.T) {
	a, _ := newTestAggregator()
	changes := 0
	a.OnStateChanged = func(AggregateState) { changes++ }

	a.Update(Counts{}, Flags{})
	a.Reset()
	if a.State().Active != models.StateStarting {
		t.Errorf("Reset should return to Starting, got %v", a.State().Active)
	}
	a.Update(Counts{}, Flags{})
	if changes != 2 {
		t.Errorf("Expected Update after Reset to notify again, got %d", changes)
	}
}
