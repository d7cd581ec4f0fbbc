package progress

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/driftsync/syncshell/internal/engine"
	"github.com/driftsync/syncshell/internal/events"
	"github.com/driftsync/syncshell/internal/models"
)

func transferEvent(t events.EventType, snap models.TransferSnapshot, err error) *events.TransferEvent {
	return &events.TransferEvent{
		BaseEvent: events.BaseEvent{EventType: t},
		Snapshot:  snap,
		Error:     err,
	}
}

func TestTransferUI_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	u := NewTransferUIWithWriter(&buf, false)

	ok := models.TransferSnapshot{Tag: 1, Direction: models.Download, FileName: "a.pdf", LocalPath: "/home/u/DriftSync/a.pdf", TotalBytes: 2048}
	bad := models.TransferSnapshot{Tag: 2, Direction: models.Upload, FileName: "b.mov", LocalPath: "b.mov", TotalBytes: 10}
	gone := models.TransferSnapshot{Tag: 3, Direction: models.Upload, FileName: "c.txt", TotalBytes: 10}

	u.Handle(transferEvent(events.EventTransferStarted, ok, nil))
	u.Handle(transferEvent(events.EventTransferStarted, bad, nil))
	if u.Active() != 2 {
		t.Fatalf("active = %d, want 2", u.Active())
	}
	ok.CompletedBytes = 1024
	u.Handle(transferEvent(events.EventTransferUpdated, ok, nil))
	u.Handle(transferEvent(events.EventTransferFinished, ok, nil))
	u.Handle(transferEvent(events.EventTransferFinished, bad, errors.New("disk full")))
	u.Handle(transferEvent(events.EventTransferFinished, gone, engine.ErrCancelled))
	u.Handle(&events.SyncStateEvent{BaseEvent: events.BaseEvent{EventType: events.EventSyncState}})

	out := buf.String()
	for _, want := range []string{
		"Downloading …/DriftSync/a.pdf (2.0 KiB)",
		"Uploading b.mov (10 B)",
		"✓ Downloaded …/DriftSync/a.pdf",
		"✗ b.mov: disk full",
		"- c.txt cancelled",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	completed, failed, cancelled := u.Summary()
	if completed != 1 || failed != 1 || cancelled != 1 {
		t.Errorf("summary = %d/%d/%d, want 1/1/1", completed, failed, cancelled)
	}
	if u.Active() != 0 {
		t.Errorf("active = %d after finish, want 0", u.Active())
	}
	if u.Writer() != &buf {
		t.Error("writer should be the plain output without a terminal")
	}
	u.Wait()
}

func TestTransferUI_RunStopsWhenChannelCloses(t *testing.T) {
	var buf bytes.Buffer
	u := NewTransferUIWithWriter(&buf, false)
	ch := make(chan events.Event, 2)
	ch <- transferEvent(events.EventTransferStarted, models.TransferSnapshot{Tag: 9, FileName: "x"}, nil)
	close(ch)

	if err := u.Run(context.Background(), ch); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if u.Active() != 1 {
		t.Errorf("active = %d, want 1", u.Active())
	}
}

func TestTransferUI_RunStopsOnContext(t *testing.T) {
	u := NewTransferUIWithWriter(&bytes.Buffer{}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := u.Run(ctx, make(chan events.Event)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path string
		n    int
		want string
	}{
		{"file.txt", 2, "file.txt"},
		{"dir/file.txt", 2, "file.txt"},
		{"/a/b/c/file.txt", 2, "…/c/file.txt"},
	}
	for _, tt := range tests {
		if got := truncatePath(tt.path, tt.n); got != tt.want {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.path, tt.n, got, tt.want)
		}
	}
}
