package tray

import (
	"strings"
	"testing"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/engine"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/status"
)

func titles(items []MenuItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestTransferMenu(t *testing.T) {
	tests := []struct {
		name           string
		dir            models.Direction
		itemPaused     bool
		globallyPaused bool
		want           []string
	}{
		{"download running", models.Download, false, false,
			[]string{"Pause downloads", "Cancel download", "Cancel all downloads"}},
		{"download item paused", models.Download, true, false,
			[]string{"Resume download", "Pause downloads", "Cancel download", "Cancel all downloads"}},
		{"downloads globally paused", models.Download, true, true,
			[]string{"Resume download", "Resume downloads", "Cancel download", "Cancel all downloads"}},
		{"upload globally paused", models.Upload, false, true,
			[]string{"Resume uploads", "Cancel upload", "Cancel all uploads"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(TransferMenu(tt.dir, 9, tt.itemPaused, tt.globallyPaused))
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("TransferMenu = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransferMenuIntents(t *testing.T) {
	items := TransferMenu(models.Upload, 42, true, false)

	want := []engine.Intent{
		{Kind: engine.IntentResumeTransfer, Direction: models.Upload, Tag: 42},
		{Kind: engine.IntentPauseDirection, Direction: models.Upload},
		{Kind: engine.IntentCancelTransfer, Direction: models.Upload, Tag: 42},
		{Kind: engine.IntentCancelDirection, Direction: models.Upload},
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, it := range items {
		if it.Action.Kind != ActionIntent {
			t.Errorf("item %d kind = %v, want intent", i, it.Action.Kind)
		}
		if it.Action.Intent != want[i] {
			t.Errorf("item %d intent = %v, want %v", i, it.Action.Intent, want[i])
		}
	}
}

func TestIconForHover(t *testing.T) {
	withHover := MenuItem{Icon: "a.png", HoverIcon: "a_white.png"}
	plain := MenuItem{Icon: "b.png"}

	if withHover.IconFor(true) != "a_white.png" || withHover.IconFor(false) != "a.png" {
		t.Error("hover icon not used")
	}
	if plain.IconFor(true) != "b.png" {
		t.Error("missing hover icon should fall back to the normal icon")
	}
}

func TestSyncsMenu(t *testing.T) {
	items := SyncsMenu([]config.SyncFolder{
		{Name: "Photos", LocalPath: "/home/u/Photos", Active: true},
		{Name: "Old", LocalPath: "/home/u/Old", Active: false},
		{Name: "Work", LocalPath: "/home/u/Work", Active: true},
	})

	if len(items) != 4 {
		t.Fatalf("got %d items, want 4: %v", len(items), titles(items))
	}
	if items[0].Title != "Add Sync" || items[0].Action.Kind != ActionAddSync {
		t.Errorf("first item = %+v", items[0])
	}
	if !items[1].IsSeparator() {
		t.Error("second item should be a separator")
	}
	if items[3].Action.Path != "/home/u/Work" {
		t.Errorf("last folder path = %q", items[3].Action.Path)
	}
}

func TestTooltip(t *testing.T) {
	state := status.AggregateState{
		Active: models.StateUpdated,
		Text:   "DriftSync is up to date",
		Busy:   true,
	}
	state.Directions[models.Download] = status.DirectionState{
		Direction: models.Download, Pending: 2, Total: 5, Current: 4, Speed: 50_000,
		RemainingBytes: 100_000, MeanSpeed: 10_000,
	}

	got := Tooltip("DriftSync", "1.2.0", state)
	for _, want := range []string{"DriftSync 1.2.0", "Transferring files", "Downloading 4 of 5", "00:00:10 left"} {
		if !strings.Contains(got, want) {
			t.Errorf("tooltip %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "Uploading") {
		t.Errorf("idle direction should not be listed: %q", got)
	}
}

func TestIcon(t *testing.T) {
	scanning := status.AggregateState{Active: models.StateScanning, Icon: status.IconScanning}
	if got := Icon(scanning, "scanning_anime3.png"); got != "scanning_anime3.png" {
		t.Errorf("Icon while scanning = %q", got)
	}
	if got := Icon(status.AggregateState{}, ""); got != status.IconUpdated {
		t.Errorf("default icon = %q", got)
	}
}
