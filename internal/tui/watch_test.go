package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/driftsync/syncshell/internal/clock"
	"github.com/driftsync/syncshell/internal/engine"
	"github.com/driftsync/syncshell/internal/infopanel"
	"github.com/driftsync/syncshell/internal/loop"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/recent"
	"github.com/driftsync/syncshell/internal/status"
	"github.com/driftsync/syncshell/internal/transfer"
)

type fakeSource struct {
	snap    Snapshot
	err     error
	toggles int
	intents []engine.Intent
}

func (f *fakeSource) Snapshot(context.Context) (Snapshot, error) { return f.snap, f.err }
func (f *fakeSource) TogglePause() error                         { f.toggles++; return nil }
func (f *fakeSource) Forward(in engine.Intent) error {
	f.intents = append(f.intents, in)
	return nil
}

// run executes cmd, expanding batches, and returns the non-nil messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func busySnapshot() Snapshot {
	var state status.AggregateState
	state.Text = "Transferring files"
	state.Busy = true
	state.Directions[models.Download] = status.DirectionState{
		Direction:      models.Download,
		Pending:        2,
		Total:          5,
		Current:        4,
		FileName:       "report.pdf",
		CompletedBytes: 250,
		TotalBytes:     1000,
	}
	return Snapshot{
		State: state,
		Recent: []recent.Row{
			{Name: "photo.jpg", Age: "just now"},
		},
		Usage: infopanel.Usage{UsedBytes: 512 * 1024 * 1024, TotalBytes: 2 * 1024 * 1024 * 1024},
	}
}

func TestModel_RendersSnapshot(t *testing.T) {
	src := &fakeSource{snap: busySnapshot()}
	m := NewModel("DriftSync", src)

	if !strings.Contains(m.View(), "Connecting") {
		t.Errorf("view before first snapshot should show connecting:\n%s", m.View())
	}

	var model tea.Model = m
	for _, msg := range run(m.fetch()) {
		model, _ = model.Update(msg)
	}
	view := model.View()

	for _, want := range []string{
		"Transferring files",
		"Downloading 4 of 5",
		"report.pdf",
		"photo.jpg",
		"just now",
		"25% of 2 GB",
		"Usage: 512 MB",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Uploading") {
		t.Error("idle upload direction should be hidden")
	}
}

func TestModel_EmptyRecent(t *testing.T) {
	src := &fakeSource{snap: Snapshot{State: status.AggregateState{Text: "DriftSync is up to date"}}}
	var model tea.Model = NewModel("DriftSync", src)
	for _, msg := range run(model.(Model).fetch()) {
		model, _ = model.Update(msg)
	}
	if view := model.View(); !strings.Contains(view, "No recent transfers") {
		t.Errorf("expected empty recent placeholder:\n%s", view)
	}
}

func TestModel_Keys(t *testing.T) {
	tests := []struct {
		key     rune
		toggles int
		intents []engine.Intent
	}{
		{key: 'p', toggles: 1},
		{key: 'd', intents: []engine.Intent{{Kind: engine.IntentToggleDirection, Direction: models.Download}}},
		{key: 'u', intents: []engine.Intent{{Kind: engine.IntentToggleDirection, Direction: models.Upload}}},
		{key: 'x', intents: []engine.Intent{{Kind: engine.IntentCancelDirection, Direction: models.Download}}},
		{key: 'z'},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			src := &fakeSource{snap: busySnapshot()}
			var model tea.Model = NewModel("DriftSync", src)
			model, _ = model.Update(snapshotMsg(src.snap))

			_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{tt.key}})
			run(cmd)

			if src.toggles != tt.toggles {
				t.Errorf("toggles = %d, want %d", src.toggles, tt.toggles)
			}
			if len(src.intents) != len(tt.intents) {
				t.Fatalf("intents = %v, want %v", src.intents, tt.intents)
			}
			for i := range tt.intents {
				if src.intents[i] != tt.intents[i] {
					t.Errorf("intent %d = %v, want %v", i, src.intents[i], tt.intents[i])
				}
			}
		})
	}
}

func TestModel_QuitKey(t *testing.T) {
	var model tea.Model = NewModel("DriftSync", &fakeSource{})
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if model.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestModel_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("loop stopped")}
	var model tea.Model = NewModel("DriftSync", src)
	for _, msg := range run(model.(Model).fetch()) {
		model, _ = model.Update(msg)
	}
	if err := model.(Model).Err(); err == nil || err.Error() != "loop stopped" {
		t.Errorf("Err = %v, want loop stopped", err)
	}
}

func TestModel_WindowSizeClampsBars(t *testing.T) {
	var model tea.Model = NewModel("DriftSync", &fakeSource{})
	model, _ = model.Update(tea.WindowSizeMsg{Width: 300, Height: 40})
	m := model.(Model)
	if m.bars[0].Width != maxBarWidth {
		t.Errorf("bar width = %d, want %d", m.bars[0].Width, maxBarWidth)
	}
	model, _ = model.Update(tea.WindowSizeMsg{Width: 5, Height: 40})
	if w := model.(Model).bars[1].Width; w != 10 {
		t.Errorf("bar width = %d, want 10", w)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.txt", 20, "short.txt"},
		{"a-very-long-file-name.txt", 10, "a-very-..."},
		{"exact", 5, "exact"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestPanelSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := loop.New(0, zerolog.Nop())
	go func() { _ = l.Run(ctx) }()

	q := transfer.NewQueue(nil, nil)
	panel := infopanel.New(infopanel.Options{
		AppName: "DriftSync",
		Engine:  q,
		Clock:   clock.NewFake(time.Unix(0, 0)),
	})
	src := PanelSource{Panel: panel, Loop: l}

	if err := src.TogglePause(); err != nil {
		t.Fatalf("TogglePause: %v", err)
	}
	snap, err := src.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.Paused {
		t.Error("panel should report paused")
	}
	if !q.AreTransfersPaused(models.Upload) {
		t.Error("uploads should be paused in the engine")
	}

	if err := src.Forward(engine.Intent{Kind: engine.IntentResumeDirection, Direction: models.Upload}); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if q.AreTransfersPaused(models.Upload) {
		t.Error("uploads should be resumed")
	}

	cancel()
	<-l.Done()
	if _, err := src.Snapshot(context.Background()); !errors.Is(err, loop.ErrStopped) {
		t.Errorf("Snapshot after stop = %v, want ErrStopped", err)
	}
}
