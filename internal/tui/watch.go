// Package tui is a terminal watch view of the info panel: the aggregate
// status, one progress bar per active direction and the recent files.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/engine"
	"github.com/driftsync/syncshell/internal/infopanel"
	"github.com/driftsync/syncshell/internal/loop"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/recent"
	"github.com/driftsync/syncshell/internal/status"
)

// TickInterval is how often the view pulls a fresh snapshot.
const TickInterval = constants.StatusPollInterval

// Snapshot is everything the view renders.
type Snapshot struct {
	State  status.AggregateState
	Recent []recent.Row
	Usage  infopanel.Usage
	Paused bool
}

// Source supplies snapshots and accepts the view's intents. Implementations
// are called from bubbletea command goroutines.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	TogglePause() error
	Forward(in engine.Intent) error
}

// PanelSource reads a Panel by calling into the loop that owns it.
type PanelSource struct {
	Panel *infopanel.Panel
	Loop  *loop.Loop
}

func (s PanelSource) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.Loop.Call(ctx, func() {
		snap = Snapshot{
			State:  s.Panel.State(),
			Recent: s.Panel.Recent(),
			Usage:  s.Panel.Usage(),
			Paused: s.Panel.Paused(),
		}
	})
	return snap, err
}

func (s PanelSource) TogglePause() error {
	var err error
	if callErr := s.Loop.Call(context.Background(), func() { err = s.Panel.TogglePause() }); callErr != nil {
		return callErr
	}
	return err
}

func (s PanelSource) Forward(in engine.Intent) error {
	var err error
	if callErr := s.Loop.Call(context.Background(), func() { err = s.Panel.Forward(in) }); callErr != nil {
		return callErr
	}
	return err
}

// TickMsg triggers a snapshot refresh.
type TickMsg time.Time

// TickCmd schedules the next TickMsg.
func TickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

type snapshotMsg Snapshot

type errMsg struct{ err error }

// Model is the bubbletea model of the watch view.
type Model struct {
	title    string
	src      Source
	bars     [2]progress.Model
	snap     Snapshot
	loaded   bool
	err      error
	width    int
	quitting bool
}

// NewModel builds a watch view over src.
func NewModel(title string, src Source) Model {
	m := Model{title: title, src: src, width: barWidth}
	for i := range m.bars {
		m.bars[i] = progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth))
	}
	return m
}

// Snapshot returns the last snapshot received.
func (m Model) Snapshot() Snapshot { return m.snap }

// Err returns the last error reported by the source.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), TickCmd())
}

func (m Model) fetch() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		snap, err := src.Snapshot(ctx)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) do(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		return m, tea.Batch(m.fetch(), TickCmd())

	case snapshotMsg:
		m.snap = Snapshot(msg)
		m.loaded = true
		m.err = nil
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		w := msg.Width - 2*padding - 4
		if w > maxBarWidth {
			w = maxBarWidth
		}
		if w < 10 {
			w = 10
		}
		m.width = w
		for i := range m.bars {
			m.bars[i].Width = w
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	src := m.src
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "p", " ":
		return m, tea.Batch(m.do(src.TogglePause), m.fetch())
	case "d":
		return m, tea.Batch(m.do(func() error {
			return src.Forward(engine.Intent{Kind: engine.IntentToggleDirection, Direction: models.Download})
		}), m.fetch())
	case "u":
		return m, tea.Batch(m.do(func() error {
			return src.Forward(engine.Intent{Kind: engine.IntentToggleDirection, Direction: models.Upload})
		}), m.fetch())
	case "x":
		var cmds []tea.Cmd
		for _, d := range models.Directions {
			d := d
			if m.snap.State.Dir(d).Pending > 0 {
				cmds = append(cmds, m.do(func() error {
					return src.Forward(engine.Intent{Kind: engine.IntentCancelDirection, Direction: d})
				}))
			}
		}
		cmds = append(cmds, m.fetch())
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle().Render(m.title))
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString(mutedStyle().Render("Connecting..."))
		b.WriteString("\n")
		return boxStyle().Render(b.String())
	}

	state := m.snap.State
	b.WriteString(statusStyle(state.Busy).Render(state.Text))
	if m.snap.Paused {
		b.WriteString(" " + warnStyle().Render("[paused]"))
	}
	b.WriteString("\n")
	if state.BlockedMessage != "" {
		b.WriteString(warnStyle().Render(state.BlockedMessage))
		b.WriteString("\n")
	}

	for _, d := range models.Directions {
		if ds := state.Dir(d); ds.Visible() {
			b.WriteString("\n")
			b.WriteString(m.renderDirection(ds))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderRecent())

	if pct, used := m.snap.Usage.Text(); pct != "" {
		b.WriteString("\n")
		b.WriteString(mutedStyle().Render(used + "  " + pct))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(warnStyle().Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle().Render("p pause all · d/u toggle direction · x cancel · q quit"))
	return boxStyle().Render(b.String())
}

func (m Model) renderDirection(ds status.DirectionState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", ds.Operation(), ds.Label())
	if !ds.Paused() {
		b.WriteString("  " + mutedStyle().Render(ds.RemainingTime()))
	}
	b.WriteString("\n")
	if ds.FileName != "" {
		b.WriteString(mutedStyle().Render(truncate(ds.FileName, m.width)))
		b.WriteString("\n")
	}
	b.WriteString(m.bars[ds.Direction].ViewAs(fraction(ds.CompletedBytes, ds.TotalBytes)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderRecent() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Underline(true).Render("Recent files"))
	b.WriteString("\n")
	if len(m.snap.Recent) == 0 {
		b.WriteString(mutedStyle().Render("No recent transfers"))
		b.WriteString("\n")
		return b.String()
	}
	for _, row := range m.snap.Recent {
		fmt.Fprintf(&b, "%s  %s\n", truncate(row.Name, m.width), mutedStyle().Render(row.Age))
	}
	return b.String()
}

func fraction(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	f := float64(done) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// Run starts the watch view on the terminal and blocks until the user quits
// or ctx ends.
func Run(ctx context.Context, title string, src Source, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(NewModel(title, src), opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
