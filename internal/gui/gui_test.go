package gui

import (
	"context"
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"github.com/spf13/afero"

	"github.com/driftsync/syncshell/internal/changelog"
	"github.com/driftsync/syncshell/internal/clock"
	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/infopanel"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/recent"
	"github.com/driftsync/syncshell/internal/settings"
	"github.com/driftsync/syncshell/internal/status"
	"github.com/driftsync/syncshell/internal/transfer"
	"github.com/driftsync/syncshell/internal/tray"
)

func inline(fn func()) bool {
	fn()
	return true
}

func newTestInfoWindow(t *testing.T) *InfoWindow {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	clk := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	panel := infopanel.New(infopanel.Options{
		AppName: "DriftSync",
		Engine:  transfer.NewQueue(nil, clk),
		Clock:   clk,
	})
	return NewInfoWindow(a, panel, inline)
}

func TestInfoWindow_RenderTransfers(t *testing.T) {
	w := newTestInfoWindow(t)

	state := status.AggregateState{
		Active: models.StateUpdated,
		Text:   "DriftSync is up to date",
		Icon:   status.IconUpdated,
		Busy:   true,
	}
	state.Directions[models.Download] = status.DirectionState{
		Direction:      models.Download,
		Pending:        2,
		Total:          5,
		Current:        4,
		Speed:          50_000,
		HasTransfer:    true,
		FileName:       "movie.mkv",
		CompletedBytes: 250,
		TotalBytes:     1000,
	}
	w.renderState(state, "")

	if got := w.statusText.Text; got != "Transferring files" {
		t.Errorf("status text = %q", got)
	}
	if !w.transferPage.Visible() || w.updatedPage.Visible() {
		t.Error("busy state should show the transfer page")
	}
	dl := w.rows[models.Download]
	if dl.operation.Text != "Downloading 4 of 5 (48.82 KB/s)" {
		t.Errorf("download label = %q", dl.operation.Text)
	}
	if dl.progress.Value != 0.25 {
		t.Errorf("progress = %v, want 0.25", dl.progress.Value)
	}
	if w.rows[models.Upload].box.Visible() {
		t.Error("idle upload row should be hidden")
	}

	state.Busy = false
	state.Active = models.StatePaused
	state.Text = "File transfers paused"
	w.renderState(state, "")
	if w.transferPage.Visible() {
		t.Error("idle state should show the up to date page")
	}
	if w.statusText.Text != "File transfers paused" {
		t.Errorf("status text = %q", w.statusText.Text)
	}
	if w.pause.Icon.Name() != theme.MediaPlayIcon().Name() {
		t.Error("paused state should offer resume")
	}
}

func TestInfoWindow_RenderBlocked(t *testing.T) {
	w := newTestInfoWindow(t)
	w.renderState(status.AggregateState{
		Active:         models.StateWaiting,
		Text:           "DriftSync is waiting",
		BlockedMessage: "Blocked file: db.lock",
	}, "")
	if !w.blocked.Visible() || w.blocked.Text != "Blocked file: db.lock" {
		t.Errorf("blocked label = %q visible=%v", w.blocked.Text, w.blocked.Visible())
	}
	w.renderState(status.AggregateState{Active: models.StateUpdated}, "")
	if w.blocked.Visible() {
		t.Error("blocked label should hide once cleared")
	}
}

func TestInfoWindow_RenderRecentAndUsage(t *testing.T) {
	w := newTestInfoWindow(t)
	w.renderRecent([]recent.Row{
		{Name: "b.jpg", Age: "now"},
		{Name: "a.txt", Age: "2 minutes ago"},
	})
	if !w.recent[0].box.Visible() || !w.recent[1].box.Visible() || w.recent[2].box.Visible() {
		t.Error("unexpected recent row visibility")
	}
	if w.recent[1].name.Text != "a.txt" || w.recent[1].age.Text != "2 minutes ago" {
		t.Errorf("row 2 = %q / %q", w.recent[1].name.Text, w.recent[1].age.Text)
	}
	if w.noRecent.Visible() {
		t.Error("placeholder should hide when files exist")
	}

	w.renderUsage("50% of 1 GB", "Usage: 512 MB")
	if w.usagePercent.Text != "50% of 1 GB" || w.usageUsed.Text != "Usage: 512 MB" {
		t.Errorf("usage = %q / %q", w.usagePercent.Text, w.usageUsed.Text)
	}
}

func TestToMenuRows(t *testing.T) {
	items := tray.SyncsMenu([]config.SyncFolder{{Name: "Docs", LocalPath: "/d", Active: true}})
	rows := toMenuRows(items)
	if len(rows) != 3 || !rows[1].separator || rows[2].title != "Docs" {
		t.Fatalf("rows = %+v", rows)
	}

	var picked = -1
	menu := menuFromItems(rows, func(i int) { picked = i })
	if len(menu.Items) != 3 || !menu.Items[1].IsSeparator {
		t.Fatalf("menu = %+v", menu.Items)
	}
	menu.Items[2].Action()
	if picked != 2 {
		t.Errorf("picked = %d, want 2", picked)
	}
}

func TestResources(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"holiday.JPG", theme.FileImageIcon().Name()},
		{"song.mp3", theme.FileAudioIcon().Name()},
		{"clip.mov", theme.FileVideoIcon().Name()},
		{"README", theme.FileIcon().Name()},
	}
	for _, tt := range tests {
		if got := FileResource(tt.name).Name(); got != tt.want {
			t.Errorf("FileResource(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
	if StatusResource(status.ScanningFrame(7)).Name() != theme.ViewRefreshIcon().Name() {
		t.Error("animation frames should use the refresh icon")
	}
	if StatusResource(status.IconPaused).Name() != theme.MediaPauseIcon().Name() {
		t.Error("paused icon mismatch")
	}
}

func TestLimitFromForm(t *testing.T) {
	tests := []struct {
		mode, value string
		want        int
		wantErr     bool
	}{
		{limitNone, "", config.BandwidthUnlimited, false},
		{limitAuto, "", config.BandwidthAuto, false},
		{limitCustom, " 250 ", 250, false},
		{limitCustom, "0", 0, true},
		{limitCustom, "fast", 0, true},
	}
	for _, tt := range tests {
		got, err := limitFromForm(tt.mode, tt.value)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("limitFromForm(%q, %q) = %d, %v", tt.mode, tt.value, got, err)
		}
	}
}

func newTestSettingsWindow(t *testing.T) (*SettingsWindow, *settings.Model, afero.Fs) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	fs := afero.NewMemMapFs()
	m, err := settings.Load(fs, "/cfg/preferences.conf")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return NewSettingsWindow(a, m, nil), m, fs
}

func TestSettingsWindow_LoadsClean(t *testing.T) {
	s, m, _ := newTestSettingsWindow(t)
	if m.Dirty() {
		t.Errorf("model dirty after loading the form: %v", m.DirtyTabs())
	}
	if s.language.Selected != "English" {
		t.Errorf("language = %q", s.language.Selected)
	}
	if s.uploadMode.Selected != limitAuto || s.downloadMode.Selected != limitNone {
		t.Errorf("bandwidth modes = %q / %q", s.uploadMode.Selected, s.downloadMode.Selected)
	}
	if !s.uploadLimit.Disabled() {
		t.Error("limit entry should be disabled unless a custom limit is chosen")
	}
	if got := len(s.excluded.Objects); got != len(config.DefaultExcludedNames) {
		t.Errorf("excluded rows = %d", got)
	}
}

func TestSettingsWindow_SaveBandwidth(t *testing.T) {
	s, m, fs := newTestSettingsWindow(t)

	s.uploadLimit.SetText("250")
	s.uploadMode.SetSelected(limitCustom)
	s.language.SetSelected("Deutsch")

	if got := m.Preferences().Bandwidth.UploadLimitKBs; got != 250 {
		t.Fatalf("upload limit = %d, want 250", got)
	}
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved, err := config.Load(fs, "/cfg/preferences.conf")
	if err != nil {
		t.Fatal(err)
	}
	if saved.Bandwidth.UploadLimitKBs != 250 || saved.General.Language != "de" {
		t.Errorf("saved = %+v / %+v", saved.Bandwidth, saved.General)
	}
}

func TestSettingsWindow_ManualProxyNeedsHost(t *testing.T) {
	s, m, _ := newTestSettingsWindow(t)

	s.proxyMode.SetSelected(proxyManual)
	if s.proxyHost.Disabled() {
		t.Error("host entry should be enabled for a manual proxy")
	}
	if s.proxyUser.Disabled() == false {
		t.Error("username should stay disabled until auth is required")
	}
	err := s.Save(context.Background())
	if !errors.Is(err, settings.ErrProxyHostRequired) {
		t.Fatalf("Save err = %v, want ErrProxyHostRequired", err)
	}

	s.proxyHost.SetText("proxy.lan")
	s.proxyPort.SetText("3128")
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p := m.Saved().Proxy; p.Host != "proxy.lan" || p.Port != 3128 || p.Mode != config.ProxyModeManual {
		t.Errorf("saved proxy = %+v", p)
	}
}

func TestChangelogWindow(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	notes, err := changelog.Parse([]byte("---\nversion: 5.2.0\nsdk_version: 3.9.1\n---\nFaster scanning\n"))
	if err != nil {
		t.Fatal(err)
	}
	links := changelog.Links(config.NewPreferences().Links)
	c := NewChangelogWindow(a, notes, links, nil, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	if c.version.Text != "5.2.0 (3.9.1)" {
		t.Errorf("version = %q", c.version.Text)
	}
	if len(c.links) != 3 {
		t.Errorf("links = %d, want 3", len(c.links))
	}
	if c.copyright.Text != "Copyright © 2026 DriftSync Ltd. All rights reserved." {
		t.Errorf("copyright = %q", c.copyright.Text)
	}
	c.links[0].OnTapped()
}
