package session

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/driftsync/syncshell/internal/clock"
	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/transfer"
)

const prefsPath = "/home/u/.config/driftsync/preferences.conf"

type fakeShell struct{ added []string }

func (f *fakeShell) Name() string                            { return "fake" }
func (f *fakeShell) ShowInFolder(string) error               { return nil }
func (f *fakeShell) OpenURL(string) error                    { return nil }
func (f *fakeShell) StartOnStartup(bool) error               { return nil }
func (f *fakeShell) IsStartOnStartupActive() bool            { return false }
func (f *fakeShell) EnsurePrivileges([]string) (bool, error) { return false, nil }
func (f *fakeShell) SyncFolderAdded(path, _ string) error {
	f.added = append(f.added, path)
	return nil
}
func (f *fakeShell) SyncFolderRemoved(string) error { return nil }

func writePrefs(t *testing.T, fs afero.Fs, edit func(*config.Preferences)) {
	t.Helper()
	prefs := config.NewPreferences()
	prefs.General.Notifications = false
	if edit != nil {
		edit(prefs)
	}
	if err := config.Save(fs, prefs, prefsPath); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNew_AppliesPreferences(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePrefs(t, fs, func(p *config.Preferences) {
		p.Transfers.UploadsPaused = true
		p.Bandwidth.UploadLimitKBs = 256
		p.Syncs = []config.SyncFolder{
			{Name: "Docs", LocalPath: "/home/u/Docs", RemotePath: "/Docs", Active: true},
			{Name: "Old", LocalPath: "/home/u/Old", RemotePath: "/Old", Active: false},
		}
	})

	s, err := New(Options{Fs: fs, PrefsPath: prefsPath, Shell: &fakeShell{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !s.Queue.AreTransfersPaused(models.Upload) {
		t.Error("uploads should start paused")
	}
	if s.Queue.AreTransfersPaused(models.Download) {
		t.Error("downloads should not be paused")
	}
	if got := s.Syncs(); len(got) != 1 || got[0].Name != "Docs" {
		t.Errorf("Syncs = %+v, want only Docs", got)
	}
	if s.Notifier.IsEnabled() {
		t.Error("notifier should follow the notifications preference")
	}
	if got := s.Queue.Bandwidth().LimitKBs(models.Upload); got != 256 {
		t.Errorf("upload limit = %d KB/s, want 256", got)
	}
	if got := s.Queue.Bandwidth().LimitKBs(models.Download); got != 0 {
		t.Errorf("download limit = %d KB/s, want unlimited", got)
	}
	if s.Simulator != nil {
		t.Error("simulator should only exist when simulating")
	}
}

func TestSession_RestoresAndSavesGlobalPause(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePrefs(t, fs, func(p *config.Preferences) {
		p.Transfers.AllPaused = true
		p.Transfers.UploadsPaused = true
	})

	s, err := New(Options{
		Fs:        fs,
		PrefsPath: prefsPath,
		Shell:     &fakeShell{},
		Clock:     clock.NewFake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Panel.Tick()

	if !s.Panel.Paused() {
		t.Fatal("panel toggle not restored from all_paused")
	}
	if got := s.Panel.State().Active; got != models.StatePaused {
		t.Errorf("state = %s, want paused", got)
	}

	if err := s.Panel.TogglePause(); err != nil {
		t.Fatalf("TogglePause: %v", err)
	}
	if s.Queue.AreTransfersPaused(models.Download) || s.Queue.AreTransfersPaused(models.Upload) {
		t.Error("first toggle should resume both directions")
	}
	prefs, err := config.Load(fs, prefsPath)
	if err != nil {
		t.Fatal(err)
	}
	if prefs.Transfers.AllPaused || prefs.Transfers.UploadsPaused {
		t.Errorf("transfers after resume = %+v, want all cleared", prefs.Transfers)
	}

	if err := s.Panel.TogglePause(); err != nil {
		t.Fatalf("TogglePause: %v", err)
	}
	prefs, err = config.Load(fs, prefsPath)
	if err != nil {
		t.Fatal(err)
	}
	if !prefs.Transfers.AllPaused {
		t.Error("all_paused not saved after pausing")
	}
}

func TestSession_SettingsSaveKeepsPauseState(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePrefs(t, fs, nil)

	s, err := New(Options{
		Fs:        fs,
		PrefsPath: prefsPath,
		Shell:     &fakeShell{},
		Clock:     clock.NewFake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Panel.SetPaused(true); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}

	// The settings model loaded before the toggle; its save must not undo it.
	s.Settings.SetNotifications(true)
	if err := s.Settings.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	prefs, err := config.Load(fs, prefsPath)
	if err != nil {
		t.Fatal(err)
	}
	if !prefs.Transfers.AllPaused || !prefs.General.Notifications {
		t.Errorf("saved prefs = %+v / %+v", prefs.Transfers, prefs.General)
	}
	if s.Settings.Dirty() {
		t.Error("model should be clean after save")
	}
}

func TestSession_ReloadsSyncsAfterSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePrefs(t, fs, nil)
	shell := &fakeShell{}

	s, err := New(Options{Fs: fs, PrefsPath: prefsPath, Shell: shell})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	loopDone := make(chan error, 1)
	go func() { loopDone <- s.RunLoop(ctx) }()
	defer func() {
		cancel()
		<-loopDone
		s.Close()
	}()

	if err := s.Settings.AddSync("Photos", "/home/u/Photos", ""); err != nil {
		t.Fatalf("AddSync: %v", err)
	}
	if err := s.Settings.SetDownloadLimit(128); err != nil {
		t.Fatalf("SetDownloadLimit: %v", err)
	}
	if err := s.Settings.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	waitFor(t, "sync reload", func() bool {
		syncs := s.Syncs()
		return len(syncs) == 1 && syncs[0].RemotePath == "/Photos"
	})
	waitFor(t, "bandwidth reload", func() bool {
		return s.Bandwidth.LimitKBs(models.Download) == 128
	})
	if len(shell.added) != 1 || shell.added[0] != "/home/u/Photos" {
		t.Errorf("shell notified of %v", shell.added)
	}
}

func TestSession_SimulatedWorkloadReachesPanel(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePrefs(t, fs, nil)

	s, err := New(Options{
		Fs:        fs,
		PrefsPath: prefsPath,
		Shell:     &fakeShell{},
		Simulate:  true,
		Simulator: transfer.SimulatorConfig{
			Downloads:    2,
			Uploads:      1,
			MinSize:      100,
			MaxSize:      200,
			BytesPerTick: 1000,
			Tick:         time.Millisecond,
			Seed:         3,
		},
		UsedBytes:  1 << 30,
		QuotaBytes: 4 << 30,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	loopDone := make(chan error, 1)
	go func() { loopDone <- s.RunLoop(ctx) }()
	defer func() {
		cancel()
		<-loopDone
		s.Close()
	}()

	select {
	case <-s.SimulationDone():
	case <-time.After(5 * time.Second):
		t.Fatal("simulation did not finish")
	}

	waitFor(t, "recent files", func() bool {
		var n int
		if err := s.Loop.Call(ctx, func() { n = len(s.Panel.RecentEntries()) }); err != nil {
			return false
		}
		return n == 3
	})

	var percent int
	if err := s.Loop.Call(ctx, func() { percent = s.Panel.Usage().Percent() }); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if percent != 25 {
		t.Errorf("usage percent = %d, want 25", percent)
	}
}
