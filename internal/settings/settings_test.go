package settings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/events"
	"github.com/driftsync/syncshell/internal/proxy"
	"github.com/driftsync/syncshell/internal/validation"
)

const prefsPath = "/home/u/.config/driftsync/preferences.ini"

type fakeShell struct {
	startup bool
	added   []string
	removed []string
}

func (f *fakeShell) Name() string                            { return "fake" }
func (f *fakeShell) ShowInFolder(string) error               { return nil }
func (f *fakeShell) OpenURL(string) error                    { return nil }
func (f *fakeShell) StartOnStartup(on bool) error            { f.startup = on; return nil }
func (f *fakeShell) IsStartOnStartupActive() bool            { return f.startup }
func (f *fakeShell) EnsurePrivileges([]string) (bool, error) { return false, nil }
func (f *fakeShell) SyncFolderAdded(path, _ string) error {
	f.added = append(f.added, path)
	return nil
}
func (f *fakeShell) SyncFolderRemoved(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

func newModel(t *testing.T, opts ...Option) (*Model, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	m, err := Load(fs, prefsPath, opts...)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m, fs
}

func TestLanguages(t *testing.T) {
	if got := len(Languages()); got != 35 {
		t.Errorf("languages = %d, want 35", got)
	}
	tests := map[string]string{
		"en":    "English",
		"pt_BR": "Português Brasil",
		"zh_TW": "中文繁體",
		"xx":    "",
	}
	for code, want := range tests {
		if got := LanguageName(code); got != want {
			t.Errorf("LanguageName(%q) = %q, want %q", code, got, want)
		}
	}
	langs := Languages()
	if langs[0].Code != "ar" {
		t.Errorf("first language = %s, want ar", langs[0].Code)
	}
}

func TestVerifySyncedFolderLimits(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"/", true},
		{"//", true},
		{"/home/u/..", false},
		{"/home/u/Documents", false},
		{"/home/u/../..", true},
	}
	for _, tt := range tests {
		err := VerifySyncedFolderLimits(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("VerifySyncedFolderLimits(%q) = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrSyncAtRoot) {
			t.Errorf("error %v is not ErrSyncAtRoot", err)
		}
	}
}

func TestValidateProxy(t *testing.T) {
	manual := config.ProxyPrefs{Mode: config.ProxyModeManual, Type: config.ProxyTypeHTTP, Host: "proxy.lan", Port: 3128}

	tests := []struct {
		name string
		mod  func(*config.ProxyPrefs)
		want error
	}{
		{"valid", func(*config.ProxyPrefs) {}, nil},
		{"no proxy ignores fields", func(p *config.ProxyPrefs) { p.Mode = config.ProxyModeNone; p.Host = "" }, nil},
		{"bad mode", func(p *config.ProxyPrefs) { p.Mode = "pac" }, ErrInvalidProxyMode},
		{"bad type", func(p *config.ProxyPrefs) { p.Type = "socks4" }, ErrInvalidProxyType},
		{"missing host", func(p *config.ProxyPrefs) { p.Host = " " }, ErrProxyHostRequired},
		{"port zero", func(p *config.ProxyPrefs) { p.Port = 0 }, ErrInvalidProxyPort},
		{"port too big", func(p *config.ProxyPrefs) { p.Port = 65536 }, ErrInvalidProxyPort},
		{"auth without user", func(p *config.ProxyPrefs) { p.RequiresAuth = true }, ErrProxyUserRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := manual
			tt.mod(&p)
			err := ValidateProxy(p)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExcludedNames(t *testing.T) {
	for _, bad := range []string{"", "a/b", `dir\file`, "[abc"} {
		if err := ValidateExcludedName(bad); !errors.Is(err, ErrInvalidExcludedName) {
			t.Errorf("ValidateExcludedName(%q) = %v", bad, err)
		}
	}
	patterns := config.DefaultExcludedNames
	for name, want := range map[string]bool{
		"thumbs.db":  true,
		".DS_Store":  true,
		"~lock.docx": true,
		"report.pdf": false,
	} {
		if got := IsExcluded(patterns, name); got != want {
			t.Errorf("IsExcluded(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestValidateSyncs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	tests := []struct {
		name  string
		syncs []config.SyncFolder
		want  error
	}{
		{"distinct", []config.SyncFolder{{Name: "a", LocalPath: "/a"}, {Name: "b", LocalPath: "/b"}}, nil},
		{"sibling prefix", []config.SyncFolder{{Name: "a", LocalPath: "/data"}, {Name: "b", LocalPath: "/data2"}}, nil},
		{"same path", []config.SyncFolder{{Name: "a", LocalPath: "/a"}, {Name: "b", LocalPath: "/a/"}}, ErrDuplicateSync},
		{"same name", []config.SyncFolder{{Name: "a", LocalPath: "/a"}, {Name: "a", LocalPath: "/b"}}, ErrDuplicateSync},
		{"nested", []config.SyncFolder{{Name: "a", LocalPath: "/a"}, {Name: "b", LocalPath: "/a/b"}}, ErrNestedSync},
		{"root", []config.SyncFolder{{Name: "r", LocalPath: "/"}}, ErrSyncAtRoot},
		{"empty", []config.SyncFolder{{Name: "e"}}, ErrEmptySyncPath},
		{"bad name", []config.SyncFolder{{Name: "a/b", LocalPath: "/a"}}, validation.ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSyncs(tt.syncs)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestModel_DirtyAndRevert(t *testing.T) {
	m, _ := newModel(t)
	if m.Dirty() {
		t.Fatal("fresh model should be clean")
	}
	if err := m.SetUploadLimit(500); err != nil {
		t.Fatalf("SetUploadLimit: %v", err)
	}
	if err := m.SetLanguage("de"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	if !m.Dirty() {
		t.Fatal("model should be dirty")
	}
	tabs := m.DirtyTabs()
	if len(tabs) != 2 || tabs[0] != TabAccount || tabs[1] != TabBandwidth {
		t.Errorf("dirty tabs = %v", tabs)
	}
	m.Revert()
	if m.Dirty() {
		t.Error("revert should drop changes")
	}
}

func TestModel_SetterValidation(t *testing.T) {
	m, _ := newModel(t)
	if err := m.SetLanguage("klingon"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("SetLanguage err = %v", err)
	}
	if err := m.SetUploadLimit(-2); !errors.Is(err, ErrInvalidBandwidth) {
		t.Errorf("SetUploadLimit err = %v", err)
	}
	if err := m.SetDownloadLimit(config.BandwidthAuto); !errors.Is(err, ErrInvalidBandwidth) {
		t.Errorf("SetDownloadLimit(auto) err = %v", err)
	}
	if err := m.AddExcludedName("*.tmp"); err != nil {
		t.Fatalf("AddExcludedName: %v", err)
	}
	_ = m.AddExcludedName("*.tmp")
	n := len(m.Preferences().Advanced.ExcludedNames)
	if n != len(config.DefaultExcludedNames)+1 {
		t.Errorf("excluded names = %d, duplicate not ignored", n)
	}
	if !m.RemoveExcludedName("*.tmp") || m.RemoveExcludedName("*.tmp") {
		t.Error("RemoveExcludedName should succeed once")
	}
}

func TestModel_Syncs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	m, _ := newModel(t)
	if err := m.AddSync("", "/home/u/Photos", ""); err != nil {
		t.Fatalf("AddSync: %v", err)
	}
	s := m.Preferences().Syncs[0]
	if s.Name != "Photos" || s.RemotePath != "/Photos" || !s.Active {
		t.Errorf("unexpected sync %+v", s)
	}
	if err := m.AddSync("Dup", "/home/u/Photos", ""); !errors.Is(err, ErrDuplicateSync) {
		t.Errorf("duplicate err = %v", err)
	}
	if err := m.AddSync("Root", "/", ""); !errors.Is(err, ErrSyncAtRoot) {
		t.Errorf("root err = %v", err)
	}
	if err := m.SetSyncActive("Photos", false); err != nil {
		t.Fatalf("SetSyncActive: %v", err)
	}
	if err := m.RemoveSync("Nope"); !errors.Is(err, ErrUnknownSync) {
		t.Errorf("RemoveSync err = %v", err)
	}
	if err := m.RemoveSync("Photos"); err != nil {
		t.Fatalf("RemoveSync: %v", err)
	}
	if len(m.Preferences().Syncs) != 0 {
		t.Error("sync not removed")
	}
}

func TestModel_SaveAppliesSideEffects(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	shell := &fakeShell{startup: true}
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventConfigChanged)

	m, fs := newModel(t, WithShell(shell), WithEventBus(bus))
	m.SetStartOnStartup(false)
	if err := m.AddSync("Work", "/home/u/Work", "/Work"); err != nil {
		t.Fatalf("AddSync: %v", err)
	}
	if err := m.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if shell.startup {
		t.Error("startup entry should be disabled")
	}
	if len(shell.added) != 1 || shell.added[0] != "/home/u/Work" {
		t.Errorf("added hooks = %v", shell.added)
	}
	select {
	case ev := <-ch:
		if ev.(*events.ConfigChangedEvent).Path != prefsPath {
			t.Errorf("event path = %q", ev.(*events.ConfigChangedEvent).Path)
		}
	case <-time.After(time.Second):
		t.Fatal("no ConfigChangedEvent")
	}
	if m.Dirty() {
		t.Error("model dirty after save")
	}

	reloaded, err := config.Load(fs, prefsPath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.General.StartOnStartup || len(reloaded.Syncs) != 1 {
		t.Errorf("reloaded prefs = %+v", reloaded)
	}

	if err := m.SetSyncActive("Work", false); err != nil {
		t.Fatal(err)
	}
	if err := m.Save(context.Background()); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if len(shell.removed) != 1 || shell.removed[0] != "/home/u/Work" {
		t.Errorf("removed hooks = %v", shell.removed)
	}
}

func TestModel_SaveRejectsInvalid(t *testing.T) {
	m, fs := newModel(t)
	if err := m.Set("proxy.mode", config.ProxyModeManual); err != nil {
		t.Fatalf("Set: %v", err)
	}
	err := m.Save(context.Background())
	if !errors.Is(err, ErrProxyHostRequired) || !errors.Is(err, ErrInvalidProxyPort) {
		t.Errorf("Save err = %v, want host and port errors", err)
	}
	if ok, _ := afero.Exists(fs, prefsPath); ok {
		t.Error("invalid preferences were written")
	}
}

func TestModel_SaveChecksProxy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	checker := proxy.NewConnectivityChecker(srv.URL, zerolog.Nop())
	checker.Retries = 0
	checker.RetryMin = time.Millisecond
	checker.RetryMax = time.Millisecond

	m, fs := newModel(t, WithProxyCheck(checker))
	m.SetProxy(config.ProxyPrefs{Mode: config.ProxyModeNone, Type: config.ProxyTypeHTTP})

	err := m.Save(context.Background())
	if !errors.Is(err, ErrProxyUnreachable) {
		t.Fatalf("Save err = %v, want ErrProxyUnreachable", err)
	}
	if ok, _ := afero.Exists(fs, prefsPath); ok {
		t.Error("preferences written despite failed check")
	}

	// Unrelated changes skip the check.
	m.Revert()
	m.SetNotifications(false)
	if err := m.Save(context.Background()); err != nil {
		t.Errorf("Save without proxy change: %v", err)
	}
}
