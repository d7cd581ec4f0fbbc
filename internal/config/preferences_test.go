package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

const testPrefsPath = "/home/user/.config/driftsync/preferences.conf"

func TestNewPreferences(t *testing.T) {
	prefs := NewPreferences()

	if prefs.General.Language != "en" {
		t.Errorf("Expected Language=en, got %s", prefs.General.Language)
	}
	if !prefs.General.Notifications {
		t.Error("Expected notifications enabled by default")
	}
	if prefs.Bandwidth.UploadLimitKBs != BandwidthAuto {
		t.Errorf("Expected upload limit auto (-1), got %d", prefs.Bandwidth.UploadLimitKBs)
	}
	if prefs.Bandwidth.DownloadLimitKBs != BandwidthUnlimited {
		t.Errorf("Expected download limit 0, got %d", prefs.Bandwidth.DownloadLimitKBs)
	}
	if prefs.Proxy.Mode != ProxyModeAuto {
		t.Errorf("Expected proxy mode auto, got %s", prefs.Proxy.Mode)
	}
	if len(prefs.Advanced.ExcludedNames) != len(DefaultExcludedNames) {
		t.Errorf("Expected default excluded names, got %v", prefs.Advanced.ExcludedNames)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()

	prefs, err := Load(fs, testPrefsPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if prefs.General.Language != "en" {
		t.Errorf("Expected defaults, got language %q", prefs.General.Language)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()

	prefs := NewPreferences()
	prefs.General.Language = "es"
	prefs.General.StartOnStartup = false
	prefs.General.LastChangelogVersion = "v1.1.0"
	prefs.Transfers.UploadsPaused = true
	prefs.Bandwidth.UploadLimitKBs = 512
	prefs.Proxy = ProxyPrefs{
		Mode:         ProxyModeManual,
		Type:         ProxyTypeSOCKS5H,
		Host:         "proxy.corp",
		Port:         1080,
		RequiresAuth: true,
		Username:     "alice",
		Password:     "s3cret",
	}
	prefs.Advanced.ExcludedNames = []string{"*.tmp", "node_modules"}
	prefs.Syncs = []SyncFolder{
		{Name: "Documents", LocalPath: "/home/user/Documents", RemotePath: "/Documents", Active: true},
		{Name: "Photos", LocalPath: "/home/user/Pictures", RemotePath: "/Photos", Active: false},
	}

	if err := Save(fs, prefs, testPrefsPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if ok, _ := afero.Exists(fs, testPrefsPath+".tmp"); ok {
		t.Error("Temporary file should be renamed away")
	}

	loaded, err := Load(fs, testPrefsPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.General.Language != "es" {
		t.Errorf("Language mismatch: got %s", loaded.General.Language)
	}
	if loaded.General.StartOnStartup {
		t.Error("StartOnStartup should be false")
	}
	if loaded.General.LastChangelogVersion != "v1.1.0" {
		t.Errorf("LastChangelogVersion mismatch: got %s", loaded.General.LastChangelogVersion)
	}
	if !loaded.Transfers.UploadsPaused || loaded.Transfers.DownloadsPaused {
		t.Errorf("Transfer pause flags mismatch: %+v", loaded.Transfers)
	}
	if loaded.Bandwidth.UploadLimitKBs != 512 {
		t.Errorf("Upload limit mismatch: got %d", loaded.Bandwidth.UploadLimitKBs)
	}
	if loaded.Proxy != prefs.Proxy {
		t.Errorf("Proxy mismatch: got %+v, want %+v", loaded.Proxy, prefs.Proxy)
	}
	if strings.Join(loaded.Advanced.ExcludedNames, ",") != "*.tmp,node_modules" {
		t.Errorf("Excluded names mismatch: %v", loaded.Advanced.ExcludedNames)
	}
	if len(loaded.Syncs) != 2 {
		t.Fatalf("Expected 2 syncs, got %d", len(loaded.Syncs))
	}

	active := loaded.ActiveSyncs()
	if len(active) != 1 || active[0].Name != "Documents" {
		t.Errorf("ActiveSyncs mismatch: %+v", active)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, testPrefsPath, []byte("[general\nlanguage"), 0600)

	if _, err := Load(fs, testPrefsPath); err == nil {
		t.Error("Expected parse error for malformed INI")
	}
}

func TestEmptyExcludedNamesIsKept(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, testPrefsPath, []byte("[advanced]\nexcluded_names =\n"), 0600)

	prefs, err := Load(fs, testPrefsPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(prefs.Advanced.ExcludedNames) != 0 {
		t.Errorf("Explicitly empty list should stay empty, got %v", prefs.Advanced.ExcludedNames)
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(*Preferences) bool
	}{
		{"general.language", "fr", false, func(p *Preferences) bool { return p.General.Language == "fr" }},
		{"proxy.port", "8080", false, func(p *Preferences) bool { return p.Proxy.Port == 8080 }},
		{"proxy.port", "eighty", true, nil},
		{"transfers.all_paused", "true", false, func(p *Preferences) bool { return p.Transfers.AllPaused }},
		{"advanced.excluded_names", "a, b ,,c", false, func(p *Preferences) bool {
			return strings.Join(p.Advanced.ExcludedNames, "|") == "a|b|c"
		}},
		{"nope.key", "x", true, nil},
	}

	for _, tt := range tests {
		prefs := NewPreferences()
		err := prefs.Set(tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Set(%s, %s) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			continue
		}
		if tt.check != nil && !tt.check(prefs) {
			t.Errorf("Set(%s, %s) did not apply", tt.key, tt.value)
		}
	}
}

func TestKeysAreSettable(t *testing.T) {
	for _, key := range Keys() {
		prefs := NewPreferences()
		value := "1"
		if err := prefs.Set(key, value); err != nil {
			t.Errorf("Key %s listed but not settable: %v", key, err)
		}
	}
}

func TestGetReturnsWhatSetStored(t *testing.T) {
	for _, key := range Keys() {
		prefs := NewPreferences()
		if err := prefs.Set(key, "1"); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
		got, err := prefs.Get(key)
		if err != nil {
			t.Errorf("Get(%s): %v", key, err)
			continue
		}
		// Booleans come back normalised.
		if got != "1" && got != "true" {
			t.Errorf("Get(%s) = %q after Set(1)", key, got)
		}
	}
	if _, err := NewPreferences().Get("general.nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestCloneIsDeep(t *testing.T) {
	prefs := NewPreferences()
	prefs.Syncs = []SyncFolder{{Name: "A", Active: true}}

	clone := prefs.Clone()
	clone.Advanced.ExcludedNames[0] = "changed"
	clone.Syncs[0].Name = "B"

	if prefs.Advanced.ExcludedNames[0] == "changed" || prefs.Syncs[0].Name == "B" {
		t.Error("Clone shares slices with the original")
	}
}

func TestDefaultLogFile(t *testing.T) {
	got := DefaultLogFile("gui")
	if filepath.Base(got) != "syncshell-gui.log" {
		t.Errorf("Unexpected log file name: %s", got)
	}
	if filepath.Dir(got) != LogDirectory() {
		t.Errorf("Log file should live in LogDirectory, got %s", got)
	}
}

func TestUpdate(t *testing.T) {
	fs := afero.NewMemMapFs()
	const path = "/cfg/preferences.conf"
	prefs := NewPreferences()
	prefs.General.Language = "de"
	if err := Save(fs, prefs, path); err != nil {
		t.Fatal(err)
	}

	written, err := Update(fs, path, func(p *Preferences) error {
		p.Transfers.AllPaused = true
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !written.Transfers.AllPaused || written.General.Language != "de" {
		t.Errorf("written = %+v", written)
	}
	loaded, err := Load(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Transfers.AllPaused || loaded.General.Language != "de" {
		t.Errorf("loaded transfers=%+v language=%q", loaded.Transfers, loaded.General.Language)
	}

	boom := errors.New("boom")
	if _, err := Update(fs, path, func(p *Preferences) error {
		p.Transfers.AllPaused = false
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if loaded, _ := Load(fs, path); !loaded.Transfers.AllPaused {
		t.Error("failed update should not write")
	}
}
