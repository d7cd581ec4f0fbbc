// Package settings holds the editable working copy behind the settings
// window and the `config set` command.
package settings

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/events"
	"github.com/driftsync/syncshell/internal/platform"
	"github.com/driftsync/syncshell/internal/proxy"
)

// Tab identifies a page of the settings window.
type Tab int

const (
	TabAccount Tab = iota
	TabSyncs
	TabBandwidth
	TabProxy
	TabAdvanced
)

// Tabs lists the pages in display order.
var Tabs = []Tab{TabAccount, TabSyncs, TabBandwidth, TabProxy, TabAdvanced}

func (t Tab) String() string {
	switch t {
	case TabAccount:
		return "Account"
	case TabSyncs:
		return "Syncs"
	case TabBandwidth:
		return "Bandwidth"
	case TabProxy:
		return "Proxy"
	case TabAdvanced:
		return "Advanced"
	default:
		return fmt.Sprintf("Tab(%d)", int(t))
	}
}

var (
	// ErrProxyUnreachable is returned by Save when the new proxy settings
	// fail the connectivity check. Nothing is written in that case.
	ErrProxyUnreachable = errors.New("proxy connectivity check failed")

	// ErrUnknownSync is returned for operations on a sync name that is not configured.
	ErrUnknownSync = errors.New("unknown sync folder")
)

// Model is a working copy of the preferences. Setters only touch the copy;
// Save validates and persists it.
type Model struct {
	fs      afero.Fs
	path    string
	shell   platform.Shell
	bus     *events.EventBus
	checker *proxy.ConnectivityChecker
	logger  zerolog.Logger

	saved   *config.Preferences
	working *config.Preferences
}

// Option customises a Model.
type Option func(*Model)

// WithShell sets the platform shell notified of startup and sync folder changes.
func WithShell(s platform.Shell) Option { return func(m *Model) { m.shell = s } }

// WithEventBus sets the bus that receives ConfigChangedEvent after a save.
func WithEventBus(b *events.EventBus) Option { return func(m *Model) { m.bus = b } }

// WithProxyCheck makes Save test changed proxy settings before writing them.
func WithProxyCheck(c *proxy.ConnectivityChecker) Option {
	return func(m *Model) { m.checker = c }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(m *Model) { m.logger = l } }

// Load reads the preferences at path (defaults if the file does not exist).
func Load(fs afero.Fs, path string, opts ...Option) (*Model, error) {
	prefs, err := config.Load(fs, path)
	if err != nil {
		return nil, err
	}
	return New(fs, path, prefs, opts...), nil
}

// New wraps already loaded preferences.
func New(fs afero.Fs, path string, prefs *config.Preferences, opts ...Option) *Model {
	m := &Model{
		fs:      fs,
		path:    path,
		logger:  zerolog.Nop(),
		saved:   prefs.Clone(),
		working: prefs.Clone(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the preferences file location.
func (m *Model) Path() string { return m.path }

// Preferences returns a copy of the working preferences.
func (m *Model) Preferences() *config.Preferences { return m.working.Clone() }

// Saved returns a copy of the last persisted preferences.
func (m *Model) Saved() *config.Preferences { return m.saved.Clone() }

// Dirty reports whether the working copy differs from what was saved.
func (m *Model) Dirty() bool { return !equal(m.saved, m.working) }

// DirtyTabs lists the pages with unsaved changes.
func (m *Model) DirtyTabs() []Tab {
	var out []Tab
	s, w := m.saved, m.working
	if s.General != w.General {
		out = append(out, TabAccount)
	}
	if !slices.Equal(s.Syncs, w.Syncs) {
		out = append(out, TabSyncs)
	}
	if s.Bandwidth != w.Bandwidth {
		out = append(out, TabBandwidth)
	}
	if s.Proxy != w.Proxy {
		out = append(out, TabProxy)
	}
	if !slices.Equal(s.Advanced.ExcludedNames, w.Advanced.ExcludedNames) ||
		s.Advanced.DebugLogging != w.Advanced.DebugLogging ||
		s.Advanced.LogToFile != w.Advanced.LogToFile {
		out = append(out, TabAdvanced)
	}
	return out
}

func equal(a, b *config.Preferences) bool {
	return a.General == b.General &&
		a.Transfers == b.Transfers &&
		a.Bandwidth == b.Bandwidth &&
		a.Proxy == b.Proxy &&
		a.Links == b.Links &&
		a.Advanced.DebugLogging == b.Advanced.DebugLogging &&
		a.Advanced.LogToFile == b.Advanced.LogToFile &&
		slices.Equal(a.Advanced.ExcludedNames, b.Advanced.ExcludedNames) &&
		slices.Equal(a.Syncs, b.Syncs)
}

// Revert drops unsaved changes.
func (m *Model) Revert() { m.working = m.saved.Clone() }

// SetLanguage selects the UI language by code.
func (m *Model) SetLanguage(code string) error {
	if LanguageName(code) == "" {
		return fmt.Errorf("%w: %s", ErrUnknownLanguage, code)
	}
	m.working.General.Language = code
	return nil
}

func (m *Model) SetStartOnStartup(on bool) { m.working.General.StartOnStartup = on }
func (m *Model) SetNotifications(on bool)  { m.working.General.Notifications = on }
func (m *Model) SetDebugLogging(on bool)   { m.working.Advanced.DebugLogging = on }
func (m *Model) SetLogToFile(on bool)      { m.working.Advanced.LogToFile = on }

// SetUploadLimit sets the upload limit in KB/s (-1 auto, 0 unlimited).
func (m *Model) SetUploadLimit(kbs int) error {
	if err := validateBandwidth("upload", kbs); err != nil {
		return err
	}
	m.working.Bandwidth.UploadLimitKBs = kbs
	return nil
}

// SetDownloadLimit sets the download limit in KB/s (0 unlimited).
func (m *Model) SetDownloadLimit(kbs int) error {
	if err := validateBandwidth("download", kbs); err != nil {
		return err
	}
	m.working.Bandwidth.DownloadLimitKBs = kbs
	return nil
}

// SetProxy replaces the proxy section. Invalid combinations are accepted
// here so the form can be edited field by field; Validate reports them.
func (m *Model) SetProxy(p config.ProxyPrefs) { m.working.Proxy = p }

// AddExcludedName appends a pattern unless it is already present.
func (m *Model) AddExcludedName(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if err := ValidateExcludedName(pattern); err != nil {
		return err
	}
	if slices.Contains(m.working.Advanced.ExcludedNames, pattern) {
		return nil
	}
	m.working.Advanced.ExcludedNames = append(m.working.Advanced.ExcludedNames, pattern)
	return nil
}

// RemoveExcludedName removes a pattern. It reports whether it was present.
func (m *Model) RemoveExcludedName(pattern string) bool {
	i := slices.Index(m.working.Advanced.ExcludedNames, pattern)
	if i < 0 {
		return false
	}
	m.working.Advanced.ExcludedNames = slices.Delete(m.working.Advanced.ExcludedNames, i, i+1)
	return true
}

// AddSync adds an active sync folder. An empty name defaults to the base
// name of the local path.
func (m *Model) AddSync(name, localPath, remotePath string) error {
	if strings.TrimSpace(localPath) == "" {
		return ErrEmptySyncPath
	}
	if err := VerifySyncedFolderLimits(localPath); err != nil {
		return err
	}
	if name == "" {
		name = filepath.Base(filepath.Clean(localPath))
	}
	if remotePath == "" {
		remotePath = "/" + name
	}
	next := append(slices.Clone(m.working.Syncs), config.SyncFolder{
		Name:       name,
		LocalPath:  localPath,
		RemotePath: remotePath,
		Active:     true,
	})
	if err := ValidateSyncs(next); err != nil {
		return err
	}
	m.working.Syncs = next
	return nil
}

// RemoveSync removes the sync folder called name.
func (m *Model) RemoveSync(name string) error {
	i := m.syncIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSync, name)
	}
	m.working.Syncs = slices.Delete(slices.Clone(m.working.Syncs), i, i+1)
	return nil
}

// SetSyncActive enables or disables a sync folder without removing it.
func (m *Model) SetSyncActive(name string, active bool) error {
	i := m.syncIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSync, name)
	}
	m.working.Syncs = slices.Clone(m.working.Syncs)
	m.working.Syncs[i].Active = active
	return nil
}

func (m *Model) syncIndex(name string) int {
	return slices.IndexFunc(m.working.Syncs, func(s config.SyncFolder) bool { return s.Name == name })
}

// Set applies a "section.key" assignment, as used by `config set`.
// Cross-field rules are left to Validate so related keys can be set in turn.
func (m *Model) Set(key, value string) error {
	return m.working.Set(key, value)
}

// Validate checks the working copy.
func (m *Model) Validate() error { return Validate(m.working) }

// CheckProxy tests the working proxy settings.
func (m *Model) CheckProxy(ctx context.Context, checker *proxy.ConnectivityChecker) proxy.Result {
	return checker.Check(ctx, m.working.Proxy)
}

// Save validates and writes the working copy, then applies its side effects:
// the startup entry, sync folder hooks and a ConfigChangedEvent. Side effect
// failures are logged; they do not undo the write.
func (m *Model) Save(ctx context.Context) error {
	if !m.Dirty() {
		return nil
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if m.checker != nil && m.working.Proxy != m.saved.Proxy {
		res := m.CheckProxy(ctx, m.checker)
		if !res.OK() {
			return fmt.Errorf("%w: %s", ErrProxyUnreachable, res.Summary())
		}
	}
	keepTransfers := m.working.Transfers == m.saved.Transfers
	written, err := config.Update(m.fs, m.path, func(disk *config.Preferences) error {
		next := m.working.Clone()
		if keepTransfers {
			// The pause toggles are owned by the running panel.
			next.Transfers = disk.Transfers
		}
		*disk = *next
		return nil
	})
	if err != nil {
		return err
	}

	prev := m.saved
	m.saved = written.Clone()
	m.working = written.Clone()
	m.applyShell(prev, m.saved)

	if m.bus != nil {
		m.bus.Publish(&events.ConfigChangedEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventConfigChanged, Time: time.Now()},
			Path:      m.path,
		})
	}
	m.logger.Info().Str("path", m.path).Msg("preferences saved")
	return nil
}

func (m *Model) applyShell(prev, next *config.Preferences) {
	if m.shell == nil {
		return
	}
	if prev.General.StartOnStartup != next.General.StartOnStartup ||
		next.General.StartOnStartup != m.shell.IsStartOnStartupActive() {
		if err := m.shell.StartOnStartup(next.General.StartOnStartup); err != nil {
			m.logger.Warn().Err(err).Bool("enable", next.General.StartOnStartup).Msg("failed to update startup entry")
		}
	}

	before := activeByPath(prev)
	after := activeByPath(next)
	for path := range before {
		if _, ok := after[path]; !ok {
			if err := m.shell.SyncFolderRemoved(path); err != nil {
				m.logger.Warn().Err(err).Str("path", path).Msg("sync folder removal hook failed")
			}
		}
	}
	for path, name := range after {
		if _, ok := before[path]; !ok {
			if err := m.shell.SyncFolderAdded(path, name); err != nil {
				m.logger.Warn().Err(err).Str("path", path).Msg("sync folder hook failed")
			}
		}
	}
}

func activeByPath(p *config.Preferences) map[string]string {
	out := make(map[string]string)
	for _, s := range p.ActiveSyncs() {
		out[s.LocalPath] = s.Name
	}
	return out
}
