//go:build !darwin && !windows

package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// xdgShell targets freedesktop.org desktops.
type xdgShell struct {
	opts Options
}

func newShell(opts Options) Shell {
	return &xdgShell{opts: opts}
}

func (s *xdgShell) Name() string { return "xdg" }

// ShowInFolder opens the folder containing path. Directories open as-is.
func (s *xdgShell) ShowInFolder(path string) error {
	target := path
	if info, err := s.opts.Fs.Stat(path); err == nil && !info.IsDir() {
		target = filepath.Dir(path)
	}
	if err := s.opts.Runner.Start("xdg-open", target); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	return nil
}

func (s *xdgShell) OpenURL(url string) error {
	return s.opts.Runner.Start("xdg-open", url)
}

// StartOnStartup writes or removes the XDG autostart entry.
func (s *xdgShell) StartOnStartup(enable bool) error {
	path := desktopEntryPath(s.opts.ConfigDir, s.opts.AppID)
	if !enable {
		if err := s.opts.Fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove autostart entry: %w", err)
		}
		return nil
	}
	if err := s.opts.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create autostart directory: %w", err)
	}
	entry := desktopEntry(s.opts.AppName, s.opts.Executable)
	if err := afero.WriteFile(s.opts.Fs, path, []byte(entry), 0644); err != nil {
		return fmt.Errorf("failed to write autostart entry: %w", err)
	}
	return nil
}

func (s *xdgShell) IsStartOnStartupActive() bool {
	data, err := afero.ReadFile(s.opts.Fs, desktopEntryPath(s.opts.ConfigDir, s.opts.AppID))
	if err != nil {
		return false
	}
	return desktopEntryEnabled(string(data))
}

func (s *xdgShell) EnsurePrivileges(args []string) (bool, error) {
	return false, ErrNotSupported
}

// SyncFolderAdded pins the folder in the GTK file chooser sidebar.
func (s *xdgShell) SyncFolderAdded(path, name string) error {
	return s.updateBookmarks(path, name, true)
}

func (s *xdgShell) SyncFolderRemoved(path string) error {
	return s.updateBookmarks(path, "", false)
}

func (s *xdgShell) updateBookmarks(path, name string, add bool) error {
	file := bookmarksPath(s.opts.ConfigDir)
	data, err := afero.ReadFile(s.opts.Fs, file)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read bookmarks: %w", err)
	}
	if err := s.opts.Fs.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create bookmarks directory: %w", err)
	}
	if err := afero.WriteFile(s.opts.Fs, file, []byte(withBookmark(string(data), path, name, add)), 0644); err != nil {
		return fmt.Errorf("failed to write bookmarks: %w", err)
	}
	return nil
}
