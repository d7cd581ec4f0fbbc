//go:build windows

package platform

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

type windowsShell struct {
	opts Options
}

func newShell(opts Options) Shell {
	return &windowsShell{opts: opts}
}

func (s *windowsShell) Name() string { return "windows" }

func (s *windowsShell) ShowInFolder(path string) error {
	return s.opts.Runner.Start("explorer", "/select,"+filepath.Clean(path))
}

// OpenURL hands url to the default handler through ShellExecute.
func (s *windowsShell) OpenURL(url string) error {
	verb, err := windows.UTF16PtrFromString("open")
	if err != nil {
		return fmt.Errorf("failed to convert verb: %w", err)
	}
	file, err := windows.UTF16PtrFromString(url)
	if err != nil {
		return fmt.Errorf("failed to convert url: %w", err)
	}
	if err := windows.ShellExecute(0, verb, file, nil, nil, windows.SW_SHOWNORMAL); err != nil {
		return fmt.Errorf("ShellExecute failed: %w", err)
	}
	return nil
}

// StartOnStartup adds or removes the HKCU Run value.
func (s *windowsShell) StartOnStartup(enable bool) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE|registry.QUERY_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open Run key: %w", err)
	}
	defer k.Close()

	if !enable {
		if err := k.DeleteValue(s.opts.AppName); err != nil && !errors.Is(err, registry.ErrNotExist) {
			return fmt.Errorf("failed to delete Run value: %w", err)
		}
		return nil
	}
	if err := k.SetStringValue(s.opts.AppName, runKeyValue(s.opts.Executable)); err != nil {
		return fmt.Errorf("failed to set Run value: %w", err)
	}
	return nil
}

func (s *windowsShell) IsStartOnStartupActive() bool {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()

	value, _, err := k.GetStringValue(s.opts.AppName)
	if err != nil {
		return false
	}
	return value == runKeyValue(s.opts.Executable)
}

func (s *windowsShell) EnsurePrivileges(args []string) (bool, error) {
	return false, ErrNotSupported
}

func (s *windowsShell) SyncFolderAdded(path, name string) error {
	s.opts.Logger.Debug().Str("path", path).Str("name", name).Msg("Sync folder added")
	return nil
}

func (s *windowsShell) SyncFolderRemoved(path string) error {
	s.opts.Logger.Debug().Str("path", path).Msg("Sync folder removed")
	return nil
}
