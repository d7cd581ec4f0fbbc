//go:build darwin

package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

type darwinShell struct {
	opts Options
}

func newShell(opts Options) Shell {
	return &darwinShell{opts: opts}
}

func (s *darwinShell) Name() string { return "darwin" }

// ShowInFolder reveals path in Finder and brings Finder to the front.
func (s *darwinShell) ShowInFolder(path string) error {
	if err := s.opts.Runner.Start("osascript", "-e", revealScript(path)); err != nil {
		return fmt.Errorf("failed to reveal %s: %w", path, err)
	}
	if err := s.opts.Runner.Start("osascript", "-e", activateFinderScript); err != nil {
		s.opts.Logger.Warn().Err(err).Msg("Failed to activate Finder")
	}
	return nil
}

func (s *darwinShell) OpenURL(url string) error {
	return s.opts.Runner.Start("open", url)
}

// StartOnStartup writes or removes a per-user LaunchAgent.
func (s *darwinShell) StartOnStartup(enable bool) error {
	path := launchAgentPath(s.opts.HomeDir, s.opts.AppID)
	if !enable {
		if err := s.opts.Fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove launch agent: %w", err)
		}
		return nil
	}

	data, err := encodeLaunchAgent(s.opts.AppID, s.opts.Executable)
	if err != nil {
		return err
	}
	if err := s.opts.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create LaunchAgents directory: %w", err)
	}
	if err := afero.WriteFile(s.opts.Fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write launch agent: %w", err)
	}
	return nil
}

func (s *darwinShell) IsStartOnStartupActive() bool {
	data, err := afero.ReadFile(s.opts.Fs, launchAgentPath(s.opts.HomeDir, s.opts.AppID))
	if err != nil {
		return false
	}
	agent, err := decodeLaunchAgent(data)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Msg("Ignoring unreadable launch agent")
		return false
	}
	return agent.RunAtLoad && len(agent.ProgramArguments) > 0 && agent.ProgramArguments[0] == s.opts.Executable
}

// EnsurePrivileges sets the setuid bit on the executable through an
// administrator prompt and relaunches the bundle. A descriptor inherited in
// the last argument means this process is already the relaunched copy.
func (s *darwinShell) EnsurePrivileges(args []string) (bool, error) {
	if _, ok := inheritedFD(args); ok {
		return false, nil
	}

	var st unix.Stat_t
	if err := unix.Stat(s.opts.Executable, &st); err == nil && hasSetuidRoot(uint32(st.Mode), st.Uid) {
		return false, nil
	}

	out, err := s.opts.Runner.Output("osascript", "-e", setuidScript(s.opts.Executable))
	if err != nil {
		s.opts.Logger.Warn().Err(err).Str("output", string(out)).Msg("Privilege prompt failed")
		return false, ErrElevationDenied
	}
	if !elevationSucceeded(out) {
		return false, ErrElevationDenied
	}

	if err := s.opts.Runner.Start("open", "-n", bundlePath(s.opts.Executable)); err != nil {
		return false, fmt.Errorf("failed to relaunch: %w", err)
	}
	return true, nil
}

// Finder sidebar items need LSSharedFileList, which has no command line
// front end. The folders still work; they just aren't pinned.
func (s *darwinShell) SyncFolderAdded(path, name string) error {
	s.opts.Logger.Debug().Str("path", path).Str("name", name).Msg("Sync folder added")
	return nil
}

func (s *darwinShell) SyncFolderRemoved(path string) error {
	s.opts.Logger.Debug().Str("path", path).Msg("Sync folder removed")
	return nil
}
