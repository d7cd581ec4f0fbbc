// Package platform isolates the OS integration the shell needs behind the
// Shell interface. One implementation is compiled per OS; callers get it from
// New and never branch on runtime.GOOS themselves.
package platform

import (
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/driftsync/syncshell/internal/constants"
)

var (
	// ErrNotSupported is returned for capabilities the current OS lacks.
	ErrNotSupported = errors.New("not supported on this platform")

	// ErrElevationDenied means the user refused, or the privileged helper
	// did not confirm success.
	ErrElevationDenied = errors.New("administrator privileges were not granted")
)

// Shell is the OS integration surface used by the info panel, settings and CLI.
type Shell interface {
	// Name identifies the implementation ("darwin", "windows", "xdg").
	Name() string

	ShowInFolder(path string) error
	OpenURL(url string) error

	StartOnStartup(enable bool) error
	IsStartOnStartupActive() bool

	// EnsurePrivileges makes sure the process runs with the privileges it
	// needs. relaunch is true when a privileged copy was started and the
	// caller should exit.
	EnsurePrivileges(args []string) (relaunch bool, err error)

	SyncFolderAdded(path, name string) error
	SyncFolderRemoved(path string) error
}

// Runner executes external programs.
type Runner interface {
	// Output runs the command and returns its combined output.
	Output(name string, args ...string) ([]byte, error)
	// Start launches the command without waiting for it.
	Start(name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

func (execRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap in the background.
	go func() { _ = cmd.Wait() }()
	return nil
}

// Options configures a Shell. Zero values are filled from the environment.
type Options struct {
	AppName    string
	AppID      string
	Executable string // absolute path of the running binary
	HomeDir    string
	ConfigDir  string // XDG config dir on unix; defaults to HomeDir/.config
	Fs         afero.Fs
	Runner     Runner
	Logger     zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.AppName == "" {
		o.AppName = constants.AppName
	}
	if o.AppID == "" {
		o.AppID = constants.AppID
	}
	if o.Executable == "" {
		if exe, err := os.Executable(); err == nil {
			o.Executable = exe
		}
	}
	if o.HomeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			o.HomeDir = home
		}
	}
	if o.ConfigDir == "" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			o.ConfigDir = xdg
		} else {
			o.ConfigDir = filepath.Join(o.HomeDir, ".config")
		}
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Runner == nil {
		o.Runner = execRunner{}
	}
	return o
}

// New returns the Shell for the running OS.
func New(opts Options) Shell {
	return newShell(opts.withDefaults())
}

// Finder scripts

func revealScript(path string) string {
	return fmt.Sprintf("tell application \"Finder\" to reveal POSIX file \"%s\"", escapeAppleScript(path))
}

const activateFinderScript = "tell application \"Finder\" to activate"

// setuidScript makes binary owned by root with the setuid bit, echoing true
// when both steps succeed.
func setuidScript(binary string) string {
	q := shellQuote(binary)
	cmd := fmt.Sprintf("chown root %s && chmod 4755 %s && echo true", q, q)
	return fmt.Sprintf("do shell script \"%s\" with administrator privileges", escapeAppleScript(cmd))
}

// elevationSucceeded checks the privileged helper's reply.
func elevationSucceeded(response []byte) bool {
	return len(response) >= 4 && string(response[:4]) == "true"
}

func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// inheritedFD reports whether the last argument carries a descriptor handed
// down by the privileged relaunch. The argument is read like strtol: leading
// spaces, an optional sign, then digits; trailing junk is ignored.
func inheritedFD(args []string) (int, bool) {
	if len(args) == 0 {
		return -1, false
	}
	s := strings.TrimLeftFunc(args[len(args)-1], unicode.IsSpace)

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	var v int64
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		digits++
		v = v*10 + int64(r-'0')
		if v >= math.MaxInt32 {
			return -1, false
		}
	}
	if digits == 0 || neg || v <= 0 {
		return -1, false
	}
	return int(v), true
}

// hasSetuidRoot reports whether a file with the given mode bits and owner
// already runs as root.
func hasSetuidRoot(mode uint32, uid uint32) bool {
	const setuid = 0o4000
	return mode&setuid != 0 && uid == 0
}

// bundlePath returns the .app directory containing a macOS executable.
func bundlePath(executable string) string {
	// <bundle>.app/Contents/MacOS/<binary>
	return filepath.Dir(filepath.Dir(filepath.Dir(executable)))
}
