// DriftSync shell - info window, tray companion and CLI in one binary.
//
// With no arguments the info window opens when a display is available;
// otherwise the CLI help is shown. Everything else is a CLI subcommand.
package main

import (
	"os"
	"runtime"

	"github.com/driftsync/syncshell/internal/cli"
)

func main() {
	if len(os.Args) == 1 && hasDisplay() {
		os.Args = append(os.Args, "gui")
	}
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// hasDisplay reports whether a GUI can be shown. Only Linux can run headless.
func hasDisplay() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
