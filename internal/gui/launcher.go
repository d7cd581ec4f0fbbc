package gui

import (
	"context"
	"errors"
	"os"
	"runtime"
)

// ErrNoDisplay is returned when no display server is available.
var ErrNoDisplay = errors.New("GUI mode requires a display: DISPLAY and WAYLAND_DISPLAY are not set")

// CheckDisplay fails on Linux when neither X11 nor Wayland is reachable.
func CheckDisplay() error {
	if runtime.GOOS != "linux" {
		return nil
	}
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return ErrNoDisplay
	}
	return nil
}

// Launch checks for a display, builds the windows and runs until the info
// window closes or ctx ends.
func Launch(ctx context.Context, opts Options) error {
	if err := CheckDisplay(); err != nil {
		return err
	}
	return NewUI(opts).Run(ctx)
}
