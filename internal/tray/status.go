package tray

import (
	"fmt"
	"strings"

	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/status"
)

// Tooltip renders the tray tooltip for state.
func Tooltip(appName, version string, state status.AggregateState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", appName, version)
	b.WriteString(StatusLine(state))

	for _, d := range models.Directions {
		ds := state.Dir(d)
		if !ds.Visible() {
			continue
		}
		fmt.Fprintf(&b, "\n%s %s", ds.Operation(), ds.Label())
		if !ds.Paused() && ds.RemainingSeconds() > 0 {
			fmt.Fprintf(&b, ", %s left", ds.RemainingTime())
		}
	}

	if state.BlockedMessage != "" {
		b.WriteString("\n" + state.BlockedMessage)
	}
	return b.String()
}

// StatusLine is the single-line status used for the disabled first menu row.
func StatusLine(state status.AggregateState) string {
	if state.Active == models.StateStarting {
		return "Starting..."
	}
	if state.Busy && state.Active == models.StateUpdated && state.AnyPending() {
		return "Transferring files"
	}
	return state.Text
}

// Icon picks the tray icon for state. animationIcon is the current frame
// while scanning.
func Icon(state status.AggregateState, animationIcon string) string {
	if state.Active == models.StateScanning && animationIcon != "" {
		return animationIcon
	}
	if state.Icon == "" {
		return status.IconUpdated
	}
	return state.Icon
}
