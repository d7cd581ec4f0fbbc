package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"fyne.io/systray"
	"github.com/rs/zerolog"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/session"
	"github.com/driftsync/syncshell/internal/status"
	"github.com/driftsync/syncshell/internal/tray"
	"github.com/driftsync/syncshell/internal/version"
)

// Status refresh interval. Matches the scanning animation frame rate.
const refreshInterval = constants.StatusPollInterval

// trayApp manages the system tray application state.
type trayApp struct {
	s       *session.Session
	logger  zerolog.Logger
	cfgFile string
	mu      sync.Mutex

	lastIcon    string
	lastTooltip string
	lastError   string
	paused      bool

	// Menu items (for dynamic updates)
	mStatus   *systray.MenuItem
	mOpenGUI  *systray.MenuItem
	mSyncs    *systray.MenuItem
	mPause    *systray.MenuItem
	mViewLogs *systray.MenuItem
	mQuit     *systray.MenuItem

	syncItems []*syncItem
	syncsKey  string

	// Control channels
	done chan struct{}
}

// syncItem is one entry of the syncs submenu and the menu item it acts on.
type syncItem struct {
	mi   *systray.MenuItem
	item tray.MenuItem
	stop chan struct{}
}

func newTrayApp(s *session.Session, logger zerolog.Logger, cfgFile string) *trayApp {
	a := &trayApp{s: s, logger: logger, cfgFile: cfgFile, done: make(chan struct{})}
	s.Loop.Post(func() {
		s.Panel.OnAddSync = a.openGUI
	})
	return a
}

func (a *trayApp) onReady() {
	systray.SetIcon(tray.Bitmap(status.IconUpdated))
	if runtime.GOOS != "darwin" {
		systray.SetTitle(constants.AppName)
	}
	systray.SetTooltip(constants.AppName + " - Starting...")

	a.mStatus = systray.AddMenuItem("Starting...", "Sync status")
	a.mStatus.Disable()

	systray.AddSeparator()

	a.mOpenGUI = systray.AddMenuItem("Open "+constants.AppName, "Open the info window")
	a.mSyncs = systray.AddMenuItem("Syncs", "Open a synced folder")
	a.mPause = systray.AddMenuItem("Pause transfers", "Pause or resume all transfers")

	systray.AddSeparator()

	a.mViewLogs = systray.AddMenuItem("View Logs", "Open log files location")

	systray.AddSeparator()

	a.mQuit = systray.AddMenuItem("Quit", "Exit the tray companion")

	a.rebuildSyncs()

	go a.refreshLoop()
	go a.handleMenuClicks()
}

func (a *trayApp) onExit() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

// refreshLoop keeps the icon, tooltip and menu in step with the panel.
func (a *trayApp) refreshLoop() {
	a.refreshStatus()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.refreshStatus()
		case <-a.done:
			return
		}
	}
}

// refreshStatus reads the panel state on the UI loop and redraws the tray.
func (a *trayApp) refreshStatus() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var (
		state  status.AggregateState
		anim   string
		paused bool
	)
	err := a.s.Loop.Call(ctx, func() {
		state = a.s.Panel.State()
		anim = a.s.Panel.AnimationIcon()
		paused = a.s.Panel.Paused()
	})
	if err != nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = paused

	if icon := tray.Icon(state, anim); icon != a.lastIcon {
		systray.SetIcon(tray.Bitmap(icon))
		a.lastIcon = icon
	}
	tooltip := tray.Tooltip(constants.AppName, version.Version, state)
	if a.lastError != "" {
		tooltip += "\nLast Error: " + truncate(a.lastError, 50)
	}
	if tooltip != a.lastTooltip {
		systray.SetTooltip(tooltip)
		a.lastTooltip = tooltip
	}
	a.mStatus.SetTitle(tray.StatusLine(state))
	if paused {
		a.mPause.SetTitle("Resume transfers")
	} else {
		a.mPause.SetTitle("Pause transfers")
	}

	a.rebuildSyncsLocked()
}

func (a *trayApp) rebuildSyncs() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rebuildSyncsLocked()
}

// rebuildSyncsLocked replaces the syncs submenu when the folders changed.
// Must be called with a.mu held.
func (a *trayApp) rebuildSyncsLocked() {
	items := tray.SyncsMenu(a.s.Syncs())
	key := fmt.Sprint(items)
	if key == a.syncsKey {
		return
	}
	a.syncsKey = key

	for _, si := range a.syncItems {
		close(si.stop)
		si.mi.Hide()
	}
	a.syncItems = nil

	for _, item := range items {
		if item.IsSeparator() {
			continue
		}
		si := &syncItem{
			mi:   a.mSyncs.AddSubMenuItem(item.Title, item.Action.Path),
			item: item,
			stop: make(chan struct{}),
		}
		a.syncItems = append(a.syncItems, si)
		go a.handleSyncClicks(si)
	}
}

func (a *trayApp) handleSyncClicks(si *syncItem) {
	for {
		select {
		case <-si.mi.ClickedCh:
			item := si.item
			a.onLoop("open folder", func() error { return a.s.Panel.Activate(item) })
		case <-si.stop:
			return
		case <-a.done:
			return
		}
	}
}

// handleMenuClicks processes menu item clicks.
func (a *trayApp) handleMenuClicks() {
	for {
		select {
		case <-a.mOpenGUI.ClickedCh:
			a.openGUI()

		case <-a.mPause.ClickedCh:
			a.onLoop("pause", a.s.Panel.TogglePause)
			a.refreshStatus()

		case <-a.mViewLogs.ClickedCh:
			a.viewLogs()

		case <-a.mQuit.ClickedCh:
			systray.Quit()
			return

		case <-a.done:
			return
		}
	}
}

// onLoop runs fn on the UI loop and records its error.
func (a *trayApp) onLoop(what string, fn func() error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var err error
	if callErr := a.s.Loop.Call(ctx, func() { err = fn() }); callErr != nil {
		err = callErr
	}
	if err != nil {
		a.setError(fmt.Sprintf("%s failed: %v", what, err))
	}
}

func (a *trayApp) setError(msg string) {
	a.logger.Warn().Msg(msg)
	a.mu.Lock()
	a.lastError = msg
	a.mu.Unlock()
}

// openGUI launches the info window as a separate process.
func (a *trayApp) openGUI() {
	exePath, err := os.Executable()
	if err != nil {
		a.setError(fmt.Sprintf("Failed to find executable path: %v", err))
		return
	}

	name := constants.ExecutableName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	guiPath := filepath.Join(filepath.Dir(exePath), name)
	if _, err := os.Stat(guiPath); os.IsNotExist(err) {
		// Might be in PATH
		guiPath = constants.ExecutableName
	}

	args := []string{"gui"}
	if a.cfgFile != "" {
		args = append(args, "--config", a.cfgFile)
	}
	cmd := exec.Command(guiPath, args...)
	if err := cmd.Start(); err != nil {
		a.setError(fmt.Sprintf("Failed to launch GUI: %v", err))
		return
	}
	go func() { _ = cmd.Wait() }()
}

// viewLogs opens the logs directory in the file manager.
func (a *trayApp) viewLogs() {
	logsDir := config.LogDirectory()
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		a.setError(fmt.Sprintf("Failed to create logs directory: %v", err))
		return
	}
	if err := a.s.Shell.ShowInFolder(logsDir); err != nil {
		a.setError(fmt.Sprintf("Failed to open logs directory: %v", err))
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
