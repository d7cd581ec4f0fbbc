package constants

import (
	"time"
)

// Application identity
const (
	// AppName is the display name used in window titles, tray tooltips and notifications.
	AppName = "DriftSync"

	// AppID is the reverse-DNS identifier used by fyne preferences and the macOS LaunchAgent.
	AppID = "io.driftsync.shell"

	// ExecutableName is the CLI/GUI binary name.
	ExecutableName = "syncshell"
)

// Transfer display
const (
	// SpeedDisplayThreshold - minimum speed (bytes/sec) worth showing next to the
	// transfer counter. Slower samples are too noisy to display.
	SpeedDisplayThreshold = 20000

	// MaxRemainingHours - estimates above this are treated as unknown and shown
	// as the dashed placeholder.
	MaxRemainingHours = 99

	// RemainingTimePlaceholder is shown when no estimate is available.
	RemainingTimePlaceholder = "--:--:--"

	// RecentFileSlots - number of recently completed files kept for display.
	RecentFileSlots = 3
)

// Timers (all run on the UI loop)
const (
	// FinishedDebounceDelay - quiet period before "finished" notifications fire.
	// Absorbs rapid consecutive completions so the panel doesn't flicker.
	FinishedDebounceDelay = 5000 * time.Millisecond

	// ScanningAnimationInterval - frame interval for the scanning icon.
	ScanningAnimationInterval = 60 * time.Millisecond

	// ScanningAnimationFrames - number of frames in the scanning icon animation.
	ScanningAnimationFrames = 18

	// RecentFilesRedrawDelay - coalescing window for recent file list redraws.
	RecentFilesRedrawDelay = 200 * time.Millisecond

	// StatusPollInterval - how often the panel polls the engine for counters.
	StatusPollInterval = 250 * time.Millisecond

	// TrayRefreshInterval - tray tooltip refresh interval.
	TrayRefreshInterval = 1 * time.Second
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios
	EventBusMaxBuffer = 5000

	// LoopQueueSize - pending callbacks the UI loop accepts before Post blocks.
	LoopQueueSize = 256
)

// Local engine speed smoothing
const (
	// SpeedSmoothingAlpha - EMA weight given to a new speed sample.
	SpeedSmoothingAlpha = 0.25

	// MinSpeedSampleInterval - samples closer together than this are ignored.
	MinSpeedSampleInterval = 100 * time.Millisecond
)

// HTTP (proxy connectivity check)
const (
	HTTPDialTimeout         = 30 * time.Second
	HTTPDialKeepAlive       = 30 * time.Second
	HTTPIdleConnTimeout     = 90 * time.Second
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// ConnectivityCheckTimeout - overall budget for the proxy test in settings.
	ConnectivityCheckTimeout = 15 * time.Second

	// ConnectivityCheckRetries - retries for the proxy test before giving up.
	ConnectivityCheckRetries = 2
)

// Logging
const (
	// LogFileMaxSizeMB - rotate the log file after this many megabytes
	LogFileMaxSizeMB = 10

	// LogFileMaxBackups - number of rotated log files to keep
	LogFileMaxBackups = 5

	// LogFileMaxAgeDays - delete rotated logs older than this
	LogFileMaxAgeDays = 30
)
