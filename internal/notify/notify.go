// Package notify sends desktop notifications through github.com/gen2brain/beeep.
package notify

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/logging"
)

// AllTransfersCompletedMessage is the body of the all-finished notification.
const AllTransfersCompletedMessage = "All transfers have been completed"

// SendFunc delivers one notification. Tests replace it.
type SendFunc func(title, message, icon string) error

// Notifier handles desktop notifications.
type Notifier struct {
	logger  *logging.Logger
	send    SendFunc
	alert   SendFunc
	cfg     Config
	enabled bool
	mu      sync.RWMutex
}

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are sent at all.
	Enabled bool

	// ShowCompleted shows the "all transfers completed" notification.
	ShowCompleted bool

	// ShowFailed shows a notification for each failed transfer.
	ShowFailed bool

	ShowUpdates bool

	// Icon is an optional path to the notification icon.
	Icon string
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		ShowCompleted: true,
		ShowFailed:    true,
		ShowUpdates:   true,
	}
}

// NewNotifier creates a notifier backed by beeep. logger may be nil.
func NewNotifier(cfg *Config, logger *logging.Logger) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Notifier{
		logger:  logger,
		send:    beeepNotify,
		alert:   beeepAlert,
		cfg:     *cfg,
		enabled: cfg.Enabled,
	}
}

// WithSender replaces the delivery function for both notifications and alerts.
func (n *Notifier) WithSender(send SendFunc) *Notifier {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.send = send
	n.alert = send
	return n
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// AllTransfersCompleted is shown once both directions have drained.
func (n *Notifier) AllTransfersCompleted() {
	if !n.IsEnabled() || !n.cfg.ShowCompleted {
		return
	}
	if err := n.deliver(constants.AppName, AllTransfersCompletedMessage); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send transfers completed notification")
	}
}

// TransferFailed reports a single failed transfer.
func (n *Notifier) TransferFailed(name string, cause error) {
	if !n.IsEnabled() || !n.cfg.ShowFailed {
		return
	}

	message := fmt.Sprintf("Transfer failed: %s", truncate(name, 40))
	if cause != nil {
		message += "\n" + truncate(cause.Error(), 100)
	}

	if err := n.deliver(constants.AppName, message); err != nil {
		n.logger.Warn().Err(err).Str("file", name).Msg("Failed to send transfer failed notification")
	}
}

// UpdateAvailable announces a new application version.
func (n *Notifier) UpdateAvailable(version string) {
	if !n.IsEnabled() || !n.cfg.ShowUpdates {
		return
	}

	message := fmt.Sprintf("A new version of %s is available: %s", constants.AppName, version)
	if err := n.deliver(constants.AppName, message); err != nil {
		n.logger.Warn().Err(err).Str("version", version).Msg("Failed to send update notification")
	}
}

// SyncFolderAdded confirms a newly added sync.
func (n *Notifier) SyncFolderAdded(localPath string) {
	if !n.IsEnabled() {
		return
	}
	if err := n.deliver(constants.AppName, "Sync added: "+shortenPath(localPath)); err != nil {
		n.logger.Warn().Err(err).Str("path", localPath).Msg("Failed to send sync added notification")
	}
}

// Alert is for problems that need the user's attention, such as a blocked
// sync folder. It falls back to a normal notification.
func (n *Notifier) Alert(message string) {
	if !n.IsEnabled() {
		return
	}

	title := constants.AppName + " Alert"
	n.mu.RLock()
	alert := n.alert
	n.mu.RUnlock()

	if err := alert(title, message, n.cfg.Icon); err != nil {
		if err := n.deliver(title, message); err != nil {
			n.logger.Error().Err(err).Str("message", message).Msg("Failed to send alert notification")
		}
	}
}

// beeep takes the icon as a path or raw bytes.
func beeepNotify(title, message, icon string) error { return beeep.Notify(title, message, icon) }

func beeepAlert(title, message, icon string) error { return beeep.Alert(title, message, icon) }

func (n *Notifier) deliver(title, message string) error {
	n.mu.RLock()
	send := n.send
	n.mu.RUnlock()
	return send(title, message, n.cfg.Icon)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// shortenPath abbreviates a long path for display in notifications.
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	// Show ".../parent/file" when it fits
	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))
	short := filepath.Join("...", parentDir, file)

	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}
	return short
}
