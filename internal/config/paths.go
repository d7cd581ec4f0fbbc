// Package config loads and saves the shell's preferences file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// PreferencesFileName is the base name of the preferences file.
const PreferencesFileName = "preferences.conf"

// DefaultPreferencesPath returns the default preferences file location.
//   - Windows: %APPDATA%\DriftSync\Shell\preferences.conf
//   - Unix: ~/.config/driftsync/preferences.conf
func DefaultPreferencesPath() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", errors.New("neither APPDATA nor USERPROFILE environment variable set")
			}
			appData = filepath.Join(userProfile, "AppData", "Roaming")
		}
		return filepath.Join(appData, "DriftSync", "Shell", PreferencesFileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "driftsync", PreferencesFileName), nil
}

// LogDirectory returns the log directory shared by the GUI, CLI and tray.
//   - Windows: %LOCALAPPDATA%\DriftSync\Shell\logs
//   - Unix: ~/.config/driftsync/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "driftsync-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "DriftSync", "Shell", "logs")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "driftsync-logs")
		}
		return filepath.Join(homeDir, ".config", "driftsync", "logs")
	}
	return filepath.Join(configDir, "driftsync", "logs")
}

// DefaultLogFile returns the log file used when --log-file is not given.
func DefaultLogFile(mode string) string {
	return filepath.Join(LogDirectory(), "syncshell-"+mode+".log")
}

// EnsureLogDirectory creates the log directory with owner-only permissions.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}
