package settings

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/validation"
)

// Validation errors.
var (
	ErrInvalidBandwidth    = errors.New("bandwidth limit must be -1 (auto), 0 (unlimited) or a positive KB/s value")
	ErrInvalidProxyMode    = errors.New("proxy mode must be none, auto or manual")
	ErrInvalidProxyType    = errors.New("proxy type must be http, socks5h or ntlm")
	ErrProxyHostRequired   = errors.New("manual proxy requires a host")
	ErrInvalidProxyPort    = errors.New("proxy port must be between 1 and 65535")
	ErrProxyUserRequired   = errors.New("proxy authentication requires a username")
	ErrInvalidExcludedName = errors.New("invalid excluded name pattern")
	ErrEmptySyncPath       = errors.New("sync folder needs a local path")
	ErrSyncAtRoot          = errors.New("the filesystem root cannot be synced")
	ErrDuplicateSync       = errors.New("sync folder already configured")
	ErrNestedSync          = errors.New("sync folders cannot be nested")
	ErrUnknownLanguage     = errors.New("unsupported language")
)

// Validate checks every section of prefs and joins all problems found.
func Validate(prefs *config.Preferences) error {
	var errs []error

	if prefs.General.Language != "" && LanguageName(prefs.General.Language) == "" {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownLanguage, prefs.General.Language))
	}
	if err := validateBandwidth("upload", prefs.Bandwidth.UploadLimitKBs); err != nil {
		errs = append(errs, err)
	}
	if err := validateBandwidth("download", prefs.Bandwidth.DownloadLimitKBs); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateProxy(prefs.Proxy); err != nil {
		errs = append(errs, err)
	}
	for _, name := range prefs.Advanced.ExcludedNames {
		if err := ValidateExcludedName(name); err != nil {
			errs = append(errs, err)
		}
	}
	if err := ValidateSyncs(prefs.Syncs); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateBandwidth(direction string, kbs int) error {
	if kbs < config.BandwidthAuto {
		return fmt.Errorf("%s: %w", direction, ErrInvalidBandwidth)
	}
	// Auto limiting only exists for uploads.
	if direction == "download" && kbs == config.BandwidthAuto {
		return fmt.Errorf("%s: %w", direction, ErrInvalidBandwidth)
	}
	return nil
}

// ValidateProxy checks the proxy section.
func ValidateProxy(p config.ProxyPrefs) error {
	switch p.Mode {
	case config.ProxyModeNone, config.ProxyModeAuto:
		return nil
	case config.ProxyModeManual:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProxyMode, p.Mode)
	}

	var errs []error
	switch p.Type {
	case config.ProxyTypeHTTP, config.ProxyTypeSOCKS5H, config.ProxyTypeNTLM:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidProxyType, p.Type))
	}
	if strings.TrimSpace(p.Host) == "" {
		errs = append(errs, ErrProxyHostRequired)
	}
	if p.Port < 1 || p.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidProxyPort, p.Port))
	}
	if p.RequiresAuth && strings.TrimSpace(p.Username) == "" {
		errs = append(errs, ErrProxyUserRequired)
	}
	return errors.Join(errs...)
}

// ValidateExcludedName checks that name is a usable glob pattern.
func ValidateExcludedName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: %q", ErrInvalidExcludedName, name)
	}
	if !doublestar.ValidatePattern(name) {
		return fmt.Errorf("%w: %q", ErrInvalidExcludedName, name)
	}
	return nil
}

// IsExcluded reports whether a file name matches any excluded pattern.
// Matching is case-insensitive as on the default macOS and Windows filesystems.
func IsExcluded(patterns []string, name string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if ok, err := doublestar.Match(strings.ToLower(p), lower); err == nil && ok {
			return true
		}
	}
	return false
}

// VerifySyncedFolderLimits rejects paths that cannot be synced, currently
// only the filesystem root.
func VerifySyncedFolderLimits(path string) error {
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, `\\?\`)
	}
	clean := filepath.Clean(path)
	if clean == string(filepath.Separator) || clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return fmt.Errorf("%w: %s", ErrSyncAtRoot, path)
	}
	return nil
}

// ValidateSyncs checks each folder and that no local path or name repeats
// or nests inside another.
func ValidateSyncs(syncs []config.SyncFolder) error {
	var errs []error
	names := make(map[string]bool)
	paths := make([]string, 0, len(syncs))

	for _, s := range syncs {
		if strings.TrimSpace(s.LocalPath) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrEmptySyncPath, s.Name))
			continue
		}
		if err := VerifySyncedFolderLimits(s.LocalPath); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := validation.ValidateFolderName(s.Name); err != nil {
			errs = append(errs, err)
		}
		if names[s.Name] {
			errs = append(errs, fmt.Errorf("%w: name %s", ErrDuplicateSync, s.Name))
		}
		names[s.Name] = true

		clean := filepath.Clean(s.LocalPath)
		for _, other := range paths {
			switch {
			case samePath(clean, other):
				errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateSync, s.LocalPath))
			case within(clean, other) || within(other, clean):
				errs = append(errs, fmt.Errorf("%w: %s and %s", ErrNestedSync, other, clean))
			}
		}
		paths = append(paths, clean)
	}
	return errors.Join(errs...)
}

func samePath(a, b string) bool {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// within reports whether child lies strictly below parent.
func within(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
