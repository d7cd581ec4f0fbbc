// Package validation checks names entered by the user before they become
// folder names on disk or in the cloud drive.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxNameBytes is the longest name most filesystems accept.
const MaxNameBytes = 255

// ErrInvalidName is wrapped by every error returned from ValidateFolderName.
var ErrInvalidName = errors.New("invalid name")

// reservedChars cannot appear in file names on Windows.
const reservedChars = `<>:"|?*`

// ValidateFolderName validates a single folder name (not a path).
//
// Returns an error if the name:
//   - Is empty or only whitespace
//   - Contains path separators (/ or \)
//   - Is "." or ".."
//   - Contains null bytes or other control characters
//   - Contains characters Windows reserves
//   - Is longer than MaxNameBytes
func ValidateFolderName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	// Reject path separators (both Unix and Windows style)
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: name cannot contain path separators: %q", ErrInvalidName, name)
	}

	if name == "." || name == ".." {
		return fmt.Errorf("%w: name cannot be %q", ErrInvalidName, name)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: name contains a control character: %q", ErrInvalidName, name)
		}
	}

	if i := strings.IndexAny(name, reservedChars); i >= 0 {
		return fmt.Errorf("%w: name cannot contain %q: %q", ErrInvalidName, name[i], name)
	}

	if len(name) > MaxNameBytes {
		return fmt.Errorf("%w: name is longer than %d bytes", ErrInvalidName, MaxNameBytes)
	}
	return nil
}
