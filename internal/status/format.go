package status

import (
	"fmt"
	"strconv"

	"github.com/driftsync/syncshell/internal/constants"
)

const (
	kb = int64(1024)
	mb = 1024 * kb
	gb = 1024 * mb
	tb = 1024 * gb
)

// FormatSize renders a byte count with 1024-based units, truncated (not
// rounded) to two decimals: "512 bytes", "1.5 KB", "2 GB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	switch {
	case bytes >= tb:
		return truncated(bytes, tb) + " TB"
	case bytes >= gb:
		return truncated(bytes, gb) + " GB"
	case bytes >= mb:
		return truncated(bytes, mb) + " MB"
	case bytes >= kb:
		return truncated(bytes, kb) + " KB"
	}
	return strconv.FormatInt(bytes, 10) + " bytes"
}

func truncated(bytes, unit int64) string {
	// bytes/unit*100 without overflowing on multi-TB values
	hundredths := bytes/unit*100 + (bytes%unit)*100/unit
	return strconv.FormatFloat(float64(hundredths)/100, 'f', -1, 64)
}

// RemainingSeconds estimates the time left for remainingBytes at meanSpeed.
// Unknown or implausible (over MaxRemainingHours) estimates return 0.
func RemainingSeconds(remainingBytes, meanSpeed int64) int64 {
	if meanSpeed <= 0 {
		return 0
	}
	secs := remainingBytes / meanSpeed
	hours := secs / 3600
	if hours < 0 || hours > constants.MaxRemainingHours {
		return 0
	}
	return secs
}

// FormatRemaining renders seconds as HH:MM:SS, or the dashed placeholder for 0.
func FormatRemaining(secs int64) string {
	if secs <= 0 {
		return constants.RemainingTimePlaceholder
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// FormatSpeed renders a bytes/sec value as "1.5 MB/s".
func FormatSpeed(bytesPerSec int64) string {
	return FormatSize(bytesPerSec) + "/s"
}
