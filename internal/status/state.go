package status

import (
	"fmt"

	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/models"
)

// Status icon assets.
const (
	IconPaused   = "tray_paused_large_ico.png"
	IconScanning = "tray_scanning_large_ico.png"
	IconUpdated  = "tray_updated_large_ico.png"
)

// ScanningFrame returns the asset for animation frame n (1-based).
func ScanningFrame(n int) string {
	return fmt.Sprintf("scanning_anime%d.png", n)
}

// Counts are the engine's pending and total transfer counts.
type Counts struct {
	PendingDownloads int
	PendingUploads   int
	TotalDownloads   int
	TotalUploads     int
}

// Pending returns the pending count for d.
func (c Counts) Pending(d models.Direction) int {
	if d == models.Upload {
		return c.PendingUploads
	}
	return c.PendingDownloads
}

// Total returns the total count for d.
func (c Counts) Total(d models.Direction) int {
	if d == models.Upload {
		return c.TotalUploads
	}
	return c.TotalDownloads
}

// Flags are the boolean inputs of one update cycle.
type Flags struct {
	Paused          bool   // user's global pause toggle
	Waiting         bool   // engine is waiting (blocked path or busy servers)
	Indexing        bool   // local scan in progress
	BlockedPath     string // path the engine is blocked on, if any
	ServersBusy     bool
	DownloadsPaused bool // per-direction pause preference
	UploadsPaused   bool
}

// DirectionState is the presentation state of one transfer direction.
type DirectionState struct {
	Direction      models.Direction
	Pending        int
	Total          int
	Current        int   // 1-based index of the transfer in progress
	Speed          int64 // current speed; negative means paused, no sample yet
	MeanSpeed      int64
	RemainingBytes int64
	TransferState  models.TransferState
	PausedPref     bool
	HasTransfer    bool // a transfer has been shown since the last reset
	FileName       string
	Tag            int
	CompletedBytes int64
	TotalBytes     int64
}

// Paused reports whether the direction should render as paused.
func (d DirectionState) Paused() bool {
	return d.TransferState == models.TransferPaused || d.PausedPref || d.Speed < 0
}

// RemainingSeconds is the time-left estimate for this direction.
func (d DirectionState) RemainingSeconds() int64 {
	return RemainingSeconds(d.RemainingBytes, d.MeanSpeed)
}

// RemainingTime renders RemainingSeconds as HH:MM:SS or --:--:--.
func (d DirectionState) RemainingTime() string {
	return FormatRemaining(d.RemainingSeconds())
}

// Label renders "N of M (speed/s)", "N of M" or "N of M (paused)".
func (d DirectionState) Label() string {
	switch {
	case d.Paused():
		return fmt.Sprintf("%d of %d (paused)", d.Current, d.Total)
	case d.Speed >= constants.SpeedDisplayThreshold:
		return fmt.Sprintf("%d of %d (%s)", d.Current, d.Total, FormatSpeed(d.Speed))
	default:
		return fmt.Sprintf("%d of %d", d.Current, d.Total)
	}
}

// Operation returns "Downloading" or "Uploading".
func (d DirectionState) Operation() string {
	if d.Direction == models.Upload {
		return "Uploading"
	}
	return "Downloading"
}

// Visible reports whether the direction has anything to show.
func (d DirectionState) Visible() bool {
	return d.Pending > 0
}

// AggregateState is the render-ready output of Aggregator.Update.
type AggregateState struct {
	Active         models.ActiveState
	Directions     [2]DirectionState
	Text           string // status headline, e.g. "DriftSync is up to date"
	Icon           string // static status icon; see Aggregator.AnimationIcon while scanning
	BlockedMessage string
	BlockedTooltip string // absolute blocked path
	Busy           bool   // show the transfers page instead of "up to date"
}

// Dir returns the state of direction d.
func (s AggregateState) Dir(d models.Direction) DirectionState {
	return s.Directions[d]
}

// Download is shorthand for Dir(models.Download).
func (s AggregateState) Download() DirectionState {
	return s.Directions[models.Download]
}

// Upload is shorthand for Dir(models.Upload).
func (s AggregateState) Upload() DirectionState {
	return s.Directions[models.Upload]
}

// AnyPending reports whether either direction has pending transfers.
func (s AggregateState) AnyPending() bool {
	return s.Download().Pending > 0 || s.Upload().Pending > 0
}
