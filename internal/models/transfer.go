package models

// Direction identifies which side of a transfer a snapshot or counter belongs to.
type Direction int

const (
	Download Direction = iota
	Upload
)

// Directions lists both transfer directions in display order (downloads first).
var Directions = [...]Direction{Download, Upload}

func (d Direction) String() string {
	switch d {
	case Download:
		return "download"
	case Upload:
		return "upload"
	default:
		return "unknown"
	}
}

// ParseDirection converts "download"/"upload" into a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "download", "downloads", "dl":
		return Download, true
	case "upload", "uploads", "ul":
		return Upload, true
	}
	return Download, false
}

// TransferState is the engine-reported state of the active transfer in a direction.
type TransferState int

const (
	TransferNone TransferState = iota
	TransferActive
	TransferPaused
)

func (s TransferState) String() string {
	switch s {
	case TransferActive:
		return "active"
	case TransferPaused:
		return "paused"
	default:
		return "none"
	}
}

// TransferSnapshot is one poll tick's view of the active transfer in a direction.
// Produced by the engine, immutable once handed over.
type TransferSnapshot struct {
	Tag            int // Engine-assigned transfer tag
	Direction      Direction
	FileName       string
	LocalPath      string
	RemoteHandle   uint64 // Node handle on the remote side
	CompletedBytes int64
	TotalBytes     int64
	MeanSpeed      int64 // bytes/sec averaged over the transfer
	State          TransferState
	SyncTransfer   bool // Started by a sync rather than by the user
}

// RemainingBytes returns the bytes still to move, never negative.
func (s TransferSnapshot) RemainingBytes() int64 {
	if s.TotalBytes <= s.CompletedBytes {
		return 0
	}
	return s.TotalBytes - s.CompletedBytes
}

// RecentFileEntry describes a file that finished transferring.
// Created on completion, never mutated.
type RecentFileEntry struct {
	DisplayName     string
	RemoteHandle    uint64
	LocalPath       string
	ContentKey      string
	TimestampMillis int64
}

// IsZero reports whether the entry is an empty ring slot.
func (e RecentFileEntry) IsZero() bool {
	return e.DisplayName == "" && e.LocalPath == "" && e.RemoteHandle == 0
}
