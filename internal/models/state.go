package models

// ActiveState is the discrete presentation state of the info panel.
// At most one of Paused, Waiting, Scanning, Updated holds at a time.
type ActiveState int

const (
	StateStarting ActiveState = iota
	StateUpdated
	StateScanning
	StateWaiting
	StatePaused
)

func (s ActiveState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateUpdated:
		return "updated"
	case StateScanning:
		return "scanning"
	case StateWaiting:
		return "waiting"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
