// Package engine defines the port through which the shell talks to the sync
// and transfer engine. The shell only reads the engine's counters and
// forwards user intents; it never schedules transfers itself.
package engine

import (
	"errors"
	"fmt"

	"github.com/driftsync/syncshell/internal/models"
)

var (
	// ErrUnknownTransfer is returned when a tag does not match a live transfer.
	ErrUnknownTransfer = errors.New("unknown transfer tag")

	// ErrCancelled is the finish error of a transfer the user cancelled.
	ErrCancelled = errors.New("transfer cancelled")
)

// Engine is the black-box sync/transfer engine.
type Engine interface {
	PendingTransfers(d models.Direction) int
	TotalTransfers(d models.Direction) int
	// CurrentSpeed returns bytes/sec across all transfers in d.
	CurrentSpeed(d models.Direction) int64

	// BlockedPath returns the local path the engine is blocked on, or "".
	BlockedPath() string
	ServersBusy() bool
	Scanning() bool
	Waiting() bool

	AreTransfersPaused(d models.Direction) bool
	PauseTransfers(pause bool, d models.Direction) error
	PauseTransfer(tag int, pause bool) error
	CancelTransfer(tag int) error
	CancelTransfers(d models.Direction) error

	// ResetTotals zeroes the total counter of d once it has drained.
	ResetTotals(d models.Direction)
}

// IntentKind enumerates user actions forwarded to the engine.
type IntentKind int

const (
	IntentPauseAll IntentKind = iota
	IntentResumeAll
	IntentPauseDirection
	IntentResumeDirection
	IntentToggleDirection
	IntentPauseTransfer
	IntentResumeTransfer
	IntentCancelTransfer
	IntentCancelDirection
)

var intentNames = map[IntentKind]string{
	IntentPauseAll:        "pause-all",
	IntentResumeAll:       "resume-all",
	IntentPauseDirection:  "pause-direction",
	IntentResumeDirection: "resume-direction",
	IntentToggleDirection: "toggle-direction",
	IntentPauseTransfer:   "pause-transfer",
	IntentResumeTransfer:  "resume-transfer",
	IntentCancelTransfer:  "cancel-transfer",
	IntentCancelDirection: "cancel-direction",
}

func (k IntentKind) String() string {
	if s, ok := intentNames[k]; ok {
		return s
	}
	return fmt.Sprintf("intent(%d)", int(k))
}

// Intent is a user action. Direction is used by the per-direction kinds and
// Tag by the per-transfer kinds.
type Intent struct {
	Kind      IntentKind
	Direction models.Direction
	Tag       int
}

func (i Intent) String() string {
	switch i.Kind {
	case IntentPauseTransfer, IntentResumeTransfer, IntentCancelTransfer:
		return fmt.Sprintf("%s tag=%d", i.Kind, i.Tag)
	case IntentPauseAll, IntentResumeAll:
		return i.Kind.String()
	}
	return fmt.Sprintf("%s %s", i.Kind, i.Direction)
}

// Forward hands an intent to the engine's pause/cancel API unchanged.
func Forward(e Engine, in Intent) error {
	switch in.Kind {
	case IntentPauseAll, IntentResumeAll:
		pause := in.Kind == IntentPauseAll
		var errs []error
		for _, d := range models.Directions {
			if err := e.PauseTransfers(pause, d); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	case IntentPauseDirection:
		return e.PauseTransfers(true, in.Direction)
	case IntentResumeDirection:
		return e.PauseTransfers(false, in.Direction)
	case IntentToggleDirection:
		return e.PauseTransfers(!e.AreTransfersPaused(in.Direction), in.Direction)
	case IntentPauseTransfer:
		return e.PauseTransfer(in.Tag, true)
	case IntentResumeTransfer:
		return e.PauseTransfer(in.Tag, false)
	case IntentCancelTransfer:
		return e.CancelTransfer(in.Tag)
	case IntentCancelDirection:
		return e.CancelTransfers(in.Direction)
	}
	return fmt.Errorf("unsupported intent %s", in.Kind)
}
