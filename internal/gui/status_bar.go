package gui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// StatusLevel selects the icon of a StatusBar message.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusSuccess
	StatusWarning
	StatusError
	// StatusProgress shows a spinner instead of an icon.
	StatusProgress
)

// StatusBar is the one-line message strip at the bottom of the settings
// window (save results, proxy test progress).
type StatusBar struct {
	widget.BaseWidget

	mu      sync.RWMutex
	level   StatusLevel
	message string

	icon    *widget.Icon
	label   *widget.Label
	spinner *widget.Activity
}

// NewStatusBar creates an empty status bar.
func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.label = widget.NewLabel("")
	sb.label.TextStyle = fyne.TextStyle{Italic: true}
	sb.icon = widget.NewIcon(nil)
	sb.spinner = widget.NewActivity()
	sb.spinner.Hide()
	sb.ExtendBaseWidget(sb)
	return sb
}

// SetStatus updates the message. Safe to call from any goroutine.
func (sb *StatusBar) SetStatus(message string, level StatusLevel) {
	sb.mu.Lock()
	sb.level = level
	sb.message = message
	sb.mu.Unlock()

	fyne.Do(func() { sb.render(message, level) })
}

func (sb *StatusBar) render(message string, level StatusLevel) {
	sb.label.SetText(message)
	sb.spinner.Stop()
	sb.spinner.Hide()
	sb.icon.Show()

	switch level {
	case StatusSuccess:
		sb.icon.SetResource(theme.ConfirmIcon())
	case StatusWarning:
		sb.icon.SetResource(theme.WarningIcon())
	case StatusError:
		sb.icon.SetResource(theme.ErrorIcon())
	case StatusProgress:
		sb.icon.Hide()
		sb.spinner.Show()
		sb.spinner.Start()
	default:
		if message == "" {
			sb.icon.SetResource(nil)
		} else {
			sb.icon.SetResource(theme.InfoIcon())
		}
	}
}

func (sb *StatusBar) SetInfo(message string)     { sb.SetStatus(message, StatusInfo) }
func (sb *StatusBar) SetSuccess(message string)  { sb.SetStatus(message, StatusSuccess) }
func (sb *StatusBar) SetWarning(message string)  { sb.SetStatus(message, StatusWarning) }
func (sb *StatusBar) SetError(message string)    { sb.SetStatus(message, StatusError) }
func (sb *StatusBar) SetProgress(message string) { sb.SetStatus(message, StatusProgress) }

// Message returns the current message.
func (sb *StatusBar) Message() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.message
}

// Level returns the current level.
func (sb *StatusBar) Level() StatusLevel {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.level
}

// CreateRenderer implements fyne.Widget.
func (sb *StatusBar) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewHBox(sb.icon, sb.spinner, sb.label))
}
