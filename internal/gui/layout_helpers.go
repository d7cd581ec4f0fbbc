package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// NewPrimaryButton creates a HighImportance button; fyne only draws the
// foreground-on-primary colour for that importance.
func NewPrimaryButton(label string, tapped func()) *widget.Button {
	btn := widget.NewButton(label, tapped)
	btn.Importance = widget.HighImportance
	return btn
}

// newIconButton is a low-importance button showing only an icon.
func newIconButton(icon fyne.Resource, tapped func()) *widget.Button {
	btn := widget.NewButtonWithIcon("", icon, tapped)
	btn.Importance = widget.LowImportance
	return btn
}

// menuFromItems converts menu rows into a fyne menu. activate runs on the
// fyne goroutine when a row is picked.
func menuFromItems(items []menuRow, activate func(int)) *fyne.Menu {
	fitems := make([]*fyne.MenuItem, 0, len(items))
	for i, it := range items {
		if it.separator {
			fitems = append(fitems, fyne.NewMenuItemSeparator())
			continue
		}
		mi := fyne.NewMenuItem(it.title, func() { activate(i) })
		mi.Icon = it.icon
		fitems = append(fitems, mi)
	}
	return fyne.NewMenu("", fitems...)
}

type menuRow struct {
	title     string
	icon      fyne.Resource
	separator bool
}
