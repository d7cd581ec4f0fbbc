package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// shellTheme is the default theme with the brand colours and a compact text size.
type shellTheme struct{}

var (
	brandRed   = color.NRGBA{R: 0xD9, G: 0x00, B: 0x07, A: 0xFF}
	brandGreen = color.NRGBA{R: 0x13, G: 0xE0, B: 0x3C, A: 0xFF}
	brandAmber = color.NRGBA{R: 0xF7, G: 0xA3, B: 0x08, A: 0xFF}
)

func (t *shellTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameButton:
		return brandRed
	case theme.ColorNameSuccess:
		return brandGreen
	case theme.ColorNameWarning:
		return brandAmber
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *shellTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *shellTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *shellTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 12
	case theme.SizeNameHeadingText:
		return 16
	default:
		return theme.DefaultTheme().Size(name)
	}
}
