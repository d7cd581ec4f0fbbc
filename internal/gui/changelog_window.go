package gui

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/driftsync/syncshell/internal/changelog"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/platform"
)

// ChangelogWindow shows the release notes, the legal links and the copyright line.
type ChangelogWindow struct {
	window fyne.Window
	shell  platform.Shell

	version   *widget.Label
	notes     *widget.RichText
	copyright *widget.Label
	links     []*widget.Button
}

// NewChangelogWindow builds the window for notes. shell opens the links.
func NewChangelogWindow(app fyne.App, notes *changelog.Notes, links []changelog.Link, shell platform.Shell, now time.Time) *ChangelogWindow {
	c := &ChangelogWindow{
		window: app.NewWindow(constants.AppName + " - Changelog"),
		shell:  shell,
	}

	title := widget.NewLabelWithStyle(constants.AppName, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	c.version = widget.NewLabelWithStyle(notes.VersionLine(), fyne.TextAlignCenter, fyne.TextStyle{})
	header := widget.NewLabelWithStyle(changelog.Header, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	c.notes = widget.NewRichTextFromMarkdown(notes.Markdown)
	c.notes.Wrapping = fyne.TextWrapWord

	linkBox := container.NewHBox()
	for _, l := range links {
		url := l.URL
		btn := widget.NewButton(l.Title, func() {
			if c.shell == nil {
				return
			}
			if err := c.shell.OpenURL(url); err != nil {
				guiLogger.Warn().Err(err).Str("url", url).Msg("failed to open link")
			}
		})
		btn.Importance = widget.LowImportance
		c.links = append(c.links, btn)
		linkBox.Add(btn)
	}
	c.copyright = widget.NewLabelWithStyle(changelog.Copyright("", now), fyne.TextAlignCenter, fyne.TextStyle{Italic: true})

	c.window.SetContent(container.NewBorder(
		container.NewVBox(title, c.version, widget.NewSeparator(), header),
		container.NewVBox(widget.NewSeparator(), container.NewCenter(linkBox), c.copyright),
		nil, nil,
		container.NewVScroll(c.notes),
	))
	c.window.Resize(fyne.NewSize(520, 420))
	return c
}

// Show displays the window.
func (c *ChangelogWindow) Show() { c.window.Show() }

// Window returns the underlying fyne window.
func (c *ChangelogWindow) Window() fyne.Window { return c.window }
