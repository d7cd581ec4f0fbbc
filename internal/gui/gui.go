// Package gui provides the fyne front end: the info window, the changelog
// window and the settings window.
package gui

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/driftsync/syncshell/internal/changelog"
	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/infopanel"
	"github.com/driftsync/syncshell/internal/logging"
	"github.com/driftsync/syncshell/internal/loop"
	"github.com/driftsync/syncshell/internal/platform"
	"github.com/driftsync/syncshell/internal/proxy"
	"github.com/driftsync/syncshell/internal/settings"
)

// guiLogger is the package-level logger for GUI mode.
var guiLogger = logging.NewNopLogger()

// Options wires the GUI to the rest of the shell.
type Options struct {
	Panel    *infopanel.Panel
	Loop     *loop.Loop
	Settings *settings.Model
	Checker  *proxy.ConnectivityChecker
	Notes    *changelog.Notes // optional
	Shell    platform.Shell
	Logger   *logging.Logger

	// App overrides the fyne app, for tests.
	App fyne.App
}

// UI owns the windows.
type UI struct {
	opts      Options
	app       fyne.App
	info      *InfoWindow
	settings  *SettingsWindow
	changelog *ChangelogWindow
}

// NewUI creates the windows without showing them.
func NewUI(opts Options) *UI {
	if opts.Logger != nil {
		guiLogger = opts.Logger
	}
	a := opts.App
	if a == nil {
		a = app.NewWithID(constants.AppID)
	}
	a.Settings().SetTheme(&shellTheme{})

	ui := &UI{opts: opts, app: a}
	ui.info = NewInfoWindow(a, opts.Panel, opts.Loop.Post)
	ui.info.Window().SetMaster()
	ui.info.Bind()
	ui.info.OnSettings = func() { ui.ShowSettings(settings.TabAccount) }
	ui.info.OnChangelog = ui.ShowChangelog
	opts.Panel.OnAddSync = func() {
		fyne.Do(func() { ui.ShowSettings(settings.TabSyncs) })
	}
	return ui
}

// ShowSettings opens the settings window on tab.
func (ui *UI) ShowSettings(tab settings.Tab) {
	if ui.opts.Settings == nil {
		return
	}
	if ui.settings == nil {
		ui.settings = NewSettingsWindow(ui.app, ui.opts.Settings, ui.opts.Checker)
		ui.settings.OnSaved = ui.applyPreferences
	}
	ui.settings.Show(tab)
}

// ShowChangelog opens the changelog window.
func (ui *UI) ShowChangelog() {
	if ui.opts.Notes == nil {
		return
	}
	if ui.changelog == nil {
		var links []changelog.Link
		if ui.opts.Settings != nil {
			links = changelog.Links(ui.opts.Settings.Saved().Links)
		}
		ui.changelog = NewChangelogWindow(ui.app, ui.opts.Notes, links, ui.opts.Shell, time.Now())
	}
	ui.changelog.Show()
}

func (ui *UI) applyPreferences(p *config.Preferences) {
	ui.opts.Loop.Post(func() {
		ui.opts.Panel.LanguageChanged()
	})
}

// Run shows the info window and blocks until it is closed. The UI loop runs
// for the lifetime of the window.
func (ui *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := ui.opts.Loop.Run(ctx); err != nil && ctx.Err() == nil {
			guiLogger.Error().Err(err).Msg("UI loop stopped")
		}
	}()
	ui.opts.Loop.Post(ui.opts.Panel.Start)

	ui.info.Window().SetOnClosed(func() {
		ui.opts.Loop.Post(ui.opts.Panel.Stop)
		cancel()
	})
	go func() {
		<-ctx.Done()
		fyne.Do(ui.app.Quit)
	}()

	if ui.shouldShowChangelog() {
		ui.ShowChangelog()
		ui.markChangelogSeen()
	}

	ui.info.Window().Resize(fyne.NewSize(400, 480))
	ui.info.Window().ShowAndRun()
	return nil
}

func (ui *UI) shouldShowChangelog() bool {
	if ui.opts.Notes == nil || ui.opts.Settings == nil {
		return false
	}
	return ui.opts.Settings.Saved().General.LastChangelogVersion != ui.opts.Notes.Version
}

func (ui *UI) markChangelogSeen() {
	m := ui.opts.Settings
	if err := m.Set("general.last_changelog_version", ui.opts.Notes.Version); err != nil {
		guiLogger.Warn().Err(err).Msg("failed to record changelog version")
		return
	}
	if err := m.Save(context.Background()); err != nil {
		guiLogger.Warn().Err(err).Msg("failed to save preferences")
	}
}
