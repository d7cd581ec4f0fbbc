package gui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/pathutil"
	"github.com/driftsync/syncshell/internal/proxy"
	"github.com/driftsync/syncshell/internal/settings"
)

const (
	limitNone   = "Don't limit"
	limitAuto   = "Limit automatically"
	limitCustom = "Limit to (KB/s)"

	proxyNone   = "No proxy"
	proxyAuto   = "Auto-detect"
	proxyManual = "Manual"
)

var proxyModeLabels = map[string]string{
	config.ProxyModeNone:   proxyNone,
	config.ProxyModeAuto:   proxyAuto,
	config.ProxyModeManual: proxyManual,
}

// SettingsWindow edits a settings.Model. All model access happens on the
// fyne goroutine except Save, which runs with the form disabled.
type SettingsWindow struct {
	window  fyne.Window
	model   *settings.Model
	checker *proxy.ConnectivityChecker
	status  *StatusBar
	tabs    *container.AppTabs

	language      *widget.Select
	startup       *widget.Check
	notifications *widget.Check

	syncList *fyne.Container

	uploadMode    *widget.RadioGroup
	uploadLimit   *widget.Entry
	downloadMode  *widget.RadioGroup
	downloadLimit *widget.Entry

	proxyMode *widget.RadioGroup
	proxyType *widget.Select
	proxyHost *widget.Entry
	proxyPort *widget.Entry
	proxyAuth *widget.Check
	proxyUser *widget.Entry
	proxyPass *widget.Entry
	noProxy   *widget.Entry

	excluded    *fyne.Container
	newExcluded *widget.Entry
	debugLog    *widget.Check
	logToFile   *widget.Check

	save *widget.Button
	// OnSaved runs on the fyne goroutine after a successful save.
	OnSaved func(*config.Preferences)
}

// NewSettingsWindow builds the window. checker may be nil to skip the proxy test button.
func NewSettingsWindow(app fyne.App, model *settings.Model, checker *proxy.ConnectivityChecker) *SettingsWindow {
	s := &SettingsWindow{
		window:  app.NewWindow(constants.AppName + " - Settings"),
		model:   model,
		checker: checker,
		status:  NewStatusBar(),
	}

	s.tabs = container.NewAppTabs(
		container.NewTabItemWithIcon(settings.TabAccount.String(), theme.AccountIcon(), s.buildAccount()),
		container.NewTabItemWithIcon(settings.TabSyncs.String(), theme.FolderIcon(), s.buildSyncs()),
		container.NewTabItemWithIcon(settings.TabBandwidth.String(), theme.UploadIcon(), s.buildBandwidth()),
		container.NewTabItemWithIcon(settings.TabProxy.String(), theme.ComputerIcon(), s.buildProxy()),
		container.NewTabItemWithIcon(settings.TabAdvanced.String(), theme.SettingsIcon(), s.buildAdvanced()),
	)

	cancel := widget.NewButton("Cancel", func() {
		s.model.Revert()
		s.load()
		s.window.Hide()
	})
	s.save = NewPrimaryButton("Save", s.saveAsync)
	buttons := container.NewHBox(cancel, s.save)

	s.window.SetContent(container.NewBorder(nil,
		container.NewBorder(nil, nil, nil, buttons, s.status),
		nil, nil, s.tabs))
	s.window.Resize(fyne.NewSize(560, 440))
	s.load()
	return s
}

// Show displays the window on tab.
func (s *SettingsWindow) Show(tab settings.Tab) {
	s.tabs.SelectIndex(int(tab))
	s.window.Show()
}

// Window returns the underlying fyne window.
func (s *SettingsWindow) Window() fyne.Window { return s.window }

func (s *SettingsWindow) buildAccount() fyne.CanvasObject {
	names := make([]string, 0)
	for _, l := range settings.Languages() {
		names = append(names, l.Name)
	}
	s.language = widget.NewSelect(names, func(name string) {
		for _, l := range settings.Languages() {
			if l.Name == name {
				s.report(s.model.SetLanguage(l.Code))
				return
			}
		}
	})
	s.startup = widget.NewCheck("Start on startup", s.model.SetStartOnStartup)
	s.notifications = widget.NewCheck("Show notifications", s.model.SetNotifications)

	email := widget.NewLabel(s.model.Preferences().General.AccountEmail)
	return widget.NewForm(
		widget.NewFormItem("Account", email),
		widget.NewFormItem("Language", s.language),
		widget.NewFormItem("", s.startup),
		widget.NewFormItem("", s.notifications),
	)
}

func (s *SettingsWindow) buildSyncs() fyne.CanvasObject {
	s.syncList = container.NewVBox()
	add := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			local, err := pathutil.ResolveAbsolutePath(uri.Path())
			if err != nil {
				s.status.SetError(err.Error())
				return
			}
			if err := s.model.AddSync("", local, ""); err != nil {
				s.status.SetError(err.Error())
				return
			}
			s.renderSyncs()
		}, s.window)
	})
	return container.NewBorder(nil, container.NewHBox(add), nil, nil, container.NewVScroll(s.syncList))
}

func (s *SettingsWindow) renderSyncs() {
	s.syncList.RemoveAll()
	for _, f := range s.model.Preferences().Syncs {
		name := f.Name
		active := widget.NewCheck(name, func(on bool) {
			s.report(s.model.SetSyncActive(name, on))
		})
		active.SetChecked(f.Active)
		remove := newIconButton(theme.DeleteIcon(), func() {
			s.report(s.model.RemoveSync(name))
			s.renderSyncs()
		})
		path := widget.NewLabel(f.LocalPath + "  →  " + f.RemotePath)
		path.Truncation = fyne.TextTruncateEllipsis
		s.syncList.Add(container.NewBorder(nil, nil, active, remove, path))
	}
}

func (s *SettingsWindow) buildBandwidth() fyne.CanvasObject {
	s.uploadLimit = widget.NewEntry()
	s.uploadLimit.OnChanged = func(string) { s.applyUpload() }
	s.uploadMode = widget.NewRadioGroup([]string{limitNone, limitAuto, limitCustom}, func(string) { s.applyUpload() })

	s.downloadLimit = widget.NewEntry()
	s.downloadLimit.OnChanged = func(string) { s.applyDownload() }
	s.downloadMode = widget.NewRadioGroup([]string{limitNone, limitCustom}, func(string) { s.applyDownload() })

	return widget.NewForm(
		widget.NewFormItem("Upload rate", s.uploadMode),
		widget.NewFormItem("", s.uploadLimit),
		widget.NewFormItem("Download rate", s.downloadMode),
		widget.NewFormItem("", s.downloadLimit),
	)
}

func limitFromForm(mode, value string) (int, error) {
	switch mode {
	case limitAuto:
		return config.BandwidthAuto, nil
	case limitCustom:
		kbs, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || kbs <= 0 {
			return 0, settings.ErrInvalidBandwidth
		}
		return kbs, nil
	}
	return config.BandwidthUnlimited, nil
}

func (s *SettingsWindow) applyUpload() {
	kbs, err := limitFromForm(s.uploadMode.Selected, s.uploadLimit.Text)
	if err == nil {
		err = s.model.SetUploadLimit(kbs)
	}
	s.enableLimit(s.uploadLimit, s.uploadMode.Selected)
	s.report(err)
}

func (s *SettingsWindow) applyDownload() {
	kbs, err := limitFromForm(s.downloadMode.Selected, s.downloadLimit.Text)
	if err == nil {
		err = s.model.SetDownloadLimit(kbs)
	}
	s.enableLimit(s.downloadLimit, s.downloadMode.Selected)
	s.report(err)
}

func (s *SettingsWindow) enableLimit(e *widget.Entry, mode string) {
	if mode == limitCustom {
		e.Enable()
	} else {
		e.Disable()
	}
}

func (s *SettingsWindow) buildProxy() fyne.CanvasObject {
	apply := func() { s.applyProxy() }
	s.proxyMode = widget.NewRadioGroup([]string{proxyNone, proxyAuto, proxyManual}, func(string) { apply() })
	s.proxyType = widget.NewSelect([]string{config.ProxyTypeHTTP, config.ProxyTypeSOCKS5H, config.ProxyTypeNTLM}, func(string) { apply() })
	s.proxyHost = widget.NewEntry()
	s.proxyPort = widget.NewEntry()
	s.proxyAuth = widget.NewCheck("Proxy requires password", func(bool) { apply() })
	s.proxyUser = widget.NewEntry()
	s.proxyPass = widget.NewPasswordEntry()
	s.noProxy = widget.NewEntry()
	s.noProxy.SetPlaceHolder("localhost,.corp.example.com")
	for _, e := range []*widget.Entry{s.proxyHost, s.proxyPort, s.proxyUser, s.proxyPass, s.noProxy} {
		e.OnChanged = func(string) { apply() }
	}

	form := widget.NewForm(
		widget.NewFormItem("Mode", s.proxyMode),
		widget.NewFormItem("Type", s.proxyType),
		widget.NewFormItem("Server", s.proxyHost),
		widget.NewFormItem("Port", s.proxyPort),
		widget.NewFormItem("", s.proxyAuth),
		widget.NewFormItem("Username", s.proxyUser),
		widget.NewFormItem("Password", s.proxyPass),
		widget.NewFormItem("Bypass", s.noProxy),
	)
	if s.checker == nil {
		return form
	}
	test := widget.NewButtonWithIcon("Test connection", theme.ViewRefreshIcon(), s.testProxy)
	return container.NewBorder(nil, container.NewHBox(test), nil, nil, form)
}

func (s *SettingsWindow) proxyFromForm() config.ProxyPrefs {
	mode := config.ProxyModeNone
	for k, label := range proxyModeLabels {
		if label == s.proxyMode.Selected {
			mode = k
		}
	}
	port, _ := strconv.Atoi(strings.TrimSpace(s.proxyPort.Text))
	return config.ProxyPrefs{
		Mode:         mode,
		Type:         s.proxyType.Selected,
		Host:         strings.TrimSpace(s.proxyHost.Text),
		Port:         port,
		RequiresAuth: s.proxyAuth.Checked,
		Username:     s.proxyUser.Text,
		Password:     s.proxyPass.Text,
		NoProxy:      s.noProxy.Text,
	}
}

func (s *SettingsWindow) applyProxy() {
	p := s.proxyFromForm()
	s.model.SetProxy(p)

	manual := p.Mode == config.ProxyModeManual
	for _, w := range []fyne.Disableable{s.proxyType, s.proxyHost, s.proxyPort, s.proxyAuth} {
		setEnabled(w, manual)
	}
	setEnabled(s.proxyUser, manual && p.RequiresAuth)
	setEnabled(s.proxyPass, manual && p.RequiresAuth)
}

func setEnabled(w fyne.Disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}

func (s *SettingsWindow) testProxy() {
	if err := settings.ValidateProxy(s.model.Preferences().Proxy); err != nil {
		s.status.SetError(err.Error())
		return
	}
	s.status.SetProgress("Testing proxy settings...")
	prefs := s.model.Preferences().Proxy
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.ConnectivityCheckTimeout)
		defer cancel()
		res := s.checker.Check(ctx, prefs)
		if res.OK() {
			s.status.SetSuccess(res.Summary())
		} else {
			s.status.SetError(res.Summary())
		}
	}()
}

func (s *SettingsWindow) buildAdvanced() fyne.CanvasObject {
	s.excluded = container.NewVBox()
	s.newExcluded = widget.NewEntry()
	s.newExcluded.SetPlaceHolder("*.tmp")
	add := widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() {
		if err := s.model.AddExcludedName(s.newExcluded.Text); err != nil {
			s.status.SetError(err.Error())
			return
		}
		s.newExcluded.SetText("")
		s.renderExcluded()
	})
	s.debugLog = widget.NewCheck("Debug logging", s.model.SetDebugLogging)
	s.logToFile = widget.NewCheck("Write log file", s.model.SetLogToFile)

	return container.NewBorder(
		widget.NewLabelWithStyle("Excluded file and folder names", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewVBox(container.NewBorder(nil, nil, nil, add, s.newExcluded), s.debugLog, s.logToFile),
		nil, nil,
		container.NewVScroll(s.excluded),
	)
}

func (s *SettingsWindow) renderExcluded() {
	s.excluded.RemoveAll()
	for _, name := range s.model.Preferences().Advanced.ExcludedNames {
		pattern := name
		remove := newIconButton(theme.DeleteIcon(), func() {
			s.model.RemoveExcludedName(pattern)
			s.renderExcluded()
		})
		s.excluded.Add(container.NewBorder(nil, nil, nil, remove, widget.NewLabel(pattern)))
	}
}

// load copies the model into the widgets.
func (s *SettingsWindow) load() {
	p := s.model.Preferences()

	s.language.SetSelected(settings.LanguageName(p.General.Language))
	s.startup.SetChecked(p.General.StartOnStartup)
	s.notifications.SetChecked(p.General.Notifications)

	s.renderSyncs()

	switch p.Bandwidth.UploadLimitKBs {
	case config.BandwidthAuto:
		s.uploadMode.SetSelected(limitAuto)
	case config.BandwidthUnlimited:
		s.uploadMode.SetSelected(limitNone)
	default:
		s.uploadLimit.SetText(strconv.Itoa(p.Bandwidth.UploadLimitKBs))
		s.uploadMode.SetSelected(limitCustom)
	}
	if p.Bandwidth.DownloadLimitKBs > 0 {
		s.downloadLimit.SetText(strconv.Itoa(p.Bandwidth.DownloadLimitKBs))
		s.downloadMode.SetSelected(limitCustom)
	} else {
		s.downloadMode.SetSelected(limitNone)
	}

	s.proxyMode.SetSelected(proxyModeLabels[p.Proxy.Mode])
	s.proxyType.SetSelected(p.Proxy.Type)
	s.proxyHost.SetText(p.Proxy.Host)
	if p.Proxy.Port > 0 {
		s.proxyPort.SetText(strconv.Itoa(p.Proxy.Port))
	} else {
		s.proxyPort.SetText("")
	}
	s.proxyAuth.SetChecked(p.Proxy.RequiresAuth)
	s.proxyUser.SetText(p.Proxy.Username)
	s.proxyPass.SetText(p.Proxy.Password)
	s.noProxy.SetText(p.Proxy.NoProxy)

	s.renderExcluded()
	s.debugLog.SetChecked(p.Advanced.DebugLogging)
	s.logToFile.SetChecked(p.Advanced.LogToFile)

	// Loading fires the change handlers; start from the saved state again.
	s.model.Revert()
	s.status.SetInfo("")
}

func (s *SettingsWindow) report(err error) {
	if err != nil {
		s.status.SetError(err.Error())
		return
	}
	if s.status.Level() == StatusError {
		s.status.SetInfo("")
	}
}

// Save validates and writes the model, blocking until done.
func (s *SettingsWindow) Save(ctx context.Context) error {
	if !s.model.Dirty() {
		return nil
	}
	return s.model.Save(ctx)
}

func (s *SettingsWindow) saveAsync() {
	s.save.Disable()
	s.status.SetProgress("Saving...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.ConnectivityCheckTimeout)
		defer cancel()
		err := s.Save(ctx)
		fyne.Do(func() {
			s.save.Enable()
			s.finishSave(err)
		})
	}()
}

func (s *SettingsWindow) finishSave(err error) {
	switch {
	case errors.Is(err, settings.ErrProxyUnreachable):
		s.tabs.SelectIndex(int(settings.TabProxy))
		s.status.SetError(err.Error())
	case err != nil:
		s.status.SetError(err.Error())
	default:
		s.status.SetSuccess("Settings saved")
		if s.OnSaved != nil {
			s.OnSaved(s.model.Saved())
		}
	}
}
