package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/infopanel"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/recent"
	"github.com/driftsync/syncshell/internal/status"
	"github.com/driftsync/syncshell/internal/tray"
)

// PostFunc runs fn on the UI loop that owns the info panel.
type PostFunc func(fn func()) bool

type transferRow struct {
	box       *fyne.Container
	icon      *widget.Icon
	operation *widget.Label
	name      *widget.Label
	progress  *widget.ProgressBar
	remaining *widget.Label
	menu      *widget.Button
}

type recentRow struct {
	box  *fyne.Container
	icon *widget.Icon
	name *widget.Label
	age  *widget.Label
	show *widget.Button
}

// InfoWindow renders the info panel. Panel methods are only called through
// post; widget updates arrive through fyne.Do.
type InfoWindow struct {
	window fyne.Window
	panel  *infopanel.Panel
	post   PostFunc

	statusIcon   *widget.Icon
	statusText   *widget.Label
	blocked      *widget.Label
	updatedPage  *fyne.Container
	transferPage *fyne.Container
	rows         [2]*transferRow
	recent       [constants.RecentFileSlots]*recentRow
	noRecent     *widget.Label
	pause        *widget.Button
	syncs        *widget.Button
	usagePercent *widget.Label
	usageUsed    *widget.Label

	// OnSettings and OnChangelog run on the fyne goroutine.
	OnSettings  func()
	OnChangelog func()
}

// NewInfoWindow builds the window. Bind must be called before the panel starts.
func NewInfoWindow(app fyne.App, panel *infopanel.Panel, post PostFunc) *InfoWindow {
	w := &InfoWindow{
		window: app.NewWindow(constants.AppName),
		panel:  panel,
		post:   post,
	}
	w.window.SetContent(w.build())
	w.window.Resize(fyne.NewSize(400, 480))
	return w
}

// Window returns the underlying fyne window.
func (w *InfoWindow) Window() fyne.Window { return w.window }

func (w *InfoWindow) build() fyne.CanvasObject {
	w.statusIcon = widget.NewIcon(StatusResource(status.IconUpdated))
	w.statusText = widget.NewLabelWithStyle("Starting...", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	w.blocked = widget.NewLabel("")
	w.blocked.Truncation = fyne.TextTruncateEllipsis
	w.blocked.Hide()

	w.pause = newIconButton(theme.MediaPauseIcon(), func() {
		w.post(func() { _ = w.panel.TogglePause() })
	})
	header := container.NewBorder(nil, nil, w.statusIcon, w.pause,
		container.NewVBox(w.statusText, w.blocked))

	for _, d := range models.Directions {
		w.rows[d] = w.newTransferRow(d)
	}
	w.transferPage = container.NewVBox(w.rows[models.Download].box, w.rows[models.Upload].box)
	w.transferPage.Hide()
	w.updatedPage = container.NewCenter(widget.NewLabel("All files are up to date"))

	recentBox := container.NewVBox(widget.NewLabelWithStyle("Recently updated", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	w.noRecent = widget.NewLabel("No files yet")
	recentBox.Add(w.noRecent)
	for i := range w.recent {
		w.recent[i] = w.newRecentRow(i)
		recentBox.Add(w.recent[i].box)
	}

	w.usagePercent = widget.NewLabel("")
	w.usageUsed = widget.NewLabel("")
	w.syncs = widget.NewButtonWithIcon("Syncs", theme.FolderOpenIcon(), w.openSyncs)
	settingsBtn := newIconButton(theme.SettingsIcon(), func() {
		if w.OnSettings != nil {
			w.OnSettings()
		}
	})
	aboutBtn := newIconButton(theme.InfoIcon(), func() {
		if w.OnChangelog != nil {
			w.OnChangelog()
		}
	})
	footer := container.NewBorder(nil, nil, w.syncs, container.NewHBox(aboutBtn, settingsBtn),
		container.NewVBox(w.usagePercent, w.usageUsed))

	body := container.NewVBox(
		container.NewStack(w.updatedPage, w.transferPage),
		widget.NewSeparator(),
		recentBox,
	)
	return container.NewBorder(
		container.NewVBox(header, widget.NewSeparator()),
		container.NewVBox(widget.NewSeparator(), footer),
		nil, nil,
		container.NewVScroll(body),
	)
}

func (w *InfoWindow) newTransferRow(d models.Direction) *transferRow {
	icon := theme.DownloadIcon()
	if d == models.Upload {
		icon = theme.UploadIcon()
	}
	r := &transferRow{
		icon:      widget.NewIcon(icon),
		operation: widget.NewLabel(""),
		name:      widget.NewLabel(""),
		progress:  widget.NewProgressBar(),
		remaining: widget.NewLabel(""),
	}
	r.name.Truncation = fyne.TextTruncateEllipsis
	r.menu = newIconButton(theme.MoreVerticalIcon(), func() { w.showTransferMenu(d, r.menu) })
	r.box = container.NewVBox(
		container.NewBorder(nil, nil, r.icon, container.NewHBox(r.remaining, r.menu), r.operation),
		r.name,
		r.progress,
	)
	r.box.Hide()
	return r
}

func (w *InfoWindow) newRecentRow(slot int) *recentRow {
	r := &recentRow{
		icon: widget.NewIcon(theme.FileIcon()),
		name: widget.NewLabel(""),
		age:  widget.NewLabel(""),
	}
	r.name.Truncation = fyne.TextTruncateEllipsis
	r.show = newIconButton(theme.FolderOpenIcon(), func() {
		w.post(func() { _ = w.panel.ShowRecentFile(slot) })
	})
	r.box = container.NewBorder(nil, nil, r.icon, container.NewHBox(r.age, r.show), r.name)
	r.box.Hide()
	return r
}

// Bind routes the panel's callbacks into the window. Call it before the
// panel is started; the callbacks run on the UI loop.
func (w *InfoWindow) Bind() {
	w.panel.OnState = func(s status.AggregateState) {
		icon := w.panel.AnimationIcon()
		syncsLabel := w.panel.SyncButtonText()
		fyne.Do(func() {
			w.renderState(s, icon)
			w.syncs.SetText(syncsLabel)
		})
	}
	w.panel.OnAnimationFrame = func(icon string) {
		fyne.Do(func() { w.statusIcon.SetResource(StatusResource(icon)) })
	}
	w.panel.OnRecentFiles = func(rows []recent.Row) {
		fyne.Do(func() { w.renderRecent(rows) })
	}
	w.panel.OnUsage = func(percent, used string) {
		fyne.Do(func() { w.renderUsage(percent, used) })
	}
}

func (w *InfoWindow) renderState(s status.AggregateState, icon string) {
	w.statusIcon.SetResource(StatusResource(tray.Icon(s, icon)))
	w.statusText.SetText(tray.StatusLine(s))

	if s.BlockedMessage != "" {
		w.blocked.SetText(s.BlockedMessage)
		w.blocked.Show()
	} else {
		w.blocked.Hide()
	}

	if s.Busy {
		w.updatedPage.Hide()
		w.transferPage.Show()
	} else {
		w.transferPage.Hide()
		w.updatedPage.Show()
	}

	for _, d := range models.Directions {
		w.renderDirection(w.rows[d], s.Dir(d))
	}

	if s.Active == models.StatePaused {
		w.pause.SetIcon(theme.MediaPlayIcon())
	} else {
		w.pause.SetIcon(theme.MediaPauseIcon())
	}
}

func (w *InfoWindow) renderDirection(r *transferRow, ds status.DirectionState) {
	if !ds.Visible() && !ds.HasTransfer {
		r.box.Hide()
		return
	}
	r.operation.SetText(ds.Operation() + " " + ds.Label())
	r.name.SetText(ds.FileName)
	if ds.TotalBytes > 0 {
		r.progress.SetValue(float64(ds.CompletedBytes) / float64(ds.TotalBytes))
	} else {
		r.progress.SetValue(0)
	}
	if ds.Paused() {
		r.remaining.SetText("")
	} else {
		r.remaining.SetText(ds.RemainingTime())
	}
	r.box.Show()
}

func (w *InfoWindow) renderRecent(rows []recent.Row) {
	for i, r := range w.recent {
		if i >= len(rows) {
			r.box.Hide()
			continue
		}
		r.icon.SetResource(FileResource(rows[i].Name))
		r.name.SetText(rows[i].Name)
		r.age.SetText(rows[i].Age)
		r.box.Show()
	}
	if len(rows) == 0 {
		w.noRecent.Show()
	} else {
		w.noRecent.Hide()
	}
}

func (w *InfoWindow) renderUsage(percent, used string) {
	w.usagePercent.SetText(percent)
	w.usageUsed.SetText(used)
}

func (w *InfoWindow) showTransferMenu(d models.Direction, anchor fyne.CanvasObject) {
	w.post(func() {
		items := w.panel.TransferMenu(d)
		if len(items) == 0 {
			return
		}
		fyne.Do(func() {
			w.popup(toMenuRows(items), anchor, func(i int) {
				w.post(func() { _ = w.panel.Activate(items[i]) })
			})
		})
	})
}

func (w *InfoWindow) openSyncs() {
	w.post(func() {
		items, err := w.panel.OpenSyncFolder()
		if err != nil || len(items) == 0 {
			return
		}
		fyne.Do(func() {
			w.popup(toMenuRows(items), w.syncs, func(i int) {
				w.post(func() { _ = w.panel.Activate(items[i]) })
			})
		})
	})
}

func (w *InfoWindow) popup(rows []menuRow, anchor fyne.CanvasObject, activate func(int)) {
	menu := menuFromItems(rows, activate)
	pos := fyne.CurrentApp().Driver().AbsolutePositionForObject(anchor)
	pos = pos.Add(fyne.NewPos(0, anchor.Size().Height))
	widget.ShowPopUpMenuAtPosition(menu, w.window.Canvas(), pos)
}

func toMenuRows(items []tray.MenuItem) []menuRow {
	rows := make([]menuRow, len(items))
	for i, it := range items {
		if it.IsSeparator() {
			rows[i] = menuRow{separator: true}
			continue
		}
		rows[i] = menuRow{title: it.Title, icon: StatusResource(it.Icon)}
	}
	return rows
}
