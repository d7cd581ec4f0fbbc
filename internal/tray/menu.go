// Package tray builds toolkit-neutral menu models for the info panel's
// context menus and the system tray.
package tray

import (
	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/engine"
	"github.com/driftsync/syncshell/internal/models"
)

// Menu icon assets.
const (
	IconResume      = "resume_ico.png"
	IconResumeHover = "resume_ico_white.png"
	IconPause       = "pause_ico.png"
	IconPauseHover  = "pause_ico_white.png"
	IconCancel      = "cancel_ico.png"
	IconCancelHover = "cancel_ico_white.png"
	IconAddSync     = "add_sync_folder.png"
	IconFolder      = "small_folder.png"
	IconFolderHover = "small_folder_white.png"
)

// ActionKind says what activating a MenuItem does.
type ActionKind int

const (
	ActionNone       ActionKind = iota
	ActionIntent                // forward Action.Intent to the engine
	ActionAddSync               // open the add-sync flow
	ActionOpenFolder            // open Action.Path in the file manager
	ActionSeparator
)

// Action is the payload of a MenuItem.
type Action struct {
	Kind   ActionKind
	Intent engine.Intent
	Path   string
}

// MenuItem is one row of a context menu.
type MenuItem struct {
	Title     string
	Icon      string
	HoverIcon string
	Action    Action
}

// IconFor returns the icon to draw, using the hover icon when one exists.
func (m MenuItem) IconFor(hovered bool) string {
	if hovered && m.HoverIcon != "" {
		return m.HoverIcon
	}
	return m.Icon
}

// IsSeparator reports whether the item is a separator line.
func (m MenuItem) IsSeparator() bool {
	return m.Action.Kind == ActionSeparator
}

// Separator returns a separator item.
func Separator() MenuItem {
	return MenuItem{Action: Action{Kind: ActionSeparator}}
}

func intentItem(title, icon, hover string, in engine.Intent) MenuItem {
	return MenuItem{Title: title, Icon: icon, HoverIcon: hover, Action: Action{Kind: ActionIntent, Intent: in}}
}

// TransferMenu is the context menu of the transfer shown for dir. tag is the
// engine tag of that transfer; itemPaused is its own state and
// globallyPaused the direction's.
func TransferMenu(dir models.Direction, tag int, itemPaused, globallyPaused bool) []MenuItem {
	noun, plural := "download", "downloads"
	if dir == models.Upload {
		noun, plural = "upload", "uploads"
	}

	var items []MenuItem
	if itemPaused {
		items = append(items, intentItem("Resume "+noun, IconResume, IconResumeHover,
			engine.Intent{Kind: engine.IntentResumeTransfer, Direction: dir, Tag: tag}))
	}

	if globallyPaused {
		items = append(items, intentItem("Resume "+plural, IconResume, IconResumeHover,
			engine.Intent{Kind: engine.IntentResumeDirection, Direction: dir}))
	} else {
		items = append(items, intentItem("Pause "+plural, IconPause, IconPauseHover,
			engine.Intent{Kind: engine.IntentPauseDirection, Direction: dir}))
	}

	items = append(items,
		intentItem("Cancel "+noun, IconCancel, IconCancelHover,
			engine.Intent{Kind: engine.IntentCancelTransfer, Direction: dir, Tag: tag}),
		intentItem("Cancel all "+plural, IconCancel, IconCancelHover,
			engine.Intent{Kind: engine.IntentCancelDirection, Direction: dir}),
	)
	return items
}

// SyncsMenu lists "Add Sync", a separator and one entry per active folder.
func SyncsMenu(folders []config.SyncFolder) []MenuItem {
	items := []MenuItem{
		{Title: "Add Sync", Icon: IconAddSync, Action: Action{Kind: ActionAddSync}},
		Separator(),
	}
	for _, f := range folders {
		if !f.Active {
			continue
		}
		items = append(items, MenuItem{
			Title:     f.Name,
			Icon:      IconFolder,
			HoverIcon: IconFolderHover,
			Action:    Action{Kind: ActionOpenFolder, Path: f.LocalPath},
		})
	}
	return items
}
