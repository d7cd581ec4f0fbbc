package gui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"github.com/driftsync/syncshell/internal/icons"
	"github.com/driftsync/syncshell/internal/status"
	"github.com/driftsync/syncshell/internal/tray"
)

// Asset names are resolved against the theme's icon set; the shell ships no
// bitmaps of its own.
var statusResources = map[string]func() fyne.Resource{
	status.IconPaused:   theme.MediaPauseIcon,
	status.IconScanning: theme.ViewRefreshIcon,
	status.IconUpdated:  theme.ConfirmIcon,
	tray.IconResume:     theme.MediaPlayIcon,
	tray.IconPause:      theme.MediaPauseIcon,
	tray.IconCancel:     theme.CancelIcon,
	tray.IconAddSync:    theme.ContentAddIcon,
	tray.IconFolder:     theme.FolderIcon,
}

var fileResources = map[string]func() fyne.Resource{
	"audio.png":      theme.FileAudioIcon,
	"midi.png":       theme.FileAudioIcon,
	"real_audio.png": theme.FileAudioIcon,
	"podcast.png":    theme.FileAudioIcon,
	"playlist.png":   theme.FileAudioIcon,
	"image.png":      theme.FileImageIcon,
	"graphic.png":    theme.FileImageIcon,
	"raw.png":        theme.FileImageIcon,
	"photoshop.png":  theme.FileImageIcon,
	"vector.png":     theme.FileImageIcon,
	"video.png":      theme.FileVideoIcon,
	"video_vob.png":  theme.FileVideoIcon,
	"text.png":       theme.FileTextIcon,
	"pdf.png":        theme.DocumentIcon,
	"word.png":       theme.DocumentIcon,
	"executable.png": theme.FileApplicationIcon,
	"java.png":       theme.FileApplicationIcon,
	"dmg.png":        theme.FileApplicationIcon,
	"folder.png":     theme.FolderIcon,
}

// StatusResource returns the resource drawn for a status, menu or animation
// frame asset.
func StatusResource(asset string) fyne.Resource {
	if strings.HasPrefix(asset, "scanning_anime") {
		return theme.ViewRefreshIcon()
	}
	if fn, ok := statusResources[asset]; ok {
		return fn()
	}
	return theme.InfoIcon()
}

// FileResource returns the icon for a file name.
func FileResource(name string) fyne.Resource {
	if fn, ok := fileResources[icons.Resolve(name)]; ok {
		return fn()
	}
	return theme.FileIcon()
}
