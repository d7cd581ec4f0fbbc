package infopanel

import (
	"errors"
	"fmt"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/engine"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/tray"
)

// ErrNoShell is returned by folder actions when no platform shell is set.
var ErrNoShell = errors.New("no platform shell configured")

// Forward hands a user intent to the engine and refreshes the state.
func (p *Panel) Forward(in engine.Intent) error {
	err := engine.Forward(p.eng, in)
	if err != nil {
		p.logger.Warn().Err(err).Stringer("intent", in).Msg("engine rejected intent")
	}
	p.Tick()
	return err
}

// SetPaused sets the global pause toggle and pauses or resumes both directions.
// OnPausedChanged is called when the toggle actually changes.
func (p *Panel) SetPaused(pause bool) error {
	changed := p.paused != pause
	p.paused = pause
	kind := engine.IntentResumeAll
	if pause {
		kind = engine.IntentPauseAll
	}
	err := p.Forward(engine.Intent{Kind: kind})
	if changed && p.OnPausedChanged != nil {
		p.OnPausedChanged(pause)
	}
	return err
}

// TogglePause flips the global pause toggle.
func (p *Panel) TogglePause() error { return p.SetPaused(!p.paused) }

// TransferMenu returns the context menu for the transfer shown for d, or nil
// when no transfer is shown.
func (p *Panel) TransferMenu(d models.Direction) []tray.MenuItem {
	ds := p.agg.State().Dir(d)
	if !ds.HasTransfer {
		return nil
	}
	return tray.TransferMenu(d, ds.Tag, ds.TransferState == models.TransferPaused, p.eng.AreTransfersPaused(d))
}

// OpenSyncFolder opens the only sync folder when it maps to the cloud root.
// Otherwise it returns the syncs menu for the caller to show.
func (p *Panel) OpenSyncFolder() ([]tray.MenuItem, error) {
	folders := p.syncs()
	if len(folders) == 1 && folders[0].Active && isRemoteRoot(folders[0].RemotePath) {
		return nil, p.OpenFolder(folders[0].LocalPath)
	}
	return tray.SyncsMenu(folders), nil
}

// SyncButtonText is the label of the syncs button.
func (p *Panel) SyncButtonText() string {
	folders := p.syncs()
	if len(folders) == 1 && isRemoteRoot(folders[0].RemotePath) {
		return p.opts.AppName
	}
	return "Syncs"
}

func isRemoteRoot(path string) bool {
	return path == "/" || path == ""
}

func (p *Panel) syncs() []config.SyncFolder {
	if p.opts.Syncs == nil {
		return nil
	}
	return p.opts.Syncs()
}

// OpenFolder opens path in the file manager.
func (p *Panel) OpenFolder(path string) error {
	if p.opts.Shell == nil {
		return ErrNoShell
	}
	if err := p.opts.Shell.OpenURL(path); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("failed to open folder")
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	return nil
}

// ShowRecentFile reveals the i-th recent file in the file manager.
func (p *Panel) ShowRecentFile(i int) error {
	entries := p.ring.Entries()
	if i < 0 || i >= len(entries) {
		return fmt.Errorf("no recent file at slot %d", i+1)
	}
	if p.opts.Shell == nil {
		return ErrNoShell
	}
	return p.opts.Shell.ShowInFolder(entries[i].LocalPath)
}

// Activate performs the action of a menu item.
func (p *Panel) Activate(item tray.MenuItem) error {
	switch item.Action.Kind {
	case tray.ActionIntent:
		return p.Forward(item.Action.Intent)
	case tray.ActionOpenFolder:
		return p.OpenFolder(item.Action.Path)
	case tray.ActionAddSync:
		if p.OnAddSync != nil {
			p.OnAddSync()
		}
	}
	return nil
}
