package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftsync/syncshell/internal/pathutil"
	"github.com/driftsync/syncshell/internal/settings"
)

// newSyncCmd creates the 'sync' command group.
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage synced folders",
		Long: `List, add, remove, pause and resume the folders kept in sync. Changes are
written to the preferences file and picked up by a running app.`,
	}
	cmd.AddCommand(newSyncListCmd(), newSyncAddCmd(), newSyncRemoveCmd(),
		newSyncActiveCmd(true), newSyncActiveCmd(false))
	return cmd
}

func newSyncListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List synced folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, _, err := loadPreferences()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(prefs.Syncs) == 0 {
				fmt.Fprintln(out, "No synced folders")
				return nil
			}
			for _, s := range prefs.Syncs {
				state := "active"
				if !s.Active {
					state = "paused"
				}
				fmt.Fprintf(out, "%-20s %-7s %s -> %s\n", s.Name, state, s.LocalPath, s.RemotePath)
			}
			return nil
		},
	}
}

func newSyncAddCmd() *cobra.Command {
	var name, remote string
	cmd := &cobra.Command{
		Use:   "add <local-path>",
		Short: "Add a synced folder",
		Long: `Add a local folder to keep in sync. "~" expands to the home directory and
symlinks in the existing part of the path are resolved. The name defaults to
the folder's base name and the remote path to "/<name>".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := pathutil.ResolveAbsolutePath(args[0])
			if err != nil {
				return fmt.Errorf("invalid path %s: %w", args[0], err)
			}
			return editSyncs(cmd, func(m *settings.Model) error {
				return m.AddSync(name, local, remote)
			}, "Added "+local)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Sync name (default: folder name)")
	cmd.Flags().StringVar(&remote, "remote", "", "Remote folder (default: /<name>)")
	return cmd
}

func newSyncRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Stop syncing a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editSyncs(cmd, func(m *settings.Model) error {
				return m.RemoveSync(args[0])
			}, "Removed "+args[0])
		},
	}
}

func newSyncActiveCmd(active bool) *cobra.Command {
	use, short, done := "pause <name>", "Pause syncing a folder", "Paused "
	if active {
		use, short, done = "resume <name>", "Resume syncing a folder", "Resumed "
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editSyncs(cmd, func(m *settings.Model) error {
				return m.SetSyncActive(args[0], active)
			}, done+args[0])
		},
	}
}

// editSyncs applies edit to the saved preferences and writes them back.
func editSyncs(cmd *cobra.Command, edit func(*settings.Model) error, done string) error {
	prefs, path, err := loadPreferences()
	if err != nil {
		return err
	}
	m := settings.New(appFs, path, prefs, settings.WithLogger(GetLogger().Component("settings")))
	if err := edit(m); err != nil {
		return err
	}
	if err := m.Save(GetContext()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", done)
	return nil
}
