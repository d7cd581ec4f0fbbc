package cli

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftsync/syncshell/internal/changelog"
	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/gui"
	"github.com/driftsync/syncshell/internal/session"
	"github.com/driftsync/syncshell/internal/transfer"
)

//go:embed assets/changelog.md
var releaseNotes []byte

// bundledNotes parses the release notes compiled into the binary.
func bundledNotes() *changelog.Notes {
	notes, err := changelog.Parse(releaseNotes)
	if err != nil {
		GetLogger().Warn().Err(err).Msg("bundled release notes unreadable")
		return nil
	}
	return notes
}

// newGUICmd creates the 'gui' command.
func newGUICmd() *cobra.Command {
	var simulate bool

	cmd := &cobra.Command{
		Use:   "gui",
		Short: "Open the info window",
		Long: `Open the info window with the status line, recent files and storage usage.

The window stays open until it is closed. With --simulate a synthetic
transfer workload runs against the local engine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := preferencesPath()
			if err != nil {
				return err
			}
			log := GetLogger()
			if logFile == "" {
				if prefs, _, err := loadPreferences(); err == nil && prefs.Advanced.LogToFile {
					if err := log.EnableFile(config.DefaultLogFile("gui")); err != nil {
						log.Warn().Err(err).Msg("file logging unavailable")
					}
				}
			}

			shell := newShell()
			relaunch, err := shell.EnsurePrivileges(os.Args)
			if err != nil {
				log.Warn().Err(err).Msg("running without elevated privileges")
			}
			if relaunch {
				return nil
			}

			opts := session.Options{
				Fs:        appFs,
				PrefsPath: path,
				Logger:    log,
				Shell:     shell,
				Simulate:  simulate,
			}
			if simulate {
				opts.Simulator = transfer.DefaultSimulatorConfig()
				opts.UsedBytes, opts.QuotaBytes = demoUsedBytes, demoQuotaBytes
			}
			s, err := session.New(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			s.Start(ctx)
			err = gui.Launch(ctx, gui.Options{
				Panel:    s.Panel,
				Loop:     s.Loop,
				Settings: s.Settings,
				Checker:  s.Checker,
				Notes:    bundledNotes(),
				Shell:    s.Shell,
				Logger:   log,
			})
			cancel()
			s.Close()
			if err != nil {
				return fmt.Errorf("failed to start GUI: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&simulate, "simulate", false, "Drive the window with a synthetic workload")
	return cmd
}
