// DriftSync tray companion - status icon and quick actions in the system tray.
//
// The companion runs its own shell session: the local engine, the info
// panel state and the OS integration. The info window is a separate process
// started from the menu (syncshell gui).
//
// Build:
//
//	go build ./cmd/syncshell-tray
//	GOOS=windows go build -ldflags "-H=windowsgui" ./cmd/syncshell-tray
package main

import (
	"context"
	"fmt"
	"os"

	"fyne.io/systray"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/logging"
	"github.com/driftsync/syncshell/internal/session"
	"github.com/driftsync/syncshell/internal/transfer"
	"github.com/driftsync/syncshell/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile  string
		simulate bool
		debug    bool
	)

	cmd := &cobra.Command{
		Use:          constants.ExecutableName + "-tray",
		Short:        constants.AppName + " tray companion",
		Version:      version.Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug || logging.DebugRequested() {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
			log := logging.NewLogger("tray", nil)
			if err := log.EnableFile(config.DefaultLogFile("tray")); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: file logging unavailable: %v\n", err)
			}
			defer log.Close()

			opts := session.Options{PrefsPath: cfgFile, Logger: log, Simulate: simulate}
			if simulate {
				opts.Simulator = transfer.DefaultSimulatorConfig()
				opts.UsedBytes, opts.QuotaBytes = 3<<30, 20<<30
			}
			s, err := session.New(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			app := newTrayApp(s, log.Component("tray"), cfgFile)
			s.Start(ctx)
			go func() {
				if err := s.RunLoop(ctx); err != nil {
					app.logger.Error().Err(err).Msg("UI loop stopped")
				}
				systray.Quit()
			}()

			// systray owns the main thread until Quit.
			systray.Run(app.onReady, func() {
				app.onExit()
				cancel()
			})
			s.Close()
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Preferences file path")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "Run a synthetic transfer workload")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}
