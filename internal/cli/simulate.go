package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/progress"
	"github.com/driftsync/syncshell/internal/session"
	"github.com/driftsync/syncshell/internal/status"
	"github.com/driftsync/syncshell/internal/transfer"
	"github.com/driftsync/syncshell/internal/tui"
)

// Storage figures shown while simulating.
const (
	demoUsedBytes  int64 = 3 << 30
	demoQuotaBytes int64 = 20 << 30
)

// newSimulateCmd creates the 'simulate' command.
func newSimulateCmd() *cobra.Command {
	var (
		useTUI      bool
		downloads   int
		uploads     int
		failureRate float64
		seed        uint64
		tick        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a synthetic transfer workload",
		Long: `Run a synthetic workload through the local transfer engine.

Without --tui each transfer gets a progress bar on stderr and a summary is
printed at the end. With --tui the info panel is rendered in the terminal:
  p / space  pause or resume all transfers
  d / u      pause or resume downloads / uploads
  x          cancel every queued transfer
  q          quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := preferencesPath()
			if err != nil {
				return err
			}
			cfg := transfer.DefaultSimulatorConfig()
			cfg.Downloads, cfg.Uploads = downloads, uploads
			cfg.FailureRate = failureRate
			cfg.Seed = seed
			cfg.Tick = tick

			log := GetLogger()
			var ui *progress.TransferUI
			if useTUI {
				if logFile == "" {
					log.SetOutput(io.Discard)
				}
			} else {
				ui = progress.NewTransferUI(os.Stderr)
				log.SetOutput(ui.Writer())
			}

			s, err := session.New(session.Options{
				Fs:         appFs,
				PrefsPath:  path,
				Logger:     log,
				Shell:      newShell(),
				Simulate:   true,
				Simulator:  cfg,
				UsedBytes:  demoUsedBytes,
				QuotaBytes: demoQuotaBytes,
			})
			if err != nil {
				return err
			}

			if useTUI {
				return runSimulationTUI(cmd.Context(), s)
			}
			return runSimulationBars(cmd.Context(), cmd.OutOrStdout(), s, ui)
		},
	}

	cmd.Flags().BoolVar(&useTUI, "tui", false, "Render the info panel in the terminal")
	cmd.Flags().IntVar(&downloads, "downloads", 6, "Number of downloads")
	cmd.Flags().IntVar(&uploads, "uploads", 4, "Number of uploads")
	cmd.Flags().Float64Var(&failureRate, "failure-rate", 0.01, "Chance a transfer fails on each tick")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed for file names and sizes")
	cmd.Flags().DurationVar(&tick, "tick", 250*time.Millisecond, "Time between engine steps")
	return cmd
}

func runSimulationTUI(parent context.Context, s *session.Session) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	s.Start(ctx)
	loopDone := make(chan error, 1)
	go func() { loopDone <- s.RunLoop(ctx) }()

	err := tui.Run(ctx, constants.AppName, tui.PanelSource{Panel: s.Panel, Loop: s.Loop})
	cancel()
	<-loopDone
	s.Close()
	return err
}

func runSimulationBars(parent context.Context, out io.Writer, s *session.Session, ui *progress.TransferUI) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	ch := s.Bus.SubscribeAll()
	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		// Runs until the bus closes so buffered events are still drawn.
		_ = ui.Run(parent, ch)
	}()

	s.Start(ctx)
	loopDone := make(chan error, 1)
	go func() { loopDone <- s.RunLoop(ctx) }()

	interrupted := false
	select {
	case <-s.SimulationDone():
		interrupted = ctx.Err() != nil
	case <-ctx.Done():
		interrupted = true
	}

	cancel()
	<-loopDone
	s.Close()
	<-uiDone
	ui.Wait()
	GetLogger().SetOutput(os.Stdout)

	completed, failed, cancelled := ui.Summary()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Completed: %d  Failed: %d  Cancelled: %d\n", completed, failed, cancelled)
	fmt.Fprintf(out, "Storage:   %s of %s\n", status.FormatSize(demoUsedBytes), status.FormatSize(demoQuotaBytes))
	if interrupted {
		return context.Canceled
	}
	if failed > 0 {
		return fmt.Errorf("%d transfer(s) failed", failed)
	}
	return nil
}
