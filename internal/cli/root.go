// Package cli provides the command-line interface for syncshell.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/logging"
	"github.com/driftsync/syncshell/internal/platform"
	"github.com/driftsync/syncshell/internal/version"
)

var (
	// Global flags
	cfgFile string
	logFile string
	verbose bool
	debug   bool

	// Global logger
	logger *logging.Logger

	// appFs backs every preferences read and write. Tests swap in a MemMapFs.
	appFs afero.Fs = afero.NewOsFs()

	// newShell builds the OS integration. Tests replace it with a fake.
	newShell = func() platform.Shell {
		return platform.New(platform.Options{Fs: appFs, Logger: GetLogger().Component("platform")})
	}

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.ExecutableName,
		Short: constants.AppName + " desktop sync shell",
		Long: constants.AppName + ` ` + version.Version + ` - Built: ` + version.BuildTime + `
Desktop shell for the ` + constants.AppName + ` sync engine: info panel, tray
companion, settings and OS integration.

Run "` + constants.ExecutableName + ` gui" for the info window, or
"` + constants.ExecutableName + ` simulate --tui" to watch a synthetic workload
in the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = logging.NewDefaultCLILogger()
			if verbose || debug || logging.DebugRequested() {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				logging.SetGlobalLevel(zerolog.InfoLevel)
			}
			if logFile != "" {
				if err := logger.EnableFile(logFile); err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Preferences file path")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file (rotated)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ", engine " + version.SDKVersion + ")"

	rootCmd.AddCommand(&cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate a shell completion script",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			default:
				return rootCmd.GenPowerShellCompletion(out)
			}
		},
	})
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Ctrl+C may arrive more than once while cleanup runs.
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived %v, shutting down...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.ExecuteContext(rootContext)

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newGUICmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newIconCmd())
	rootCmd.AddCommand(newChangelogCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newRevealCmd())
	rootCmd.AddCommand(newAutostartCmd())
	rootCmd.AddCommand(newProxyCmd())
	rootCmd.AddCommand(newElevateCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context, cancelled on Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// preferencesPath returns --config or the default location.
func preferencesPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPreferencesPath()
}

// loadPreferences reads the preferences file (defaults when it is missing).
func loadPreferences() (*config.Preferences, string, error) {
	path, err := preferencesPath()
	if err != nil {
		return nil, "", err
	}
	prefs, err := config.Load(appFs, path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load preferences: %w", err)
	}
	return prefs, path, nil
}
