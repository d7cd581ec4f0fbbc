package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftsync/syncshell/internal/changelog"
	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/icons"
	"github.com/driftsync/syncshell/internal/pathutil"
	"github.com/driftsync/syncshell/internal/proxy"
	"github.com/driftsync/syncshell/internal/settings"
)

// proxyCheckTimeout bounds 'proxy check' including retries.
const proxyCheckTimeout = 30 * time.Second

// newIconCmd creates the 'icon' command.
func newIconCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icon <file>...",
		Short: "Show the file-type icon chosen for file names",
		Long: `Print the icon asset used for each file name, with its small and medium
resource names. Unknown extensions map to the generic icon.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range args {
				fmt.Fprintf(out, "%-32s %-14s %s  %s\n", name, icons.Resolve(name), icons.Small(name), icons.Medium(name))
			}
			return nil
		},
	}
	return cmd
}

// newChangelogCmd creates the 'changelog' command.
func newChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog [file]",
		Short: "Print release notes",
		Long: `Print release notes as plain text. Without a file, the notes bundled with
this build are shown. Files use YAML front matter ("version:") followed by
markdown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				notes *changelog.Notes
				err   error
			)
			if len(args) == 1 {
				notes, err = changelog.Load(appFs, args[0])
			} else {
				notes, err = changelog.Parse(releaseNotes)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), notes.Text())
			return nil
		},
	}
	return cmd
}

// newRevealCmd creates the 'reveal' command.
func newRevealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reveal <path>",
		Short: "Show a file or folder in the system file manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pathutil.ResolveAbsolutePath(args[0])
			if err != nil {
				return err
			}
			if _, err := appFs.Stat(path); err != nil {
				return fmt.Errorf("cannot reveal %s: %w", path, err)
			}
			return newShell().ShowInFolder(path)
		},
	}
	return cmd
}

// newAutostartCmd creates the 'autostart' command group.
func newAutostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting on login",
		Long: `Enable, disable or query the login item. enable and disable also update
general.start_on_startup in the preferences.`,
	}

	set := func(on bool) *cobra.Command {
		use, short := "disable", "Stop starting on login"
		if on {
			use, short = "enable", "Start on login"
		}
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				prefs, path, err := loadPreferences()
				if err != nil {
					return err
				}
				shell := newShell()
				if err := shell.StartOnStartup(on); err != nil {
					return fmt.Errorf("failed to update login item: %w", err)
				}
				if prefs.General.StartOnStartup != on {
					// The shell was just updated; the model only records the choice.
					m := settings.New(appFs, path, prefs, settings.WithLogger(GetLogger().Component("settings")))
					m.SetStartOnStartup(on)
					if err := m.Save(GetContext()); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Start on login: %s\n", onOff(shell.IsStartOnStartupActive()))
				return nil
			},
		}
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether the login item is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := newShell()
			fmt.Fprintf(cmd.OutOrStdout(), "Start on login: %s (%s)\n", onOff(shell.IsStartOnStartupActive()), shell.Name())
			return nil
		},
	}

	cmd.AddCommand(set(true), set(false), status)
	return cmd
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// newProxyCmd creates the 'proxy' command group.
func newProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Proxy diagnostics",
	}

	var url string
	check := &cobra.Command{
		Use:   "check",
		Short: "Test connectivity through the configured proxy",
		Long: `Probe the connectivity URL through the proxy from the preferences. A
missing proxy password is asked for and not saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, _, err := loadPreferences()
			if err != nil {
				return err
			}
			p := prefs.Proxy
			out := cmd.OutOrStdout()
			if p.Mode == config.ProxyModeManual && p.RequiresAuth && p.Password == "" {
				if p.Password, err = promptPassword(bufio.NewReader(cmd.InOrStdin()), out, "Password for "+p.Username); err != nil {
					return err
				}
			}
			if err := settings.ValidateProxy(p); err != nil {
				return err
			}
			if url == "" {
				url = prefs.Links.ConnectivityURL
			}

			checker := proxy.NewConnectivityChecker(url, GetLogger().Component("proxy"))
			ctx, cancel := context.WithTimeout(GetContext(), proxyCheckTimeout)
			defer cancel()
			res := checker.Check(ctx, p)

			fmt.Fprintf(out, "Proxy:  %s\n", describeProxy(p))
			fmt.Fprintf(out, "URL:    %s\n", res.URL)
			fmt.Fprintf(out, "Result: %s\n", res.Summary())
			if !res.OK() {
				return fmt.Errorf("proxy check failed after %d attempt(s)", res.Attempts)
			}
			return nil
		},
	}
	check.Flags().StringVar(&url, "url", "", "URL to probe (default: links.connectivity_url)")

	cmd.AddCommand(check)
	return cmd
}

func describeProxy(p config.ProxyPrefs) string {
	switch p.Mode {
	case config.ProxyModeManual:
		s := fmt.Sprintf("%s://%s:%d", p.Type, p.Host, p.Port)
		if p.RequiresAuth {
			s += " as " + p.Username
		}
		return s
	case config.ProxyModeAuto:
		return "system settings"
	default:
		return "direct"
	}
}

// newElevateCmd creates the 'elevate' command.
func newElevateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elevate",
		Short: "Acquire the privileges needed for file system monitoring",
		Long: `Ask the OS for the privileges the sync engine needs to watch files. On
macOS this installs the binary setuid root and relaunches it; elsewhere it is
a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			relaunch, err := newShell().EnsurePrivileges(os.Args)
			if err != nil {
				return err
			}
			if relaunch {
				fmt.Fprintln(cmd.OutOrStdout(), "Privileges granted, restarting")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No elevation needed")
			return nil
		},
	}
	return cmd
}
