package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/proxy"
	"github.com/driftsync/syncshell/internal/settings"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage preferences",
		Long: `Preference management commands.

Commands:
  init  - Interactive setup
  show  - Display current preferences
  set   - Change one preference
  path  - Show preferences file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize preferences interactively",
		Long: `Interactive setup of language, startup, notifications and proxy.

Use --force to overwrite an existing preferences file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := preferencesPath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !force {
				if exists, _ := fileExists(path); exists {
					fmt.Fprintf(out, "Preferences already exist at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view them.")
					return nil
				}
			}

			prefs, err := runConfigWizard(bufio.NewReader(cmd.InOrStdin()), out)
			if err != nil {
				return err
			}
			m := settings.New(appFs, path, config.NewPreferences(),
				settings.WithShell(newShell()),
				settings.WithLogger(GetLogger().Component("settings")))
			if err := applyAll(m, prefs); err != nil {
				return err
			}
			if m.Dirty() {
				err = m.Save(GetContext())
			} else {
				// All defaults: Save would skip the write.
				err = config.Save(appFs, m.Preferences(), path)
			}
			if err != nil {
				return fmt.Errorf("failed to save preferences: %w", err)
			}
			GetLogger().Info().Str("path", path).Msg("Preferences saved")
			fmt.Fprintf(out, "\n✓ Preferences saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing preferences")
	return cmd
}

func fileExists(path string) (bool, error) {
	_, err := appFs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// runConfigWizard asks for the few settings a first run needs.
func runConfigWizard(r *bufio.Reader, out io.Writer) (*config.Preferences, error) {
	prefs := config.NewPreferences()

	fmt.Fprintln(out, "Preferences Setup")
	fmt.Fprintln(out, "=================")
	fmt.Fprintln(out)

	for {
		lang, err := promptLine(r, out, "Language", prefs.General.Language)
		if err != nil {
			return nil, err
		}
		if settings.LanguageName(lang) != "" {
			prefs.General.Language = lang
			break
		}
		fmt.Fprintf(out, "  Unknown language %q\n", lang)
	}

	var err error
	if prefs.General.StartOnStartup, err = promptBool(r, out, "Start on login", prefs.General.StartOnStartup); err != nil {
		return nil, err
	}
	if prefs.General.Notifications, err = promptBool(r, out, "Desktop notifications", prefs.General.Notifications); err != nil {
		return nil, err
	}

	fmt.Fprintln(out)
	mode, err := promptChoice(r, out, "Proxy mode",
		[]string{config.ProxyModeNone, config.ProxyModeAuto, config.ProxyModeManual}, prefs.Proxy.Mode)
	if err != nil {
		return nil, err
	}
	prefs.Proxy.Mode = mode
	if mode == config.ProxyModeManual {
		if prefs.Proxy.Type, err = promptChoice(r, out, "Proxy type",
			[]string{config.ProxyTypeHTTP, config.ProxyTypeSOCKS5H, config.ProxyTypeNTLM}, config.ProxyTypeHTTP); err != nil {
			return nil, err
		}
		if prefs.Proxy.Host, err = promptLine(r, out, "Proxy host", ""); err != nil {
			return nil, err
		}
		if prefs.Proxy.Port, err = promptInt(r, out, "Proxy port", 8080); err != nil {
			return nil, err
		}
		if prefs.Proxy.RequiresAuth, err = promptBool(r, out, "Proxy requires authentication", false); err != nil {
			return nil, err
		}
		if prefs.Proxy.RequiresAuth {
			if prefs.Proxy.Username, err = promptLine(r, out, "Proxy username", ""); err != nil {
				return nil, err
			}
			if prefs.Proxy.Password, err = promptPassword(r, out, "Proxy password"); err != nil {
				return nil, err
			}
		}
	}
	return prefs, nil
}

// applyAll copies the wizard answers into the model through its setters.
func applyAll(m *settings.Model, p *config.Preferences) error {
	if err := m.SetLanguage(p.General.Language); err != nil {
		return err
	}
	m.SetStartOnStartup(p.General.StartOnStartup)
	m.SetNotifications(p.General.Notifications)
	m.SetProxy(p.Proxy)
	return nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current preferences",
		Long: `Display every preference as "section.key = value", followed by the
configured sync folders. Passwords are masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, path, err := loadPreferences()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			writePreferences(out, prefs)

			fmt.Fprintf(out, "\nPreferences file: %s\n", path)
			if exists, _ := fileExists(path); !exists {
				fmt.Fprintln(out, "  (file does not exist - using defaults)")
			}
			return nil
		},
	}
	return cmd
}

func writePreferences(out io.Writer, prefs *config.Preferences) {
	section := ""
	for _, key := range config.Keys() {
		sec, _, _ := strings.Cut(key, ".")
		if sec != section {
			if section != "" {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "[%s]\n", sec)
			section = sec
		}
		value, _ := prefs.Get(key)
		if key == "proxy.password" && value != "" {
			value = "<set>"
		}
		fmt.Fprintf(out, "  %-32s %s\n", key, value)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "[syncs]")
	if len(prefs.Syncs) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, s := range prefs.Syncs {
		state := "active"
		if !s.Active {
			state = "disabled"
		}
		fmt.Fprintf(out, "  %-16s %s -> %s (%s)\n", s.Name, s.LocalPath, s.RemotePath, state)
	}
}

// newConfigSetCmd creates the 'config set' command.
func newConfigSetCmd() *cobra.Command {
	var checkProxy bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Long: `Change one preference and save the file.

Keys are addressed as section.key, see 'config show'. The whole file is
validated before it is written. With --check, a changed proxy is tested first
and nothing is saved when the test fails.

Examples:
  syncshell config set general.language es
  syncshell config set bandwidth.upload_limit_kbs 512
  syncshell config set proxy.mode manual`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, path, err := loadPreferences()
			if err != nil {
				return err
			}
			opts := []settings.Option{
				settings.WithShell(newShell()),
				settings.WithLogger(GetLogger().Component("settings")),
			}
			if checkProxy {
				opts = append(opts, settings.WithProxyCheck(
					proxy.NewConnectivityChecker(prefs.Links.ConnectivityURL, GetLogger().Component("proxy"))))
			}
			m := settings.New(appFs, path, prefs, opts...)

			if err := m.Set(args[0], args[1]); err != nil {
				return err
			}
			if !m.Dirty() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s unchanged\n", args[0])
				return nil
			}
			if err := m.Save(GetContext()); err != nil {
				return err
			}
			value, _ := m.Preferences().Get(args[0])
			if args[0] == "proxy.password" {
				value = "<set>"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", args[0], value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkProxy, "check", false, "Test changed proxy settings before saving")
	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show preferences file path",
		Long:  `Display the path to the preferences file and whether it exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := preferencesPath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfgFile == "" {
				fmt.Fprintln(out, "Default preferences path:")
			} else {
				fmt.Fprintln(out, "Preferences path (from --config flag):")
			}
			fmt.Fprintf(out, "  %s\n\n", path)

			if info, err := appFs.Stat(path); err == nil {
				fmt.Fprintln(out, "Status: ✓ File exists")
				fmt.Fprintf(out, "Size:   %d bytes\n", info.Size())
				fmt.Fprintf(out, "Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Status: File does not exist")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Create one with: syncshell config init")
			}
			return nil
		},
	}
	return cmd
}
