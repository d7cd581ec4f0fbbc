package platform

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"howett.net/plist"
)

// launchAgent is the subset of launchd.plist(5) written for login items.
type launchAgent struct {
	Label                  string   `plist:"Label"`
	ProgramArguments       []string `plist:"ProgramArguments"`
	RunAtLoad              bool     `plist:"RunAtLoad"`
	ProcessType            string   `plist:"ProcessType"`
	LimitLoadToSessionType string   `plist:"LimitLoadToSessionType,omitempty"`
}

func launchAgentPath(home, appID string) string {
	return filepath.Join(home, "Library", "LaunchAgents", appID+".plist")
}

func encodeLaunchAgent(appID, executable string) ([]byte, error) {
	agent := launchAgent{
		Label:                  appID,
		ProgramArguments:       []string{executable, "gui"},
		RunAtLoad:              true,
		ProcessType:            "Interactive",
		LimitLoadToSessionType: "Aqua",
	}
	data, err := plist.MarshalIndent(agent, plist.XMLFormat, "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to encode launch agent: %w", err)
	}
	return data, nil
}

func decodeLaunchAgent(data []byte) (launchAgent, error) {
	var agent launchAgent
	if _, err := plist.Unmarshal(data, &agent); err != nil {
		return launchAgent{}, fmt.Errorf("failed to decode launch agent: %w", err)
	}
	return agent, nil
}

// XDG autostart

func desktopEntryPath(configDir, appID string) string {
	return filepath.Join(configDir, "autostart", appID+".desktop")
}

func desktopEntry(appName, executable string) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=%s\n", appName)
	fmt.Fprintf(&b, "Exec=%s gui\n", desktopExecQuote(executable))
	b.WriteString("Terminal=false\n")
	b.WriteString("X-GNOME-Autostart-enabled=true\n")
	return b.String()
}

// desktopEntryEnabled reads an autostart entry; a missing Hidden=true or
// X-GNOME-Autostart-enabled=false means enabled.
func desktopEntryEnabled(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "Hidden":
			if strings.EqualFold(value, "true") {
				return false
			}
		case "X-GNOME-Autostart-enabled":
			if strings.EqualFold(value, "false") {
				return false
			}
		}
	}
	return true
}

func desktopExecQuote(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\$`") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}

// Windows Run key

const runKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`

func runKeyValue(executable string) string {
	return fmt.Sprintf("\"%s\" gui", executable)
}

// GTK bookmarks, used as the sidebar "places" on XDG desktops

func bookmarksPath(configDir string) string {
	return filepath.Join(configDir, "gtk-3.0", "bookmarks")
}

func bookmarkLine(path, name string) string {
	uri := fileURI(path)
	if name == "" {
		return uri
	}
	return uri + " " + name
}

func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// withBookmark adds or removes path from a bookmarks file body.
func withBookmark(content, path, name string, add bool) string {
	prefix := fileURI(path)
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if line == "" {
			continue
		}
		uri, _, _ := strings.Cut(line, " ")
		if uri == prefix {
			continue
		}
		lines = append(lines, line)
	}
	if add {
		lines = append(lines, bookmarkLine(path, name))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
