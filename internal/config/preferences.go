package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

// Preferences is the shell's persisted configuration.
//
// INI format:
//
//	[general]
//	language = en
//	start_on_startup = true
//	notifications = true
//	last_changelog_version = v1.1.0
//	account_email = me@example.com
//
//	[transfers]
//	downloads_paused = false
//	uploads_paused = false
//	all_paused = false
//
//	[bandwidth]
//	upload_limit_kbs = -1
//	download_limit_kbs = 0
//
//	[proxy]
//	mode = manual
//	type = http
//	host = proxy.corp
//	port = 3128
//	requires_auth = false
//	username =
//	password =
//	no_proxy = localhost,127.0.0.1
//
//	[advanced]
//	excluded_names = *.tmp,.DS_Store,Thumbs.db
//	debug_logging = false
//	log_to_file = true
//
//	[links]
//	terms_url = https://driftsync.io/terms
//	privacy_url = https://driftsync.io/privacy
//	acknowledgements_url = https://driftsync.io/credits
//	connectivity_url = https://driftsync.io/ping
//
//	[sync.Documents]
//	local_path = /Users/me/Documents
//	remote_path = /Documents
//	active = true
type Preferences struct {
	General   GeneralPrefs
	Transfers TransferPrefs
	Bandwidth BandwidthPrefs
	Proxy     ProxyPrefs
	Advanced  AdvancedPrefs
	Links     LinkPrefs
	Syncs     []SyncFolder
}

// GeneralPrefs holds the [general] section.
type GeneralPrefs struct {
	Language             string `ini:"language"`
	StartOnStartup       bool   `ini:"start_on_startup"`
	Notifications        bool   `ini:"notifications"`
	LastChangelogVersion string `ini:"last_changelog_version"`
	AccountEmail         string `ini:"account_email"`
}

// TransferPrefs holds the persisted pause toggles.
type TransferPrefs struct {
	DownloadsPaused bool `ini:"downloads_paused"`
	UploadsPaused   bool `ini:"uploads_paused"`
	AllPaused       bool `ini:"all_paused"`
}

// Bandwidth limit special values.
const (
	BandwidthAuto      = -1
	BandwidthUnlimited = 0
)

// BandwidthPrefs holds the [bandwidth] section. Limits are in KB/s.
type BandwidthPrefs struct {
	UploadLimitKBs   int `ini:"upload_limit_kbs"`
	DownloadLimitKBs int `ini:"download_limit_kbs"`
}

// Proxy modes.
const (
	ProxyModeNone   = "none"
	ProxyModeAuto   = "auto"
	ProxyModeManual = "manual"
)

// Proxy types.
const (
	ProxyTypeHTTP    = "http"
	ProxyTypeSOCKS5H = "socks5h"
	ProxyTypeNTLM    = "ntlm"
)

// ProxyPrefs holds the [proxy] section.
type ProxyPrefs struct {
	Mode         string `ini:"mode"`
	Type         string `ini:"type"`
	Host         string `ini:"host"`
	Port         int    `ini:"port"`
	RequiresAuth bool   `ini:"requires_auth"`
	Username     string `ini:"username"`
	Password     string `ini:"password"`
	NoProxy      string `ini:"no_proxy"`
}

// AdvancedPrefs holds the [advanced] section.
type AdvancedPrefs struct {
	ExcludedNames []string
	DebugLogging  bool
	LogToFile     bool
}

// LinkPrefs holds the [links] section.
type LinkPrefs struct {
	TermsURL            string `ini:"terms_url"`
	PrivacyURL          string `ini:"privacy_url"`
	AcknowledgementsURL string `ini:"acknowledgements_url"`
	ConnectivityURL     string `ini:"connectivity_url"`
}

// SyncFolder is one [sync.<name>] section.
type SyncFolder struct {
	Name       string
	LocalPath  string
	RemotePath string
	Active     bool
}

// DefaultExcludedNames are applied to new installations.
var DefaultExcludedNames = []string{"Thumbs.db", "desktop.ini", "~*", ".*"}

// NewPreferences creates preferences with default values.
func NewPreferences() *Preferences {
	return &Preferences{
		General: GeneralPrefs{
			Language:       "en",
			StartOnStartup: true,
			Notifications:  true,
		},
		Bandwidth: BandwidthPrefs{
			UploadLimitKBs:   BandwidthAuto,
			DownloadLimitKBs: BandwidthUnlimited,
		},
		Proxy: ProxyPrefs{
			Mode: ProxyModeAuto,
			Type: ProxyTypeHTTP,
		},
		Advanced: AdvancedPrefs{
			ExcludedNames: append([]string(nil), DefaultExcludedNames...),
			LogToFile:     true,
		},
		Links: LinkPrefs{
			TermsURL:            "https://driftsync.io/terms",
			PrivacyURL:          "https://driftsync.io/privacy",
			AcknowledgementsURL: "https://driftsync.io/credits",
			ConnectivityURL:     "https://driftsync.io/ping",
		},
	}
}

// Clone returns a deep copy.
func (p *Preferences) Clone() *Preferences {
	c := *p
	c.Advanced.ExcludedNames = append([]string(nil), p.Advanced.ExcludedNames...)
	c.Syncs = append([]SyncFolder(nil), p.Syncs...)
	return &c
}

// ActiveSyncs returns the active sync folders, sorted by name.
func (p *Preferences) ActiveSyncs() []SyncFolder {
	var out []SyncFolder
	for _, s := range p.Syncs {
		if s.Active {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

const syncSectionPrefix = "sync."

// Load reads preferences from path on fs. If path is empty the default path
// is used. A missing file yields defaults and no error.
func Load(fs afero.Fs, path string) (*Preferences, error) {
	prefs := NewPreferences()

	if path == "" {
		var err error
		path, err = DefaultPreferencesPath()
		if err != nil {
			return prefs, nil
		}
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	iniFile, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	general := iniFile.Section("general")
	prefs.General.Language = general.Key("language").MustString(prefs.General.Language)
	prefs.General.StartOnStartup = general.Key("start_on_startup").MustBool(prefs.General.StartOnStartup)
	prefs.General.Notifications = general.Key("notifications").MustBool(prefs.General.Notifications)
	prefs.General.LastChangelogVersion = general.Key("last_changelog_version").String()
	prefs.General.AccountEmail = general.Key("account_email").String()

	transfers := iniFile.Section("transfers")
	prefs.Transfers.DownloadsPaused = transfers.Key("downloads_paused").MustBool(false)
	prefs.Transfers.UploadsPaused = transfers.Key("uploads_paused").MustBool(false)
	prefs.Transfers.AllPaused = transfers.Key("all_paused").MustBool(false)

	bandwidth := iniFile.Section("bandwidth")
	prefs.Bandwidth.UploadLimitKBs = bandwidth.Key("upload_limit_kbs").MustInt(prefs.Bandwidth.UploadLimitKBs)
	prefs.Bandwidth.DownloadLimitKBs = bandwidth.Key("download_limit_kbs").MustInt(prefs.Bandwidth.DownloadLimitKBs)

	proxy := iniFile.Section("proxy")
	prefs.Proxy.Mode = proxy.Key("mode").MustString(prefs.Proxy.Mode)
	prefs.Proxy.Type = proxy.Key("type").MustString(prefs.Proxy.Type)
	prefs.Proxy.Host = proxy.Key("host").String()
	prefs.Proxy.Port = proxy.Key("port").MustInt(0)
	prefs.Proxy.RequiresAuth = proxy.Key("requires_auth").MustBool(false)
	prefs.Proxy.Username = proxy.Key("username").String()
	prefs.Proxy.Password = proxy.Key("password").String()
	prefs.Proxy.NoProxy = proxy.Key("no_proxy").String()

	advanced := iniFile.Section("advanced")
	if advanced.HasKey("excluded_names") {
		prefs.Advanced.ExcludedNames = splitList(advanced.Key("excluded_names").String())
	}
	prefs.Advanced.DebugLogging = advanced.Key("debug_logging").MustBool(false)
	prefs.Advanced.LogToFile = advanced.Key("log_to_file").MustBool(prefs.Advanced.LogToFile)

	links := iniFile.Section("links")
	prefs.Links.TermsURL = links.Key("terms_url").MustString(prefs.Links.TermsURL)
	prefs.Links.PrivacyURL = links.Key("privacy_url").MustString(prefs.Links.PrivacyURL)
	prefs.Links.AcknowledgementsURL = links.Key("acknowledgements_url").MustString(prefs.Links.AcknowledgementsURL)
	prefs.Links.ConnectivityURL = links.Key("connectivity_url").MustString(prefs.Links.ConnectivityURL)

	for _, section := range iniFile.Sections() {
		name, ok := strings.CutPrefix(section.Name(), syncSectionPrefix)
		if !ok || name == "" {
			continue
		}
		prefs.Syncs = append(prefs.Syncs, SyncFolder{
			Name:       name,
			LocalPath:  section.Key("local_path").String(),
			RemotePath: section.Key("remote_path").MustString("/"),
			Active:     section.Key("active").MustBool(true),
		})
	}

	return prefs, nil
}

// updateMu serialises Update calls within the process.
var updateMu sync.Mutex

// Update loads the preferences at path, applies fn and saves the result.
// It returns what was written. Nothing is written if fn fails.
func Update(fs afero.Fs, path string, fn func(*Preferences) error) (*Preferences, error) {
	updateMu.Lock()
	defer updateMu.Unlock()

	prefs, err := Load(fs, path)
	if err != nil {
		return nil, err
	}
	if err := fn(prefs); err != nil {
		return nil, err
	}
	if err := Save(fs, prefs, path); err != nil {
		return nil, err
	}
	return prefs, nil
}

// Save writes preferences to path on fs, creating parent directories.
// The file is written to a temporary name and renamed into place.
func Save(fs afero.Fs, prefs *Preferences, path string) error {
	if path == "" {
		var err error
		path, err = DefaultPreferencesPath()
		if err != nil {
			return fmt.Errorf("failed to determine preferences path: %w", err)
		}
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	general, err := iniFile.NewSection("general")
	if err != nil {
		return fmt.Errorf("failed to create general section: %w", err)
	}
	general.Key("language").SetValue(prefs.General.Language)
	general.Key("start_on_startup").SetValue(strconv.FormatBool(prefs.General.StartOnStartup))
	general.Key("notifications").SetValue(strconv.FormatBool(prefs.General.Notifications))
	general.Key("last_changelog_version").SetValue(prefs.General.LastChangelogVersion)
	general.Key("account_email").SetValue(prefs.General.AccountEmail)

	transfers, err := iniFile.NewSection("transfers")
	if err != nil {
		return fmt.Errorf("failed to create transfers section: %w", err)
	}
	transfers.Key("downloads_paused").SetValue(strconv.FormatBool(prefs.Transfers.DownloadsPaused))
	transfers.Key("uploads_paused").SetValue(strconv.FormatBool(prefs.Transfers.UploadsPaused))
	transfers.Key("all_paused").SetValue(strconv.FormatBool(prefs.Transfers.AllPaused))

	bandwidth, err := iniFile.NewSection("bandwidth")
	if err != nil {
		return fmt.Errorf("failed to create bandwidth section: %w", err)
	}
	bandwidth.Key("upload_limit_kbs").SetValue(strconv.Itoa(prefs.Bandwidth.UploadLimitKBs))
	bandwidth.Key("download_limit_kbs").SetValue(strconv.Itoa(prefs.Bandwidth.DownloadLimitKBs))

	proxy, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxy.Key("mode").SetValue(prefs.Proxy.Mode)
	proxy.Key("type").SetValue(prefs.Proxy.Type)
	proxy.Key("host").SetValue(prefs.Proxy.Host)
	proxy.Key("port").SetValue(strconv.Itoa(prefs.Proxy.Port))
	proxy.Key("requires_auth").SetValue(strconv.FormatBool(prefs.Proxy.RequiresAuth))
	proxy.Key("username").SetValue(prefs.Proxy.Username)
	proxy.Key("password").SetValue(prefs.Proxy.Password)
	proxy.Key("no_proxy").SetValue(prefs.Proxy.NoProxy)

	advanced, err := iniFile.NewSection("advanced")
	if err != nil {
		return fmt.Errorf("failed to create advanced section: %w", err)
	}
	advanced.Key("excluded_names").SetValue(strings.Join(prefs.Advanced.ExcludedNames, ","))
	advanced.Key("debug_logging").SetValue(strconv.FormatBool(prefs.Advanced.DebugLogging))
	advanced.Key("log_to_file").SetValue(strconv.FormatBool(prefs.Advanced.LogToFile))

	links, err := iniFile.NewSection("links")
	if err != nil {
		return fmt.Errorf("failed to create links section: %w", err)
	}
	links.Key("terms_url").SetValue(prefs.Links.TermsURL)
	links.Key("privacy_url").SetValue(prefs.Links.PrivacyURL)
	links.Key("acknowledgements_url").SetValue(prefs.Links.AcknowledgementsURL)
	links.Key("connectivity_url").SetValue(prefs.Links.ConnectivityURL)

	for _, s := range prefs.Syncs {
		section, err := iniFile.NewSection(syncSectionPrefix + s.Name)
		if err != nil {
			return fmt.Errorf("failed to create sync section %q: %w", s.Name, err)
		}
		section.Key("local_path").SetValue(s.LocalPath)
		section.Key("remote_path").SetValue(s.RemotePath)
		section.Key("active").SetValue(strconv.FormatBool(s.Active))
	}

	var buf bytes.Buffer
	if _, err := iniFile.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := afero.WriteFile(fs, tmpPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	return nil
}

// Keys lists the "section.key" names accepted by Set.
func Keys() []string {
	return []string{
		"general.language", "general.start_on_startup", "general.notifications",
		"general.last_changelog_version", "general.account_email",
		"transfers.downloads_paused", "transfers.uploads_paused", "transfers.all_paused",
		"bandwidth.upload_limit_kbs", "bandwidth.download_limit_kbs",
		"proxy.mode", "proxy.type", "proxy.host", "proxy.port", "proxy.requires_auth",
		"proxy.username", "proxy.password", "proxy.no_proxy",
		"advanced.excluded_names", "advanced.debug_logging", "advanced.log_to_file",
		"links.terms_url", "links.privacy_url", "links.acknowledgements_url", "links.connectivity_url",
	}
}

// Set assigns a single value addressed as "section.key".
func (p *Preferences) Set(key, value string) error {
	var err error
	switch key {
	case "general.language":
		p.General.Language = value
	case "general.start_on_startup":
		p.General.StartOnStartup, err = strconv.ParseBool(value)
	case "general.notifications":
		p.General.Notifications, err = strconv.ParseBool(value)
	case "general.last_changelog_version":
		p.General.LastChangelogVersion = value
	case "general.account_email":
		p.General.AccountEmail = value
	case "transfers.downloads_paused":
		p.Transfers.DownloadsPaused, err = strconv.ParseBool(value)
	case "transfers.uploads_paused":
		p.Transfers.UploadsPaused, err = strconv.ParseBool(value)
	case "transfers.all_paused":
		p.Transfers.AllPaused, err = strconv.ParseBool(value)
	case "bandwidth.upload_limit_kbs":
		p.Bandwidth.UploadLimitKBs, err = strconv.Atoi(value)
	case "bandwidth.download_limit_kbs":
		p.Bandwidth.DownloadLimitKBs, err = strconv.Atoi(value)
	case "proxy.mode":
		p.Proxy.Mode = value
	case "proxy.type":
		p.Proxy.Type = value
	case "proxy.host":
		p.Proxy.Host = value
	case "proxy.port":
		p.Proxy.Port, err = strconv.Atoi(value)
	case "proxy.requires_auth":
		p.Proxy.RequiresAuth, err = strconv.ParseBool(value)
	case "proxy.username":
		p.Proxy.Username = value
	case "proxy.password":
		p.Proxy.Password = value
	case "proxy.no_proxy":
		p.Proxy.NoProxy = value
	case "advanced.excluded_names":
		p.Advanced.ExcludedNames = splitList(value)
	case "advanced.debug_logging":
		p.Advanced.DebugLogging, err = strconv.ParseBool(value)
	case "advanced.log_to_file":
		p.Advanced.LogToFile, err = strconv.ParseBool(value)
	case "links.terms_url":
		p.Links.TermsURL = value
	case "links.privacy_url":
		p.Links.PrivacyURL = value
	case "links.acknowledgements_url":
		p.Links.AcknowledgementsURL = value
	case "links.connectivity_url":
		p.Links.ConnectivityURL = value
	default:
		return fmt.Errorf("unknown preference key %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// Get returns the value addressed as "section.key", formatted as Set accepts it.
func (p *Preferences) Get(key string) (string, error) {
	switch key {
	case "general.language":
		return p.General.Language, nil
	case "general.start_on_startup":
		return strconv.FormatBool(p.General.StartOnStartup), nil
	case "general.notifications":
		return strconv.FormatBool(p.General.Notifications), nil
	case "general.last_changelog_version":
		return p.General.LastChangelogVersion, nil
	case "general.account_email":
		return p.General.AccountEmail, nil
	case "transfers.downloads_paused":
		return strconv.FormatBool(p.Transfers.DownloadsPaused), nil
	case "transfers.uploads_paused":
		return strconv.FormatBool(p.Transfers.UploadsPaused), nil
	case "transfers.all_paused":
		return strconv.FormatBool(p.Transfers.AllPaused), nil
	case "bandwidth.upload_limit_kbs":
		return strconv.Itoa(p.Bandwidth.UploadLimitKBs), nil
	case "bandwidth.download_limit_kbs":
		return strconv.Itoa(p.Bandwidth.DownloadLimitKBs), nil
	case "proxy.mode":
		return p.Proxy.Mode, nil
	case "proxy.type":
		return p.Proxy.Type, nil
	case "proxy.host":
		return p.Proxy.Host, nil
	case "proxy.port":
		return strconv.Itoa(p.Proxy.Port), nil
	case "proxy.requires_auth":
		return strconv.FormatBool(p.Proxy.RequiresAuth), nil
	case "proxy.username":
		return p.Proxy.Username, nil
	case "proxy.password":
		return p.Proxy.Password, nil
	case "proxy.no_proxy":
		return p.Proxy.NoProxy, nil
	case "advanced.excluded_names":
		return strings.Join(p.Advanced.ExcludedNames, ","), nil
	case "advanced.debug_logging":
		return strconv.FormatBool(p.Advanced.DebugLogging), nil
	case "advanced.log_to_file":
		return strconv.FormatBool(p.Advanced.LogToFile), nil
	case "links.terms_url":
		return p.Links.TermsURL, nil
	case "links.privacy_url":
		return p.Links.PrivacyURL, nil
	case "links.acknowledgements_url":
		return p.Links.AcknowledgementsURL, nil
	case "links.connectivity_url":
		return p.Links.ConnectivityURL, nil
	}
	return "", fmt.Errorf("unknown preference key %q", key)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
