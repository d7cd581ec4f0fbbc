// Package changelog parses the release notes shown in the changelog window.
//
// A changelog file is markdown with a YAML front matter block:
//
//	---
//	version: 5.2.0
//	sdk_version: 3.9.1
//	date: 2026-10-01
//	---
//	- Faster scanning of large folders
//	- Fixed tray icon on high-DPI screens
package changelog

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"

	"github.com/driftsync/syncshell/internal/config"
)

// Header precedes the notes.
const Header = "New in this version:"

// DefaultCopyright is used when no copyright template is configured.
const DefaultCopyright = "Copyright © %d DriftSync Ltd. All rights reserved."

// ErrNoVersion is returned when the front matter lacks a version.
var ErrNoVersion = errors.New("changelog has no version")

// Notes is a parsed changelog.
type Notes struct {
	Version    string `yaml:"version"`
	SDKVersion string `yaml:"sdk_version"`
	Date       string `yaml:"date"`

	// Markdown is the body without front matter.
	Markdown string `yaml:"-"`
	// HTML is the rendered body. Single newlines become <br>.
	HTML string `yaml:"-"`
}

// VersionLine renders "5.2.0 (3.9.1)", or just the version without an SDK.
func (n *Notes) VersionLine() string {
	if n.SDKVersion == "" {
		return n.Version
	}
	return fmt.Sprintf("%s (%s)", n.Version, n.SDKVersion)
}

// Document wraps the rendered notes under Header.
func (n *Notes) Document() string {
	var b strings.Builder
	b.WriteString("<p>" + Header + "</p>\n")
	b.WriteString(n.HTML)
	return b.String()
}

// Text is a plain rendering for the terminal.
func (n *Notes) Text() string {
	return fmt.Sprintf("%s\n%s\n\n%s\n", n.VersionLine(), Header, strings.TrimSpace(n.Markdown))
}

var md = goldmark.New(
	goldmark.WithExtensions(&frontmatter.Extender{}),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Parse reads front matter and renders the markdown body.
func Parse(src []byte) (*Notes, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext()
	if err := md.Convert(src, &buf, parser.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("cannot render changelog: %w", err)
	}

	notes := &Notes{HTML: buf.String(), Markdown: stripFrontMatter(string(src))}
	fm := frontmatter.Get(ctx)
	if fm == nil {
		return nil, ErrNoVersion
	}
	if err := fm.Decode(notes); err != nil {
		return nil, fmt.Errorf("cannot decode changelog front matter: %w", err)
	}
	if notes.Version == "" {
		return nil, ErrNoVersion
	}
	return notes, nil
}

// Load reads and parses the changelog at path.
func Load(fs afero.Fs, path string) (*Notes, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read changelog %s: %w", path, err)
	}
	return Parse(src)
}

func stripFrontMatter(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return s
	}
	parts := strings.SplitN(s, "---\n", 3)
	if len(parts) < 3 {
		return s
	}
	return parts[2]
}

// Copyright fills the year into tmpl's %d.
func Copyright(tmpl string, now time.Time) string {
	if tmpl == "" {
		tmpl = DefaultCopyright
	}
	return strings.Replace(tmpl, "%d", fmt.Sprint(now.Year()), 1)
}

// Link is a button on the changelog window.
type Link struct {
	Title string
	URL   string
}

// Links returns the legal links configured in prefs, skipping empty ones.
func Links(prefs config.LinkPrefs) []Link {
	all := []Link{
		{Title: "Terms of Service", URL: prefs.TermsURL},
		{Title: "Privacy Policy", URL: prefs.PrivacyURL},
		{Title: "Acknowledgements", URL: prefs.AcknowledgementsURL},
	}
	links := all[:0]
	for _, l := range all {
		if l.URL != "" {
			links = append(links, l)
		}
	}
	return links
}
