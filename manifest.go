package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// sourceManifest is the platform-agnostic extension description.
type sourceManifest struct {
	Name            string              `yaml:"name" validate:"required"`
	Version         string              `yaml:"version" validate:"required"`
	Description     string              `yaml:"description"`
	Icons           map[string]string   `yaml:"icons"`
	Action          *manifestAction     `yaml:"action"`
	Permissions     []string            `yaml:"permissions"`
	HostPermissions []string            `yaml:"host_permissions"`
	Background      *manifestBackground `yaml:"background"`
	ContentScripts  []contentScript     `yaml:"content_scripts" validate:"dive"`
	GeckoID         string              `yaml:"gecko_id"`
}

type manifestAction struct {
	DefaultTitle string      `yaml:"default_title" json:"default_title,omitempty"`
	DefaultIcon  interface{} `yaml:"default_icon" json:"default_icon,omitempty"`
	DefaultPopup string      `yaml:"default_popup" json:"default_popup,omitempty"`
}

type manifestBackground struct {
	ServiceWorker string   `yaml:"service_worker" json:"service_worker,omitempty"`
	Scripts       []string `yaml:"scripts" json:"scripts,omitempty"`
	Persistent    *bool    `yaml:"persistent" json:"persistent,omitempty"`
}

type contentScript struct {
	Matches []string `yaml:"matches" json:"matches" validate:"min=1"`
	JS      []string `yaml:"js" json:"js,omitempty"`
	CSS     []string `yaml:"css" json:"css,omitempty"`
	RunAt   string   `yaml:"run_at" json:"run_at,omitempty"`
}

type chromeManifest struct {
	ManifestVersion int                 `json:"manifest_version"`
	Name            string              `json:"name"`
	Version         string              `json:"version"`
	Description     string              `json:"description,omitempty"`
	Icons           map[string]string   `json:"icons,omitempty"`
	Action          *manifestAction     `json:"action,omitempty"`
	Permissions     []string            `json:"permissions,omitempty"`
	HostPermissions []string            `json:"host_permissions,omitempty"`
	Background      *manifestBackground `json:"background,omitempty"`
	ContentScripts  []contentScript     `json:"content_scripts,omitempty"`
}

type geckoSettings struct {
	Gecko struct {
		ID string `json:"id"`
	} `json:"gecko"`
}

type firefoxManifest struct {
	ManifestVersion         int                 `json:"manifest_version"`
	Name                    string              `json:"name"`
	Version                 string              `json:"version"`
	Description             string              `json:"description,omitempty"`
	Icons                   map[string]string   `json:"icons"`
	BrowserAction           *manifestAction     `json:"browser_action,omitempty"`
	Permissions             []string            `json:"permissions"`
	Background              *manifestBackground `json:"background,omitempty"`
	ContentScripts          []contentScript     `json:"content_scripts,omitempty"`
	BrowserSpecificSettings *geckoSettings      `json:"browser_specific_settings,omitempty"`
}

func loadSourceManifest(path string) (*sourceManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m sourceManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := validator.New().Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

func stripDist(p string) string {
	return strings.TrimPrefix(p, "dist/")
}

func stripDistAll(paths []string) []string {
	if paths == nil {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = stripDist(p)
	}
	return out
}

func convertAction(a *manifestAction) *manifestAction {
	if a == nil {
		return nil
	}
	return &manifestAction{
		DefaultTitle: a.DefaultTitle,
		DefaultIcon:  a.DefaultIcon,
		DefaultPopup: stripDist(a.DefaultPopup),
	}
}

func convertContentScripts(scripts []contentScript) []contentScript {
	if len(scripts) == 0 {
		return nil
	}
	out := make([]contentScript, len(scripts))
	for i, cs := range scripts {
		out[i] = contentScript{
			Matches: cs.Matches,
			JS:      stripDistAll(cs.JS),
			CSS:     stripDistAll(cs.CSS),
			RunAt:   cs.RunAt,
		}
	}
	return out
}

// toChrome produces a Manifest V3 document.
func (m *sourceManifest) toChrome() chromeManifest {
	out := chromeManifest{
		ManifestVersion: 3,
		Name:            m.Name,
		Version:         m.Version,
		Description:     m.Description,
		Icons:           m.Icons,
		Action:          convertAction(m.Action),
		Permissions:     m.Permissions,
		HostPermissions: m.HostPermissions,
		ContentScripts:  convertContentScripts(m.ContentScripts),
	}
	if bg := m.Background; bg != nil {
		worker := bg.ServiceWorker
		if worker == "" && len(bg.Scripts) > 0 {
			worker = bg.Scripts[0]
		}
		if worker != "" {
			out.Background = &manifestBackground{ServiceWorker: stripDist(worker)}
		}
	}
	return out
}

// toFirefox produces a Manifest V2 document: the action becomes a
// browser_action, host permissions are folded into permissions and a
// service worker becomes a non-persistent background script.
func (m *sourceManifest) toFirefox() firefoxManifest {
	icons := m.Icons
	if icons == nil {
		icons = map[string]string{}
	}
	out := firefoxManifest{
		ManifestVersion: 2,
		Name:            m.Name,
		Version:         m.Version,
		Description:     m.Description,
		Icons:           icons,
		BrowserAction:   convertAction(m.Action),
		Permissions:     mergeUnique(m.Permissions, m.HostPermissions),
		ContentScripts:  convertContentScripts(m.ContentScripts),
	}
	if bg := m.Background; bg != nil {
		switch {
		case bg.ServiceWorker != "":
			persistent := false
			out.Background = &manifestBackground{Scripts: []string{"background.js"}, Persistent: &persistent}
		case len(bg.Scripts) > 0:
			out.Background = &manifestBackground{Scripts: stripDistAll(bg.Scripts), Persistent: bg.Persistent}
		}
	}
	if m.GeckoID != "" {
		s := &geckoSettings{}
		s.Gecko.ID = m.GeckoID
		out.BrowserSpecificSettings = s
	}
	return out
}

func mergeUnique(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, l := range lists {
		for _, v := range l {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

type packageOptions struct {
	manifest   string
	dist       string
	background string
}

var packageTargets = []string{"chrome", "firefox"}

// buildPackages writes dist/chrome and dist/firefox, each holding a copy of
// the built assets, the background script and its own manifest.json.
func buildPackages(opts packageOptions) (map[string]string, error) {
	src, err := loadSourceManifest(opts.manifest)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(opts.dist); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("dist directory %s not found", opts.dist)
	}

	docs := map[string]interface{}{
		"chrome":  src.toChrome(),
		"firefox": src.toFirefox(),
	}
	skip := make(map[string]bool, len(packageTargets))
	for _, t := range packageTargets {
		skip[t] = true
	}

	written := make(map[string]string, len(packageTargets))
	paths := make([]string, len(packageTargets))
	var g errgroup.Group
	for i, target := range packageTargets {
		i, target := i, target
		g.Go(func() error {
			out := filepath.Join(opts.dist, target)
			if err := copyTree(opts.dist, out, skip); err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}
			if opts.background != "" {
				if _, err := os.Stat(opts.background); err == nil {
					if err := copyFile(opts.background, filepath.Join(out, "background.js")); err != nil {
						return fmt.Errorf("%s: %w", target, err)
					}
				}
			}
			data, err := json.MarshalIndent(docs[target], "", "  ")
			if err != nil {
				return fmt.Errorf("%s: encode manifest: %w", target, err)
			}
			path := filepath.Join(out, "manifest.json")
			if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, target := range packageTargets {
		written[target] = paths[i]
	}
	return written, nil
}

// copyTree copies src into dst, skipping top-level entries named in skip.
func copyTree(src, dst string, skip map[string]bool) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(dst, 0755)
		}
		top := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
		if skip[top] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

const packageUsage = `Usage: synapse package [-manifest manifest.yaml] [-dist dist] [-background background.js]

Writes dist/chrome/manifest.json (Manifest V3) and dist/firefox/manifest.json
(Manifest V2), copying the built assets into both trees.
`

func cmdPackage(args []string) int {
	opts := packageOptions{manifest: "manifest.yaml", dist: "dist", background: "background.js"}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-manifest", "--manifest":
			if i+1 < len(args) {
				opts.manifest = args[i+1]
				i++
			}
		case "-dist", "--dist":
			if i+1 < len(args) {
				opts.dist = args[i+1]
				i++
			}
		case "-background", "--background":
			if i+1 < len(args) {
				opts.background = args[i+1]
				i++
			}
		case "-h", "--help":
			fmt.Print(packageUsage)
			return 0
		default:
			fmt.Fprintf(os.Stderr, "Unknown option: %s\n", args[i])
			fmt.Fprint(os.Stderr, packageUsage)
			return 2
		}
	}

	written, err := buildPackages(opts)
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "package failed: %v\n", err)
		return 1
	}
	for _, target := range packageTargets {
		color.New(color.FgGreen).Printf("✓ %-8s", target)
		fmt.Printf(" %s\n", written[target])
	}
	return 0
}
