// Package config provides configuration management for notesync.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/notesync/config.toml)
//  3. Project config (.notesync/config.toml, notesync.toml or notesync.yaml)
//  4. Environment variables (NOTESYNC_*)
//  5. CLI flags (highest priority)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Renderer names understood by the CLI.
const (
	RendererMarkdown = "markdown"
	RendererCommand  = "command"
)

// MathJax inclusion policies.
const (
	MathJaxAuto   = "auto"
	MathJaxAlways = "always"
	MathJaxNever  = "never"
)

// DefaultCodeTheme is the syntax highlighting theme used for code blocks.
const DefaultCodeTheme = "github"

// DefaultOutputDir is the output directory, relative to the source root,
// used when none is configured.
const DefaultOutputDir = "_rendered"

// Config is the main configuration struct for notesync.
type Config struct {
	// Sync configures the source and output trees.
	Sync SyncConfig `toml:"sync" yaml:"sync"`

	// Render configures how documents and index pages are produced.
	Render RenderConfig `toml:"render" yaml:"render"`

	// Watch configures watch mode.
	Watch WatchConfig `toml:"watch,omitempty" yaml:"watch,omitempty"`

	// baseDir is the directory relative paths are resolved against. It is
	// the directory of the config file that set Source or Output.
	baseDir string
	// styleBaseDir is baseDir for Render.Stylesheet.
	styleBaseDir string
}

// SyncConfig holds the source/output settings.
type SyncConfig struct {
	// Source is the directory holding the documents.
	Source string `toml:"source,omitempty" yaml:"source,omitempty"`

	// Output is the rendered tree. Defaults to <source>/_rendered.
	Output string `toml:"output,omitempty" yaml:"output,omitempty"`

	// Ignore lists glob patterns, matched against paths relative to the
	// source root. Bare names match at any depth.
	Ignore []string `toml:"ignore,omitempty" yaml:"ignore,omitempty"`

	// Extensions lists renderable document extensions (e.g. [".md"]).
	Extensions []string `toml:"extensions,omitempty" yaml:"extensions,omitempty"`

	// Incremental skips unchanged directories. Disable to rebuild everything.
	Incremental *bool `toml:"incremental,omitempty" yaml:"incremental,omitempty"`

	// Jobs bounds concurrent document rendering within a directory.
	Jobs int `toml:"jobs,omitempty" yaml:"jobs,omitempty"`

	// IndexName is the file name of each directory's index page.
	IndexName string `toml:"index_name,omitempty" yaml:"index_name,omitempty"`
}

// RenderConfig holds renderer settings.
type RenderConfig struct {
	// Renderer is "markdown" (built in) or "command".
	Renderer string `toml:"renderer,omitempty" yaml:"renderer,omitempty"`

	// Command is the program and arguments used by the command renderer.
	// It reads the document on stdin and writes the page to stdout.
	Command []string `toml:"command,omitempty" yaml:"command,omitempty"`

	// UnsafeHTML lets raw HTML in documents through the markdown renderer.
	UnsafeHTML *bool `toml:"unsafe_html,omitempty" yaml:"unsafe_html,omitempty"`

	// IndexTitle is the title prefix of index pages.
	IndexTitle string `toml:"index_title,omitempty" yaml:"index_title,omitempty"`

	// Stylesheet is a CSS file or URL added to every page.
	Stylesheet string `toml:"stylesheet,omitempty" yaml:"stylesheet,omitempty"`

	// InlineStylesheet embeds the stylesheet's content instead of linking it.
	InlineStylesheet *bool `toml:"inline_stylesheet,omitempty" yaml:"inline_stylesheet,omitempty"`

	// MathJax is "auto" (only pages with TeX delimiters), "always" or "never".
	MathJax string `toml:"mathjax,omitempty" yaml:"mathjax,omitempty"`

	// CodeTheme is the syntax highlighting theme for fenced code blocks.
	CodeTheme string `toml:"code_theme,omitempty" yaml:"code_theme,omitempty"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	// DebounceMS is the quiet period before a re-sync, in milliseconds.
	DebounceMS int `toml:"debounce_ms,omitempty" yaml:"debounce_ms,omitempty"`
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	trueVal := true
	falseVal := false
	return &Config{
		Sync: SyncConfig{
			Source:      ".",
			Ignore:      []string{},
			Extensions:  []string{".md"},
			Incremental: &trueVal,
			Jobs:        1,
			IndexName:   "index.html",
		},
		Render: RenderConfig{
			Renderer:         RendererMarkdown,
			UnsafeHTML:       &falseVal,
			IndexTitle:       "Index of",
			InlineStylesheet: &falseVal,
			MathJax:          MathJaxAuto,
			CodeTheme:        DefaultCodeTheme,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
	}
}

// IsIncremental reports whether stored state should be used.
func (c *Config) IsIncremental() bool {
	return c.Sync.Incremental == nil || *c.Sync.Incremental
}

// AllowUnsafeHTML reports whether raw HTML is passed through.
func (c *Config) AllowUnsafeHTML() bool {
	return c.Render.UnsafeHTML != nil && *c.Render.UnsafeHTML
}

// InlineStyle reports whether the stylesheet is embedded in pages.
func (c *Config) InlineStyle() bool {
	return c.Render.InlineStylesheet != nil && *c.Render.InlineStylesheet
}

// Debounce returns the watch debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// BaseDir returns the directory relative paths are resolved against, or ""
// when no config file set a path.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// Merge merges another config into this one (other takes precedence).
// Ignore patterns accumulate across layers.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Merge sync config
	if other.Sync.Source != "" {
		c.Sync.Source = other.Sync.Source
		c.baseDir = other.baseDir
	}
	if other.Sync.Output != "" {
		c.Sync.Output = other.Sync.Output
		c.baseDir = other.baseDir
	}
	for _, p := range other.Sync.Ignore {
		if !slices.Contains(c.Sync.Ignore, p) {
			c.Sync.Ignore = append(c.Sync.Ignore, p)
		}
	}
	if len(other.Sync.Extensions) > 0 {
		c.Sync.Extensions = other.Sync.Extensions
	}
	if other.Sync.Incremental != nil {
		c.Sync.Incremental = other.Sync.Incremental
	}
	if other.Sync.Jobs > 0 {
		c.Sync.Jobs = other.Sync.Jobs
	}
	if other.Sync.IndexName != "" {
		c.Sync.IndexName = other.Sync.IndexName
	}

	// Merge render config
	if other.Render.Renderer != "" {
		c.Render.Renderer = other.Render.Renderer
	}
	if len(other.Render.Command) > 0 {
		c.Render.Command = other.Render.Command
	}
	if other.Render.UnsafeHTML != nil {
		c.Render.UnsafeHTML = other.Render.UnsafeHTML
	}
	if other.Render.IndexTitle != "" {
		c.Render.IndexTitle = other.Render.IndexTitle
	}
	if other.Render.Stylesheet != "" {
		c.Render.Stylesheet = other.Render.Stylesheet
		c.styleBaseDir = other.baseDir
	}
	if other.Render.InlineStylesheet != nil {
		c.Render.InlineStylesheet = other.Render.InlineStylesheet
	}
	if other.Render.MathJax != "" {
		c.Render.MathJax = other.Render.MathJax
	}
	if other.Render.CodeTheme != "" {
		c.Render.CodeTheme = other.Render.CodeTheme
	}

	// Merge watch config
	if other.Watch.DebounceMS > 0 {
		c.Watch.DebounceMS = other.Watch.DebounceMS
	}
}

// Resolve expands ~ and environment variables in Source, Output and a
// stylesheet file, makes them absolute, and fills in the default output
// directory. Relative paths are taken relative to the config file that set
// them, or to fallback. Stylesheet URLs are left alone.
func (c *Config) Resolve(fallback string) error {
	if c.Render.Stylesheet != "" && !IsURL(c.Render.Stylesheet) {
		styleBase := c.styleBaseDir
		if styleBase == "" {
			styleBase = fallback
		}
		style, err := absPath(styleBase, c.Render.Stylesheet)
		if err != nil {
			return fmt.Errorf("failed to resolve stylesheet %q: %w", c.Render.Stylesheet, err)
		}
		c.Render.Stylesheet = style
	}

	base := c.baseDir
	if base == "" {
		base = fallback
	}

	source, err := absPath(base, c.Sync.Source)
	if err != nil {
		return fmt.Errorf("failed to resolve source %q: %w", c.Sync.Source, err)
	}
	c.Sync.Source = source

	if c.Sync.Output == "" {
		c.Sync.Output = filepath.Join(source, DefaultOutputDir)
		return nil
	}
	output, err := absPath(base, c.Sync.Output)
	if err != nil {
		return fmt.Errorf("failed to resolve output %q: %w", c.Sync.Output, err)
	}
	c.Sync.Output = output
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Sync.Source == "" {
		errs = append(errs, errors.New("sync.source must be set"))
	}
	if c.Sync.Jobs < 1 {
		errs = append(errs, fmt.Errorf("sync.jobs must be at least 1, got %d", c.Sync.Jobs))
	}
	if strings.ContainsRune(c.Sync.IndexName, filepath.Separator) || strings.Contains(c.Sync.IndexName, "/") {
		errs = append(errs, fmt.Errorf("sync.index_name must be a file name, got %q", c.Sync.IndexName))
	}
	// Renderer names are resolved by the registry, which may hold more
	// than the built-in ones.
	switch c.Render.Renderer {
	case "":
		errs = append(errs, errors.New("render.renderer must be set"))
	case RendererCommand:
		if len(c.Render.Command) == 0 {
			errs = append(errs, errors.New("render.command must be set for the command renderer"))
		}
	}
	switch c.Render.MathJax {
	case MathJaxAuto, MathJaxAlways, MathJaxNever:
	default:
		errs = append(errs, fmt.Errorf("render.mathjax must be one of %s, %s or %s, got %q",
			MathJaxAuto, MathJaxAlways, MathJaxNever, c.Render.MathJax))
	}
	if c.InlineStyle() && IsURL(c.Render.Stylesheet) {
		errs = append(errs, errors.New("render.inline_stylesheet needs a local stylesheet file"))
	}
	if c.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS))
	}
	if c.Sync.Output != "" && filepath.Clean(c.Sync.Output) == filepath.Clean(c.Sync.Source) {
		errs = append(errs, errors.New("sync.output must differ from sync.source"))
	}
	return errors.Join(errs...)
}

// ExpandPath expands a leading ~ and environment variables in p.
func ExpandPath(p string) string {
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// IsURL reports whether p names a remote resource rather than a file.
func IsURL(p string) bool {
	return strings.Contains(p, "://") || strings.HasPrefix(p, "//")
}

func absPath(base, p string) (string, error) {
	p = ExpandPath(p)
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return filepath.Abs(p)
}
