package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "notesync.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".notesync"

// GlobalConfigDir is the name of the global config directory inside user's config.
const GlobalConfigDir = "notesync"

// projectConfigNames are tried in order in every searched directory.
var projectConfigNames = []string{
	filepath.Join(ConfigDirName, "config.toml"),
	ConfigFileName,
	"notesync.yaml",
	"notesync.yml",
}

// Load loads configuration from all layers in order of precedence:
//  1. Built-in defaults
//  2. Global user config (~/.config/notesync/config.toml)
//  3. Project config (.notesync/config.toml, notesync.toml, notesync.yaml)
//  4. Environment variables (NOTESYNC_*)
//
// CLI flags are applied separately after Load() returns.
func Load() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration starting from a specific directory.
func LoadFrom(dir string) *Config {
	cfg := NewConfig()

	// Layer 2: Global user config
	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	// Layer 3: Project config from specified directory
	if projectCfg := loadProjectConfigFrom(dir); projectCfg != nil {
		cfg.Merge(projectCfg)
	}

	// Layer 4: Environment variables
	applyEnvironmentVariables(cfg)

	return cfg
}

// LoadWithFile layers an explicitly named config file over the defaults and
// the global config. Unlike discovered files, a broken explicit file is an
// error.
func LoadWithFile(path string) (*Config, error) {
	fileCfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := NewConfig()
	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}
	cfg.Merge(fileCfg)
	applyEnvironmentVariables(cfg)
	return cfg, nil
}

// ReadFile parses a TOML or YAML config file, chosen by extension.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.baseDir = filepath.Dir(abs)
	return &cfg, nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// loadGlobalConfig loads the global user configuration from ~/.config/notesync/config.toml.
func loadGlobalConfig() *Config {
	path := GetGlobalConfigPath()
	if path == "" {
		return nil
	}
	return loadConfigFile(path)
}

// loadProjectConfigFrom looks for project configuration starting from the given directory.
func loadProjectConfigFrom(dir string) *Config {
	// Search up the directory tree for config files
	current := dir
	for {
		for _, name := range projectConfigNames {
			if cfg := loadConfigFile(filepath.Join(current, name)); cfg != nil {
				return cfg
			}
		}

		// Stop at filesystem root or repository root
		if isWorkspaceRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil
}

// isWorkspaceRoot checks if the directory is a repository root (has .git or .hg).
func isWorkspaceRoot(dir string) bool {
	markers := []string{".git", ".hg"}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// loadConfigFile loads a configuration file, returning nil if it is missing
// or unreadable.
func loadConfigFile(path string) *Config {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil
	}
	return cfg
}

// applyEnvironmentVariables applies NOTESYNC_* environment variables to the config.
func applyEnvironmentVariables(cfg *Config) {
	if v := os.Getenv("NOTESYNC_SOURCE"); v != "" {
		cfg.Sync.Source = v
		cfg.baseDir = ""
	}
	if v := os.Getenv("NOTESYNC_OUTPUT"); v != "" {
		cfg.Sync.Output = v
		cfg.baseDir = ""
	}

	// NOTESYNC_IGNORE: comma-separated list of extra ignore patterns
	if v := os.Getenv("NOTESYNC_IGNORE"); v != "" {
		cfg.Sync.Ignore = append(cfg.Sync.Ignore, splitAndTrim(v)...)
	}

	// NOTESYNC_EXTENSIONS: comma-separated list of renderable extensions
	if v := os.Getenv("NOTESYNC_EXTENSIONS"); v != "" {
		cfg.Sync.Extensions = splitAndTrim(v)
	}

	applyBoolEnv("NOTESYNC_INCREMENTAL", &cfg.Sync.Incremental)
	applyIntEnv("NOTESYNC_JOBS", &cfg.Sync.Jobs)

	if v := os.Getenv("NOTESYNC_RENDERER"); v != "" {
		cfg.Render.Renderer = v
	}
	// NOTESYNC_RENDER_COMMAND: whitespace-separated program and arguments
	if v := os.Getenv("NOTESYNC_RENDER_COMMAND"); v != "" {
		cfg.Render.Command = strings.Fields(v)
	}
	applyBoolEnv("NOTESYNC_UNSAFE_HTML", &cfg.Render.UnsafeHTML)
	if v := os.Getenv("NOTESYNC_STYLESHEET"); v != "" {
		cfg.Render.Stylesheet = v
		cfg.styleBaseDir = ""
	}
	applyBoolEnv("NOTESYNC_INLINE_STYLESHEET", &cfg.Render.InlineStylesheet)
	if v := os.Getenv("NOTESYNC_MATHJAX"); v != "" {
		cfg.Render.MathJax = strings.ToLower(v)
	}
	if v := os.Getenv("NOTESYNC_CODE_THEME"); v != "" {
		cfg.Render.CodeTheme = v
	}

	applyIntEnv("NOTESYNC_WATCH_DEBOUNCE_MS", &cfg.Watch.DebounceMS)
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
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

// applyBoolEnv applies a boolean environment variable to a pointer.
func applyBoolEnv(envVar string, target **bool) {
	if v := os.Getenv(envVar); v != "" {
		v = strings.ToLower(v)
		if v == "true" || v == "1" || v == "yes" {
			t := true
			*target = &t
		} else if v == "false" || v == "0" || v == "no" {
			f := false
			*target = &f
		}
	}
}

// applyIntEnv applies a positive integer environment variable.
func applyIntEnv(envVar string, target *int) {
	if v := os.Getenv(envVar); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			*target = n
		}
	}
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given directory.
func GetProjectConfigPaths(dir string) []string {
	paths := make([]string, len(projectConfigNames))
	for i, name := range projectConfigNames {
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}
