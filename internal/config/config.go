// Package config loads treetab configuration.
//
// Configuration is layered: built-in defaults, then the user's global
// file at ~/.config/treetab/config.yaml, then a per-repository
// .treetab.json at the repo root. The repo file is parsed as JSONC
// (JSON with comments) via github.com/tidwall/jsonc, so teams can
// annotate the checked-in file the same way devcontainer.json allows.
//
// Later layers only override the fields they set; absent keys keep the
// values from the layer below.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/treetab/internal/model"
)

// RepoFileName is the per-repository override file, looked up at the
// repo root.
const RepoFileName = ".treetab.json"

// AssistantConfig configures the AI assistant launched with --assistant.
type AssistantConfig struct {
	// Program is the assistant binary invoked in the new session.
	Program string `yaml:"program" json:"program"`

	// AllowedTools restricts the assistant's tool use; passed as a
	// comma-joined --allowedTools argument.
	AllowedTools []string `yaml:"allowedTools" json:"allowedTools"`
}

// Config holds all treetab settings after layering.
type Config struct {
	// OpenMode is the default presentation for new worktrees:
	// tab, window, pane-right, or pane-below.
	OpenMode string `yaml:"openMode" json:"openMode"`

	// WorktreeDir, when set, is the parent directory for new worktrees.
	// A leading "~" expands to the user's home directory. When empty,
	// worktrees are created as siblings of the repository root.
	WorktreeDir string `yaml:"worktreeDir" json:"worktreeDir"`

	// Color controls styled list output: "auto" (color only when stdout
	// is a terminal), "on", or "off".
	Color string `yaml:"color" json:"color"`

	// Assistant configures the optional AI assistant launch.
	Assistant AssistantConfig `yaml:"assistant" json:"assistant"`
}

// Default returns the built-in configuration: open in a tab, run the
// Claude Code CLI with the standard coding tool set.
func Default() *Config {
	return &Config{
		OpenMode: model.OpenTab.String(),
		Color:    "auto",
		Assistant: AssistantConfig{
			Program: "claude",
			AllowedTools: []string{
				"Bash", "Read", "Write", "Edit", "Glob", "Grep", "WebFetch", "WebSearch",
			},
		},
	}
}

// GlobalPath returns the location of the user's global config file.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "treetab", "config.yaml"), nil
}

// Load builds the effective configuration by layering the global YAML
// file and the repository's JSONC override on top of the defaults.
// Missing files are not errors; malformed files and invalid open modes
// are, with ExitConfigError.
func Load(globalPath, repoRoot string) (*Config, error) {
	cfg := Default()

	if globalPath != "" {
		if err := applyYAMLFile(cfg, globalPath); err != nil {
			return nil, err
		}
	}

	if repoRoot != "" {
		if err := applyJSONCFile(cfg, filepath.Join(repoRoot, RepoFileName)); err != nil {
			return nil, err
		}
	}

	if _, err := model.ParseOpenMode(cfg.OpenMode); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid configuration", err)
	}

	switch cfg.Color {
	case "auto", "on", "off":
	default:
		return nil, model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid configuration: color must be auto, on, or off, got %q", cfg.Color))
	}

	return cfg, nil
}

// Mode returns the configured default open mode. Load has already
// validated it, so parse errors cannot occur on a loaded Config.
func (c *Config) Mode() model.OpenMode {
	mode, err := model.ParseOpenMode(c.OpenMode)
	if err != nil {
		return model.OpenTab
	}
	return mode
}

// ColorEnabled reports whether styled output should carry color, given
// whether stdout is a terminal. "on" and "off" force the answer; "auto"
// follows the terminal check.
func (c *Config) ColorEnabled(isTerminal bool) bool {
	switch c.Color {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal
	}
}

// ExpandedWorktreeDir returns WorktreeDir with a leading "~" expanded.
// Returns the empty string when no directory is configured.
func (c *Config) ExpandedWorktreeDir() string {
	dir := c.WorktreeDir
	if dir == "" {
		return ""
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir[1:], "/"))
		}
	}
	return filepath.Clean(dir)
}

// applyYAMLFile overlays the YAML file at path onto cfg. A missing file
// is silently skipped.
func applyYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}
	return nil
}

// applyJSONCFile overlays the JSONC file at path onto cfg. Comments are
// stripped with jsonc.ToJSON before standard JSON unmarshaling, matching
// how devcontainer.json-style files are handled. A missing file is
// silently skipped.
func applyJSONCFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}
	return nil
}
