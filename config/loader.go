package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Loader handles layered configuration loading
type Loader struct {
	// workDir is the directory to start project config search from
	workDir string
}

// NewLoader creates a configuration loader rooted at dir
func NewLoader(dir string) *Loader {
	return &Loader{workDir: dir}
}

// Load builds the effective configuration by layering, lowest
// precedence first: defaults, the user config, the project config,
// then an explicit file given on the command line.
func (l *Loader) Load(explicitPath string) (*Config, error) {
	config := DefaultConfig()

	if userPath := userConfigPath(); userPath != "" {
		if layer, err := loadOverlay(userPath); err == nil {
			config.Merge(layer)
		}
	}

	if projectPath := l.findProjectConfig(); projectPath != "" {
		layer, err := loadOverlay(projectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load project config %s: %w", projectPath, err)
		}
		config.Merge(layer)
	}

	if explicitPath != "" {
		layer, err := loadOverlay(explicitPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", explicitPath, err)
		}
		config.Merge(layer)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// userConfigPath returns the per-user config file path, or "" if the
// home directory cannot be determined
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "applyflow", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// findProjectConfig walks from the working directory up to the git
// root (or filesystem root) looking for applyflow.yaml
func (l *Loader) findProjectConfig() string {
	dir := l.workDir
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return ""
		}
	}

	gitRoot := detectGitRoot(dir)

	for {
		candidate := filepath.Join(dir, "applyflow.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		if gitRoot != "" && dir == gitRoot {
			return ""
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// detectGitRoot returns the repository root containing dir, or ""
func detectGitRoot(dir string) string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
