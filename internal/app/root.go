package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RootEnv names the environment variable that overrides the texbld root.
const RootEnv = "TEXBLD_MANAGER_ROOT"

// GetRoot resolves the texbld root directory.
// Order of precedence:
// 1) CLI override (e.g. --root)
// 2) Environment variable: TEXBLD_MANAGER_ROOT
// 3) config.yaml: root
// 4) Default: ~/.texbld
// Returns an absolute path and ensures the directory exists.
func GetRoot() (string, error) {
	root, _, err := ResolveRootDetailed()
	return root, err
}

// ResolveRootDetailed returns the resolved root along with the source of that decision.
// This is for debugging/reporting; normal code should use GetRoot.
func ResolveRootDetailed() (path string, source string, err error) {
	if override := getRootOverride(); override != "" {
		resolved, ensureErr := EnsureRoot(override)
		return resolved, "cli(--root)", ensureErr
	}

	if envPath := os.Getenv(RootEnv); envPath != "" {
		resolved, ensureErr := EnsureRoot(envPath)
		return resolved, "env(" + RootEnv + ")", ensureErr
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("failed to determine config directory: %w", err)
	}

	// Config file order must match LoadSettings.
	for _, p := range settingsPaths(dir) {
		s, loadErr := loadSettingsFile(p)
		if loadErr == nil {
			if s.Root != "" {
				resolved, ensureErr := EnsureRoot(s.Root)
				return resolved, fmt.Sprintf("config(%s)", p), ensureErr
			}
			// File exists but no root set; keep looking.
			continue
		}
		if errors.Is(loadErr, os.ErrNotExist) {
			continue
		}
		return "", "", fmt.Errorf("failed to load config %s: %w", p, loadErr)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	resolved, err := EnsureRoot(filepath.Join(home, defaultRootDir))
	return resolved, "default(~/.texbld)", err
}

// EnsureRoot expands a leading ~, makes root absolute and creates it.
func EnsureRoot(root string) (string, error) {
	expanded, err := expandHome(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("failed to create root directory: %w", err)
	}
	return abs, nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
