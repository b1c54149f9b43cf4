package app

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	Root          string `yaml:"root"`
	Python        string `yaml:"python"`
	Package       string `yaml:"package"`
	NightlyURL    string `yaml:"nightly_url"`
	PyPIURL       string `yaml:"pypi_url"`
	VirtualenvURL string `yaml:"virtualenv_url"`
	LogLevel      string `yaml:"log_level"`
}

// InstallSettings are the effective values consumed by the install backends.
type InstallSettings struct {
	Python        string `json:"python"`
	Package       string `json:"package"`
	NightlyURL    string `json:"nightly_url"`
	PyPIURL       string `json:"pypi_url"`
	VirtualenvURL string `json:"virtualenv_url"`
}

const (
	defaultPython  = "python3"
	defaultPackage = "texbld"
	// The nightly release is published under a fixed tag and overwritten in place.
	defaultNightlyURL = "https://github.com/texbld/texbld/releases/download/nightly/texbld.pyz"
	defaultPyPIURL    = "https://pypi.org/pypi"
	// {python} is replaced by the interpreter's "major.minor".
	defaultVirtualenvURL = "https://bootstrap.pypa.io/virtualenv/{python}/virtualenv.pyz"
)

// EffectiveInstallSettings returns install settings with defaults filled in.
// A config that fails to load falls back to defaults.
func EffectiveInstallSettings() InstallSettings {
	cfg := InstallSettings{
		Python:        defaultPython,
		Package:       defaultPackage,
		NightlyURL:    defaultNightlyURL,
		PyPIURL:       defaultPyPIURL,
		VirtualenvURL: defaultVirtualenvURL,
	}

	s, err := LoadSettings()
	if err != nil {
		return cfg
	}

	if v := strings.TrimSpace(s.Python); v != "" {
		cfg.Python = v
	}
	if v := strings.TrimSpace(s.Package); v != "" {
		cfg.Package = v
	}
	if v := strings.TrimSpace(s.NightlyURL); v != "" {
		cfg.NightlyURL = v
	}
	if v := strings.TrimSpace(s.PyPIURL); v != "" {
		cfg.PyPIURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(s.VirtualenvURL); v != "" {
		cfg.VirtualenvURL = v
	}
	return cfg
}

// EffectiveLogLevel returns the configured slog level, warn when unset or invalid.
func EffectiveLogLevel() slog.Level {
	s, err := LoadSettings()
	if err != nil {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s.LogLevel))); err != nil {
		return slog.LevelWarn
	}
	return lvl
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
// rootOverrideMu and rootOverride implement a mutex-protected process-wide override for CLI --root.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex override are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	rootOverrideMu sync.RWMutex
	rootOverride   string
)

// SetRootOverride sets a process-wide root directory override.
// Intended for CLI flag support (e.g. --root).
func SetRootOverride(path string) {
	rootOverrideMu.Lock()
	rootOverride = path
	rootOverrideMu.Unlock()
}

func getRootOverride() string {
	rootOverrideMu.RLock()
	v := rootOverride
	rootOverrideMu.RUnlock()
	return v
}

func settingsPaths(configDir string) []string {
	return []string{
		filepath.Join(configDir, configFileName),
		filepath.Join(string(os.PathSeparator), "etc", appName, configFileName),
		configFileName,
	}
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/texbld-manager/config.yaml
// 2) /etc/texbld-manager/config.yaml
// 3) ./config.yaml (lowest priority)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		for _, p := range settingsPaths(dir) {
			s, err := loadSettingsFile(p)
			if err == nil {
				settings = s
				return
			}
			if !errors.Is(err, os.ErrNotExist) {
				settingsErr = err
				return
			}
		}
	})

	return settings, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
