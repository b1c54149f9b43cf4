package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/texbld/texbld-manager/internal/models"
)

const (
	appName        = "texbld-manager"
	configFileName = "config.yaml"
	defaultRootDir = ".texbld"
)

// ConfigDir is ~/.config/texbld-manager, whatever the platform.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// EnsureConfigDir makes sure the config directory holds a config.yaml,
// seeding it with the commented defaults. An existing file is never touched.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &models.FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	path := filepath.Join(dir, configFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // G304: path is under the user's config dir
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return &models.FilesystemError{Op: "create", Path: path, Err: err}
	}
	if _, err := f.WriteString(defaultConfig); err != nil {
		_ = f.Close()
		return &models.FilesystemError{Op: "write", Path: path, Err: err}
	}
	return f.Close()
}

// defaultConfig documents every key with its built-in value, all commented out.
var defaultConfig = fmt.Sprintf(`# %[1]s configuration
# Lookup order: ~/.config/%[1]s/%[2]s, /etc/%[1]s/%[2]s, ./%[2]s

# Directory holding texbld.db, store/<id>/ and bin/texbld.
# Overridden by %[3]s and --root.
# root: ~/%[4]s

# Interpreter for nightly builds and stable virtualenvs (must be 3.9 or newer).
# python: %[5]s

# Stable builds are pip-installed from this package on this index.
# package: %[6]s
# pypi_url: %[7]s

# Nightly zipapp, and the virtualenv bootstrap ({python} is major.minor).
# nightly_url: %[8]s
# virtualenv_url: %[9]s

# debug | info | warn | error
# log_level: warn
`, appName, configFileName, RootEnv, defaultRootDir,
	defaultPython, defaultPackage, defaultPyPIURL, defaultNightlyURL, defaultVirtualenvURL)
