package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/texbld/texbld-manager/internal/layout"
	"github.com/texbld/texbld-manager/internal/models"
)

// StableConfig wires the stable backend.
type StableConfig struct {
	Python string
	// Package is the distribution name passed to pip.
	Package string
	// BootstrapPath caches virtualenv.pyz across installs.
	BootstrapPath string
	// VirtualenvURL may contain {python}, replaced by "major.minor".
	VirtualenvURL string
}

// Stable installs a tagged release into an isolated environment with pip.
type Stable struct {
	cfg     StableConfig
	fetcher *Fetcher
	index   *ReleaseIndex
	run     Runner
}

// NewStable returns the stable backend.
func NewStable(cfg StableConfig, fetcher *Fetcher, index *ReleaseIndex, run Runner) *Stable {
	return &Stable{cfg: cfg, fetcher: fetcher, index: index, run: run}
}

// Channel implements Backend.
func (s *Stable) Channel() models.Channel { return models.ChannelStable }

// ValidateVersion rejects versions that are not published releases.
func (s *Stable) ValidateVersion(ctx context.Context, version string) error {
	version = strings.TrimSpace(version)
	if version == "" {
		return &models.InvalidVersionError{Version: version, Reason: "version is empty"}
	}
	if strings.ContainsAny(version, " \t=<>!~;,") {
		return &models.InvalidVersionError{Version: version, Reason: "not a plain version tag"}
	}

	versions, err := s.index.Versions(ctx)
	if err != nil {
		return fmt.Errorf("list %s releases: %w", s.cfg.Package, err)
	}
	if !slices.Contains(versions, version) {
		return &models.InvalidVersionError{Version: version, Reason: "not a published " + s.cfg.Package + " release"}
	}
	return nil
}

// Releases lists the published versions, newest first.
func (s *Stable) Releases(ctx context.Context) ([]string, error) {
	return s.index.Versions(ctx)
}

// Install creates <dir>/venv and pip-installs the build's version into it.
func (s *Stable) Install(ctx context.Context, build *models.Build, dir string) error {
	major, minor, err := PythonVersion(ctx, s.run, s.cfg.Python)
	if err != nil {
		return fmt.Errorf("check python version: %w", err)
	}
	if err := CheckPythonVersion(s.cfg.Python, major, minor); err != nil {
		return err
	}

	bootstrap, err := s.ensureBootstrap(ctx, fmt.Sprintf("%d.%d", major, minor))
	if err != nil {
		return err
	}

	venv := filepath.Join(dir, layout.VenvDir)
	if err := s.run.Run(ctx, s.cfg.Python, bootstrap, venv); err != nil {
		return fmt.Errorf("create virtualenv: %w", err)
	}

	pip := filepath.Join(venv, "bin", "pip")
	if err := s.run.Run(ctx, pip, "install", s.cfg.Package+"=="+build.Version); err != nil {
		return fmt.Errorf("pip install %s==%s: %w", s.cfg.Package, build.Version, err)
	}
	return nil
}

// ensureBootstrap downloads virtualenv.pyz once and reuses it afterwards.
func (s *Stable) ensureBootstrap(ctx context.Context, pythonVersion string) (string, error) {
	path := s.cfg.BootstrapPath
	_, err := os.Stat(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", &models.FilesystemError{Op: "stat", Path: path, Err: err}
	}

	url := strings.ReplaceAll(s.cfg.VirtualenvURL, "{python}", pythonVersion)
	if err := s.fetcher.Download(ctx, url, path); err != nil {
		return "", fmt.Errorf("bootstrap virtualenv: %w", err)
	}
	return path, nil
}
