// Package manager is the package lifecycle: it prepares build records and
// directories, hands them to install backends, and moves the "current" flag
// and the dispatch script between builds.
package manager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/texbld/texbld-manager/internal/dispatch"
	"github.com/texbld/texbld-manager/internal/install"
	"github.com/texbld/texbld-manager/internal/layout"
	"github.com/texbld/texbld-manager/internal/models"
	"github.com/texbld/texbld-manager/internal/store"
)

// Manager composes the record store, the directory layout and the dispatch
// script writer. It holds no state of its own; "current" lives in the store.
type Manager struct {
	db       *sql.DB
	layout   layout.Layout
	scripts  *dispatch.Writer
	backends map[models.Channel]install.Backend
	log      *slog.Logger

	removeAll func(path string) error
}

// New returns a Manager. A nil logger discards log output.
func New(db *sql.DB, l layout.Layout, scripts *dispatch.Writer, backends []install.Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	byChannel := make(map[models.Channel]install.Backend, len(backends))
	for _, b := range backends {
		byChannel[b.Channel()] = b
	}
	return &Manager{
		db:       db,
		layout:   l,
		scripts:  scripts,
		backends: byChannel,
		log:      logger,

		removeAll: os.RemoveAll,
	}
}

// Layout returns the directory convention the manager operates on.
func (m *Manager) Layout() layout.Layout { return m.layout }

// SwitchResult describes a completed switch or rollback.
type SwitchResult struct {
	Build *models.Build `json:"build"`
	// DirectoryMissing is set when the build's directory was absent. The
	// switch still happens so a broken state can be repaired.
	DirectoryMissing bool   `json:"directory_missing,omitempty"`
	ScriptPath       string `json:"script_path"`
}

// RemoveResult describes a completed remove.
type RemoveResult struct {
	Build            *models.Build `json:"build"`
	WasCurrent       bool          `json:"was_current"`
	DirectoryMissing bool          `json:"directory_missing,omitempty"`
}

// Listing is the output of List: nightlies first, then stables.
type Listing struct {
	Nightlies []*models.Build `json:"nightlies"`
	Stables   []*models.Build `json:"stables"`
}

// Prepare allocates a record for channel/version and creates its directory.
// If the directory cannot be created the record is deleted again.
func (m *Manager) Prepare(channel models.Channel, version string) (*models.Build, error) {
	var (
		id  int64
		err error
	)
	switch channel {
	case models.ChannelNightly:
		id, err = store.InsertNightly(m.db)
	case models.ChannelStable:
		id, err = store.InsertStable(m.db, version)
	default:
		return nil, fmt.Errorf("unknown channel %q", channel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register package: %w", err)
	}

	dir := m.layout.PackagePath(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		if rmErr := store.RemoveBuild(m.db, id); rmErr != nil {
			m.log.Error("failed to drop record after mkdir failure", "id", id, "error", rmErr.Error())
		}
		return nil, &models.FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	build, err := store.GetBuild(m.db, id)
	if err != nil {
		return nil, err
	}
	m.log.Debug("prepared package", "id", id, "version", build.Version, "dir", dir)
	return build, nil
}

// Install prepares a build for requested ("nightly" or a stable version) and
// populates it through the channel's backend. Stable versions are validated
// before anything is allocated. A backend failure leaves the directory as it
// is; the returned build is non-nil whenever a record was created.
func (m *Manager) Install(ctx context.Context, requested string) (*models.Build, error) {
	requested = strings.TrimSpace(requested)
	channel := models.ChannelForVersion(requested)

	backend, ok := m.backends[channel]
	if !ok {
		return nil, fmt.Errorf("no install backend for channel %s", channel)
	}
	if v, ok := backend.(install.VersionValidator); ok {
		if err := v.ValidateVersion(ctx, requested); err != nil {
			return nil, err
		}
	}

	build, err := m.Prepare(channel, requested)
	if err != nil {
		return nil, err
	}

	dir := m.layout.PackagePath(build.ID)
	m.log.Debug("installing package", "id", build.ID, "channel", string(channel), "dir", dir)
	if err := backend.Install(ctx, build, dir); err != nil {
		return build, fmt.Errorf("install texbld %s: %w", build.Label(), err)
	}
	return build, nil
}

// Switch makes id current and points the dispatch script at it. The record
// store is updated before the script, so an interruption in between leaves a
// stale script that re-running switch repairs.
func (m *Manager) Switch(id int64) (*SwitchResult, error) {
	build, err := store.Switch(m.db, id)
	if err != nil {
		return nil, err
	}
	return m.publish(build, "switch")
}

// Rollback switches to the most recently used build that is not current.
func (m *Manager) Rollback() (*SwitchResult, error) {
	build, err := store.Rollback(m.db)
	if err != nil {
		return nil, err
	}
	return m.publish(build, "rollback")
}

// publish rewrites the dispatch script for a build the store just made current.
func (m *Manager) publish(build *models.Build, op string) (*SwitchResult, error) {
	res := &SwitchResult{Build: build, ScriptPath: m.scripts.Path()}

	missing, err := m.directoryMissing(build.ID)
	if err != nil {
		return nil, err
	}
	if missing {
		res.DirectoryMissing = true
		m.log.Warn("package directory missing", "op", op, "id", build.ID, "dir", m.layout.PackagePath(build.ID))
	}

	if err := m.scripts.Write(build); err != nil {
		return nil, fmt.Errorf("failed to write dispatch script: %w", err)
	}
	m.log.Debug("switched package", "op", op, "id", build.ID, "version", build.Version)
	return res, nil
}

func (m *Manager) directoryMissing(id int64) (bool, error) {
	dir := m.layout.PackagePath(id)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, &models.FilesystemError{Op: "stat", Path: dir, Err: err}
	}
	return !info.IsDir(), nil
}

// Remove deletes a build's record and directory. The directory is first
// parked at a trash path, then the record is deleted, then the trash is
// removed. A failed record delete moves the directory back.
func (m *Manager) Remove(id int64) (*RemoveResult, error) {
	build, err := store.GetBuild(m.db, id)
	if err != nil {
		return nil, err
	}
	res := &RemoveResult{Build: build, WasCurrent: build.Current}

	dir := m.layout.PackagePath(id)
	trash := m.layout.TrashPath(id)

	parked := false
	_, err = os.Lstat(dir)
	switch {
	case err == nil:
		if err := m.removeAll(trash); err != nil {
			return nil, &models.FilesystemError{Op: "remove", Path: trash, Err: err}
		}
		if err := os.Rename(dir, trash); err != nil {
			return nil, &models.FilesystemError{Op: "rename", Path: dir, Err: err}
		}
		parked = true
	case errors.Is(err, fs.ErrNotExist):
		res.DirectoryMissing = true
	default:
		return nil, &models.FilesystemError{Op: "stat", Path: dir, Err: err}
	}

	if err := store.RemoveBuild(m.db, id); err != nil {
		if parked {
			if rbErr := os.Rename(trash, dir); rbErr != nil {
				m.log.Error("failed to restore package directory", "id", id, "trash", trash, "error", rbErr.Error())
			}
		}
		return nil, err
	}

	if parked {
		if err := m.removeAll(trash); err != nil {
			return res, &models.FilesystemError{Op: "remove", Path: trash, Err: err}
		}
	}

	if res.WasCurrent {
		m.log.Warn("removed the current package", "id", id, "script", m.scripts.Path())
	}
	m.log.Debug("removed package", "id", id, "version", build.Version)
	return res, nil
}

// List returns the nightly and stable listings.
func (m *Manager) List() (*Listing, error) {
	nightlies, err := store.ListNightlies(m.db)
	if err != nil {
		return nil, err
	}
	stables, err := store.ListStables(m.db)
	if err != nil {
		return nil, err
	}
	return &Listing{Nightlies: nightlies, Stables: stables}, nil
}

// History returns builds that have been current, current first.
func (m *Manager) History() ([]*models.Build, error) {
	return store.History(m.db)
}

// Current returns the current build, or nil when none is selected.
func (m *Manager) Current() (*models.Build, error) {
	return store.GetCurrent(m.db)
}

type releaseLister interface {
	Releases(ctx context.Context) ([]string, error)
}

// Releases lists installable stable versions, newest first.
func (m *Manager) Releases(ctx context.Context) ([]string, error) {
	lister, ok := m.backends[models.ChannelStable].(releaseLister)
	if !ok {
		return nil, errors.New("stable backend cannot list releases")
	}
	return lister.Releases(ctx)
}
