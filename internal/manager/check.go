package manager

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/texbld/texbld-manager/internal/layout"
	"github.com/texbld/texbld-manager/internal/models"
	"github.com/texbld/texbld-manager/internal/store"
)

// Script states reported by Check.
const (
	ScriptOK        = "ok"
	ScriptMissing   = "missing"
	ScriptStale     = "stale"
	ScriptUnmanaged = "unmanaged"
	ScriptNone      = "none"
)

// Report is the result of a consistency check between the record store and
// the filesystem. Check never modifies anything.
type Report struct {
	Root          string        `json:"root"`
	SchemaVersion int64         `json:"schema_version"`
	LatestSchema  int64         `json:"latest_schema"`
	Records       int           `json:"records"`
	Current       *models.Build `json:"current,omitempty"`
	// MissingDirectories are records whose package directory is absent.
	MissingDirectories []*models.Build `json:"missing_directories"`
	// OrphanDirectories are numeric store entries with no record.
	OrphanDirectories []string `json:"orphan_directories"`
	// TrashDirectories are leftovers of an interrupted remove.
	TrashDirectories []string `json:"trash_directories"`
	ScriptPath       string   `json:"script_path"`
	ScriptState      string   `json:"script_state"`
}

// Healthy reports whether the check found nothing to repair.
func (r *Report) Healthy() bool {
	return r.SchemaVersion == r.LatestSchema &&
		len(r.MissingDirectories) == 0 &&
		len(r.OrphanDirectories) == 0 &&
		len(r.TrashDirectories) == 0 &&
		(r.ScriptState == ScriptOK || r.ScriptState == ScriptNone)
}

// Check compares records, package directories and the dispatch script.
func (m *Manager) Check() (*Report, error) {
	version, latest, err := store.SchemaVersion(m.db)
	if err != nil {
		return nil, err
	}
	builds, err := store.ListAllBuilds(m.db)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Root:               m.layout.Root(),
		SchemaVersion:      version,
		LatestSchema:       latest,
		Records:            len(builds),
		MissingDirectories: []*models.Build{},
		OrphanDirectories:  []string{},
		TrashDirectories:   []string{},
		ScriptPath:         m.scripts.Path(),
	}

	known := make(map[int64]bool, len(builds))
	for _, b := range builds {
		known[b.ID] = true
		if b.Current {
			report.Current = b
		}
		missing, err := m.directoryMissing(b.ID)
		if err != nil {
			return nil, err
		}
		if missing {
			report.MissingDirectories = append(report.MissingDirectories, b)
		}
	}

	entries, err := os.ReadDir(m.layout.StoreDir())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &models.FilesystemError{Op: "readdir", Path: m.layout.StoreDir(), Err: err}
	}
	for _, e := range entries {
		name := e.Name()
		if id, ok := layout.ParsePackageDir(name); ok {
			if !known[id] {
				report.OrphanDirectories = append(report.OrphanDirectories, filepath.Join(m.layout.StoreDir(), name))
			}
			continue
		}
		if _, ok := layout.ParseTrashDir(name); ok {
			report.TrashDirectories = append(report.TrashDirectories, filepath.Join(m.layout.StoreDir(), name))
		}
	}
	sort.Strings(report.OrphanDirectories)
	sort.Strings(report.TrashDirectories)

	state, err := m.scriptState(report.Current)
	if err != nil {
		return nil, err
	}
	report.ScriptState = state
	return report, nil
}

func (m *Manager) scriptState(current *models.Build) (string, error) {
	got, err := m.scripts.Read()
	if err != nil {
		return "", err
	}
	if current == nil {
		if got == "" {
			return ScriptNone, nil
		}
		return ScriptUnmanaged, nil
	}
	if got == "" {
		return ScriptMissing, nil
	}
	if got != m.scripts.Render(current) {
		return ScriptStale, nil
	}
	return ScriptOK, nil
}

// PruneResult lists what Prune deleted and rewrote.
type PruneResult struct {
	Removed         []string `json:"removed"`
	ScriptRewritten bool     `json:"script_rewritten"`
}

// Prune deletes orphan and trash directories and rewrites a missing or stale
// dispatch script. Records are never deleted; a record with a missing
// directory is left for the user to remove or reinstall.
func (m *Manager) Prune() (*Report, *PruneResult, error) {
	report, err := m.Check()
	if err != nil {
		return nil, nil, err
	}

	res := &PruneResult{Removed: []string{}}
	targets := append(append([]string{}, report.OrphanDirectories...), report.TrashDirectories...)
	for _, dir := range targets {
		if err := m.removeAll(dir); err != nil {
			return report, res, &models.FilesystemError{Op: "remove", Path: dir, Err: err}
		}
		m.log.Debug("pruned directory", "dir", dir)
		res.Removed = append(res.Removed, dir)
	}

	if report.Current != nil && (report.ScriptState == ScriptMissing || report.ScriptState == ScriptStale) {
		if err := m.scripts.Write(report.Current); err != nil {
			return report, res, fmt.Errorf("failed to rewrite dispatch script: %w", err)
		}
		res.ScriptRewritten = true
	}
	return report, res, nil
}
