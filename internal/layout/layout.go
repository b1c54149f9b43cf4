// Package layout maps build identities to paths under the texbld root.
//
// Everything here is pure path computation; nothing touches the filesystem.
package layout

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	dbFileName         = "texbld.db"
	storeDirName       = "store"
	binDirName         = "bin"
	dispatchScriptName = "texbld"
	virtualenvName     = "virtualenv.pyz"
	trashPrefix        = ".trash-"

	// NightlyArchive is the runnable archive inside a nightly package directory.
	NightlyArchive = "texbld.pyz"
	// VenvDir is the isolated environment inside a stable package directory.
	VenvDir = "venv"
	// entryPoint is the console script pip installs into the environment.
	entryPoint = "texbld"
)

// Layout is the directory convention rooted at an absolute path.
type Layout struct {
	root string
}

// New returns a Layout for root, made absolute.
func New(root string) (Layout, error) {
	if strings.TrimSpace(root) == "" {
		return Layout{}, fmt.Errorf("root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve root %s: %w", root, err)
	}
	return Layout{root: abs}, nil
}

// Root returns the absolute root directory.
func (l Layout) Root() string { return l.root }

// DBPath returns root/texbld.db.
func (l Layout) DBPath() string { return filepath.Join(l.root, dbFileName) }

// StoreDir returns root/store, the parent of every package directory.
func (l Layout) StoreDir() string { return filepath.Join(l.root, storeDirName) }

// PackagePath returns root/store/<id>.
func (l Layout) PackagePath(id int64) string {
	return filepath.Join(l.StoreDir(), strconv.FormatInt(id, 10))
}

// TrashPath returns root/store/.trash-<id>, where a package directory is parked
// while its record is being deleted.
func (l Layout) TrashPath(id int64) string {
	return filepath.Join(l.StoreDir(), trashPrefix+strconv.FormatInt(id, 10))
}

// NightlyArchivePath returns root/store/<id>/texbld.pyz.
func (l Layout) NightlyArchivePath(id int64) string {
	return filepath.Join(l.PackagePath(id), NightlyArchive)
}

// StableVenvPath returns root/store/<id>/venv.
func (l Layout) StableVenvPath(id int64) string {
	return filepath.Join(l.PackagePath(id), VenvDir)
}

// StableEntryPoint returns the texbld binary inside a stable build's environment.
func (l Layout) StableEntryPoint(id int64) string {
	return filepath.Join(l.StableVenvPath(id), "bin", entryPoint)
}

// BinDir returns root/bin.
func (l Layout) BinDir() string { return filepath.Join(l.root, binDirName) }

// DispatchScriptPath returns root/bin/texbld. It does not depend on any build.
func (l Layout) DispatchScriptPath() string {
	return filepath.Join(l.BinDir(), dispatchScriptName)
}

// VirtualenvPath returns root/virtualenv.pyz, the cached bootstrap artifact
// shared by every stable install.
func (l Layout) VirtualenvPath() string { return filepath.Join(l.root, virtualenvName) }

// ParsePackageDir reports the identity encoded by a directory name under
// StoreDir. ok is false for anything that is not a plain positive integer.
func ParsePackageDir(name string) (id int64, ok bool) {
	if name == "" || strings.HasPrefix(name, "+") || strings.HasPrefix(name, "-") {
		return 0, false
	}
	id, err := strconv.ParseInt(name, 10, 64)
	if err != nil || id <= 0 || strconv.FormatInt(id, 10) != name {
		return 0, false
	}
	return id, true
}

// ParseTrashDir reports the identity encoded by a trash directory name.
func ParseTrashDir(name string) (id int64, ok bool) {
	if !strings.HasPrefix(name, trashPrefix) {
		return 0, false
	}
	return ParsePackageDir(strings.TrimPrefix(name, trashPrefix))
}
