package store

import (
	"errors"
	"os"
	"syscall"

	"github.com/texbld/texbld-manager/internal/models"
)

// acquireMigrationLock blocks until it holds an exclusive flock on
// <dbPath>.migrate.lock and returns the func that releases it.
func acquireMigrationLock(dbPath string) (release func(), err error) {
	path := dbPath + ".migrate.lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644) //nolint:gosec // G304: path derives from the resolved root
	if err != nil {
		return nil, &models.FilesystemError{Op: "open migration lock", Path: path, Err: err}
	}

	for {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX)
		if !errors.Is(err, syscall.EINTR) {
			break
		}
	}
	if err != nil {
		_ = f.Close()
		return nil, &models.FilesystemError{Op: "lock", Path: path, Err: err}
	}

	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
	}, nil
}
