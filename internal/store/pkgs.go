package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/texbld/texbld-manager/internal/models"
)

const (
	// listLimit caps ListNightlies and ListStables.
	listLimit = 10
	// historyLimit caps History.
	historyLimit = 20
)

// InsertNightly appends a nightly build record and returns its identity.
func InsertNightly(db *sql.DB) (int64, error) {
	return insertBuild(db, models.NightlyVersion)
}

// InsertStable appends a stable build record for version and returns its identity.
func InsertStable(db *sql.DB, version string) (int64, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return 0, &models.InvalidVersionError{Reason: "a stable version is required"}
	}
	if version == models.NightlyVersion {
		return 0, &models.InvalidVersionError{Version: version, Reason: "reserved for the nightly channel"}
	}
	return insertBuild(db, version)
}

func insertBuild(db *sql.DB, version string) (int64, error) {
	return inTx(db, func(tx *sql.Tx) (int64, error) {
		return InsertBuildTx(tx, version, time.Now())
	})
}

// InsertBuildTx inserts a build row inside an existing transaction.
// The row starts with current = 0 and no used_at.
func InsertBuildTx(tx *sql.Tx, version string, now time.Time) (int64, error) {
	result, err := tx.Exec(`
		INSERT INTO pkgs (version, created_at, current)
		VALUES (?, ?, 0)
	`, version, formatTimestamp(now))
	if err != nil {
		return 0, fmt.Errorf("failed to insert package: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted package id: %w", err)
	}
	return id, nil
}

// GetBuild retrieves a build by identity. A missing row is a *models.NotFoundError.
func GetBuild(db *sql.DB, id int64) (*models.Build, error) {
	return retryValue(func() (*models.Build, error) {
		return getBuild(db, id)
	})
}

func getBuild(q Querier, id int64) (*models.Build, error) {
	b, err := scanBuildRow(q.QueryRow(`SELECT `+buildColumns+` FROM pkgs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query package: %w", err)
	}
	return b, nil
}

// GetCurrent returns the current build, or nil when no build is current.
func GetCurrent(db *sql.DB) (*models.Build, error) {
	builds, err := retryValue(func() ([]*models.Build, error) {
		return queryBuilds(db, `SELECT `+buildColumns+` FROM pkgs WHERE current = 1 LIMIT 1`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query current package: %w", err)
	}
	if len(builds) == 0 {
		return nil, nil
	}
	return builds[0], nil
}

// ListNightlies returns up to 10 nightly builds, most recently used or created first.
func ListNightlies(db *sql.DB) ([]*models.Build, error) {
	return listBuilds(db, `version = ?`)
}

// ListStables returns up to 10 stable builds, most recently used or created first.
func ListStables(db *sql.DB) ([]*models.Build, error) {
	return listBuilds(db, `version != ?`)
}

// listBuilds orders by used_at, created_at, id (all descending). NULL used_at
// sorts last under DESC, so never-used builds follow used ones.
func listBuilds(db *sql.DB, channelFilter string) ([]*models.Build, error) {
	builds, err := retryValue(func() ([]*models.Build, error) {
		return queryBuilds(db, `
			SELECT `+buildColumns+`
			FROM pkgs
			WHERE `+channelFilter+`
			ORDER BY used_at DESC, created_at DESC, id DESC
			LIMIT ?
		`, models.NightlyVersion, listLimit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return builds, nil
}

// ListAllBuilds returns every record ordered by identity. Used for consistency
// checks, which must see rows beyond the listing caps.
func ListAllBuilds(db *sql.DB) ([]*models.Build, error) {
	builds, err := retryValue(func() ([]*models.Build, error) {
		return queryBuilds(db, `SELECT `+buildColumns+` FROM pkgs ORDER BY id ASC`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return builds, nil
}

// History returns up to 20 builds that have ever been current, the current
// build first, then by used_at and id descending.
func History(db *sql.DB) ([]*models.Build, error) {
	builds, err := retryValue(func() ([]*models.Build, error) {
		return queryBuilds(db, `
			SELECT `+buildColumns+`
			FROM pkgs
			WHERE used_at IS NOT NULL
			ORDER BY current DESC, used_at DESC, id DESC
			LIMIT ?
		`, historyLimit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return builds, nil
}

// RemoveBuild deletes a build row. The caller owns the matching directory.
func RemoveBuild(db *sql.DB, id int64) error {
	return Transact(db, func(tx *sql.Tx) error {
		return RemoveBuildTx(tx, id)
	})
}

// RemoveBuildTx deletes a build row inside an existing transaction.
// Returns *models.NotFoundError when no row has that identity.
func RemoveBuildTx(tx *sql.Tx, id int64) error {
	result, err := tx.Exec(`DELETE FROM pkgs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if ra == 0 {
		return &models.NotFoundError{ID: id}
	}
	return nil
}

// Switch makes id the only current build and refreshes its used_at, atomically.
func Switch(db *sql.DB, id int64) (*models.Build, error) {
	return inTx(db, func(tx *sql.Tx) (*models.Build, error) {
		return SwitchTx(tx, id, time.Now())
	})
}

// SwitchTx clears current on every other row, then marks id current with a
// fresh used_at. The single-current unique index requires this order.
func SwitchTx(tx *sql.Tx, id int64, now time.Time) (*models.Build, error) {
	if _, err := getBuild(tx, id); err != nil {
		return nil, err
	}

	usedAt, err := nextUsedAt(tx, now)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`UPDATE pkgs SET current = 0 WHERE id != ? AND current != 0`, id); err != nil {
		return nil, fmt.Errorf("failed to clear current package: %w", err)
	}
	if _, err := tx.Exec(`UPDATE pkgs SET current = 1, used_at = ? WHERE id = ?`, formatTimestamp(usedAt), id); err != nil {
		return nil, fmt.Errorf("failed to set current package: %w", err)
	}

	return getBuild(tx, id)
}

// nextUsedAt returns now, or the latest stored used_at plus one nanosecond if
// the clock has not moved past it. Every switch gets a strictly later stamp.
func nextUsedAt(q Querier, now time.Time) (time.Time, error) {
	var latest sql.NullTime
	err := q.QueryRow(`
		SELECT used_at FROM pkgs
		WHERE used_at IS NOT NULL
		ORDER BY used_at DESC
		LIMIT 1
	`).Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return now.UTC(), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read latest used_at: %w", err)
	}
	now = now.UTC()
	if latest.Valid && !now.After(latest.Time) {
		return latest.Time.UTC().Add(time.Nanosecond), nil
	}
	return now, nil
}

// RollbackTarget returns the most recently used build that is not current.
// Returns *models.NothingToRollbackError when there is none.
func RollbackTarget(db *sql.DB) (*models.Build, error) {
	return retryValue(func() (*models.Build, error) {
		return rollbackTarget(db)
	})
}

func rollbackTarget(q Querier) (*models.Build, error) {
	b, err := scanBuildRow(q.QueryRow(`
		SELECT ` + buildColumns + `
		FROM pkgs
		WHERE used_at IS NOT NULL AND current = 0
		ORDER BY current DESC, used_at DESC, id DESC
		LIMIT 1
	`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NothingToRollbackError{}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rollback target: %w", err)
	}
	return b, nil
}

// Rollback switches to RollbackTarget inside one transaction and returns the
// new current build.
func Rollback(db *sql.DB) (*models.Build, error) {
	return inTx(db, func(tx *sql.Tx) (*models.Build, error) {
		target, err := rollbackTarget(tx)
		if err != nil {
			return nil, err
		}
		return SwitchTx(tx, target.ID, time.Now())
	})
}
