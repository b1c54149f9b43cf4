package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/texbld/texbld-manager/internal/models"
)

// timestampLayout is fixed width so lexical order in SQLite matches time order.
const timestampLayout = "2006-01-02 15:04:05.000000000"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// scanNullTime converts sql.NullTime to *time.Time (nil if NULL)
func scanNullTime(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// buildColumns is the select list every scanBuildRow caller must use.
const buildColumns = `id, created_at, used_at, current, version`

// scanBuildRow scans and hydrates a build from a single row.
func scanBuildRow(row interface {
	Scan(dest ...any) error
}) (*models.Build, error) {
	var (
		b       models.Build
		usedAt  sql.NullTime
		current sql.NullInt64
	)
	if err := row.Scan(&b.ID, &b.CreatedAt, &usedAt, &current, &b.Version); err != nil {
		return nil, err
	}
	b.UsedAt = scanNullTime(usedAt)
	b.Current = current.Valid && current.Int64 != 0
	return &b, nil
}

// queryBuilds runs query and scans every row as a build.
func queryBuilds(q Querier, query string, args ...any) ([]*models.Build, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	builds := make([]*models.Build, 0)
	for rows.Next() {
		b, err := scanBuildRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}
