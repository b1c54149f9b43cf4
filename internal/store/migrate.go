package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// newMigrationProvider binds the embedded migrations to db. goose calls the
// dialect sqlite3 whichever driver is registered; it only shapes goose's own
// bookkeeping statements.
func newMigrationProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return p, nil
}

// Migrate applies pending migrations. File databases are migrated while
// holding the migration lock, so two invocations opening a fresh root apply
// each migration once.
func Migrate(ctx context.Context, db *sql.DB, dbPath string) error {
	if !isMemoryDSN(dbPath) {
		release, err := acquireMigrationLock(dbPath)
		if err != nil {
			return err
		}
		defer release()
	}

	p, err := newMigrationProvider(db)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version and the newest
// embedded one. They differ only when a migration failed part way.
func SchemaVersion(db *sql.DB) (current, latest int64, err error) {
	p, err := newMigrationProvider(db)
	if err != nil {
		return 0, 0, err
	}
	for _, src := range p.ListSources() {
		latest = max(latest, src.Version)
	}
	current, err = p.GetDBVersion(context.Background())
	if err != nil {
		return 0, latest, fmt.Errorf("read schema version: %w", err)
	}
	return current, latest, nil
}
