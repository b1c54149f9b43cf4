package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/texbld/texbld-manager/internal/models"
)

// BusyTimeoutEnv overrides the SQLite busy_timeout, in milliseconds.
const BusyTimeoutEnv = "TEXBLD_MANAGER_BUSY_TIMEOUT_MS"

const defaultBusyTimeoutMS = 5000

// InitDBWithPath opens the record store at dbPath, creating it and its
// directory if needed, and migrates it to the latest schema.
func InitDBWithPath(dbPath string) (*sql.DB, error) {
	if !isMemoryDSN(dbPath) {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &models.FilesystemError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath, busyTimeoutMS()))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	// Every statement of an invocation shares one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// The first connection runs the DSN pragmas; the switch to WAL can hit
	// a lock held by another invocation.
	if err := RetryWithBackoff(db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}

	if err := RetryWithBackoff(func() error {
		return Migrate(context.Background(), db, dbPath)
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func busyTimeoutMS() int {
	if v, err := strconv.Atoi(os.Getenv(BusyTimeoutEnv)); err == nil && v > 0 {
		return v
	}
	return defaultBusyTimeoutMS
}

func isMemoryDSN(dbPath string) bool {
	return strings.Contains(dbPath, ":memory:")
}

// sqliteDSN turns a path into a file: URI carrying the per-connection
// pragmas. An explicit file: URI keeps its own parameters. Plain paths are
// made absolute and percent-escaped, so '#', '?' and '%' in the root stay
// part of the file name.
func sqliteDSN(dbPath string, busyTimeoutMS int) string {
	var dsn string
	switch {
	case strings.HasPrefix(dbPath, "file:"):
		dsn = dbPath
	case dbPath == ":memory:":
		dsn = "file::memory:?cache=shared"
	default:
		if abs, err := filepath.Abs(dbPath); err == nil {
			dbPath = abs
		}
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(dbPath), RawQuery: "mode=rwc"}
		dsn = u.String()
	}

	// busy_timeout goes first so the later pragmas wait on locks too.
	// synchronous=NORMAL is crash safe under WAL.
	pragmas := url.Values{}
	for _, p := range []string{
		fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS),
		"foreign_keys(1)",
		"synchronous(NORMAL)",
		"journal_mode(WAL)",
	} {
		pragmas.Add("_pragma", p)
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + pragmas.Encode()
}
