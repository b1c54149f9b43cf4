package store

import (
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// busyBackOff is the retry budget for one contended statement or transaction.
// busy_timeout already waits inside SQLite, so this only covers locks that
// outlast it.
func busyBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 5 * time.Second
	b.RandomizationFactor = 0.2
	return b
}

// RetryWithBackoff runs op until it succeeds or fails with something other
// than SQLite lock contention. Non-contention errors come back unwrapped.
func RetryWithBackoff(op func() error) error {
	_, err := retryValue(func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

// retryValue is RetryWithBackoff for operations that produce a value.
func retryValue[T any](op func() (T, error)) (T, error) {
	return backoff.RetryWithData(func() (T, error) {
		v, err := op()
		if err != nil && !isBusy(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, busyBackOff())
}

// isBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED, including the
// extended codes built on them.
func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	// Errors flattened to text on the way up.
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
