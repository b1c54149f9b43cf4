package store

import (
	"database/sql"
	"fmt"
)

// Querier is the statement surface of both *sql.DB and *sql.Tx, so lookups
// can run inside or outside a transaction.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Transact commits fn's writes as one transaction. The whole transaction is
// retried on lock contention, so fn must not touch anything outside tx.
func Transact(db *sql.DB, fn func(tx *sql.Tx) error) error {
	_, err := inTx(db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, fn(tx)
	})
	return err
}

// inTx is Transact for transactions that produce a value.
func inTx[T any](db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	return retryValue(func() (T, error) {
		var zero T
		tx, err := db.Begin()
		if err != nil {
			return zero, fmt.Errorf("begin transaction: %w", err)
		}
		v, err := fn(tx)
		if err != nil {
			_ = tx.Rollback()
			return zero, err
		}
		if err := tx.Commit(); err != nil {
			return zero, fmt.Errorf("commit transaction: %w", err)
		}
		return v, nil
	})
}
