// Package store implements the repository pattern over engagic's relational
// schema. Every write flows through a repository method; no
// caller outside this package issues SQL directly, except read-only
// analytics queries. Repositories never commit — the caller owns the
// transaction boundary, by construction: repository methods accept a
// Querier (either the shared pool or an explicit *sql.Tx), and With is the
// only place a transaction is opened and closed.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, letting every
// repository method run standalone or as part of a caller-owned
// transaction without two code paths.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// With runs fn inside a single transaction, committing on success and
// rolling back on error or panic. This is the one place in the repository
// layer that decides a transaction boundary; repositories themselves never
// commit.
func With(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
