package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts *sql.DB, *sql.Tx and *Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx is a database transaction that collects callbacks to run once it has
// committed. Callbacks registered on a transaction that rolls back are
// dropped.
type Tx struct {
	*sql.Tx
	onCommit []func(ctx context.Context)
}

// OnCommit registers fn to run after a successful commit, in registration
// order.
func (t *Tx) OnCommit(fn func(ctx context.Context)) {
	t.onCommit = append(t.onCommit, fn)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// WithTx executes fn inside a transaction when db is *sql.DB.
// If db is already a *Tx, fn is executed directly and its commit callbacks
// join the outer transaction.
func WithTx(ctx context.Context, db DBTX, fn func(*Tx) error) error {
	if db == nil {
		return errors.New("database not initialized")
	}
	if tx, ok := db.(*Tx); ok {
		return fn(tx)
	}
	sqlDB, ok := db.(*sql.DB)
	if !ok {
		return errors.New("unsupported db type")
	}
	sqlTx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	tx := &Tx{Tx: sqlTx}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v (rollback error: %w)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for _, cb := range tx.onCommit {
		cb(ctx)
	}
	return nil
}
