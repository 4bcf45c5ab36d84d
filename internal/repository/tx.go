package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// txKey carries an open *sql.Tx through a context so that repository
// methods called inside a WithTx closure all run on the same
// transaction without changing their signatures.
type txKey struct{}

// WithTx runs fn inside a database transaction. When the context
// already carries a transaction, fn joins it and the outer caller
// remains responsible for the commit. On any error from fn the
// transaction is rolled back, so a failed allocation leaves no
// partial writes behind.
func WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// dbtx is the subset of *sql.DB and *sql.Tx used by repositories.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the executor for the current context: the ambient
// transaction when one is open, the shared pool otherwise.
func q(ctx context.Context, db *sql.DB) dbtx {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// isDuplicateKey reports whether err is a MySQL duplicate-key
// violation (error 1062), the signal our unique occupancy indexes emit
// when two writers race for the same address.
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
