package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Tx is a running transaction. Queries built from it share the
// transaction's connection and, by default, its context.
type Tx struct {
	db    *DB
	sqlTx *sql.Tx
	ctx   context.Context
	done  bool
}

var _ Executor = (*Tx)(nil)

// Context returns the context the transaction was started with.
func (tx *Tx) Context() context.Context {
	if tx.ctx == nil {
		return context.Background()
	}
	return tx.ctx
}

// Model starts a query on value inside the transaction.
func (tx *Tx) Model(value any) *Query {
	return tx.db.newQuery(tx).WithContext(tx.Context()).Model(value)
}

// Table starts a query on the named table inside the transaction.
func (tx *Tx) Table(name string) *Query {
	return tx.db.newQuery(tx).WithContext(tx.Context()).Table(name)
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	if err := tx.finish("COMMIT", tx.sqlTx.Commit); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction.
func (tx *Tx) Rollback() error {
	if err := tx.finish("ROLLBACK", tx.sqlTx.Rollback); err != nil {
		return fmt.Errorf("transaction rollback failed: %w", err)
	}
	return nil
}

// finish ends the transaction at most once; later calls return nil. A
// rollback of a transaction the driver already closed is not an error.
func (tx *Tx) finish(stmt string, end func() error) error {
	if tx.done {
		return nil
	}
	tx.done = true
	start := time.Now()
	err := end()
	tx.db.logSQL(stmt, time.Since(start))
	if stmt == "ROLLBACK" && errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := tx.sqlTx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("transaction query failed: %w", err)
	}
	return rows, nil
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return tx.sqlTx.QueryRowContext(ctx, query, args...)
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := tx.sqlTx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("transaction exec failed: %w", err)
	}
	return res, nil
}
