package db

import (
	"context"
	"database/sql"
	"fmt"
)

// UnitOfWork runs a plan write as one transaction. The callback receives a
// DBTX backed by a *sql.Tx; repositories build their tx-scoped store from it.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLUnitOfWork implements UnitOfWork using database/sql transactions.
type SQLUnitOfWork struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewSQLUnitOfWork creates a UnitOfWork that begins transactions with the
// driver's default isolation.
func NewSQLUnitOfWork(db *sql.DB) *SQLUnitOfWork {
	return &SQLUnitOfWork{db: db}
}

// NewDialectUnitOfWork picks the isolation level for dialect. Postgres runs
// lifecycle writes serializable, so two writers that read the same plan
// conflict (40001) and one is retried instead of both committing. SQLite
// already serializes writers.
func NewDialectUnitOfWork(db *sql.DB, dialect Dialect) *SQLUnitOfWork {
	u := NewSQLUnitOfWork(db)
	if dialect == Postgres {
		u.opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return u
}

func (u *SQLUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := u.db.BeginTx(ctx, u.opts)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
