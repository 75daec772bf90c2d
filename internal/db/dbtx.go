package db

import (
	"context"
	"database/sql"
)

// DBTX is the common interface satisfied by both *sql.DB and *sql.Tx.
// Stores depend on it so the same code runs inside and outside a
// UnitOfWork transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
	_ DBTX = reboundDBTX{}
)

// Rebound returns conn with every query rewritten from '?' placeholders to
// the dialect's form, so stores write one query text for both drivers.
func Rebound(conn DBTX, dialect Dialect) DBTX {
	if dialect != Postgres {
		return conn
	}
	return reboundDBTX{conn: conn, dialect: dialect}
}

type reboundDBTX struct {
	conn    DBTX
	dialect Dialect
}

func (r reboundDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.conn.ExecContext(ctx, r.dialect.Rebind(query), args...)
}

func (r reboundDBTX) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.conn.QueryContext(ctx, r.dialect.Rebind(query), args...)
}

func (r reboundDBTX) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return r.conn.QueryRowContext(ctx, r.dialect.Rebind(query), args...)
}
