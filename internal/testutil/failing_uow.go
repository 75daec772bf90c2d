package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/alexanderramin/invoiceplan/internal/db"
)

// FailOnNthExecUoW is a test UoW that injects Err on the Nth counted
// ExecContext call within a transaction, then rolls back. It lets rollback
// tests fail a plan write at a precise statement.
//
// Counting starts at 1. When Match is set only statements containing it are
// counted. Reads and inserts that go through QueryRowContext (RETURNING id)
// are never counted.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int
	Match  string
	Err    error

	mu       sync.Mutex
	executed []string
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, uow: u}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

// Executed returns the exec statements seen so far, failed one included,
// with whitespace collapsed.
func (u *FailOnNthExecUoW) Executed() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.executed...)
}

type failOnNthExec struct {
	db.DBTX
	uow   *FailOnNthExecUoW
	count int
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.uow.mu.Lock()
	f.uow.executed = append(f.uow.executed, strings.Join(strings.Fields(query), " "))
	f.uow.mu.Unlock()

	if f.uow.Match == "" || strings.Contains(query, f.uow.Match) {
		f.count++
		if f.count == f.uow.FailOn {
			return nil, f.uow.Err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
