package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/invoiceplan/internal/db"
)

// NewTestDB creates an in-memory SQLite database with the invoice plan
// schema applied. It is pinned to one connection and closed when the test
// completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// NewFileTestDB creates a file-backed SQLite database in a temp directory.
// Unlike :memory:, every pooled connection sees the same WAL-mode file, so
// tests can exercise real concurrent access.
func NewFileTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "invplan_test.db"))
}

func openTestDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.SQLite, dsn)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW creates the SQLite UnitOfWork production wiring uses.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewDialectUnitOfWork(database, db.SQLite)
}
