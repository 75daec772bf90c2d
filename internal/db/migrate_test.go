package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db, SQLite))
	require.NoError(t, Migrate(db, SQLite))
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"customers", "engagements", "engagement_assignments",
		"invoice_plans", "invoice_items", "invoice_plan_emails",
	}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_invoice_plans_engagement",
		"idx_invoice_items_status",
		"idx_invoice_items_emission",
		"idx_invoice_plan_emails_plan",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_SeqNoUniquePerPlan(t *testing.T) {
	db := openTestDB(t)
	now := "2025-01-01T00:00:00Z"

	_, err := db.Exec(`INSERT INTO invoice_plans (id, engagement_id, plan_type, created_at, updated_at)
		VALUES (1, 'E1', 'by_date', ?, ?), (2, 'E1', 'by_date', ?, ?)`, now, now, now, now)
	require.NoError(t, err)

	insert := `INSERT INTO invoice_items (plan_id, seq_no, created_at, updated_at) VALUES (?, ?, ?, ?)`
	_, err = db.Exec(insert, 1, 1, now, now)
	require.NoError(t, err)
	_, err = db.Exec(insert, 2, 1, now, now)
	require.NoError(t, err, "same seq_no on another plan is allowed")

	_, err = db.Exec(insert, 1, 1, now, now)
	assert.Error(t, err)
}

func TestMigrate_RejectsUnknownStatus(t *testing.T) {
	db := openTestDB(t)
	now := "2025-01-01T00:00:00Z"

	_, err := db.Exec(`INSERT INTO invoice_plans (id, engagement_id, plan_type, created_at, updated_at)
		VALUES (1, 'E1', 'by_date', ?, ?)`, now, now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO invoice_items (plan_id, seq_no, status, created_at, updated_at)
		VALUES (1, 1, 'paid', ?, ?)`, now, now)
	assert.Error(t, err)
}

func TestMigrate_ItemsCascadeWithPlan(t *testing.T) {
	db := openTestDB(t)
	now := "2025-01-01T00:00:00Z"

	_, err := db.Exec(`INSERT INTO invoice_plans (id, engagement_id, plan_type, created_at, updated_at)
		VALUES (1, 'E1', 'by_date', ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO invoice_items (plan_id, seq_no, created_at, updated_at) VALUES (1, 1, ?, ?)`, now, now)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM invoice_plans WHERE id = 1`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM invoice_items`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestOpenDB_UnknownDialect(t *testing.T) {
	_, err := OpenDB(Dialect("oracle"), "x")
	assert.Error(t, err)
}
