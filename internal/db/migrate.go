package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations for the dialect. Statements are
// idempotent, so Migrate is safe to run on every start.
func Migrate(db *sql.DB, dialect Dialect) error {
	stmts := sqliteMigrations
	if dialect == Postgres {
		stmts = postgresMigrations
	}
	for i, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Dates are stored as YYYY-MM-DD text in SQLite and DATE in Postgres;
// timestamps are RFC 3339 text in both. Amounts are decimal strings in
// SQLite and NUMERIC in Postgres.
var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS engagements (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		customer_id TEXT REFERENCES customers(id)
	)`,

	`CREATE TABLE IF NOT EXISTS engagement_assignments (
		user_id       TEXT NOT NULL,
		engagement_id TEXT NOT NULL,
		PRIMARY KEY (user_id, engagement_id)
	)`,

	`CREATE TABLE IF NOT EXISTS invoice_plans (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		engagement_id       TEXT NOT NULL,
		plan_type           TEXT NOT NULL
		                    CHECK(plan_type IN ('by_date','by_percentage')),
		num_invoices        INTEGER NOT NULL DEFAULT 0,
		payment_term_days   INTEGER NOT NULL DEFAULT 0,
		focal_point_name    TEXT NOT NULL DEFAULT '',
		focal_point_email   TEXT NOT NULL DEFAULT '',
		custom_instructions TEXT NOT NULL DEFAULT '',
		first_emission_date TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invoice_plans_engagement ON invoice_plans(engagement_id)`,

	`CREATE TABLE IF NOT EXISTS invoice_items (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		plan_id             INTEGER NOT NULL REFERENCES invoice_plans(id) ON DELETE CASCADE,
		seq_no              INTEGER NOT NULL CHECK(seq_no > 0),
		percentage          TEXT NOT NULL DEFAULT '0',
		amount              TEXT NOT NULL DEFAULT '0',
		emission_date       TEXT,
		due_date            TEXT,
		payer_tax_id        TEXT NOT NULL DEFAULT '',
		po_number           TEXT NOT NULL DEFAULT '',
		frs_number          TEXT NOT NULL DEFAULT '',
		ticket_number       TEXT NOT NULL DEFAULT '',
		description         TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'planned'
		                    CHECK(status IN ('planned','requested','emitted','closed','canceled','reissued')),
		ritm_number         TEXT NOT NULL DEFAULT '',
		coe_responsible     TEXT NOT NULL DEFAULT '',
		request_date        TEXT,
		bz_code             TEXT NOT NULL DEFAULT '',
		emitted_at          TEXT,
		canceled_at         TEXT,
		cancel_reason       TEXT NOT NULL DEFAULT '',
		replacement_item_id INTEGER REFERENCES invoice_items(id) DEFERRABLE INITIALLY DEFERRED,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		UNIQUE (plan_id, seq_no)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invoice_items_status ON invoice_items(status)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_items_emission ON invoice_items(emission_date)`,

	`CREATE TABLE IF NOT EXISTS invoice_plan_emails (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		plan_id    INTEGER NOT NULL REFERENCES invoice_plans(id) ON DELETE CASCADE,
		email      TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invoice_plan_emails_plan ON invoice_plan_emails(plan_id)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS engagements (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		customer_id TEXT REFERENCES customers(id)
	)`,

	`CREATE TABLE IF NOT EXISTS engagement_assignments (
		user_id       TEXT NOT NULL,
		engagement_id TEXT NOT NULL,
		PRIMARY KEY (user_id, engagement_id)
	)`,

	`CREATE TABLE IF NOT EXISTS invoice_plans (
		id                  BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		engagement_id       TEXT NOT NULL,
		plan_type           TEXT NOT NULL
		                    CHECK(plan_type IN ('by_date','by_percentage')),
		num_invoices        INTEGER NOT NULL DEFAULT 0,
		payment_term_days   INTEGER NOT NULL DEFAULT 0,
		focal_point_name    TEXT NOT NULL DEFAULT '',
		focal_point_email   TEXT NOT NULL DEFAULT '',
		custom_instructions TEXT NOT NULL DEFAULT '',
		first_emission_date DATE,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invoice_plans_engagement ON invoice_plans(engagement_id)`,

	`CREATE TABLE IF NOT EXISTS invoice_items (
		id                  BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		plan_id             BIGINT NOT NULL REFERENCES invoice_plans(id) ON DELETE CASCADE,
		seq_no              INTEGER NOT NULL CHECK(seq_no > 0),
		percentage          NUMERIC(9,4) NOT NULL DEFAULT 0,
		amount              NUMERIC(18,4) NOT NULL DEFAULT 0,
		emission_date       DATE,
		due_date            DATE,
		payer_tax_id        TEXT NOT NULL DEFAULT '',
		po_number           TEXT NOT NULL DEFAULT '',
		frs_number          TEXT NOT NULL DEFAULT '',
		ticket_number       TEXT NOT NULL DEFAULT '',
		description         TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'planned'
		                    CHECK(status IN ('planned','requested','emitted','closed','canceled','reissued')),
		ritm_number         TEXT NOT NULL DEFAULT '',
		coe_responsible     TEXT NOT NULL DEFAULT '',
		request_date        DATE,
		bz_code             TEXT NOT NULL DEFAULT '',
		emitted_at          TEXT,
		canceled_at         TEXT,
		cancel_reason       TEXT NOT NULL DEFAULT '',
		replacement_item_id BIGINT REFERENCES invoice_items(id) DEFERRABLE INITIALLY DEFERRED,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		UNIQUE (plan_id, seq_no)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invoice_items_status ON invoice_items(status)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_items_emission ON invoice_items(emission_date)`,

	`CREATE TABLE IF NOT EXISTS invoice_plan_emails (
		id         BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		plan_id    BIGINT NOT NULL REFERENCES invoice_plans(id) ON DELETE CASCADE,
		email      TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invoice_plan_emails_plan ON invoice_plan_emails(plan_id)`,
}
