package repository

import (
	"database/sql"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/domain"
)

// parseNullableDate parses a stored calendar date. Only the leading
// YYYY-MM-DD is read, so Postgres DATE values scanned as RFC 3339 text
// parse the same as SQLite text dates. Returns nil for NULL or bad values.
func parseNullableDate(s sql.NullString) *time.Time {
	if !s.Valid || len(s.String) < len(domain.DateLayout) {
		return nil
	}
	t, err := time.Parse(domain.DateLayout, s.String[:len(domain.DateLayout)])
	if err != nil {
		return nil
	}
	return &t
}

// parseNullableTime parses a stored RFC 3339 timestamp, or nil.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// parseTime parses a non-null timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// nullableDate converts a *time.Time to a date column value (nil for NULL).
func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(domain.DateLayout)
}

// nullableTimestamp converts a *time.Time to a timestamp column value.
func nullableTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTimestamp(*t)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableInt64 converts a *int64 to a column value (nil for NULL).
func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
