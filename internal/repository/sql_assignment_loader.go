package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/invoiceplan/internal/access"
	"github.com/alexanderramin/invoiceplan/internal/db"
)

// SQLAssignmentLoader loads a user's engagement assignments from the
// engagement_assignments table.
type SQLAssignmentLoader struct {
	db   db.DBTX
	user string
}

var _ access.Loader = (*SQLAssignmentLoader)(nil)

// NewSQLAssignmentLoader creates a loader for user.
func NewSQLAssignmentLoader(conn db.DBTX, dialect db.Dialect, user string) *SQLAssignmentLoader {
	return &SQLAssignmentLoader{db: db.Rebound(conn, dialect), user: user}
}

func (l *SQLAssignmentLoader) LoadEngagementIDs(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT engagement_id FROM engagement_assignments WHERE user_id = ? ORDER BY engagement_id`, l.user)
	if err != nil {
		return nil, fmt.Errorf("listing engagement assignments for %s: %w", l.user, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning engagement assignment: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating engagement assignments: %w", err)
	}
	return ids, nil
}
