package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/invoiceplan/internal/access"
	"github.com/alexanderramin/invoiceplan/internal/remote"
	"github.com/samber/lo"
)

// RemoteAssignmentLoader reads a user's engagement assignments from the
// platform.
type RemoteAssignmentLoader struct {
	client remote.Client
	user   string
}

var _ access.Loader = (*RemoteAssignmentLoader)(nil)

func NewRemoteAssignmentLoader(client remote.Client, user string) *RemoteAssignmentLoader {
	return &RemoteAssignmentLoader{client: client, user: strings.TrimSpace(user)}
}

func (l *RemoteAssignmentLoader) LoadEngagementIDs(ctx context.Context) ([]string, error) {
	recs, err := l.client.RetrieveMultiple(ctx, remote.Query{
		Table:      TableAssignments,
		Columns:    []string{"engagementId"},
		Conditions: []remote.Condition{remote.Eq("userId", l.user)},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving engagement assignments for %s: %w", l.user, err)
	}
	return lo.Map(recs, func(r remote.Record, _ int) string { return r.String("engagementId") }), nil
}
