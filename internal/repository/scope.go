package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/invoiceplan/internal/access"
	"github.com/alexanderramin/invoiceplan/internal/domain"
)

// readableEngagements initializes the scope and returns the engagements
// reads are limited to. An empty result means the caller has no
// assignments and every read is empty.
func readableEngagements(ctx context.Context, scope access.Scope) ([]string, error) {
	if err := scope.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	if !scope.HasAssignments() {
		return nil, nil
	}
	return scope.EngagementIDs(), nil
}

// authorize rejects writes for engagements outside the scope.
func authorize(scope access.Scope, engagementID string) error {
	if !scope.IsEngagementAllowed(engagementID) {
		return fmt.Errorf("engagement %s: %w", engagementID, domain.ErrAccessDenied)
	}
	return nil
}

func planNotFound(planID int64) error {
	return fmt.Errorf("invoice plan %d: %w", planID, domain.ErrNotFound)
}

// engagementKey is the case-insensitive form engagement ids are matched on.
func engagementKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
