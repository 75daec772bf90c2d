package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/contract"
	"github.com/alexanderramin/invoiceplan/internal/domain"
)

// InvoicePlanRepository persists invoice plans and drives their items
// through the billing lifecycle. Every operation consults the access scope
// first: reads return only plans of assigned engagements, and writes for
// an engagement outside the scope fail with domain.ErrAccessDenied.
//
// Write operations validate every instruction before writing anything.
// What happens when the backend itself fails part way differs by
// implementation:
//
//   - SQLPlanRepository runs each write in one transaction; a failure rolls
//     the whole batch back.
//   - RemotePlanRepository sends each write as one fail-fast batch with no
//     rollback; requests applied before the failing one stay applied and
//     the error wraps a *remote.BatchError saying how many.
type InvoicePlanRepository interface {
	// GetPlan returns the plan with its items and emails, or nil when the
	// plan does not exist or is outside the caller's scope.
	GetPlan(ctx context.Context, planID int64) (*domain.InvoicePlan, error)
	ListPlansForEngagement(ctx context.Context, engagementID string) ([]*domain.InvoicePlan, error)

	// SavePlan creates plan when plan.ID is zero, otherwise replaces the
	// stored plan with it. On success plan.ID holds the persisted id.
	SavePlan(ctx context.Context, plan *domain.InvoicePlan) (contract.SaveResult, error)

	MarkItemsAsRequested(ctx context.Context, planID int64, updates []domain.RequestUpdate) (contract.SaveResult, error)
	// UndoRequest reverts Requested items to Planned. Items in any other
	// status are skipped and not counted.
	UndoRequest(ctx context.Context, planID int64, itemIDs []int64) (contract.SaveResult, error)
	CloseItems(ctx context.Context, planID int64, updates []domain.CloseUpdate) (contract.SaveResult, error)
	// CancelAndReissue cancels Requested items, creating one Planned
	// replacement per canceled item.
	CancelAndReissue(ctx context.Context, planID int64, requests []domain.CancelRequest) (contract.SaveResult, error)

	// ListPendingRequests returns Planned items still to be requested.
	ListPendingRequests(ctx context.Context) ([]contract.PendingItem, error)
	// ListPendingEmissions returns Requested items awaiting close.
	ListPendingEmissions(ctx context.Context) ([]contract.PendingItem, error)

	SearchSummary(ctx context.Context, filter contract.SummaryFilter) (*contract.SummaryResult, error)
	// PreviewNotifications returns the Planned items whose notification
	// date is notificationDate.
	PreviewNotifications(ctx context.Context, notificationDate time.Time) ([]contract.NotificationPreview, error)
}

var (
	_ InvoicePlanRepository = (*SQLPlanRepository)(nil)
	_ InvoicePlanRepository = (*RemotePlanRepository)(nil)
)
