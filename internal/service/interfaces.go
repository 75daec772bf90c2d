package service

import (
	"context"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/contract"
	"github.com/alexanderramin/invoiceplan/internal/domain"
)

// InvoicePlanService is the use-case boundary consumed by the CLI. It is
// backend-agnostic: the configured repository decides where plans live.
type InvoicePlanService interface {
	GetPlan(ctx context.Context, planID int64) (*domain.InvoicePlan, error)
	ListPlans(ctx context.Context, engagementID string) ([]*domain.InvoicePlan, error)
	SavePlan(ctx context.Context, plan *domain.InvoicePlan) (contract.SaveResult, error)

	RequestItems(ctx context.Context, planID int64, updates []domain.RequestUpdate) (contract.SaveResult, error)
	UndoRequests(ctx context.Context, planID int64, itemIDs []int64) (contract.SaveResult, error)
	CloseItems(ctx context.Context, planID int64, updates []domain.CloseUpdate) (contract.SaveResult, error)
	CancelItems(ctx context.Context, planID int64, requests []domain.CancelRequest) (contract.SaveResult, error)

	PendingRequests(ctx context.Context) ([]contract.PendingItem, error)
	PendingEmissions(ctx context.Context) ([]contract.PendingItem, error)
	Summary(ctx context.Context, filter contract.SummaryFilter) (*contract.SummaryResult, error)
	PreviewNotifications(ctx context.Context, notificationDate time.Time) ([]contract.NotificationPreview, error)
}
