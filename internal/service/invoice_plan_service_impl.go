package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/contract"
	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/alexanderramin/invoiceplan/internal/repository"
)

// ErrInvalidInput is returned for requests rejected before reaching the
// repository.
var ErrInvalidInput = errors.New("invalid input")

type invoicePlanService struct {
	plans    repository.InvoicePlanRepository
	observer UseCaseObserver
	now      func() time.Time
}

func NewInvoicePlanService(plans repository.InvoicePlanRepository, observers ...UseCaseObserver) InvoicePlanService {
	return &invoicePlanService{
		plans:    plans,
		observer: useCaseObserverOrNoop(observers),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// observe runs fn and reports ev with its duration and outcome. fn may
// fill in ev as results become known.
func (s *invoicePlanService) observe(ctx context.Context, ev *UseCaseEvent, fn func() error) {
	ev.StartedAt = s.now()
	ev.Err = fn()
	ev.Duration = s.now().Sub(ev.StartedAt)
	s.observer.ObserveUseCase(ctx, *ev)
}

func (s *invoicePlanService) GetPlan(ctx context.Context, planID int64) (*domain.InvoicePlan, error) {
	var p *domain.InvoicePlan
	var err error
	ev := &UseCaseEvent{Name: "plan.get", PlanID: planID}
	s.observe(ctx, ev, func() error {
		p, err = s.plans.GetPlan(ctx, planID)
		if p != nil {
			ev.EngagementID = p.EngagementID
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("invoice plan %d: %w", planID, domain.ErrNotFound)
	}
	return p, nil
}

func (s *invoicePlanService) ListPlans(ctx context.Context, engagementID string) ([]*domain.InvoicePlan, error) {
	var plans []*domain.InvoicePlan
	var err error
	ev := &UseCaseEvent{Name: "plan.list", EngagementID: engagementID}
	s.observe(ctx, ev, func() error {
		plans, err = s.plans.ListPlansForEngagement(ctx, engagementID)
		ev.Extra = map[string]any{"plans": len(plans)}
		return err
	})
	return plans, err
}

func (s *invoicePlanService) SavePlan(ctx context.Context, plan *domain.InvoicePlan) (contract.SaveResult, error) {
	if plan == nil {
		return contract.SaveResult{}, fmt.Errorf("%w: plan is required", ErrInvalidInput)
	}
	var res contract.SaveResult
	var err error
	ev := &UseCaseEvent{Name: "plan.save", PlanID: plan.ID, EngagementID: plan.EngagementID,
		Extra: map[string]any{"new": plan.IsNew()}}
	s.observe(ctx, ev, func() error {
		res, err = s.plans.SavePlan(ctx, plan)
		ev.PlanID = plan.ID
		ev.Result = res
		return err
	})
	return res, err
}

// batch runs one lifecycle write and reports it.
func (s *invoicePlanService) batch(ctx context.Context, name string, planID int64, n int, fn func() (contract.SaveResult, error)) (contract.SaveResult, error) {
	if n == 0 {
		return contract.SaveResult{}, fmt.Errorf("%w: no items given", ErrInvalidInput)
	}
	var res contract.SaveResult
	var err error
	ev := &UseCaseEvent{Name: name, PlanID: planID, Instructions: n}
	s.observe(ctx, ev, func() error {
		res, err = fn()
		ev.Result = res
		return err
	})
	return res, err
}

func (s *invoicePlanService) RequestItems(ctx context.Context, planID int64, updates []domain.RequestUpdate) (contract.SaveResult, error) {
	return s.batch(ctx, "item.request", planID, len(updates), func() (contract.SaveResult, error) {
		return s.plans.MarkItemsAsRequested(ctx, planID, updates)
	})
}

func (s *invoicePlanService) UndoRequests(ctx context.Context, planID int64, itemIDs []int64) (contract.SaveResult, error) {
	return s.batch(ctx, "item.undo", planID, len(itemIDs), func() (contract.SaveResult, error) {
		return s.plans.UndoRequest(ctx, planID, itemIDs)
	})
}

func (s *invoicePlanService) CloseItems(ctx context.Context, planID int64, updates []domain.CloseUpdate) (contract.SaveResult, error) {
	return s.batch(ctx, "item.close", planID, len(updates), func() (contract.SaveResult, error) {
		return s.plans.CloseItems(ctx, planID, updates)
	})
}

func (s *invoicePlanService) CancelItems(ctx context.Context, planID int64, requests []domain.CancelRequest) (contract.SaveResult, error) {
	return s.batch(ctx, "item.cancel", planID, len(requests), func() (contract.SaveResult, error) {
		return s.plans.CancelAndReissue(ctx, planID, requests)
	})
}

func (s *invoicePlanService) PendingRequests(ctx context.Context) ([]contract.PendingItem, error) {
	return s.pending(ctx, "pending.requests", s.plans.ListPendingRequests)
}

func (s *invoicePlanService) PendingEmissions(ctx context.Context) ([]contract.PendingItem, error) {
	return s.pending(ctx, "pending.emissions", s.plans.ListPendingEmissions)
}

func (s *invoicePlanService) pending(ctx context.Context, name string, list func(context.Context) ([]contract.PendingItem, error)) ([]contract.PendingItem, error) {
	var items []contract.PendingItem
	var err error
	ev := &UseCaseEvent{Name: name}
	s.observe(ctx, ev, func() error {
		items, err = list(ctx)
		ev.Extra = map[string]any{"items": len(items)}
		return err
	})
	return items, err
}

func (s *invoicePlanService) Summary(ctx context.Context, filter contract.SummaryFilter) (*contract.SummaryResult, error) {
	if filter.EmissionFrom != nil && filter.EmissionTo != nil && filter.EmissionTo.Before(*filter.EmissionFrom) {
		return nil, fmt.Errorf("%w: emission range ends before it starts", ErrInvalidInput)
	}
	var res *contract.SummaryResult
	var err error
	ev := &UseCaseEvent{Name: "summary.search"}
	s.observe(ctx, ev, func() error {
		res, err = s.plans.SearchSummary(ctx, filter)
		if res != nil {
			ev.Extra = map[string]any{
				"engagements": len(filter.EngagementIDs),
				"groups":      len(res.Groups),
				"items":       res.TotalItems,
			}
		}
		return err
	})
	return res, err
}

func (s *invoicePlanService) PreviewNotifications(ctx context.Context, notificationDate time.Time) ([]contract.NotificationPreview, error) {
	var previews []contract.NotificationPreview
	var err error
	ev := &UseCaseEvent{Name: "notify.preview"}
	s.observe(ctx, ev, func() error {
		previews, err = s.plans.PreviewNotifications(ctx, notificationDate)
		ev.Extra = map[string]any{
			"notification_date": notificationDate.Format(domain.DateLayout),
			"previews":          len(previews),
		}
		return err
	})
	return previews, err
}
