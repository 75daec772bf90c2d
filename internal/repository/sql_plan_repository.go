package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/access"
	"github.com/alexanderramin/invoiceplan/internal/contract"
	"github.com/alexanderramin/invoiceplan/internal/db"
	"github.com/alexanderramin/invoiceplan/internal/domain"
)

// SQLPlanRepository implements InvoicePlanRepository over a relational
// database. Every write runs in one unit of work, so a failing instruction
// or driver error leaves no row changed.
type SQLPlanRepository struct {
	db      db.DBTX
	uow     db.UnitOfWork
	dialect db.Dialect
	scope   access.Scope
	opts    options
}

// NewSQLPlanRepository creates a repository reading through conn and
// writing through uow.
func NewSQLPlanRepository(conn db.DBTX, uow db.UnitOfWork, dialect db.Dialect, scope access.Scope, opts ...Option) *SQLPlanRepository {
	return &SQLPlanRepository{db: conn, uow: uow, dialect: dialect, scope: scope, opts: buildOptions(opts)}
}

func (r *SQLPlanRepository) store() *sqlPlanStore {
	return newSQLPlanStore(r.db, r.dialect)
}

func (r *SQLPlanRepository) GetPlan(ctx context.Context, planID int64) (*domain.InvoicePlan, error) {
	if err := r.scope.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	p, err := r.store().loadPlan(ctx, planID)
	if err != nil || p == nil {
		return nil, err
	}
	if !r.scope.IsEngagementAllowed(p.EngagementID) {
		return nil, nil
	}
	return p, nil
}

func (r *SQLPlanRepository) ListPlansForEngagement(ctx context.Context, engagementID string) ([]*domain.InvoicePlan, error) {
	if err := r.scope.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	if !r.scope.IsEngagementAllowed(engagementID) {
		return []*domain.InvoicePlan{}, nil
	}
	plans, err := r.store().listPlans(ctx, planQuery{EngagementIDs: []string{engagementID}})
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []*domain.InvoicePlan{}
	}
	return plans, nil
}

func (r *SQLPlanRepository) SavePlan(ctx context.Context, plan *domain.InvoicePlan) (contract.SaveResult, error) {
	if err := r.scope.EnsureInitialized(ctx); err != nil {
		return contract.SaveResult{}, err
	}

	var (
		result contract.SaveResult
		planID int64
	)
	err := r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		result = contract.SaveResult{}
		store := newSQLPlanStore(tx, r.dialect)

		var stored *domain.InvoicePlan
		if plan != nil && !plan.IsNew() {
			var err error
			if stored, err = store.loadPlan(ctx, plan.ID); err != nil {
				return err
			}
			if stored == nil {
				return planNotFound(plan.ID)
			}
			if err := authorize(r.scope, stored.EngagementID); err != nil {
				return err
			}
		}
		if plan != nil {
			if err := authorize(r.scope, plan.EngagementID); err != nil {
				return err
			}
		}

		diff, err := domain.Reconcile(stored, plan, r.opts.now())
		if err != nil {
			return err
		}
		return r.applyDiff(ctx, store, diff, &result, &planID)
	})
	if err != nil {
		return contract.SaveResult{}, err
	}
	plan.ID = planID
	return result, nil
}

func (r *SQLPlanRepository) applyDiff(ctx context.Context, store *sqlPlanStore, diff domain.PlanDiff, result *contract.SaveResult, planID *int64) error {
	p := diff.Plan
	if p.IsNew() {
		id, err := store.insertPlan(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id
		result.Add(1, 0, 0)
	} else {
		if err := store.updatePlan(ctx, p); err != nil {
			return err
		}
		result.Add(0, 1, 0)
	}
	*planID = p.ID

	for _, it := range diff.DeletedItems {
		if err := store.deleteItem(ctx, it); err != nil {
			return err
		}
	}
	for _, it := range diff.UpdatedItems {
		if err := store.updateItem(ctx, it); err != nil {
			return err
		}
	}
	for _, it := range diff.CreatedItems {
		it.PlanID = p.ID
		id, err := store.insertItem(ctx, it)
		if err != nil {
			return err
		}
		it.ID = id
	}
	result.Add(len(diff.CreatedItems), len(diff.UpdatedItems), len(diff.DeletedItems))

	for _, e := range diff.DeletedEmails {
		if err := store.deleteEmail(ctx, e); err != nil {
			return err
		}
	}
	for _, e := range diff.UpdatedEmails {
		if err := store.updateEmail(ctx, e); err != nil {
			return err
		}
	}
	for _, e := range diff.CreatedEmails {
		e.PlanID = p.ID
		id, err := store.insertEmail(ctx, e)
		if err != nil {
			return err
		}
		e.ID = id
	}
	result.Add(len(diff.CreatedEmails), len(diff.UpdatedEmails), len(diff.DeletedEmails))
	return nil
}

// withPlan loads an in-scope plan inside a transaction and hands it to fn.
func (r *SQLPlanRepository) withPlan(ctx context.Context, planID int64, fn func(ctx context.Context, store *sqlPlanStore, p *domain.InvoicePlan, result *contract.SaveResult) error) (contract.SaveResult, error) {
	if err := r.scope.EnsureInitialized(ctx); err != nil {
		return contract.SaveResult{}, err
	}

	var result contract.SaveResult
	err := r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		result = contract.SaveResult{}
		store := newSQLPlanStore(tx, r.dialect)

		p, err := store.loadPlan(ctx, planID)
		if err != nil {
			return err
		}
		if p == nil {
			return planNotFound(planID)
		}
		if err := authorize(r.scope, p.EngagementID); err != nil {
			return err
		}
		return fn(ctx, store, p, &result)
	})
	if err != nil {
		return contract.SaveResult{}, err
	}
	return result, nil
}

// updateItems persists items changed by a lifecycle transition.
func updateItems(ctx context.Context, store *sqlPlanStore, items []*domain.InvoiceItem, result *contract.SaveResult) error {
	for _, it := range items {
		if err := store.updateItem(ctx, it); err != nil {
			return err
		}
	}
	result.Add(0, len(items), 0)
	return nil
}

func (r *SQLPlanRepository) MarkItemsAsRequested(ctx context.Context, planID int64, updates []domain.RequestUpdate) (contract.SaveResult, error) {
	return r.withPlan(ctx, planID, func(ctx context.Context, store *sqlPlanStore, p *domain.InvoicePlan, result *contract.SaveResult) error {
		changed, err := p.ApplyRequests(updates, r.opts.now())
		if err != nil {
			return err
		}
		return updateItems(ctx, store, changed, result)
	})
}

func (r *SQLPlanRepository) UndoRequest(ctx context.Context, planID int64, itemIDs []int64) (contract.SaveResult, error) {
	return r.withPlan(ctx, planID, func(ctx context.Context, store *sqlPlanStore, p *domain.InvoicePlan, result *contract.SaveResult) error {
		changed, err := p.ApplyUndo(itemIDs, r.opts.now())
		if err != nil {
			return err
		}
		return updateItems(ctx, store, changed, result)
	})
}

func (r *SQLPlanRepository) CloseItems(ctx context.Context, planID int64, updates []domain.CloseUpdate) (contract.SaveResult, error) {
	return r.withPlan(ctx, planID, func(ctx context.Context, store *sqlPlanStore, p *domain.InvoicePlan, result *contract.SaveResult) error {
		changed, err := p.ApplyClose(updates, r.opts.now())
		if err != nil {
			return err
		}
		return updateItems(ctx, store, changed, result)
	})
}

func (r *SQLPlanRepository) CancelAndReissue(ctx context.Context, planID int64, requests []domain.CancelRequest) (contract.SaveResult, error) {
	return r.withPlan(ctx, planID, func(ctx context.Context, store *sqlPlanStore, p *domain.InvoicePlan, result *contract.SaveResult) error {
		reissues, err := p.ApplyCancel(requests, r.opts.now())
		if err != nil {
			return err
		}
		for _, ri := range reissues {
			id, err := store.insertItem(ctx, ri.Replacement)
			if err != nil {
				return err
			}
			ri.Link(id)
			if err := store.updateItem(ctx, ri.Canceled); err != nil {
				return err
			}
		}
		result.Add(len(reissues), len(reissues), 0)
		return nil
	})
}

func (r *SQLPlanRepository) ListPendingRequests(ctx context.Context) ([]contract.PendingItem, error) {
	return r.pending(ctx, domain.ItemPlanned)
}

func (r *SQLPlanRepository) ListPendingEmissions(ctx context.Context) ([]contract.PendingItem, error) {
	return r.pending(ctx, domain.ItemRequested)
}

func (r *SQLPlanRepository) pending(ctx context.Context, status domain.ItemStatus) ([]contract.PendingItem, error) {
	ids, err := readableEngagements(ctx, r.scope)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []contract.PendingItem{}, nil
	}
	plans, err := r.store().listPlans(ctx, planQuery{EngagementIDs: ids, ItemStatus: status})
	if err != nil {
		return nil, err
	}
	return pendingItems(plans, status), nil
}

func (r *SQLPlanRepository) SearchSummary(ctx context.Context, filter contract.SummaryFilter) (*contract.SummaryResult, error) {
	ids, err := readableEngagements(ctx, r.scope)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return summarize(nil, filter), nil
	}
	plans, err := r.store().listPlans(ctx, planQuery{EngagementIDs: ids})
	if err != nil {
		return nil, err
	}
	return summarize(plans, filter), nil
}

func (r *SQLPlanRepository) PreviewNotifications(ctx context.Context, notificationDate time.Time) ([]contract.NotificationPreview, error) {
	ids, err := readableEngagements(ctx, r.scope)
	if err != nil {
		return nil, err
	}
	from, to, ok := domain.EmissionWindow(notificationDate)
	if len(ids) == 0 || !ok {
		return []contract.NotificationPreview{}, nil
	}
	plans, err := r.store().listPlans(ctx, planQuery{
		EngagementIDs: ids,
		ItemStatus:    domain.ItemPlanned,
		EmissionFrom:  from.Format(domain.DateLayout),
		EmissionTo:    to.Format(domain.DateLayout),
	})
	if err != nil {
		return nil, err
	}
	return previewNotifications(plans, notificationDate), nil
}
