package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/access"
	"github.com/alexanderramin/invoiceplan/internal/contract"
	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/alexanderramin/invoiceplan/internal/remote"
	"github.com/samber/lo"
)

// RemotePlanRepository implements InvoicePlanRepository over the remote
// record platform. Instructions are validated in full before anything is
// sent; each write then goes out as one fail-fast batch, ordered so that a
// partial failure leaves extra records behind rather than dangling
// references.
type RemotePlanRepository struct {
	store *remotePlanStore
	scope access.Scope
	opts  options
}

// NewRemotePlanRepository creates a repository talking to client.
func NewRemotePlanRepository(client remote.Client, scope access.Scope, opts ...Option) *RemotePlanRepository {
	return &RemotePlanRepository{store: newRemotePlanStore(client), scope: scope, opts: buildOptions(opts)}
}

func (r *RemotePlanRepository) GetPlan(ctx context.Context, planID int64) (*domain.InvoicePlan, error) {
	if err := r.scope.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	snap, err := r.store.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	p := snap.first()
	if p == nil || !r.scope.IsEngagementAllowed(p.EngagementID) {
		return nil, nil
	}
	return p, nil
}

func (r *RemotePlanRepository) ListPlansForEngagement(ctx context.Context, engagementID string) ([]*domain.InvoicePlan, error) {
	if err := r.scope.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	if !r.scope.IsEngagementAllowed(engagementID) {
		return []*domain.InvoicePlan{}, nil
	}
	snap, err := r.store.loadPlans(ctx, remote.Eq("engagementKey", engagementKey(engagementID)))
	if err != nil {
		return nil, err
	}
	if snap.plans == nil {
		return []*domain.InvoicePlan{}, nil
	}
	return snap.plans, nil
}

// loadInScope loads a plan for writing, failing when it is missing or
// belongs to an engagement outside the scope.
func (r *RemotePlanRepository) loadInScope(ctx context.Context, planID int64) (*remoteSnapshot, *domain.InvoicePlan, error) {
	snap, err := r.store.loadPlan(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	p := snap.first()
	if p == nil {
		return nil, nil, planNotFound(planID)
	}
	if err := authorize(r.scope, p.EngagementID); err != nil {
		return nil, nil, err
	}
	return snap, p, nil
}

func (r *RemotePlanRepository) SavePlan(ctx context.Context, plan *domain.InvoicePlan) (contract.SaveResult, error) {
	if err := r.scope.EnsureInitialized(ctx); err != nil {
		return contract.SaveResult{}, err
	}

	snap := &remoteSnapshot{}
	var stored *domain.InvoicePlan
	if plan != nil && !plan.IsNew() {
		var err error
		if snap, stored, err = r.loadInScope(ctx, plan.ID); err != nil {
			return contract.SaveResult{}, err
		}
	}
	if plan != nil {
		if err := authorize(r.scope, plan.EngagementID); err != nil {
			return contract.SaveResult{}, err
		}
	}

	diff, err := domain.Reconcile(stored, plan, r.opts.now())
	if err != nil {
		return contract.SaveResult{}, err
	}
	if err := r.assignIDs(ctx, diff); err != nil {
		return contract.SaveResult{}, err
	}

	var (
		b      batch
		result contract.SaveResult
		p      = diff.Plan
	)
	if stored == nil {
		b.create(TablePlans, planAttributes(p))
		result.Add(1, 0, 0)
	} else {
		b.update(TablePlans, snap.planKeys[p.ID], planAttributes(p))
		result.Add(0, 1, 0)
	}
	for _, it := range diff.CreatedItems {
		b.create(TableItems, itemAttributes(it))
	}
	for _, e := range diff.CreatedEmails {
		b.create(TableEmails, emailAttributes(e))
	}
	for _, it := range diff.UpdatedItems {
		b.update(TableItems, snap.itemKeys[it.ID], itemAttributes(it))
	}
	for _, e := range diff.UpdatedEmails {
		b.update(TableEmails, snap.emailKeys[e.ID], emailAttributes(e))
	}
	for _, it := range diff.DeletedItems {
		b.delete(TableItems, snap.itemKeys[it.ID])
	}
	for _, e := range diff.DeletedEmails {
		b.delete(TableEmails, snap.emailKeys[e.ID])
	}
	result.Add(len(diff.CreatedItems), len(diff.UpdatedItems), len(diff.DeletedItems))
	result.Add(len(diff.CreatedEmails), len(diff.UpdatedEmails), len(diff.DeletedEmails))

	if err := r.store.execute(ctx, r.opts.logger, "saving", p.ID, &b); err != nil {
		return contract.SaveResult{}, err
	}
	plan.ID = p.ID
	return result, nil
}

// assignIDs numbers every new plan, item and email in diff from the
// current maxima.
func (r *RemotePlanRepository) assignIDs(ctx context.Context, diff domain.PlanDiff) error {
	p := diff.Plan
	if p.IsNew() {
		seq, err := r.store.alloc.Reserve(ctx, TablePlans, "id")
		if err != nil {
			return err
		}
		p.ID = seq.Next()
	}
	if len(diff.CreatedItems) > 0 {
		seq, err := r.store.alloc.Reserve(ctx, TableItems, "id")
		if err != nil {
			return err
		}
		for _, it := range diff.CreatedItems {
			it.ID = seq.Next()
			it.PlanID = p.ID
		}
	}
	if len(diff.CreatedEmails) > 0 {
		seq, err := r.store.alloc.Reserve(ctx, TableEmails, "id")
		if err != nil {
			return err
		}
		for _, e := range diff.CreatedEmails {
			e.ID = seq.Next()
			e.PlanID = p.ID
		}
	}
	return nil
}

// transition loads an in-scope plan, lets apply change items in memory and
// sends one update per changed item.
func (r *RemotePlanRepository) transition(ctx context.Context, planID int64, op string, apply func(p *domain.InvoicePlan, now time.Time) ([]*domain.InvoiceItem, error)) (contract.SaveResult, error) {
	if err := r.scope.EnsureInitialized(ctx); err != nil {
		return contract.SaveResult{}, err
	}
	snap, p, err := r.loadInScope(ctx, planID)
	if err != nil {
		return contract.SaveResult{}, err
	}
	changed, err := apply(p, r.opts.now())
	if err != nil {
		return contract.SaveResult{}, err
	}

	var b batch
	for _, it := range changed {
		b.update(TableItems, snap.itemKeys[it.ID], itemAttributes(it))
	}
	if err := r.store.execute(ctx, r.opts.logger, op, planID, &b); err != nil {
		return contract.SaveResult{}, err
	}
	var result contract.SaveResult
	result.Add(0, len(changed), 0)
	return result, nil
}

func (r *RemotePlanRepository) MarkItemsAsRequested(ctx context.Context, planID int64, updates []domain.RequestUpdate) (contract.SaveResult, error) {
	return r.transition(ctx, planID, "requesting items", func(p *domain.InvoicePlan, now time.Time) ([]*domain.InvoiceItem, error) {
		return p.ApplyRequests(updates, now)
	})
}

func (r *RemotePlanRepository) UndoRequest(ctx context.Context, planID int64, itemIDs []int64) (contract.SaveResult, error) {
	return r.transition(ctx, planID, "undoing requests", func(p *domain.InvoicePlan, now time.Time) ([]*domain.InvoiceItem, error) {
		return p.ApplyUndo(itemIDs, now)
	})
}

func (r *RemotePlanRepository) CloseItems(ctx context.Context, planID int64, updates []domain.CloseUpdate) (contract.SaveResult, error) {
	return r.transition(ctx, planID, "closing items", func(p *domain.InvoicePlan, now time.Time) ([]*domain.InvoiceItem, error) {
		return p.ApplyClose(updates, now)
	})
}

// CancelAndReissue creates every replacement before marking the originals
// canceled, so a canceled item never points at a missing replacement.
func (r *RemotePlanRepository) CancelAndReissue(ctx context.Context, planID int64, requests []domain.CancelRequest) (contract.SaveResult, error) {
	if err := r.scope.EnsureInitialized(ctx); err != nil {
		return contract.SaveResult{}, err
	}
	snap, p, err := r.loadInScope(ctx, planID)
	if err != nil {
		return contract.SaveResult{}, err
	}
	reissues, err := p.ApplyCancel(requests, r.opts.now())
	if err != nil {
		return contract.SaveResult{}, err
	}
	if len(reissues) == 0 {
		return contract.SaveResult{}, nil
	}

	seq, err := r.store.alloc.Reserve(ctx, TableItems, "id")
	if err != nil {
		return contract.SaveResult{}, err
	}
	for _, ri := range reissues {
		ri.Link(seq.Next())
	}

	var b batch
	for _, ri := range reissues {
		b.create(TableItems, itemAttributes(ri.Replacement))
	}
	for _, ri := range reissues {
		b.update(TableItems, snap.itemKeys[ri.Canceled.ID], itemAttributes(ri.Canceled))
	}
	if err := r.store.execute(ctx, r.opts.logger, "canceling items", planID, &b); err != nil {
		return contract.SaveResult{}, err
	}

	var result contract.SaveResult
	result.Add(len(reissues), len(reissues), 0)
	return result, nil
}

func (r *RemotePlanRepository) ListPendingRequests(ctx context.Context) ([]contract.PendingItem, error) {
	return r.pending(ctx, domain.ItemPlanned)
}

func (r *RemotePlanRepository) ListPendingEmissions(ctx context.Context) ([]contract.PendingItem, error) {
	return r.pending(ctx, domain.ItemRequested)
}

// scopedPlans loads the plans of the scope's engagements owning an item
// matching itemConds.
func (r *RemotePlanRepository) scopedPlans(ctx context.Context, ids []string, itemConds ...remote.Condition) ([]*domain.InvoicePlan, error) {
	conds := []remote.Condition{
		remote.In("engagementKey", lo.Map(ids, func(id string, _ int) string { return engagementKey(id) })...),
	}
	if len(itemConds) > 0 {
		planIDs, err := r.store.planIDsWithItems(ctx, itemConds...)
		if err != nil {
			return nil, err
		}
		if len(planIDs) == 0 {
			return nil, nil
		}
		conds = append(conds, remote.In("id", planIDs...))
	}
	snap, err := r.store.loadPlans(ctx, conds...)
	if err != nil {
		return nil, err
	}
	return snap.plans, nil
}

func (r *RemotePlanRepository) pending(ctx context.Context, status domain.ItemStatus) ([]contract.PendingItem, error) {
	ids, err := readableEngagements(ctx, r.scope)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []contract.PendingItem{}, nil
	}
	plans, err := r.scopedPlans(ctx, ids, remote.Eq("statusCode", statusOption(status)))
	if err != nil {
		return nil, err
	}
	return pendingItems(plans, status), nil
}

func (r *RemotePlanRepository) SearchSummary(ctx context.Context, filter contract.SummaryFilter) (*contract.SummaryResult, error) {
	ids, err := readableEngagements(ctx, r.scope)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return summarize(nil, filter), nil
	}
	plans, err := r.scopedPlans(ctx, ids)
	if err != nil {
		return nil, err
	}
	return summarize(plans, filter), nil
}

func (r *RemotePlanRepository) PreviewNotifications(ctx context.Context, notificationDate time.Time) ([]contract.NotificationPreview, error) {
	ids, err := readableEngagements(ctx, r.scope)
	if err != nil {
		return nil, err
	}
	from, to, ok := domain.EmissionWindow(notificationDate)
	if len(ids) == 0 || !ok {
		return []contract.NotificationPreview{}, nil
	}
	plans, err := r.scopedPlans(ctx, ids,
		remote.Eq("statusCode", statusOption(domain.ItemPlanned)),
		remote.Ge("emissionDate", from.Format(domain.DateLayout)),
		remote.Le("emissionDate", to.Format(domain.DateLayout)),
	)
	if err != nil {
		return nil, err
	}
	return previewNotifications(plans, notificationDate), nil
}
