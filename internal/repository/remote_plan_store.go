package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/alexanderramin/invoiceplan/internal/remote"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// remoteSnapshot is a set of loaded plans together with the platform keys
// of every record, needed to address updates and deletes.
type remoteSnapshot struct {
	plans     []*domain.InvoicePlan
	planKeys  map[int64]string
	itemKeys  map[int64]string
	emailKeys map[int64]string
}

func (s *remoteSnapshot) first() *domain.InvoicePlan {
	if len(s.plans) == 0 {
		return nil
	}
	return s.plans[0]
}

type remotePlanStore struct {
	client remote.Client
	alloc  *remote.IDAllocator
}

func newRemotePlanStore(client remote.Client) *remotePlanStore {
	return &remotePlanStore{client: client, alloc: remote.NewIDAllocator(client)}
}

// loadPlans retrieves plans matching conds with their engagement and
// customer names, items and emails.
func (s *remotePlanStore) loadPlans(ctx context.Context, conds ...remote.Condition) (*remoteSnapshot, error) {
	recs, err := s.client.RetrieveMultiple(ctx, remote.Query{
		Table:      TablePlans,
		Columns:    planColumns,
		Conditions: conds,
		Orders:     []remote.Order{{Attribute: "id"}},
		Links:      planLinks,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving invoice plans: %w", err)
	}

	snap := &remoteSnapshot{
		planKeys:  make(map[int64]string, len(recs)),
		itemKeys:  make(map[int64]string),
		emailKeys: make(map[int64]string),
	}
	for _, r := range recs {
		p := planFromRecord(r)
		snap.plans = append(snap.plans, p)
		snap.planKeys[p.ID] = r.Key
	}
	if len(snap.plans) == 0 {
		return snap, nil
	}

	byID := lo.KeyBy(snap.plans, func(p *domain.InvoicePlan) int64 { return p.ID })
	planIDs := lo.Keys(byID)

	items, err := s.client.RetrieveMultiple(ctx, remote.Query{
		Table:      TableItems,
		Columns:    itemRemoteColumns,
		Conditions: []remote.Condition{remote.In("planId", planIDs...)},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving invoice items: %w", err)
	}
	for _, r := range items {
		it := itemFromRecord(r)
		if p, ok := byID[it.PlanID]; ok {
			p.Items = append(p.Items, it)
			snap.itemKeys[it.ID] = r.Key
		}
	}

	emails, err := s.client.RetrieveMultiple(ctx, remote.Query{
		Table:      TableEmails,
		Columns:    emailColumns,
		Conditions: []remote.Condition{remote.In("planId", planIDs...)},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving invoice plan emails: %w", err)
	}
	for _, r := range emails {
		e := emailFromRecord(r)
		if p, ok := byID[e.PlanID]; ok {
			p.Emails = append(p.Emails, e)
			snap.emailKeys[e.ID] = r.Key
		}
	}

	sortPlans(snap.plans)
	return snap, nil
}

func (s *remotePlanStore) loadPlan(ctx context.Context, planID int64) (*remoteSnapshot, error) {
	return s.loadPlans(ctx, remote.Eq("id", planID))
}

// planIDsWithItems returns the ids of plans owning an item that matches conds.
func (s *remotePlanStore) planIDsWithItems(ctx context.Context, conds ...remote.Condition) ([]int64, error) {
	recs, err := s.client.RetrieveMultiple(ctx, remote.Query{
		Table:      TableItems,
		Columns:    []string{"planId"},
		Conditions: conds,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving invoice items: %w", err)
	}
	return lo.Uniq(lo.Map(recs, func(r remote.Record, _ int) int64 { return r.Int64("planId") })), nil
}

// batch accumulates the requests of one write. New records get a fresh
// opaque key; integer ids are attributes.
type batch struct {
	requests []remote.Request
}

func (b *batch) create(table string, attrs map[string]any) string {
	key := uuid.NewString()
	b.requests = append(b.requests, remote.Request{Kind: remote.Create, Table: table, Key: key, Attributes: attrs})
	return key
}

func (b *batch) update(table, key string, attrs map[string]any) {
	b.requests = append(b.requests, remote.Request{Kind: remote.Update, Table: table, Key: key, Attributes: attrs})
}

func (b *batch) delete(table, key string) {
	b.requests = append(b.requests, remote.Request{Kind: remote.Delete, Table: table, Key: key})
}

// execute sends the batch fail-fast. A partial failure is logged with how
// far the batch got, since the applied requests cannot be rolled back.
func (s *remotePlanStore) execute(ctx context.Context, logger *slog.Logger, op string, planID int64, b *batch) error {
	if len(b.requests) == 0 {
		return nil
	}
	err := s.client.ExecuteMultiple(ctx, b.requests, remote.FailFast)
	if err == nil {
		return nil
	}
	var be *remote.BatchError
	if errors.As(err, &be) && be.Applied > 0 {
		logger.Warn("remote batch partially applied",
			"operation", op,
			"plan_id", planID,
			"applied", be.Applied,
			"total", be.Total,
			"failed_request", b.requests[be.Index].String(),
		)
	}
	return fmt.Errorf("%s for invoice plan %d: %w", op, planID, err)
}
