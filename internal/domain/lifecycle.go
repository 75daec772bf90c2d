package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// RequestUpdate asks for a Planned item to be formally requested.
type RequestUpdate struct {
	ItemID         int64
	RitmNumber     string
	CoeResponsible string
	RequestDate    time.Time
}

// CloseUpdate records that a Requested item was actually invoiced.
type CloseUpdate struct {
	ItemID    int64
	BzCode    string
	EmittedAt *time.Time // nil stamps the operation time
}

// CancelRequest cancels a Requested item and reissues it as a new Planned item.
type CancelRequest struct {
	ItemID                  int64
	CancelReason            string
	ReplacementEmissionDate *time.Time
	ReplacementDueDate      *time.Time
}

// Reissue pairs a canceled item with the Planned item created to replace it.
// The replacement has no id until the backend persists it; Link sets the
// forward pointer once it does.
type Reissue struct {
	Canceled    *InvoiceItem
	Replacement *InvoiceItem
}

// Link assigns the replacement's id and points the canceled item at it.
func (r Reissue) Link(id int64) {
	r.Replacement.ID = id
	r.Canceled.ReplacementItemID = &id
}

// keepLast drops all but the last instruction for each item id.
func keepLast[T any](in []T, key func(T) int64) []T {
	last := make(map[int64]int, len(in))
	for i, v := range in {
		last[key(v)] = i
	}
	return lo.Filter(in, func(v T, i int) bool {
		return last[key(v)] == i
	})
}

func (p *InvoicePlan) lookup(itemID int64) (*InvoiceItem, error) {
	it := p.ItemByID(itemID)
	if it == nil {
		return nil, fmt.Errorf("item %d in plan %d: %w", itemID, p.ID, ErrNotFound)
	}
	return it, nil
}

// ApplyRequests moves Planned items to Requested. Every instruction is
// validated before any item is touched; on error the plan is unchanged.
func (p *InvoicePlan) ApplyRequests(updates []RequestUpdate, now time.Time) ([]*InvoiceItem, error) {
	updates = keepLast(updates, func(u RequestUpdate) int64 { return u.ItemID })

	targets := make([]*InvoiceItem, 0, len(updates))
	for _, u := range updates {
		it, err := p.lookup(u.ItemID)
		if err != nil {
			return nil, err
		}
		if it.Status != ItemPlanned {
			return nil, transitionErr(it, ItemRequested, "only planned items can be requested")
		}
		if strings.TrimSpace(u.RitmNumber) == "" {
			return nil, transitionErr(it, ItemRequested, "RITM number is required")
		}
		if strings.TrimSpace(u.CoeResponsible) == "" {
			return nil, transitionErr(it, ItemRequested, "responsible is required")
		}
		if u.RequestDate.IsZero() {
			return nil, transitionErr(it, ItemRequested, "request date is required")
		}
		targets = append(targets, it)
	}

	for i, u := range updates {
		it := targets[i]
		it.Status = ItemRequested
		it.RitmNumber = strings.TrimSpace(u.RitmNumber)
		it.CoeResponsible = strings.TrimSpace(u.CoeResponsible)
		it.RequestDate = DatePtr(u.RequestDate)
		it.UpdatedAt = now
	}
	return targets, nil
}

// ApplyUndo returns Requested items to Planned. Items that are not
// Requested are skipped without error and are not part of the result.
func (p *InvoicePlan) ApplyUndo(itemIDs []int64, now time.Time) ([]*InvoiceItem, error) {
	itemIDs = lo.Uniq(itemIDs)

	targets := make([]*InvoiceItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		it, err := p.lookup(id)
		if err != nil {
			return nil, err
		}
		if it.Status != ItemRequested {
			continue
		}
		targets = append(targets, it)
	}

	for _, it := range targets {
		it.Status = ItemPlanned
		it.clearRequestFields()
		it.UpdatedAt = now
	}
	return targets, nil
}

// ApplyClose moves Requested items to Closed.
func (p *InvoicePlan) ApplyClose(updates []CloseUpdate, now time.Time) ([]*InvoiceItem, error) {
	updates = keepLast(updates, func(u CloseUpdate) int64 { return u.ItemID })

	targets := make([]*InvoiceItem, 0, len(updates))
	for _, u := range updates {
		it, err := p.lookup(u.ItemID)
		if err != nil {
			return nil, err
		}
		if it.Status != ItemRequested {
			return nil, transitionErr(it, ItemClosed, "only requested items can be closed")
		}
		if strings.TrimSpace(it.RitmNumber) == "" {
			return nil, transitionErr(it, ItemClosed, "item has no RITM number")
		}
		if strings.TrimSpace(u.BzCode) == "" {
			return nil, transitionErr(it, ItemClosed, "BZ code is required")
		}
		targets = append(targets, it)
	}

	for i, u := range updates {
		it := targets[i]
		emitted := now
		if u.EmittedAt != nil {
			emitted = *u.EmittedAt
		}
		it.Status = ItemClosed
		it.BzCode = strings.TrimSpace(u.BzCode)
		it.EmittedAt = &emitted
		it.UpdatedAt = now
	}
	return targets, nil
}

// ApplyCancel cancels Requested items and appends one Planned replacement
// per canceled item to the plan. Replacements take consecutive sequence
// numbers after the plan's current maximum, in instruction order.
func (p *InvoicePlan) ApplyCancel(requests []CancelRequest, now time.Time) ([]Reissue, error) {
	requests = keepLast(requests, func(r CancelRequest) int64 { return r.ItemID })

	targets := make([]*InvoiceItem, 0, len(requests))
	for _, r := range requests {
		it, err := p.lookup(r.ItemID)
		if err != nil {
			return nil, err
		}
		if it.Status != ItemRequested {
			return nil, transitionErr(it, ItemCanceled, "only requested items can be canceled")
		}
		if strings.TrimSpace(r.CancelReason) == "" {
			return nil, transitionErr(it, ItemCanceled, "cancel reason is required")
		}
		targets = append(targets, it)
	}

	seq := p.MaxSeqNo()
	reissues := make([]Reissue, 0, len(requests))
	for i, r := range requests {
		canceled := targets[i]
		seq++
		replacement := p.newReplacement(canceled, r, seq, now)

		canceledAt := now
		canceled.Status = ItemCanceled
		canceled.CanceledAt = &canceledAt
		canceled.CancelReason = strings.TrimSpace(r.CancelReason)
		canceled.UpdatedAt = now

		p.Items = append(p.Items, replacement)
		reissues = append(reissues, Reissue{Canceled: canceled, Replacement: replacement})
	}
	return reissues, nil
}

func (p *InvoicePlan) newReplacement(canceled *InvoiceItem, r CancelRequest, seq int, now time.Time) *InvoiceItem {
	replacement := &InvoiceItem{
		PlanID:    p.ID,
		SeqNo:     seq,
		Status:    ItemPlanned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	replacement.CopyCommercialFields(canceled)

	emission := lo.CoalesceOrEmpty(r.ReplacementEmissionDate, canceled.EmissionDate)
	replacement.EmissionDate = nil
	if emission != nil {
		replacement.EmissionDate = DatePtr(*emission)
	}

	replacement.DueDate = nil
	switch {
	case r.ReplacementDueDate != nil:
		replacement.DueDate = DatePtr(*r.ReplacementDueDate)
	case replacement.EmissionDate != nil:
		due := replacement.EmissionDate.AddDate(0, 0, p.PaymentTermDays)
		replacement.DueDate = &due
	}
	return replacement
}
