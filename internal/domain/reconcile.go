package domain

import (
	"fmt"
	"strings"
	"time"
)

// PlanDiff is the outcome of reconciling an incoming plan against the
// stored one. Plan holds the merged result; the slices classify the rows a
// backend must insert, update or delete.
type PlanDiff struct {
	Plan *InvoicePlan

	CreatedItems []*InvoiceItem
	UpdatedItems []*InvoiceItem
	DeletedItems []*InvoiceItem

	CreatedEmails []*InvoicePlanEmail
	UpdatedEmails []*InvoicePlanEmail
	DeletedEmails []*InvoicePlanEmail
}

// Reconcile merges incoming into stored as a full plan replace. A nil
// stored plan means incoming is new. Items and emails are matched by id;
// unmatched incoming rows become new rows (items start Planned with phase
// fields discarded) and stored rows absent from incoming are deleted.
// Existing items only take commercial fields from incoming: status and
// phase fields change solely through the lifecycle operations.
func Reconcile(stored, incoming *InvoicePlan, now time.Time) (PlanDiff, error) {
	if incoming == nil {
		return PlanDiff{}, fmt.Errorf("%w: plan is required", ErrInvalidPlan)
	}
	if err := incoming.Validate(); err != nil {
		return PlanDiff{}, err
	}

	if stored == nil {
		return reconcileNew(incoming, now), nil
	}

	if !strings.EqualFold(strings.TrimSpace(incoming.EngagementID), stored.EngagementID) {
		return PlanDiff{}, fmt.Errorf("%w: plan %d belongs to engagement %s", ErrInvalidPlan, stored.ID, stored.EngagementID)
	}

	diff := PlanDiff{Plan: stored}
	copyPlanFields(stored, incoming)
	stored.UpdatedAt = now

	if err := reconcileItems(&diff, stored, incoming.Items, now); err != nil {
		return PlanDiff{}, err
	}
	if err := reconcileEmails(&diff, stored, incoming.Emails, now); err != nil {
		return PlanDiff{}, err
	}
	return diff, nil
}

func reconcileNew(incoming *InvoicePlan, now time.Time) PlanDiff {
	plan := &InvoicePlan{ID: 0, EngagementID: strings.TrimSpace(incoming.EngagementID)}
	copyPlanFields(plan, incoming)
	plan.CreatedAt = now
	plan.UpdatedAt = now

	diff := PlanDiff{Plan: plan}
	for i, in := range incoming.Items {
		it := newItemFrom(in, i+1, now)
		plan.Items = append(plan.Items, it)
		diff.CreatedItems = append(diff.CreatedItems, it)
	}
	for _, in := range incoming.Emails {
		e := &InvoicePlanEmail{Email: strings.TrimSpace(in.Email), CreatedAt: now, UpdatedAt: now}
		plan.Emails = append(plan.Emails, e)
		diff.CreatedEmails = append(diff.CreatedEmails, e)
	}
	return diff
}

func copyPlanFields(dst, src *InvoicePlan) {
	dst.Type = src.Type
	dst.NumInvoices = src.NumInvoices
	dst.PaymentTermDays = src.PaymentTermDays
	dst.CustomerFocalPointName = strings.TrimSpace(src.CustomerFocalPointName)
	dst.CustomerFocalPointEmail = strings.TrimSpace(src.CustomerFocalPointEmail)
	dst.CustomInstructions = src.CustomInstructions
	dst.FirstEmissionDate = nil
	if src.FirstEmissionDate != nil {
		dst.FirstEmissionDate = DatePtr(*src.FirstEmissionDate)
	}
}

func newItemFrom(in *InvoiceItem, seq int, now time.Time) *InvoiceItem {
	it := &InvoiceItem{SeqNo: seq, CreatedAt: now, UpdatedAt: now}
	it.CopyCommercialFields(in)
	normalizeItemDates(it)
	it.ResetToPlanned()
	return it
}

func normalizeItemDates(it *InvoiceItem) {
	if it.EmissionDate != nil {
		it.EmissionDate = DatePtr(*it.EmissionDate)
	}
	if it.DueDate != nil {
		it.DueDate = DatePtr(*it.DueDate)
	}
}

func reconcileItems(diff *PlanDiff, stored *InvoicePlan, incoming []*InvoiceItem, now time.Time) error {
	existing := make(map[int64]*InvoiceItem, len(stored.Items))
	for _, it := range stored.Items {
		existing[it.ID] = it
	}

	seen := make(map[int64]bool)
	seq := stored.MaxSeqNo()
	var kept []*InvoiceItem
	for _, in := range incoming {
		if cur, ok := existing[in.ID]; ok && in.ID != 0 {
			if seen[in.ID] {
				return fmt.Errorf("%w: item %d appears more than once", ErrInvalidPlan, in.ID)
			}
			seen[in.ID] = true
			cur.CopyCommercialFields(in)
			normalizeItemDates(cur)
			cur.UpdatedAt = now
			kept = append(kept, cur)
			diff.UpdatedItems = append(diff.UpdatedItems, cur)
			continue
		}
		seq++
		it := newItemFrom(in, seq, now)
		it.PlanID = stored.ID
		kept = append(kept, it)
		diff.CreatedItems = append(diff.CreatedItems, it)
	}

	deleted := make(map[int64]bool)
	for _, it := range stored.Items {
		if !seen[it.ID] {
			deleted[it.ID] = true
			diff.DeletedItems = append(diff.DeletedItems, it)
		}
	}

	// A retained canceled item must keep its replacement.
	for _, it := range kept {
		if it.ReplacementItemID != nil && deleted[*it.ReplacementItemID] {
			return fmt.Errorf("%w: item %d is the replacement of canceled item %d and cannot be removed",
				ErrInvalidPlan, *it.ReplacementItemID, it.ID)
		}
	}

	stored.Items = kept
	return nil
}

func reconcileEmails(diff *PlanDiff, stored *InvoicePlan, incoming []*InvoicePlanEmail, now time.Time) error {
	existing := make(map[int64]*InvoicePlanEmail, len(stored.Emails))
	for _, e := range stored.Emails {
		existing[e.ID] = e
	}

	seen := make(map[int64]bool)
	var kept []*InvoicePlanEmail
	for _, in := range incoming {
		if cur, ok := existing[in.ID]; ok && in.ID != 0 {
			if seen[in.ID] {
				return fmt.Errorf("%w: email %d appears more than once", ErrInvalidPlan, in.ID)
			}
			seen[in.ID] = true
			cur.Email = strings.TrimSpace(in.Email)
			cur.UpdatedAt = now
			kept = append(kept, cur)
			diff.UpdatedEmails = append(diff.UpdatedEmails, cur)
			continue
		}
		e := &InvoicePlanEmail{PlanID: stored.ID, Email: strings.TrimSpace(in.Email), CreatedAt: now, UpdatedAt: now}
		kept = append(kept, e)
		diff.CreatedEmails = append(diff.CreatedEmails, e)
	}

	for _, e := range stored.Emails {
		if !seen[e.ID] {
			diff.DeletedEmails = append(diff.DeletedEmails, e)
		}
	}
	stored.Emails = kept
	return nil
}
