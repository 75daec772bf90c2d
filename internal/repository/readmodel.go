package repository

import (
	"sort"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/contract"
	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/samber/lo"
)

// Read models shared by both backends, so the two produce identical DTOs
// and ordering from the same loaded plans.

func sortPlan(p *domain.InvoicePlan) {
	sort.SliceStable(p.Items, func(i, j int) bool { return p.Items[i].SeqNo < p.Items[j].SeqNo })
	sort.SliceStable(p.Emails, func(i, j int) bool { return p.Emails[i].ID < p.Emails[j].ID })
}

func sortPlans(plans []*domain.InvoicePlan) {
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	for _, p := range plans {
		sortPlan(p)
	}
}

// pendingItems flattens items in status, ordered by emission date (undated
// last), then plan id and sequence number.
func pendingItems(plans []*domain.InvoicePlan, status domain.ItemStatus) []contract.PendingItem {
	out := []contract.PendingItem{}
	for _, p := range plans {
		for _, it := range p.Items {
			if it.Status == status {
				out = append(out, contract.NewPendingItem(p, it))
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.EmissionDate == nil && b.EmissionDate != nil:
			return false
		case a.EmissionDate != nil && b.EmissionDate == nil:
			return true
		case a.EmissionDate != nil && !a.EmissionDate.Equal(*b.EmissionDate):
			return a.EmissionDate.Before(*b.EmissionDate)
		case a.PlanID != b.PlanID:
			return a.PlanID < b.PlanID
		}
		return a.SeqNo < b.SeqNo
	})
	return out
}

// summarize groups matching items by engagement. Plans with no matching
// item are left out.
func summarize(plans []*domain.InvoicePlan, filter contract.SummaryFilter) *contract.SummaryResult {
	res := &contract.SummaryResult{Groups: []contract.SummaryGroup{}}

	byEngagement := lo.GroupBy(lo.Filter(plans, func(p *domain.InvoicePlan, _ int) bool {
		return filter.MatchesPlan(p)
	}), func(p *domain.InvoicePlan) string { return p.EngagementID })

	keys := lo.Keys(byEngagement)
	sort.Strings(keys)
	for _, eng := range keys {
		group := contract.SummaryGroup{
			EngagementID: eng,
			StatusCounts: make(map[domain.ItemStatus]int),
		}
		for _, p := range byEngagement[eng] {
			items := lo.Filter(p.Items, func(it *domain.InvoiceItem, _ int) bool { return filter.MatchesItem(it) })
			if len(items) == 0 {
				continue
			}
			group.EngagementName = lo.CoalesceOrEmpty(group.EngagementName, p.EngagementName)
			group.CustomerName = lo.CoalesceOrEmpty(group.CustomerName, p.CustomerName)
			group.PlanCount++
			for _, it := range items {
				group.ItemCount++
				group.StatusCounts[it.Status]++
				if it.Status == domain.ItemCanceled {
					continue
				}
				group.Amount = group.Amount.Add(it.Amount)
				group.Percentage = group.Percentage.Add(it.Percentage)
			}
		}
		if group.ItemCount == 0 {
			continue
		}
		res.Groups = append(res.Groups, group)
		res.TotalItems += group.ItemCount
		res.TotalAmount = res.TotalAmount.Add(group.Amount)
		res.TotalPercentage = res.TotalPercentage.Add(group.Percentage)
	}
	return res
}

// previewNotifications returns the Planned items announced on
// notificationDate, ordered by emission date, plan id and sequence number.
func previewNotifications(plans []*domain.InvoicePlan, notificationDate time.Time) []contract.NotificationPreview {
	target := domain.DateOf(notificationDate)
	out := []contract.NotificationPreview{}
	for _, p := range plans {
		recipients := p.Recipients()
		for _, it := range p.Items {
			if it.Status != domain.ItemPlanned || it.EmissionDate == nil {
				continue
			}
			nd := domain.NotificationDate(*it.EmissionDate)
			if !nd.Equal(target) {
				continue
			}
			out = append(out, contract.NotificationPreview{
				PlanID:             p.ID,
				ItemID:             it.ID,
				SeqNo:              it.SeqNo,
				EngagementID:       p.EngagementID,
				EngagementName:     p.EngagementName,
				CustomerName:       p.CustomerName,
				EmissionDate:       domain.DateOf(*it.EmissionDate),
				NotificationDate:   nd,
				Amount:             it.Amount,
				Percentage:         it.Percentage,
				Description:        it.Description,
				FocalPointName:     p.CustomerFocalPointName,
				Recipients:         recipients,
				CustomInstructions: p.CustomInstructions,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.EmissionDate.Equal(b.EmissionDate) {
			return a.EmissionDate.Before(b.EmissionDate)
		}
		if a.PlanID != b.PlanID {
			return a.PlanID < b.PlanID
		}
		return a.SeqNo < b.SeqNo
	})
	return out
}
