package contract

import (
	"strings"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/shopspring/decimal"
)

// SummaryFilter narrows SearchSummary. Zero-valued fields do not filter.
type SummaryFilter struct {
	EngagementIDs []string
	Statuses      []domain.ItemStatus
	EmissionFrom  *time.Time // inclusive
	EmissionTo    *time.Time // inclusive
	// Search matches engagement id, engagement name or customer name,
	// case-insensitively.
	Search string
}

// MatchesPlan reports whether the plan passes the engagement and search filters.
func (f SummaryFilter) MatchesPlan(p *domain.InvoicePlan) bool {
	if len(f.EngagementIDs) > 0 {
		found := false
		for _, id := range f.EngagementIDs {
			if strings.EqualFold(id, p.EngagementID) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.EngagementID), q) ||
		strings.Contains(strings.ToLower(p.EngagementName), q) ||
		strings.Contains(strings.ToLower(p.CustomerName), q)
}

// MatchesItem reports whether the item passes the status and emission filters.
// Items without an emission date never match a date range.
func (f SummaryFilter) MatchesItem(it *domain.InvoiceItem) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if s == it.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.EmissionFrom == nil && f.EmissionTo == nil {
		return true
	}
	if it.EmissionDate == nil {
		return false
	}
	d := domain.DateOf(*it.EmissionDate)
	if f.EmissionFrom != nil && d.Before(domain.DateOf(*f.EmissionFrom)) {
		return false
	}
	if f.EmissionTo != nil && d.After(domain.DateOf(*f.EmissionTo)) {
		return false
	}
	return true
}

// SummaryGroup aggregates the matching items of one engagement.
type SummaryGroup struct {
	EngagementID   string
	EngagementName string
	CustomerName   string
	PlanCount      int
	ItemCount      int
	Amount         decimal.Decimal
	Percentage     decimal.Decimal
	StatusCounts   map[domain.ItemStatus]int
}

// SummaryResult is the cross-plan summary. Amount and percentage totals
// exclude canceled items, whose value lives on in their replacements;
// status counts include them.
type SummaryResult struct {
	Groups          []SummaryGroup
	TotalItems      int
	TotalAmount     decimal.Decimal
	TotalPercentage decimal.Decimal
}
