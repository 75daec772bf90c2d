package domain

type PlanType string

const (
	PlanByDate       PlanType = "by_date"
	PlanByPercentage PlanType = "by_percentage"
)

// ValidPlanTypes is the canonical set of accepted plan type strings.
var ValidPlanTypes = map[PlanType]bool{
	PlanByDate:       true,
	PlanByPercentage: true,
}

type ItemStatus string

const (
	ItemPlanned   ItemStatus = "planned"
	ItemRequested ItemStatus = "requested"
	ItemClosed    ItemStatus = "closed"
	ItemCanceled  ItemStatus = "canceled"

	// ItemEmitted and ItemReissued are reported by upstream billing data but
	// no lifecycle operation moves an item into or out of them.
	ItemEmitted  ItemStatus = "emitted"
	ItemReissued ItemStatus = "reissued"
)

// AllItemStatuses lists every status in display order.
var AllItemStatuses = []ItemStatus{
	ItemPlanned,
	ItemRequested,
	ItemEmitted,
	ItemClosed,
	ItemCanceled,
	ItemReissued,
}

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	for _, known := range AllItemStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no lifecycle operation can move an item out of s.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemClosed || s == ItemCanceled
}
