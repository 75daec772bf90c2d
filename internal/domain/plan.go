package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// InvoicePlan is one billing schedule for one engagement. The plan exclusively
// owns its items and extra notification recipients.
type InvoicePlan struct {
	ID                      int64
	EngagementID            string
	Type                    PlanType
	NumInvoices             int
	PaymentTermDays         int
	CustomerFocalPointName  string
	CustomerFocalPointEmail string
	CustomInstructions      string
	FirstEmissionDate       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Items  []*InvoiceItem
	Emails []*InvoicePlanEmail

	// Populated by reads from the engagement and customer master data.
	EngagementName string
	CustomerName   string
}

// InvoicePlanEmail is an extra notification recipient for a plan.
type InvoicePlanEmail struct {
	ID        int64
	PlanID    int64
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsNew reports whether the plan has not been persisted yet.
func (p *InvoicePlan) IsNew() bool {
	return p.ID == 0
}

// ItemByID returns the item with the given id, or nil.
func (p *InvoicePlan) ItemByID(id int64) *InvoiceItem {
	for _, it := range p.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// MaxSeqNo returns the highest SeqNo assigned in the plan, or 0 when empty.
// Canceled items count: sequence numbers are never reused.
func (p *InvoicePlan) MaxSeqNo() int {
	max := 0
	for _, it := range p.Items {
		if it.SeqNo > max {
			max = it.SeqNo
		}
	}
	return max
}

// Recipients returns the focal point email followed by the extra plan
// emails, skipping blanks and duplicates.
func (p *InvoicePlan) Recipients() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, addr)
	}
	add(p.CustomerFocalPointEmail)
	for _, e := range p.Emails {
		add(e.Email)
	}
	return out
}

// Validate checks the plan-level fields accepted on save.
func (p *InvoicePlan) Validate() error {
	if strings.TrimSpace(p.EngagementID) == "" {
		return fmt.Errorf("%w: engagement id is required", ErrInvalidPlan)
	}
	if !ValidPlanTypes[p.Type] {
		return fmt.Errorf("%w: unknown plan type %q", ErrInvalidPlan, p.Type)
	}
	if p.NumInvoices < 0 {
		return fmt.Errorf("%w: number of invoices must not be negative", ErrInvalidPlan)
	}
	if p.PaymentTermDays < 0 {
		return fmt.Errorf("%w: payment term days must not be negative", ErrInvalidPlan)
	}
	if addr := strings.TrimSpace(p.CustomerFocalPointEmail); addr != "" {
		if _, err := mail.ParseAddress(addr); err != nil {
			return fmt.Errorf("%w: focal point email %q: %v", ErrInvalidPlan, addr, err)
		}
	}
	for _, e := range p.Emails {
		if _, err := mail.ParseAddress(strings.TrimSpace(e.Email)); err != nil {
			return fmt.Errorf("%w: recipient email %q: %v", ErrInvalidPlan, e.Email, err)
		}
	}
	for _, it := range p.Items {
		if it.Amount.IsNegative() {
			return fmt.Errorf("%w: item %d has a negative amount", ErrInvalidPlan, it.SeqNo)
		}
		if it.Percentage.IsNegative() {
			return fmt.Errorf("%w: item %d has a negative percentage", ErrInvalidPlan, it.SeqNo)
		}
	}
	return nil
}
