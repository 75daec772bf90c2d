package testutil

import (
	"time"

	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/shopspring/decimal"
)

// Plan options
type PlanOption func(*domain.InvoicePlan)

func WithPlanType(pt domain.PlanType) PlanOption {
	return func(p *domain.InvoicePlan) {
		p.Type = pt
	}
}

func WithPaymentTermDays(days int) PlanOption {
	return func(p *domain.InvoicePlan) {
		p.PaymentTermDays = days
	}
}

func WithFocalPoint(name, email string) PlanOption {
	return func(p *domain.InvoicePlan) {
		p.CustomerFocalPointName = name
		p.CustomerFocalPointEmail = email
	}
}

func WithCustomInstructions(s string) PlanOption {
	return func(p *domain.InvoicePlan) {
		p.CustomInstructions = s
	}
}

func WithRecipients(emails ...string) PlanOption {
	return func(p *domain.InvoicePlan) {
		for _, e := range emails {
			p.Emails = append(p.Emails, &domain.InvoicePlanEmail{Email: e})
		}
	}
}

// WithItem appends an item. Items get consecutive sequence numbers on save.
func WithItem(it *domain.InvoiceItem) PlanOption {
	return func(p *domain.InvoicePlan) {
		p.Items = append(p.Items, it)
	}
}

// NewTestPlan builds an unsaved plan for engagementID. Without WithItem
// options it carries no items.
func NewTestPlan(engagementID string, opts ...PlanOption) *domain.InvoicePlan {
	p := &domain.InvoicePlan{
		EngagementID:    engagementID,
		Type:            domain.PlanByDate,
		PaymentTermDays: 30,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.NumInvoices = len(p.Items)
	return p
}

// Item options
type ItemOption func(*domain.InvoiceItem)

func WithEmission(d time.Time) ItemOption {
	return func(it *domain.InvoiceItem) {
		it.EmissionDate = domain.DatePtr(d)
	}
}

func WithDue(d time.Time) ItemOption {
	return func(it *domain.InvoiceItem) {
		it.DueDate = domain.DatePtr(d)
	}
}

func WithPercentage(pct string) ItemOption {
	return func(it *domain.InvoiceItem) {
		it.Percentage = decimal.RequireFromString(pct)
	}
}

func WithDescription(s string) ItemOption {
	return func(it *domain.InvoiceItem) {
		it.Description = s
	}
}

// NewTestItem builds an item for amount.
func NewTestItem(amount string, opts ...ItemOption) *domain.InvoiceItem {
	it := &domain.InvoiceItem{
		Amount:     decimal.RequireFromString(amount),
		Percentage: decimal.Zero,
		PayerTaxID: "30-12345678-9",
		PONumber:   "PO-1",
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Date returns a calendar date in UTC.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FixedClock returns a clock stuck at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
