package contract

import (
	"time"

	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/shopspring/decimal"
)

// PendingItem is an item awaiting the next lifecycle step, flattened with
// its plan, engagement and customer context.
type PendingItem struct {
	PlanID         int64
	ItemID         int64
	SeqNo          int
	EngagementID   string
	EngagementName string
	CustomerName   string
	Status         domain.ItemStatus
	Amount         decimal.Decimal
	Percentage     decimal.Decimal
	EmissionDate   *time.Time
	DueDate        *time.Time
	Description    string
	RitmNumber     string
	CoeResponsible string
	RequestDate    *time.Time
}

// NewPendingItem flattens it with the context of plan p.
func NewPendingItem(p *domain.InvoicePlan, it *domain.InvoiceItem) PendingItem {
	return PendingItem{
		PlanID:         p.ID,
		ItemID:         it.ID,
		SeqNo:          it.SeqNo,
		EngagementID:   p.EngagementID,
		EngagementName: p.EngagementName,
		CustomerName:   p.CustomerName,
		Status:         it.Status,
		Amount:         it.Amount,
		Percentage:     it.Percentage,
		EmissionDate:   it.EmissionDate,
		DueDate:        it.DueDate,
		Description:    it.Description,
		RitmNumber:     it.RitmNumber,
		CoeResponsible: it.CoeResponsible,
		RequestDate:    it.RequestDate,
	}
}

// NotificationPreview describes one upcoming emission announcement.
type NotificationPreview struct {
	PlanID             int64
	ItemID             int64
	SeqNo              int
	EngagementID       string
	EngagementName     string
	CustomerName       string
	EmissionDate       time.Time
	NotificationDate   time.Time
	Amount             decimal.Decimal
	Percentage         decimal.Decimal
	Description        string
	FocalPointName     string
	Recipients         []string
	CustomInstructions string
}
