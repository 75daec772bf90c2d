package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceItem is one installment within a plan.
type InvoiceItem struct {
	ID     int64
	PlanID int64
	SeqNo  int

	// Commercial fields
	Percentage   decimal.Decimal
	Amount       decimal.Decimal
	EmissionDate *time.Time
	DueDate      *time.Time
	PayerTaxID   string
	PONumber     string
	FRSNumber    string
	TicketNumber string
	Description  string

	Status ItemStatus

	// Request phase
	RitmNumber     string
	CoeResponsible string
	RequestDate    *time.Time

	// Close phase
	BzCode    string
	EmittedAt *time.Time

	// Cancel phase
	CanceledAt        *time.Time
	CancelReason      string
	ReplacementItemID *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (it *InvoiceItem) hasRequestFields() bool {
	return it.RitmNumber != "" || it.CoeResponsible != "" || it.RequestDate != nil
}

func (it *InvoiceItem) hasCloseFields() bool {
	return it.BzCode != "" || it.EmittedAt != nil
}

func (it *InvoiceItem) hasCancelFields() bool {
	return it.CanceledAt != nil || it.CancelReason != "" || it.ReplacementItemID != nil
}

func (it *InvoiceItem) clearRequestFields() {
	it.RitmNumber = ""
	it.CoeResponsible = ""
	it.RequestDate = nil
}

func (it *InvoiceItem) clearCloseFields() {
	it.BzCode = ""
	it.EmittedAt = nil
}

func (it *InvoiceItem) clearCancelFields() {
	it.CanceledAt = nil
	it.CancelReason = ""
	it.ReplacementItemID = nil
}

// ResetToPlanned discards the status and every phase field, as done for
// items arriving on a plan save without a recognised id.
func (it *InvoiceItem) ResetToPlanned() {
	it.Status = ItemPlanned
	it.clearRequestFields()
	it.clearCloseFields()
	it.clearCancelFields()
}

// CopyCommercialFields copies the fields a plan save is allowed to change
// on an existing item. Status and phase fields are left untouched.
func (it *InvoiceItem) CopyCommercialFields(src *InvoiceItem) {
	it.Percentage = src.Percentage
	it.Amount = src.Amount
	it.EmissionDate = src.EmissionDate
	it.DueDate = src.DueDate
	it.PayerTaxID = src.PayerTaxID
	it.PONumber = src.PONumber
	it.FRSNumber = src.FRSNumber
	it.TicketNumber = src.TicketNumber
	it.Description = src.Description
}

// CheckPhaseFields verifies phase fields match the current status. Request
// fields survive into Closed and Canceled, which are only reachable from
// Requested; close and cancel fields exist only in their own phase.
func (it *InvoiceItem) CheckPhaseFields() error {
	switch it.Status {
	case ItemPlanned:
		if it.hasRequestFields() {
			return fmt.Errorf("item %d: planned item carries request fields", it.ID)
		}
	case ItemRequested, ItemClosed, ItemCanceled:
		if it.RitmNumber == "" || it.CoeResponsible == "" || it.RequestDate == nil {
			return fmt.Errorf("item %d: %s item is missing request fields", it.ID, it.Status)
		}
	}
	if it.Status != ItemClosed && it.hasCloseFields() {
		return fmt.Errorf("item %d: %s item carries close fields", it.ID, it.Status)
	}
	if it.Status == ItemClosed && (it.BzCode == "" || it.EmittedAt == nil) {
		return fmt.Errorf("item %d: closed item is missing close fields", it.ID)
	}
	if it.Status != ItemCanceled && it.hasCancelFields() {
		return fmt.Errorf("item %d: %s item carries cancel fields", it.ID, it.Status)
	}
	if it.Status == ItemCanceled && (it.CanceledAt == nil || it.CancelReason == "" || it.ReplacementItemID == nil) {
		return fmt.Errorf("item %d: canceled item is missing cancel fields", it.ID)
	}
	return nil
}
