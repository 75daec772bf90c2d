package repository

import (
	"time"

	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/alexanderramin/invoiceplan/internal/remote"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Remote platform tables. Integer ids and sequence numbers are attributes
// maintained by the repository; record keys are opaque.
const (
	TablePlans       = "invoicePlans"
	TableItems       = "invoiceItems"
	TableEmails      = "invoicePlanEmails"
	TableEngagements = "engagements"
	TableCustomers   = "customers"
	TableAssignments = "engagementAssignments"
)

// itemStatusOptions maps statuses to the platform's option-set values.
var itemStatusOptions = map[domain.ItemStatus]int64{
	domain.ItemPlanned:   1,
	domain.ItemRequested: 2,
	domain.ItemEmitted:   3,
	domain.ItemClosed:    4,
	domain.ItemCanceled:  5,
	domain.ItemReissued:  6,
}

func statusOption(s domain.ItemStatus) int64 {
	return itemStatusOptions[s]
}

func statusFromOption(v int64) domain.ItemStatus {
	for s, opt := range itemStatusOptions {
		if opt == v {
			return s
		}
	}
	return domain.ItemStatus("")
}

var planColumns = []string{
	"id", "engagementId", "engagementKey", "planType", "numInvoices", "paymentTermDays",
	"focalPointName", "focalPointEmail", "customInstructions", "firstEmissionDate",
	"createdAt", "updatedAt",
}

// planLinks joins plan -> engagement -> customer.
var planLinks = []remote.Link{
	{From: "engagementId", Table: TableEngagements, To: "engagementId", Alias: "engagement", Columns: []string{"name", "customerId"}},
	{From: "engagement.customerId", Table: TableCustomers, To: "customerId", Alias: "customer", Columns: []string{"name"}},
}

var itemRemoteColumns = []string{
	"id", "planId", "seqNo", "percentage", "amount", "emissionDate", "dueDate",
	"payerTaxId", "poNumber", "frsNumber", "ticketNumber", "description", "statusCode",
	"ritmNumber", "coeResponsible", "requestDate", "bzCode", "emittedAt",
	"canceledAt", "cancelReason", "replacementItemId", "createdAt", "updatedAt",
}

var emailColumns = []string{"id", "planId", "email", "createdAt", "updatedAt"}

func dateAttr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(domain.DateLayout)
}

func timestampAttr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTimestamp(*t)
}

func int64Attr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func recordDate(r remote.Record, name string) *time.Time {
	s := r.String(name)
	if len(s) < len(domain.DateLayout) {
		return nil
	}
	t, err := time.Parse(domain.DateLayout, s[:len(domain.DateLayout)])
	if err != nil {
		return nil
	}
	return &t
}

func recordTimestamp(r remote.Record, name string) *time.Time {
	s := r.String(name)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

func recordDecimal(r remote.Record, name string) decimal.Decimal {
	d, err := decimal.NewFromString(r.String(name))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func planAttributes(p *domain.InvoicePlan) map[string]any {
	return map[string]any{
		"id":                 p.ID,
		"engagementId":       p.EngagementID,
		"engagementKey":      engagementKey(p.EngagementID),
		"planType":           string(p.Type),
		"numInvoices":        int64(p.NumInvoices),
		"paymentTermDays":    int64(p.PaymentTermDays),
		"focalPointName":     p.CustomerFocalPointName,
		"focalPointEmail":    p.CustomerFocalPointEmail,
		"customInstructions": p.CustomInstructions,
		"firstEmissionDate":  dateAttr(p.FirstEmissionDate),
		"createdAt":          formatTimestamp(p.CreatedAt),
		"updatedAt":          formatTimestamp(p.UpdatedAt),
	}
}

func planFromRecord(r remote.Record) *domain.InvoicePlan {
	return &domain.InvoicePlan{
		ID:                      r.Int64("id"),
		EngagementID:            r.String("engagementId"),
		Type:                    domain.PlanType(r.String("planType")),
		NumInvoices:             int(r.Int64("numInvoices")),
		PaymentTermDays:         int(r.Int64("paymentTermDays")),
		CustomerFocalPointName:  r.String("focalPointName"),
		CustomerFocalPointEmail: r.String("focalPointEmail"),
		CustomInstructions:      r.String("customInstructions"),
		FirstEmissionDate:       recordDate(r, "firstEmissionDate"),
		CreatedAt:               parseTime(r.String("createdAt")),
		UpdatedAt:               parseTime(r.String("updatedAt")),
		EngagementName:          r.String("engagement.name"),
		CustomerName:            r.String("customer.name"),
	}
}

func itemAttributes(it *domain.InvoiceItem) map[string]any {
	return map[string]any{
		"id":                it.ID,
		"planId":            it.PlanID,
		"seqNo":             int64(it.SeqNo),
		"percentage":        it.Percentage.String(),
		"amount":            it.Amount.String(),
		"emissionDate":      dateAttr(it.EmissionDate),
		"dueDate":           dateAttr(it.DueDate),
		"payerTaxId":        it.PayerTaxID,
		"poNumber":          it.PONumber,
		"frsNumber":         it.FRSNumber,
		"ticketNumber":      it.TicketNumber,
		"description":       it.Description,
		"statusCode":        statusOption(it.Status),
		"ritmNumber":        it.RitmNumber,
		"coeResponsible":    it.CoeResponsible,
		"requestDate":       dateAttr(it.RequestDate),
		"bzCode":            it.BzCode,
		"emittedAt":         timestampAttr(it.EmittedAt),
		"canceledAt":        timestampAttr(it.CanceledAt),
		"cancelReason":      it.CancelReason,
		"replacementItemId": int64Attr(it.ReplacementItemID),
		"createdAt":         formatTimestamp(it.CreatedAt),
		"updatedAt":         formatTimestamp(it.UpdatedAt),
	}
}

func itemFromRecord(r remote.Record) *domain.InvoiceItem {
	it := &domain.InvoiceItem{
		ID:             r.Int64("id"),
		PlanID:         r.Int64("planId"),
		SeqNo:          int(r.Int64("seqNo")),
		Percentage:     recordDecimal(r, "percentage"),
		Amount:         recordDecimal(r, "amount"),
		EmissionDate:   recordDate(r, "emissionDate"),
		DueDate:        recordDate(r, "dueDate"),
		PayerTaxID:     r.String("payerTaxId"),
		PONumber:       r.String("poNumber"),
		FRSNumber:      r.String("frsNumber"),
		TicketNumber:   r.String("ticketNumber"),
		Description:    r.String("description"),
		Status:         statusFromOption(r.Int64("statusCode")),
		RitmNumber:     r.String("ritmNumber"),
		CoeResponsible: r.String("coeResponsible"),
		RequestDate:    recordDate(r, "requestDate"),
		BzCode:         r.String("bzCode"),
		EmittedAt:      recordTimestamp(r, "emittedAt"),
		CanceledAt:     recordTimestamp(r, "canceledAt"),
		CancelReason:   r.String("cancelReason"),
		CreatedAt:      parseTime(r.String("createdAt")),
		UpdatedAt:      parseTime(r.String("updatedAt")),
	}
	if r.Has("replacementItemId") {
		it.ReplacementItemID = lo.ToPtr(r.Int64("replacementItemId"))
	}
	return it
}

func emailAttributes(e *domain.InvoicePlanEmail) map[string]any {
	return map[string]any{
		"id":        e.ID,
		"planId":    e.PlanID,
		"email":     e.Email,
		"createdAt": formatTimestamp(e.CreatedAt),
		"updatedAt": formatTimestamp(e.UpdatedAt),
	}
}

func emailFromRecord(r remote.Record) *domain.InvoicePlanEmail {
	return &domain.InvoicePlanEmail{
		ID:        r.Int64("id"),
		PlanID:    r.Int64("planId"),
		Email:     r.String("email"),
		CreatedAt: parseTime(r.String("createdAt")),
		UpdatedAt: parseTime(r.String("updatedAt")),
	}
}
