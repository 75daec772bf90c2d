package domain

import (
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_NewPlanDiscardsInboundPhaseFields(t *testing.T) {
	incoming := &InvoicePlan{
		EngagementID: " ENG-1 ",
		Type:         PlanByDate,
		Items: []*InvoiceItem{
			{ID: 55, SeqNo: 9, Amount: decimal.NewFromInt(10), Status: ItemClosed, BzCode: "BZ", RitmNumber: "R"},
			{Amount: decimal.NewFromInt(20)},
		},
		Emails: []*InvoicePlanEmail{{Email: " ops@example.com "}},
	}

	diff, err := Reconcile(nil, incoming, testNow)
	require.NoError(t, err)

	assert.Equal(t, "ENG-1", diff.Plan.EngagementID)
	assert.Equal(t, testNow, diff.Plan.CreatedAt)
	require.Len(t, diff.CreatedItems, 2)
	for i, it := range diff.CreatedItems {
		assert.Equal(t, int64(0), it.ID)
		assert.Equal(t, i+1, it.SeqNo)
		assert.Equal(t, ItemPlanned, it.Status)
		assert.Empty(t, it.BzCode)
		assert.Empty(t, it.RitmNumber)
		assert.NoError(t, it.CheckPhaseFields())
	}
	require.Len(t, diff.CreatedEmails, 1)
	assert.Equal(t, "ops@example.com", diff.CreatedEmails[0].Email)
	assert.Empty(t, diff.UpdatedItems)
	assert.Empty(t, diff.DeletedItems)
}

func TestReconcile_ExistingPlanUpdatesCreatesAndDeletes(t *testing.T) {
	stored := twoItemPlan()
	requested(stored, 11)
	stored.Emails = []*InvoicePlanEmail{{ID: 3, PlanID: 7, Email: "old@example.com"}}

	incoming := &InvoicePlan{
		ID:              7,
		EngagementID:    "ENG-1",
		Type:            PlanByDate,
		PaymentTermDays: 45,
		Items: []*InvoiceItem{
			{ID: 11, Amount: decimal.NewFromInt(1500), Status: ItemPlanned},
			{Amount: decimal.NewFromInt(500), Status: ItemClosed, BzCode: "ignored"},
		},
		Emails: []*InvoicePlanEmail{{Email: "new@example.com"}},
	}

	diff, err := Reconcile(stored, incoming, testNow)
	require.NoError(t, err)

	assert.Equal(t, 45, diff.Plan.PaymentTermDays)
	assert.Equal(t, PlanByDate, diff.Plan.Type)

	require.Len(t, diff.UpdatedItems, 1)
	kept := diff.UpdatedItems[0]
	assert.True(t, decimal.NewFromInt(1500).Equal(kept.Amount))
	assert.Equal(t, ItemRequested, kept.Status, "status changes only through lifecycle operations")
	assert.Equal(t, "RITM001", kept.RitmNumber)

	require.Len(t, diff.CreatedItems, 1)
	created := diff.CreatedItems[0]
	assert.Equal(t, 3, created.SeqNo)
	assert.Equal(t, int64(7), created.PlanID)
	assert.Equal(t, ItemPlanned, created.Status)
	assert.Empty(t, created.BzCode)

	require.Len(t, diff.DeletedItems, 1)
	assert.Equal(t, int64(12), diff.DeletedItems[0].ID)
	assert.Len(t, diff.Plan.Items, 2)

	assert.Len(t, diff.CreatedEmails, 1)
	require.Len(t, diff.DeletedEmails, 1)
	assert.Equal(t, int64(3), diff.DeletedEmails[0].ID)
}

func TestReconcile_UnknownIDIsNewRow(t *testing.T) {
	stored := twoItemPlan()
	incoming := &InvoicePlan{
		ID: 7, EngagementID: "ENG-1", Type: PlanByDate,
		Items: []*InvoiceItem{{ID: 11}, {ID: 12}, {ID: 999, Amount: decimal.NewFromInt(1)}},
	}
	diff, err := Reconcile(stored, incoming, testNow)
	require.NoError(t, err)
	require.Len(t, diff.CreatedItems, 1)
	assert.Equal(t, int64(0), diff.CreatedItems[0].ID)
	assert.Len(t, diff.UpdatedItems, 2)
}

func TestReconcile_RejectsDroppingAReplacement(t *testing.T) {
	stored := twoItemPlan()
	canceled := requested(stored, 11)
	canceled.Status = ItemCanceled
	canceled.ReplacementItemID = lo.ToPtr(int64(12))

	incoming := &InvoicePlan{ID: 7, EngagementID: "ENG-1", Type: PlanByDate, Items: []*InvoiceItem{{ID: 11}}}
	_, err := Reconcile(stored, incoming, testNow)
	assert.True(t, errors.Is(err, ErrInvalidPlan))
}

func TestReconcile_RejectsEngagementChange(t *testing.T) {
	stored := twoItemPlan()
	incoming := &InvoicePlan{ID: 7, EngagementID: "ENG-2", Type: PlanByDate}
	_, err := Reconcile(stored, incoming, testNow)
	assert.True(t, errors.Is(err, ErrInvalidPlan))
}

func TestReconcile_RejectsDuplicateItemIDs(t *testing.T) {
	stored := twoItemPlan()
	incoming := &InvoicePlan{ID: 7, EngagementID: "ENG-1", Type: PlanByDate, Items: []*InvoiceItem{{ID: 11}, {ID: 11}}}
	_, err := Reconcile(stored, incoming, testNow)
	assert.True(t, errors.Is(err, ErrInvalidPlan))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		plan InvoicePlan
		ok   bool
	}{
		{"valid", InvoicePlan{EngagementID: "E", Type: PlanByDate}, true},
		{"blank engagement", InvoicePlan{EngagementID: " ", Type: PlanByDate}, false},
		{"unknown type", InvoicePlan{EngagementID: "E", Type: "weekly"}, false},
		{"negative terms", InvoicePlan{EngagementID: "E", Type: PlanByDate, PaymentTermDays: -1}, false},
		{"bad focal email", InvoicePlan{EngagementID: "E", Type: PlanByDate, CustomerFocalPointEmail: "nope"}, false},
		{"bad recipient", InvoicePlan{EngagementID: "E", Type: PlanByDate, Emails: []*InvoicePlanEmail{{Email: "x"}}}, false},
		{"negative amount", InvoicePlan{EngagementID: "E", Type: PlanByDate, Items: []*InvoiceItem{{Amount: decimal.NewFromInt(-1)}}}, false},
	}
	for _, tc := range cases {
		err := tc.plan.Validate()
		if tc.ok {
			assert.NoError(t, err, tc.name)
		} else {
			assert.True(t, errors.Is(err, ErrInvalidPlan), tc.name)
		}
	}
}

func TestRecipients_DedupesCaseInsensitively(t *testing.T) {
	p := &InvoicePlan{
		CustomerFocalPointEmail: "Focal@Example.com",
		Emails: []*InvoicePlanEmail{
			{Email: "focal@example.com"},
			{Email: ""},
			{Email: "billing@example.com"},
		},
	}
	assert.Equal(t, []string{"Focal@Example.com", "billing@example.com"}, p.Recipients())
}
