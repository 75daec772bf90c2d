package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// twoItemPlan builds plan P from the end-to-end scenario: two Planned items
// of 1000 at 50% each.
func twoItemPlan() *InvoicePlan {
	return &InvoicePlan{
		ID:              7,
		EngagementID:    "ENG-1",
		Type:            PlanByPercentage,
		PaymentTermDays: 30,
		Items: []*InvoiceItem{
			{
				ID: 11, PlanID: 7, SeqNo: 1, Status: ItemPlanned,
				Amount: decimal.NewFromInt(1000), Percentage: decimal.NewFromInt(50),
				EmissionDate: date(2025, 7, 1), PayerTaxID: "TAX-1", PONumber: "PO-1",
				FRSNumber: "FRS-1", TicketNumber: "T-1", Description: "first half",
			},
			{
				ID: 12, PlanID: 7, SeqNo: 2, Status: ItemPlanned,
				Amount: decimal.NewFromInt(1000), Percentage: decimal.NewFromInt(50),
				EmissionDate: date(2025, 8, 1),
			},
		},
	}
}

func requested(p *InvoicePlan, id int64) *InvoiceItem {
	it := p.ItemByID(id)
	it.Status = ItemRequested
	it.RitmNumber = "RITM001"
	it.CoeResponsible = "Alice"
	it.RequestDate = date(2025, 6, 10)
	return it
}

func TestApplyRequests_StampsRequiredFields(t *testing.T) {
	p := twoItemPlan()
	updated, err := p.ApplyRequests([]RequestUpdate{
		{ItemID: 11, RitmNumber: " RITM001 ", CoeResponsible: "Alice", RequestDate: testNow},
	}, testNow)
	require.NoError(t, err)
	require.Len(t, updated, 1)

	it := p.ItemByID(11)
	assert.Equal(t, ItemRequested, it.Status)
	assert.Equal(t, "RITM001", it.RitmNumber)
	assert.Equal(t, "Alice", it.CoeResponsible)
	require.NotNil(t, it.RequestDate)
	assert.Equal(t, DateOf(testNow), *it.RequestDate)
	assert.Empty(t, it.BzCode)
	assert.Nil(t, it.CanceledAt)
	assert.NoError(t, it.CheckPhaseFields())
}

func TestApplyRequests_MissingFieldFailsWholeBatch(t *testing.T) {
	cases := []struct {
		name   string
		update RequestUpdate
	}{
		{"no ritm", RequestUpdate{ItemID: 12, CoeResponsible: "Bob", RequestDate: testNow}},
		{"blank ritm", RequestUpdate{ItemID: 12, RitmNumber: "   ", CoeResponsible: "Bob", RequestDate: testNow}},
		{"no responsible", RequestUpdate{ItemID: 12, RitmNumber: "R2", RequestDate: testNow}},
		{"no request date", RequestUpdate{ItemID: 12, RitmNumber: "R2", CoeResponsible: "Bob"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := twoItemPlan()
			valid := RequestUpdate{ItemID: 11, RitmNumber: "R1", CoeResponsible: "Alice", RequestDate: testNow}

			_, err := p.ApplyRequests([]RequestUpdate{valid, tc.update}, testNow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))

			for _, it := range p.Items {
				assert.Equal(t, ItemPlanned, it.Status, "item %d must be untouched", it.ID)
				assert.Empty(t, it.RitmNumber)
				assert.Nil(t, it.RequestDate)
			}
		})
	}
}

func TestApplyRequests_RejectsNonPlanned(t *testing.T) {
	p := twoItemPlan()
	requested(p, 11)

	_, err := p.ApplyRequests([]RequestUpdate{
		{ItemID: 11, RitmNumber: "R9", CoeResponsible: "Zed", RequestDate: testNow},
	}, testNow)

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, int64(11), terr.ItemID)
	assert.Equal(t, ItemRequested, terr.From)
	assert.Equal(t, "RITM001", p.ItemByID(11).RitmNumber)
}

func TestApplyRequests_UnknownItemIsNotFound(t *testing.T) {
	p := twoItemPlan()
	_, err := p.ApplyRequests([]RequestUpdate{
		{ItemID: 999, RitmNumber: "R", CoeResponsible: "C", RequestDate: testNow},
	}, testNow)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestApplyRequests_LastInstructionPerItemWins(t *testing.T) {
	p := twoItemPlan()
	updated, err := p.ApplyRequests([]RequestUpdate{
		{ItemID: 11, RitmNumber: "FIRST", CoeResponsible: "A", RequestDate: testNow},
		{ItemID: 12, RitmNumber: "OTHER", CoeResponsible: "B", RequestDate: testNow},
		{ItemID: 11, RitmNumber: "LAST", CoeResponsible: "C", RequestDate: testNow},
	}, testNow)
	require.NoError(t, err)
	assert.Len(t, updated, 2)
	assert.Equal(t, "LAST", p.ItemByID(11).RitmNumber)
	assert.Equal(t, "C", p.ItemByID(11).CoeResponsible)
}

func TestApplyRequests_DuplicateInvalidEarlierInstructionIsDropped(t *testing.T) {
	p := twoItemPlan()
	_, err := p.ApplyRequests([]RequestUpdate{
		{ItemID: 11},
		{ItemID: 11, RitmNumber: "OK", CoeResponsible: "A", RequestDate: testNow},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, ItemRequested, p.ItemByID(11).Status)
}

func TestApplyUndo_RevertsRequested(t *testing.T) {
	p := twoItemPlan()
	requested(p, 11)

	updated, err := p.ApplyUndo([]int64{11}, testNow)
	require.NoError(t, err)
	require.Len(t, updated, 1)

	it := p.ItemByID(11)
	assert.Equal(t, ItemPlanned, it.Status)
	assert.Empty(t, it.RitmNumber)
	assert.Empty(t, it.CoeResponsible)
	assert.Nil(t, it.RequestDate)
	assert.NoError(t, it.CheckPhaseFields())
}

func TestApplyUndo_NonRequestedIsSilentNoOp(t *testing.T) {
	p := twoItemPlan()
	updated, err := p.ApplyUndo([]int64{11, 12, 11}, testNow)
	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.Equal(t, ItemPlanned, p.ItemByID(11).Status)
}

func TestApplyUndo_UnknownItemIsNotFound(t *testing.T) {
	p := twoItemPlan()
	requested(p, 11)

	_, err := p.ApplyUndo([]int64{11, 404}, testNow)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, ItemRequested, p.ItemByID(11).Status, "no item reverted when the batch fails")
}

func TestApplyClose_RequiresRitmAndBzCode(t *testing.T) {
	p := twoItemPlan()
	it := requested(p, 11)
	it.RitmNumber = ""

	_, err := p.ApplyClose([]CloseUpdate{{ItemID: 11, BzCode: "BZ-1"}}, testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RITM")
	assert.Equal(t, ItemRequested, it.Status)

	it.RitmNumber = "RITM001"
	_, err = p.ApplyClose([]CloseUpdate{{ItemID: 11, BzCode: "  "}}, testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BZ code")
}

func TestApplyClose_StampsBzCodeAndEmittedAt(t *testing.T) {
	p := twoItemPlan()
	requested(p, 11)

	_, err := p.ApplyClose([]CloseUpdate{{ItemID: 11, BzCode: "BZ-1"}}, testNow)
	require.NoError(t, err)

	it := p.ItemByID(11)
	assert.Equal(t, ItemClosed, it.Status)
	assert.Equal(t, "BZ-1", it.BzCode)
	require.NotNil(t, it.EmittedAt)
	assert.Equal(t, testNow, *it.EmittedAt)
	assert.Equal(t, "RITM001", it.RitmNumber, "request fields are kept on close")
	assert.NoError(t, it.CheckPhaseFields())
}

func TestApplyClose_UsesCallerEmittedAt(t *testing.T) {
	p := twoItemPlan()
	requested(p, 11)
	emitted := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	_, err := p.ApplyClose([]CloseUpdate{{ItemID: 11, BzCode: "BZ-1", EmittedAt: &emitted}}, testNow)
	require.NoError(t, err)
	assert.Equal(t, emitted, *p.ItemByID(11).EmittedAt)
}

func TestApplyClose_PlannedCannotCloseDirectly(t *testing.T) {
	p := twoItemPlan()
	_, err := p.ApplyClose([]CloseUpdate{{ItemID: 12, BzCode: "BZ"}}, testNow)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestTerminalStatusesRejectEveryTransition(t *testing.T) {
	for _, status := range []ItemStatus{ItemClosed, ItemCanceled, ItemEmitted, ItemReissued} {
		p := twoItemPlan()
		it := requested(p, 11)
		it.Status = status

		_, err := p.ApplyRequests([]RequestUpdate{{ItemID: 11, RitmNumber: "R", CoeResponsible: "C", RequestDate: testNow}}, testNow)
		assert.True(t, errors.Is(err, ErrInvalidTransition), "request from %s", status)
		_, err = p.ApplyClose([]CloseUpdate{{ItemID: 11, BzCode: "BZ"}}, testNow)
		assert.True(t, errors.Is(err, ErrInvalidTransition), "close from %s", status)
		_, err = p.ApplyCancel([]CancelRequest{{ItemID: 11, CancelReason: "x"}}, testNow)
		assert.True(t, errors.Is(err, ErrInvalidTransition), "cancel from %s", status)

		updated, err := p.ApplyUndo([]int64{11}, testNow)
		require.NoError(t, err, "undo from %s is a no-op", status)
		assert.Empty(t, updated)
		assert.Equal(t, status, it.Status)
	}
}

func TestApplyCancel_CreatesLinkedReplacement(t *testing.T) {
	p := twoItemPlan()
	requested(p, 11)

	reissues, err := p.ApplyCancel([]CancelRequest{{ItemID: 11, CancelReason: "wrong PO"}}, testNow)
	require.NoError(t, err)
	require.Len(t, reissues, 1)
	require.Len(t, p.Items, 3)

	r := reissues[0]
	assert.Equal(t, ItemCanceled, r.Canceled.Status)
	assert.Equal(t, "wrong PO", r.Canceled.CancelReason)
	require.NotNil(t, r.Canceled.CanceledAt)
	assert.Nil(t, r.Canceled.ReplacementItemID, "link is set once the backend assigns an id")

	repl := r.Replacement
	assert.Equal(t, 3, repl.SeqNo)
	assert.Equal(t, ItemPlanned, repl.Status)
	assert.True(t, decimal.NewFromInt(1000).Equal(repl.Amount))
	assert.True(t, decimal.NewFromInt(50).Equal(repl.Percentage))
	assert.Equal(t, "TAX-1", repl.PayerTaxID)
	assert.Equal(t, "PO-1", repl.PONumber)
	assert.Equal(t, "FRS-1", repl.FRSNumber)
	assert.Equal(t, "T-1", repl.TicketNumber)
	assert.Equal(t, "first half", repl.Description)
	assert.Empty(t, repl.RitmNumber)
	assert.Equal(t, *date(2025, 7, 1), *repl.EmissionDate)
	assert.Equal(t, *date(2025, 7, 31), *repl.DueDate, "due defaults to emission + payment terms")

	r.Link(42)
	assert.Equal(t, int64(42), repl.ID)
	require.NotNil(t, r.Canceled.ReplacementItemID)
	assert.Equal(t, int64(42), *r.Canceled.ReplacementItemID)
	assert.NoError(t, r.Canceled.CheckPhaseFields())
	assert.NoError(t, repl.CheckPhaseFields())

	second := p.ItemByID(12)
	assert.Equal(t, ItemPlanned, second.Status)
	assert.Equal(t, 2, second.SeqNo)
}

func TestApplyCancel_ReplacementDateOverrides(t *testing.T) {
	p := twoItemPlan()
	requested(p, 11)

	emission := time.Date(2025, 9, 10, 15, 0, 0, 0, time.UTC)
	reissues, err := p.ApplyCancel([]CancelRequest{
		{ItemID: 11, CancelReason: "reschedule", ReplacementEmissionDate: &emission},
	}, testNow)
	require.NoError(t, err)
	repl := reissues[0].Replacement
	assert.Equal(t, *date(2025, 9, 10), *repl.EmissionDate)
	assert.Equal(t, *date(2025, 10, 10), *repl.DueDate)

	p = twoItemPlan()
	requested(p, 11)
	due := time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)
	reissues, err = p.ApplyCancel([]CancelRequest{
		{ItemID: 11, CancelReason: "reschedule", ReplacementDueDate: &due},
	}, testNow)
	require.NoError(t, err)
	repl = reissues[0].Replacement
	assert.Equal(t, *date(2025, 7, 1), *repl.EmissionDate)
	assert.Equal(t, due, *repl.DueDate)
}

func TestApplyCancel_ConsecutiveSeqNosAcrossBatch(t *testing.T) {
	p := twoItemPlan()
	requested(p, 11)
	requested(p, 12)
	p.Items = append(p.Items, &InvoiceItem{ID: 13, PlanID: 7, SeqNo: 9, Status: ItemClosed})

	reissues, err := p.ApplyCancel([]CancelRequest{
		{ItemID: 12, CancelReason: "a"},
		{ItemID: 11, CancelReason: "b"},
	}, testNow)
	require.NoError(t, err)
	require.Len(t, reissues, 2)
	assert.Equal(t, int64(12), reissues[0].Canceled.ID)
	assert.Equal(t, 10, reissues[0].Replacement.SeqNo)
	assert.Equal(t, 11, reissues[1].Replacement.SeqNo)
}

func TestApplyCancel_MissingReasonLeavesPlanUntouched(t *testing.T) {
	p := twoItemPlan()
	requested(p, 11)
	requested(p, 12)

	_, err := p.ApplyCancel([]CancelRequest{
		{ItemID: 11, CancelReason: "fine"},
		{ItemID: 12, CancelReason: ""},
	}, testNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Len(t, p.Items, 2)
	assert.Equal(t, ItemRequested, p.ItemByID(11).Status)
}

func TestEndToEndScenario(t *testing.T) {
	p := twoItemPlan()

	_, err := p.ApplyRequests([]RequestUpdate{
		{ItemID: 11, RitmNumber: "RITM001", CoeResponsible: "Alice", RequestDate: testNow},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, ItemRequested, p.ItemByID(11).Status)

	reissues, err := p.ApplyCancel([]CancelRequest{{ItemID: 11, CancelReason: "wrong PO"}}, testNow)
	require.NoError(t, err)
	reissues[0].Link(13)

	canceled := p.ItemByID(11)
	assert.Equal(t, ItemCanceled, canceled.Status)
	require.NotNil(t, canceled.ReplacementItemID)

	repl := p.ItemByID(*canceled.ReplacementItemID)
	require.NotNil(t, repl)
	assert.Equal(t, 3, repl.SeqNo)
	assert.Equal(t, ItemPlanned, repl.Status)
	assert.True(t, decimal.NewFromInt(1000).Equal(repl.Amount))
	assert.True(t, decimal.NewFromInt(50).Equal(repl.Percentage))

	untouched := p.ItemByID(12)
	assert.Equal(t, ItemPlanned, untouched.Status)
	assert.Empty(t, untouched.RitmNumber)
}
