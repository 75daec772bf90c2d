package domain

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestCheckPhaseFields(t *testing.T) {
	withRequest := func(it InvoiceItem) InvoiceItem {
		it.RitmNumber = "RITM001"
		it.CoeResponsible = "Alice"
		it.RequestDate = date(2025, 6, 15)
		return it
	}
	withClose := func(it InvoiceItem) InvoiceItem {
		it.BzCode = "BZ-1"
		it.EmittedAt = date(2025, 6, 20)
		return it
	}
	withCancel := func(it InvoiceItem) InvoiceItem {
		it.CanceledAt = date(2025, 6, 20)
		it.CancelReason = "wrong PO"
		it.ReplacementItemID = lo.ToPtr(int64(13))
		return it
	}

	cases := []struct {
		name string
		item InvoiceItem
		ok   bool
	}{
		{"planned bare", InvoiceItem{Status: ItemPlanned}, true},
		{"planned with request fields", withRequest(InvoiceItem{Status: ItemPlanned}), false},
		{"planned with a stray RITM", InvoiceItem{Status: ItemPlanned, RitmNumber: "R"}, false},
		{"requested", withRequest(InvoiceItem{Status: ItemRequested}), true},
		{"requested without date", InvoiceItem{Status: ItemRequested, RitmNumber: "R", CoeResponsible: "A"}, false},
		{"requested with close fields", withClose(withRequest(InvoiceItem{Status: ItemRequested})), false},
		// Close and cancel keep the request that led to them.
		{"closed keeps request fields", withClose(withRequest(InvoiceItem{Status: ItemClosed})), true},
		{"closed without request fields", withClose(InvoiceItem{Status: ItemClosed}), false},
		{"closed without bz code", withRequest(InvoiceItem{Status: ItemClosed}), false},
		{"canceled keeps request fields", withCancel(withRequest(InvoiceItem{Status: ItemCanceled})), true},
		{"canceled without replacement", InvoiceItem{Status: ItemCanceled, RitmNumber: "R", CoeResponsible: "A", RequestDate: date(2025, 6, 15), CanceledAt: date(2025, 6, 20), CancelReason: "x"}, false},
		{"canceled with close fields", withClose(withCancel(withRequest(InvoiceItem{Status: ItemCanceled}))), false},
	}
	for _, tc := range cases {
		err := tc.item.CheckPhaseFields()
		if tc.ok {
			assert.NoError(t, err, tc.name)
		} else {
			assert.Error(t, err, tc.name)
		}
	}
}
