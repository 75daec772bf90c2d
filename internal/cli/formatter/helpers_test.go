package formatter

import (
	"testing"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusPill(t *testing.T) {
	tests := []struct {
		status   domain.ItemStatus
		contains string
	}{
		{domain.ItemPlanned, "Planned"},
		{domain.ItemRequested, "Requested"},
		{domain.ItemEmitted, "Emitted"},
		{domain.ItemClosed, "Closed"},
		{domain.ItemCanceled, "Canceled"},
		{domain.ItemReissued, "Reissued"},
		{domain.ItemStatus("lost"), "lost"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Contains(t, StatusPill(tt.status), tt.contains)
		})
	}
}

func TestMoneyAndPercent(t *testing.T) {
	assert.Equal(t, "1000.00", Money(decimal.NewFromInt(1000)))
	assert.Equal(t, "0.10", Money(decimal.RequireFromString("0.1")))
	assert.Equal(t, "33.33%", Percent(decimal.RequireFromString("33.3333")))
	assert.Equal(t, "50%", Percent(decimal.NewFromInt(50)))
}

func TestDateAndTimestamp(t *testing.T) {
	assert.Equal(t, "--", Date(nil))
	d := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-07-14", Date(&d))

	assert.Equal(t, "--", Timestamp(nil))
	ts := time.Date(2025, 7, 14, 11, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, "2025-07-14 09:30", Timestamp(&ts))
}

func TestText(t *testing.T) {
	assert.Equal(t, "--", Text("  "))
	assert.Equal(t, "RITM001", Text("RITM001"))
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "PENDING\n───────", Header("pending"))
}
