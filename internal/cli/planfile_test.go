package cli

import (
	"strings"
	"testing"

	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPlanFile(t *testing.T) {
	p, err := readPlanFile(strings.NewReader(planYAML))
	require.NoError(t, err)

	assert.Zero(t, p.ID)
	assert.Equal(t, "ENG-1", p.EngagementID)
	assert.Equal(t, domain.PlanByDate, p.Type)
	assert.Equal(t, 2, p.NumInvoices, "defaults to the item count")
	assert.Equal(t, "jane@acme.example", p.CustomerFocalPointEmail)
	require.Len(t, p.Emails, 1)
	require.Len(t, p.Items, 2)
	assert.Equal(t, "2025-08-14", p.Items[1].EmissionDate.Format(domain.DateLayout))
	assert.Nil(t, p.Items[1].DueDate)
	assert.Equal(t, "50", p.Items[0].Percentage.String())
}

func TestReadPlanFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bad date", "engagement: E\ntype: by_date\nitems:\n  - amount: \"1\"\n    due: \"14/07/2025\"\n", "items[0].due"},
		{"bad amount", "engagement: E\ntype: by_date\nitems:\n  - amount: lots\n", "items[0].amount"},
		{"unknown key", "engagement: E\nowner: bob\n", "parsing plan file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readPlanFile(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
