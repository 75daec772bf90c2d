package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/invoiceplan/internal/remote"
)

// Engagement describes master data seeded for a test.
type Engagement struct {
	ID           string
	Name         string
	CustomerID   string
	CustomerName string
}

// SeedSQL inserts customers, engagements and assignments of user to every
// engagement into a migrated database.
func SeedSQL(t *testing.T, database *sql.DB, user string, engagements ...Engagement) {
	t.Helper()
	ctx := context.Background()
	for _, e := range engagements {
		if _, err := database.ExecContext(ctx,
			`INSERT INTO customers (id, name) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
			e.CustomerID, e.CustomerName); err != nil {
			t.Fatalf("seeding customer %s: %v", e.CustomerID, err)
		}
		if _, err := database.ExecContext(ctx,
			`INSERT INTO engagements (id, name, customer_id) VALUES (?, ?, ?)`,
			e.ID, e.Name, e.CustomerID); err != nil {
			t.Fatalf("seeding engagement %s: %v", e.ID, err)
		}
		if user == "" {
			continue
		}
		if _, err := database.ExecContext(ctx,
			`INSERT INTO engagement_assignments (user_id, engagement_id) VALUES (?, ?)`,
			user, e.ID); err != nil {
			t.Fatalf("seeding assignment %s: %v", e.ID, err)
		}
	}
}

// SeedRemote puts the same master data into an in-memory platform.
func SeedRemote(client *remote.MemoryClient, user string, engagements ...Engagement) {
	for _, e := range engagements {
		client.Put("customers", "cust-"+e.CustomerID, map[string]any{
			"customerId": e.CustomerID,
			"name":       e.CustomerName,
		})
		client.Put("engagements", "eng-"+e.ID, map[string]any{
			"engagementId": e.ID,
			"name":         e.Name,
			"customerId":   e.CustomerID,
		})
		if user != "" {
			client.Put("engagementAssignments", "asg-"+user+"-"+e.ID, map[string]any{
				"userId":       user,
				"engagementId": e.ID,
			})
		}
	}
}
