package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmulatorClient connects to the Firestore emulator, skipping the test
// when FIRESTORE_EMULATOR_HOST is not set.
func newEmulatorClient(t *testing.T) *FirestoreClient {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, err := NewFirestoreClient(ctx, "invplan-test", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestFirestoreClient_RoundTrip(t *testing.T) {
	c := newEmulatorClient(t)
	ctx := context.Background()
	table := "roundtrip_" + uuid.NewString()[:8]

	var reqs []Request
	for i := 1; i <= 35; i++ {
		reqs = append(reqs, Request{Kind: Create, Table: table, Key: uuid.NewString(),
			Attributes: map[string]any{"id": int64(i), "group": fmt.Sprintf("g%d", i%2)}})
	}
	require.NoError(t, c.ExecuteMultiple(ctx, reqs, FailFast))

	ids := make([]int64, 0, 35)
	for i := 1; i <= 35; i++ {
		ids = append(ids, int64(i))
	}
	recs, err := c.RetrieveMultiple(ctx, Query{
		Table:      table,
		Columns:    []string{"id"},
		Conditions: []Condition{In("id", ids...)},
		Orders:     []Order{{Attribute: "id", Descending: true}},
		Top:        3,
	})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, int64(35), recs[0].Int64("id"))

	seq, err := NewIDAllocator(c).Reserve(ctx, table, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(36), seq.Next())

	err = c.ExecuteMultiple(ctx, []Request{
		{Kind: Update, Table: table, Key: reqs[0].Key, Attributes: map[string]any{"group": "moved"}},
		{Kind: Update, Table: table, Key: "missing", Attributes: map[string]any{"group": "x"}},
		{Kind: Delete, Table: table, Key: reqs[1].Key},
	}, FailFast)
	var berr *BatchError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, 1, berr.Applied)
	assert.True(t, errors.Is(err, ErrRecordNotFound))
}
