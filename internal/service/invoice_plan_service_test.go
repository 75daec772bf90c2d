package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/access"
	"github.com/alexanderramin/invoiceplan/internal/contract"
	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/alexanderramin/invoiceplan/internal/remote"
	"github.com/alexanderramin/invoiceplan/internal/repository"
	"github.com/alexanderramin/invoiceplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) last() UseCaseEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

var acme = testutil.Engagement{ID: "ENG-1", Name: "Acme rollout", CustomerID: "C-1", CustomerName: "Acme"}

func newTestService(t *testing.T) (InvoicePlanService, *recordingObserver) {
	t.Helper()
	client := remote.NewMemoryClient()
	testutil.SeedRemote(client, "alice", acme)
	scope := access.NewAssignmentScope(repository.NewRemoteAssignmentLoader(client, "alice"))
	repo := repository.NewRemotePlanRepository(client, scope,
		repository.WithClock(testutil.FixedClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))))
	obs := &recordingObserver{}
	return NewInvoicePlanService(repo, obs), obs
}

func savedPlan(t *testing.T, svc InvoicePlanService) *domain.InvoicePlan {
	t.Helper()
	p := testutil.NewTestPlan(acme.ID,
		testutil.WithItem(testutil.NewTestItem("1000", testutil.WithPercentage("50"))),
		testutil.WithItem(testutil.NewTestItem("1000", testutil.WithPercentage("50"))),
	)
	_, err := svc.SavePlan(context.Background(), p)
	require.NoError(t, err)
	saved, err := svc.GetPlan(context.Background(), p.ID)
	require.NoError(t, err)
	return saved
}

func TestInvoicePlanService_SavePlanObserved(t *testing.T) {
	svc, obs := newTestService(t)
	p := testutil.NewTestPlan(acme.ID, testutil.WithItem(testutil.NewTestItem("10")))

	res, err := svc.SavePlan(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	ev := obs.last()
	assert.Equal(t, "plan.save", ev.Name)
	assert.True(t, ev.Success())
	assert.Equal(t, p.ID, ev.PlanID)
	assert.Equal(t, acme.ID, ev.EngagementID)
	assert.Equal(t, 2, ev.Result.Created)
	assert.Equal(t, true, ev.Extra["new"])
}

func TestInvoicePlanService_GetPlanMissingIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetPlan(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoicePlanService_RejectsEmptyBatches(t *testing.T) {
	svc, obs := newTestService(t)
	_, err := svc.RequestItems(context.Background(), 1, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SavePlan(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, obs.events, "rejected input never reaches the repository")
}

func TestInvoicePlanService_FailedTransitionObserved(t *testing.T) {
	svc, obs := newTestService(t)
	p := savedPlan(t, svc)

	_, err := svc.CloseItems(context.Background(), p.ID, []domain.CloseUpdate{{ItemID: p.Items[0].ID, BzCode: "BZ"}})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	ev := obs.last()
	assert.Equal(t, "item.close", ev.Name)
	assert.False(t, ev.Success())
	assert.Equal(t, p.ID, ev.PlanID)
	assert.Equal(t, 1, ev.Instructions)
	assert.Equal(t, "invalid_transition", ev.Outcome())
	assert.True(t, errors.Is(ev.Err, domain.ErrInvalidTransition))
}

func TestInvoicePlanService_RequestAndCancel(t *testing.T) {
	svc, _ := newTestService(t)
	p := savedPlan(t, svc)
	id := p.Items[0].ID

	_, err := svc.RequestItems(context.Background(), p.ID, []domain.RequestUpdate{
		{ItemID: id, RitmNumber: "RITM001", CoeResponsible: "Alice", RequestDate: time.Now()},
	})
	require.NoError(t, err)

	emissions, err := svc.PendingEmissions(context.Background())
	require.NoError(t, err)
	require.Len(t, emissions, 1)

	res, err := svc.CancelItems(context.Background(), p.ID, []domain.CancelRequest{{ItemID: id, CancelReason: "wrong PO"}})
	require.NoError(t, err)
	assert.Equal(t, contract.SaveResult{Created: 1, Updated: 1, AffectedRows: 2}, res)

	requests, err := svc.PendingRequests(context.Background())
	require.NoError(t, err)
	assert.Len(t, requests, 2)
}

func TestInvoicePlanService_SummaryRejectsInvertedRange(t *testing.T) {
	svc, _ := newTestService(t)
	from := testutil.Date(2025, 8, 1)
	to := testutil.Date(2025, 7, 1)
	_, err := svc.Summary(context.Background(), contract.SummaryFilter{EmissionFrom: &from, EmissionTo: &to})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogUseCaseObserver_WritesEvents(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf, slog.LevelInfo)
	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name: "plan.save", PlanID: 7, EngagementID: "ENG-1",
		Result: contract.SaveResult{Created: 2, AffectedRows: 2},
	})
	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name: "item.request", PlanID: 7, Instructions: 3,
		Err: fmt.Errorf("engagement ENG-1: %w", domain.ErrAccessDenied),
	})
	obs.ObserveUseCase(context.Background(), UseCaseEvent{Name: "pending.requests", Err: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "level=INFO")
	assert.Contains(t, lines[0], "msg=service_use_case")
	assert.Contains(t, lines[0], "component=invoiceplan plan_id=7 engagement_id=ENG-1")
	assert.Contains(t, lines[0], "use_case=plan.save outcome=ok")
	assert.Contains(t, lines[0], "rows.created=2")

	assert.Contains(t, lines[1], "level=WARN")
	assert.Contains(t, lines[1], "outcome=access_denied")
	assert.Contains(t, lines[1], "instructions=3")
	assert.NotContains(t, lines[1], "rows.")

	assert.Contains(t, lines[2], "level=ERROR")
	assert.Contains(t, lines[2], "outcome=internal")
	assert.Contains(t, lines[2], "error=boom")
	assert.NotContains(t, lines[2], "plan_id")
}

func TestUseCaseEvent_Outcome(t *testing.T) {
	cases := map[string]error{
		"ok":                 nil,
		"access_denied":      fmt.Errorf("wrapped: %w", domain.ErrAccessDenied),
		"not_found":          domain.ErrNotFound,
		"invalid_transition": &domain.TransitionError{ItemID: 1, To: domain.ItemClosed, Reason: "x"},
		"invalid_plan":       domain.ErrInvalidPlan,
		"invalid_input":      ErrInvalidInput,
		"canceled":           context.Canceled,
		"internal":           errors.New("disk full"),
	}
	for want, err := range cases {
		assert.Equal(t, want, UseCaseEvent{Err: err}.Outcome(), want)
	}
}

func TestNewLogUseCaseObserver_NilWriterIsNoop(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil, slog.LevelInfo))
	assert.IsType(t, NoopUseCaseObserver{}, NewSlogUseCaseObserver(nil))
}
