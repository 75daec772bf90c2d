package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/contract"
	"github.com/alexanderramin/invoiceplan/internal/domain"
)

// UseCaseEvent describes one invoice plan operation as seen by the service.
// PlanID and EngagementID are zero when the operation spans plans.
type UseCaseEvent struct {
	Name         string
	PlanID       int64
	EngagementID string
	// Instructions is the batch size of a lifecycle write.
	Instructions int
	Result       contract.SaveResult
	// Extra holds operation-specific attributes such as row counts.
	Extra     map[string]any
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Success reports whether the operation completed without error.
func (e UseCaseEvent) Success() bool { return e.Err == nil }

// Outcome classifies the event: "ok", a rejection kind, or "internal".
func (e UseCaseEvent) Outcome() string {
	switch {
	case e.Err == nil:
		return "ok"
	case errors.Is(e.Err, domain.ErrAccessDenied):
		return "access_denied"
	case errors.Is(e.Err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(e.Err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(e.Err, domain.ErrInvalidPlan):
		return "invalid_plan"
	case errors.Is(e.Err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(e.Err, context.Canceled), errors.Is(e.Err, context.DeadlineExceeded):
		return "canceled"
	}
	return "internal"
}

// UseCaseObserver receives use-case execution events.
type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

// NoopUseCaseObserver ignores all events.
type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

type logUseCaseObserver struct {
	logger *slog.Logger
}

// NewLogUseCaseObserver writes use-case events to w as slog text at level.
func NewLogUseCaseObserver(w io.Writer, level slog.Level) UseCaseObserver {
	if w == nil {
		return NoopUseCaseObserver{}
	}
	return NewSlogUseCaseObserver(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// NewSlogUseCaseObserver reports use-case events through logger.
func NewSlogUseCaseObserver(logger *slog.Logger) UseCaseObserver {
	if logger == nil {
		return NoopUseCaseObserver{}
	}
	return &logUseCaseObserver{logger: logger.With("component", "invoiceplan")}
}

// ObserveUseCase logs successes at Info, business rejections at Warn and
// anything else at Error. Events about one plan go through a logger bound
// to that plan and engagement.
func (o *logUseCaseObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	logger := o.logger
	if event.PlanID != 0 {
		logger = logger.With("plan_id", event.PlanID)
	}
	if event.EngagementID != "" {
		logger = logger.With("engagement_id", event.EngagementID)
	}

	outcome := event.Outcome()
	attrs := []slog.Attr{
		slog.String("use_case", event.Name),
		slog.String("outcome", outcome),
		slog.Int64("duration_ms", event.Duration.Milliseconds()),
	}
	if event.Instructions > 0 {
		attrs = append(attrs, slog.Int("instructions", event.Instructions))
	}
	if r := event.Result; r != (contract.SaveResult{}) {
		attrs = append(attrs, slog.Group("rows",
			slog.Int("created", r.Created),
			slog.Int("updated", r.Updated),
			slog.Int("deleted", r.Deleted),
		))
	}
	for k, v := range event.Extra {
		attrs = append(attrs, slog.Any(k, v))
	}

	level := slog.LevelInfo
	switch outcome {
	case "ok":
	case "internal", "canceled":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	logger.LogAttrs(ctx, level, "service_use_case", attrs...)
}

func useCaseObserverOrNoop(observers []UseCaseObserver) UseCaseObserver {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopUseCaseObserver{}
}
