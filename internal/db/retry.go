package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// RetryPolicy bounds how often a transaction is re-run after a transient
// failure. Delays double from BaseDelay up to MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// RetryingUnitOfWork re-runs the whole transaction when it fails with a
// transient database error. The callback must be safe to run again: all
// of its effects live inside the rolled-back transaction.
type RetryingUnitOfWork struct {
	inner  UnitOfWork
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryingUnitOfWork wraps inner with the given policy. A nil logger
// discards retry logs.
func NewRetryingUnitOfWork(inner UnitOfWork, policy RetryPolicy, logger *slog.Logger) *RetryingUnitOfWork {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryingUnitOfWork{inner: inner, policy: policy, logger: logger, sleep: sleepCtx}
}

func (u *RetryingUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	for attempt := 1; ; attempt++ {
		err := u.inner.WithinTx(ctx, fn)
		if err == nil || !IsTransient(err) || attempt >= u.policy.MaxAttempts {
			return err
		}

		delay := u.policy.delay(attempt)
		u.logger.Warn("retrying transaction",
			"attempt", attempt,
			"max_attempts", u.policy.MaxAttempts,
			"delay_ms", delay.Milliseconds(),
			"error", err.Error(),
		)
		if serr := u.sleep(ctx, delay); serr != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsTransient reports whether err is a database failure worth retrying:
// SQLite lock contention, Postgres serialization or connection failures,
// and connections the pool reports as bad.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "08" {
			return true
		}
		switch pqErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"57P01", // admin_shutdown
			"53300": // too_many_connections
			return true
		}
	}
	return false
}
