package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error codes worth replaying a balance mutation for. Both mean the
// transaction lost a race, not that the business rules rejected it.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// Retrier re-runs a whole lock-check-write transaction when Postgres picks
// it as a deadlock victim or fails it on serialization. Business errors
// pass through untouched; a precondition failure never retries.
type Retrier struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          *slog.Logger
}

// NewRetrier creates a Retrier with defaults sized for short row-lock
// contention on busy holders (a popular product, the one open drawer).
func NewRetrier() *Retrier {
	return &Retrier{
		maxAttempts:     3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          slog.Default(),
	}
}

// Retry runs operation, replaying it with exponential backoff while it keeps
// failing retryably and attempts remain.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialInterval
	policy.MaxInterval = r.maxInterval
	policy.MaxElapsedTime = r.maxElapsedTime

	attempt := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !retryable(err) {
			return backoff.Permanent(err)
		}

		attempt++
		if attempt > r.maxAttempts {
			return backoff.Permanent(err)
		}

		r.logger.Warn("transaction lost a lock race, replaying",
			"error", err,
			"attempt", attempt,
		)

		return err
	}, backoff.WithContext(policy, ctx))
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgErrDeadlock || pgErr.Code == pgErrSerializationFailure
}
