package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds every balance-mutation transaction
	// so a stuck request cannot hold row locks indefinitely.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)
