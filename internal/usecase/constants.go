package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds how long a storage transaction
	// waits for account locks before failing with ErrLockTimeout.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long replayed responses stay available
	// under their idempotency key.
	IdempotencyKeyTTL = 24 * time.Hour

	// BalanceCacheTTL bounds how stale a cached balance may be.
	BalanceCacheTTL = 5 * time.Second
)
