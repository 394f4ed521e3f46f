package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDForUpdate locks the account row for the duration of tx.
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks multiple account rows, always in ascending id
	// order regardless of the order of ids.
	GetByIDsForUpdate(ctx context.Context, tx Tx, ids []string) ([]*domain.Account, error)
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for transaction records.
type TransactionRepository interface {
	Create(ctx context.Context, tx Tx, txn *domain.Transaction) error
	UpdateStatus(ctx context.Context, tx Tx, id string, status domain.TransactionStatus) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Tx, entry *domain.LedgerEntry) error
	// ListByAccount returns entries ordered by creation time, ascending.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error)
	// SumByAccount folds the account's entries of completed transactions
	// into a signed balance (credits positive, debits negative).
	SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
	// SumByAccountTx is SumByAccount evaluated inside tx, so the balance a
	// mutation depends on is read under the same account lock.
	SumByAccountTx(ctx context.Context, tx Tx, accountID string) (decimal.Decimal, error)
}

// LedgerRepository defines ledger-wide aggregate queries.
type LedgerRepository interface {
	// SumEntryTotals returns total debit and credit amounts over entries of
	// completed transactions.
	SumEntryTotals(ctx context.Context) (totalDebits, totalCredits decimal.Decimal, err error)
	// CountUnbalancedTransactions counts completed transactions whose debit
	// and credit entries do not reconcile with the transaction record.
	CountUnbalancedTransactions(ctx context.Context) (int64, error)
}

// Tx represents a storage transaction: the atomic unit every engine
// operation runs in.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager handles storage transaction lifecycle.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs a storage operation when it fails transiently, for
// example on a deadlock or serialization error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
