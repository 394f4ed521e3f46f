package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
)

// EntryUseCase reads the ledger store and resolves balances.
type EntryUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	cache       Cache
}

// NewEntryUseCase creates a new EntryUseCase. cache may be nil, in which
// case every balance read folds the entry history.
func NewEntryUseCase(accountRepo AccountRepository, entryRepo EntryRepository, cache Cache) *EntryUseCase {
	return &EntryUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		cache:       cache,
	}
}

// ListEntriesByAccountInput represents input for listing entries.
type ListEntriesByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListEntriesByAccount lists an account's entries ordered by creation time,
// ascending.
func (uc *EntryUseCase) ListEntriesByAccount(ctx context.Context, input ListEntriesByAccountInput) ([]*domain.LedgerEntry, error) {
	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.entryRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}

// ListEntriesByTransaction lists the entries belonging to a transaction.
func (uc *EntryUseCase) ListEntriesByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	return uc.entryRepo.ListByTransaction(ctx, transactionID)
}

// ResolveBalance computes an account's current balance by folding its
// ledger entries. An account with no entries has balance zero.
//
// With a cache configured, resolved balances are kept for a few seconds.
// The entry history stays the source of truth; the cache only absorbs
// bursts of reads against hot accounts.
func (uc *EntryUseCase) ResolveBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, balanceCacheKey(accountID)); err == nil {
			if balance, perr := decimal.NewFromString(cached); perr == nil {
				return balance, nil
			}
		}
	}

	balance, err := uc.entryRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if uc.cache != nil {
		// Best effort; a failed cache write never fails the read.
		_ = uc.cache.Set(ctx, balanceCacheKey(accountID), balance.String(), BalanceCacheTTL)
	}

	return balance, nil
}

func balanceCacheKey(accountID string) string {
	return "balance:" + accountID
}
