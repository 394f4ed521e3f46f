package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
	"github.com/saisuryavinay/financial-ledger-api/internal/usecase"
	"github.com/saisuryavinay/financial-ledger-api/internal/usecase/mocks"
)

func TestEntryUseCase_ListEntriesByAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().ListByAccount(gomock.Any(), "acc-1", 10, 0).Return([]*domain.LedgerEntry{
		{ID: "e1", AccountID: "acc-1", EntryType: domain.EntryTypeCredit, Amount: decimal.NewFromInt(100)},
		{ID: "e2", AccountID: "acc-1", EntryType: domain.EntryTypeDebit, Amount: decimal.NewFromInt(50)},
	}, nil)

	uc := usecase.NewEntryUseCase(accountRepo, entryRepo, nil)

	entries, err := uc.ListEntriesByAccount(context.Background(), usecase.ListEntriesByAccountInput{
		AccountID: "acc-1",
		Limit:     10,
		Offset:    0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestEntryUseCase_ListEntriesByAccount_AccountNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	accountRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, domain.ErrAccountNotFound)

	entryRepo := mocks.NewMockEntryRepository(ctrl)

	uc := usecase.NewEntryUseCase(accountRepo, entryRepo, nil)

	_, err := uc.ListEntriesByAccount(context.Background(), usecase.ListEntriesByAccountInput{
		AccountID: "missing",
		Limit:     10,
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestEntryUseCase_ListEntriesByTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().ListByTransaction(gomock.Any(), "txn-1").Return([]*domain.LedgerEntry{
		{ID: "e1", TransactionID: "txn-1", EntryType: domain.EntryTypeDebit, Amount: decimal.NewFromInt(100)},
		{ID: "e2", TransactionID: "txn-1", EntryType: domain.EntryTypeCredit, Amount: decimal.NewFromInt(100)},
	}, nil)

	uc := usecase.NewEntryUseCase(accountRepo, entryRepo, nil)

	entries, err := uc.ListEntriesByTransaction(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestEntryUseCase_ResolveBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().SumByAccount(gomock.Any(), "acc-1").Return(decimal.NewFromInt(250), nil)

	uc := usecase.NewEntryUseCase(accountRepo, entryRepo, nil)

	balance, err := uc.ResolveBalance(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected balance 250, got %s", balance)
	}
}

func TestEntryUseCase_ResolveBalance_AccountNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	accountRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, domain.ErrAccountNotFound)

	entryRepo := mocks.NewMockEntryRepository(ctrl)

	uc := usecase.NewEntryUseCase(accountRepo, entryRepo, nil)

	_, err := uc.ResolveBalance(context.Background(), "missing")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestEntryUseCase_ResolveBalance_CacheHitSkipsEntryScan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)

	// No SumByAccount expectation: a cache hit must not touch the store.
	entryRepo := mocks.NewMockEntryRepository(ctrl)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "balance:acc-1").Return("75.25", nil)

	uc := usecase.NewEntryUseCase(accountRepo, entryRepo, cache)

	balance, err := uc.ResolveBalance(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !balance.Equal(decimal.RequireFromString("75.25")) {
		t.Errorf("expected cached balance 75.25, got %s", balance)
	}
}

func TestEntryUseCase_ResolveBalance_CacheMissFillsCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().SumByAccount(gomock.Any(), "acc-1").Return(decimal.NewFromInt(40), nil)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "balance:acc-1").Return("", errors.New("cache miss"))
	cache.EXPECT().Set(gomock.Any(), "balance:acc-1", "40", usecase.BalanceCacheTTL).Return(nil)

	uc := usecase.NewEntryUseCase(accountRepo, entryRepo, cache)

	balance, err := uc.ResolveBalance(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !balance.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected balance 40, got %s", balance)
	}
}
