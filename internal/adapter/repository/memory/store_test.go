package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
)

func newTestAccount(id string) *domain.Account {
	now := time.Now().UTC()
	return &domain.Account{
		ID:          id,
		OwnerName:   "Owner " + id,
		AccountType: domain.AccountTypeChecking,
		Currency:    "USD",
		Status:      domain.AccountStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func completedDeposit(id, accountID string, amount decimal.Decimal) (*domain.Transaction, *domain.LedgerEntry) {
	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:                   id,
		Type:                 domain.TransactionTypeDeposit,
		DestinationAccountID: &accountID,
		Amount:               amount,
		Currency:             "USD",
		Status:               domain.TransactionStatusPending,
		CreatedAt:            now,
	}
	entry := &domain.LedgerEntry{
		ID:            id + "-e",
		AccountID:     accountID,
		TransactionID: id,
		EntryType:     domain.EntryTypeCredit,
		Amount:        amount,
		CreatedAt:     now,
	}
	return txn, entry
}

func TestStore_AccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	account := newTestAccount("acc-1")
	require.NoError(t, store.Create(ctx, account))

	got, err := store.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, account.OwnerName, got.OwnerName)

	// The store hands out copies; mutating the result must not leak back.
	got.OwnerName = "mutated"
	again, err := store.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, account.OwnerName, again.OwnerName)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	err = store.Create(ctx, newTestAccount("acc-1"))
	assert.Error(t, err)
}

func TestStore_CommitAppliesStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, newTestAccount("acc-1")))

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	txn, entry := completedDeposit("txn-1", "acc-1", decimal.NewFromInt(100))
	require.NoError(t, store.TransactionRepo().Create(ctx, tx, txn))
	require.NoError(t, store.EntryRepo().Create(ctx, tx, entry))
	require.NoError(t, store.TransactionRepo().UpdateStatus(ctx, tx, "txn-1", domain.TransactionStatusCompleted))

	// Nothing is visible before commit.
	_, err = store.TransactionRepo().GetByID(ctx, "txn-1")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	require.NoError(t, tx.Commit(ctx))

	got, err := store.TransactionRepo().GetByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, got.Status)

	balance, err := store.EntryRepo().SumByAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)), "expected balance 100, got %s", balance)
}

func TestStore_RollbackDiscardsStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, newTestAccount("acc-1")))

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	txn, entry := completedDeposit("txn-1", "acc-1", decimal.NewFromInt(100))
	require.NoError(t, store.TransactionRepo().Create(ctx, tx, txn))
	require.NoError(t, store.EntryRepo().Create(ctx, tx, entry))

	require.NoError(t, tx.Rollback(ctx))

	_, err = store.TransactionRepo().GetByID(ctx, "txn-1")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	balance, err := store.EntryRepo().SumByAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	// Rollback after finish is a no-op, commit is not.
	require.NoError(t, tx.Rollback(ctx))
	assert.Error(t, tx.Commit(ctx))
}

func TestStore_RowLockBlocksSecondLocker(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, newTestAccount("acc-1")))

	first, err := store.Begin(ctx)
	require.NoError(t, err)

	_, err = store.GetByIDForUpdate(ctx, first, "acc-1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := store.Begin(ctx)
		if err != nil {
			t.Error(err)
			return
		}
		defer second.Rollback(ctx)

		if _, err := store.GetByIDForUpdate(ctx, second, "acc-1"); err != nil {
			t.Error(err)
			return
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second locker acquired the row while the first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Rollback(ctx))

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second locker never acquired the row after release")
	}
}

func TestStore_GetByIDsForUpdateSortsAndSkipsMissing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, newTestAccount("acc-b")))
	require.NoError(t, store.Create(ctx, newTestAccount("acc-a")))

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	accounts, err := store.GetByIDsForUpdate(ctx, tx, []string{"acc-b", "acc-missing", "acc-a"})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "acc-a", accounts[0].ID)
	assert.Equal(t, "acc-b", accounts[1].ID)
}

func TestStore_SumByAccountIgnoresPendingTransactions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, newTestAccount("acc-1")))

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	txn, entry := completedDeposit("txn-1", "acc-1", decimal.NewFromInt(100))
	require.NoError(t, store.TransactionRepo().Create(ctx, tx, txn))
	require.NoError(t, store.EntryRepo().Create(ctx, tx, entry))
	// Status stays pending.
	require.NoError(t, tx.Commit(ctx))

	balance, err := store.EntryRepo().SumByAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "pending transactions must not count, got %s", balance)
}
