package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
	"github.com/saisuryavinay/financial-ledger-api/internal/usecase"
	"github.com/saisuryavinay/financial-ledger-api/tests/testutil"
)

// Concurrent withdrawals against the same account must never overdraw it:
// the balance check and the debit run under the same row lock.
func TestConcurrentWithdrawals(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := newLedgerEngine(testDB)
	account := testDB.CreateTestAccount(ctx, "Contended Account", "USD")

	if _, err := engine.Deposit(ctx, usecase.DepositInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("100"),
	}); err != nil {
		t.Fatalf("funding deposit failed: %v", err)
	}

	const workers = 10
	amount := decimal.RequireFromString("30")

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Withdraw(ctx, usecase.WithdrawInput{
				AccountID: account.ID,
				Amount:    amount,
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientFunds):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 3 {
		t.Fatalf("expected exactly 3 withdrawals to succeed, got %d", succeeded)
	}

	if got := testDB.Balance(ctx, account.ID); !got.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("expected final balance 10, got %s", got)
	}
}

// Transfers over the same pair of accounts in opposite directions lock
// accounts in ascending id order, so they must complete without deadlock.
func TestOppositeTransfersDoNotDeadlock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := newLedgerEngine(testDB)

	a := testDB.CreateTestAccount(ctx, "Account A", "USD")
	b := testDB.CreateTestAccount(ctx, "Account B", "USD")

	for _, acc := range []*domain.Account{a, b} {
		if _, err := engine.Deposit(ctx, usecase.DepositInput{
			AccountID: acc.ID,
			Amount:    decimal.RequireFromString("1000"),
		}); err != nil {
			t.Fatalf("funding deposit failed: %v", err)
		}
	}

	const rounds = 25
	amount := decimal.RequireFromString("1")

	var wg sync.WaitGroup
	wg.Add(2)

	transferLoop := func(from, to string) {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := engine.Transfer(ctx, usecase.TransferInput{
				SourceAccountID:      from,
				DestinationAccountID: to,
				Amount:               amount,
				Currency:             "USD",
			}); err != nil {
				t.Errorf("transfer %s -> %s failed: %v", from, to, err)
				return
			}
		}
	}

	go transferLoop(a.ID, b.ID)
	go transferLoop(b.ID, a.ID)

	wg.Wait()

	total := testDB.Balance(ctx, a.ID).Add(testDB.Balance(ctx, b.ID))
	if !total.Equal(decimal.RequireFromString("2000")) {
		t.Fatalf("expected conserved total 2000, got %s", total)
	}
}
