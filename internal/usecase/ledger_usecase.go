package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
	"github.com/saisuryavinay/financial-ledger-api/internal/infrastructure/metrics"
)

// LedgerUseCase is the transactional ledger engine. Every money-movement
// operation runs as one atomic unit: lock the participant accounts, resolve
// balances under the lock, record the transaction, append the matching
// ledger entries, and commit. Any failure rolls the whole unit back.
//
// On insufficient funds the attempt leaves no trace: the transaction row is
// discarded together with everything else.
type LedgerUseCase struct {
	txManager       TxManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
	idGen           IDGenerator
	retrier         Retrier
	cache           Cache
	metrics         *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase. retrier, cache and metrics
// may be nil; without a retrier, transient storage failures surface to the
// caller. The cache must be the same instance the balance resolver reads,
// so committed movements evict the balances they changed.
func NewLedgerUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	retrier Retrier,
	cache Cache,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
		idGen:           idGen,
		retrier:         retrier,
		cache:           cache,
		metrics:         metrics,
	}
}

// DepositInput represents input for a deposit.
type DepositInput struct {
	AccountID   string
	Description string
	Amount      decimal.Decimal
}

// Deposit credits an account with externally funded money. Deposits have a
// single credit leg; the counterparty is implicit and external.
func (uc *LedgerUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.Transaction, error) {
	return uc.withRetry(ctx, func() (*domain.Transaction, error) {
		return uc.deposit(ctx, input)
	})
}

func (uc *LedgerUseCase) deposit(ctx context.Context, input DepositInput) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	start := time.Now()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if err := account.ValidateTransactable(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	txn := &domain.Transaction{
		ID:                   uc.idGen.Generate(),
		Type:                 domain.TransactionTypeDeposit,
		DestinationAccountID: &account.ID,
		Amount:               input.Amount,
		Currency:             account.Currency,
		Status:               domain.TransactionStatusPending,
		Description:          input.Description,
		CreatedAt:            now,
	}

	if err := uc.recordTransaction(ctx, tx, txn, []*domain.LedgerEntry{
		uc.newEntry(account.ID, txn.ID, domain.EntryTypeCredit, input.Amount, now),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidateBalances(ctx, account.ID)
	uc.observeCompleted(txn, start)

	return txn, nil
}

// WithdrawInput represents input for a withdrawal.
type WithdrawInput struct {
	AccountID   string
	Description string
	Amount      decimal.Decimal
}

// Withdraw debits an account after verifying sufficient funds. The balance
// check and the entry write happen under the same account lock so no
// concurrent withdrawal can interleave between check and write.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, input WithdrawInput) (*domain.Transaction, error) {
	return uc.withRetry(ctx, func() (*domain.Transaction, error) {
		return uc.withdraw(ctx, input)
	})
}

func (uc *LedgerUseCase) withdraw(ctx context.Context, input WithdrawInput) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	start := time.Now()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if err := account.ValidateTransactable(); err != nil {
		return nil, err
	}

	balance, err := uc.entryRepo.SumByAccountTx(ctx, tx, account.ID)
	if err != nil {
		return nil, err
	}

	if balance.LessThan(input.Amount) {
		uc.countRejection(domain.TransactionTypeWithdrawal, "insufficient_funds")
		return nil, domain.ErrInsufficientFunds
	}

	now := time.Now().UTC()

	txn := &domain.Transaction{
		ID:              uc.idGen.Generate(),
		Type:            domain.TransactionTypeWithdrawal,
		SourceAccountID: &account.ID,
		Amount:          input.Amount,
		Currency:        account.Currency,
		Status:          domain.TransactionStatusPending,
		Description:     input.Description,
		CreatedAt:       now,
	}

	if err := uc.recordTransaction(ctx, tx, txn, []*domain.LedgerEntry{
		uc.newEntry(account.ID, txn.ID, domain.EntryTypeDebit, input.Amount, now),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidateBalances(ctx, account.ID)
	uc.observeCompleted(txn, start)

	return txn, nil
}

// TransferInput represents input for a transfer.
type TransferInput struct {
	SourceAccountID      string
	DestinationAccountID string
	Currency             string
	Description          string
	Amount               decimal.Decimal
}

// Transfer moves money between two accounts: one debit against the source,
// one matching credit against the destination, both referencing the same
// transaction. Both account rows are locked before either balance is read,
// always in ascending account-id order so that transfers over the same pair
// in opposite directions cannot deadlock.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	return uc.withRetry(ctx, func() (*domain.Transaction, error) {
		return uc.transfer(ctx, input)
	})
}

func (uc *LedgerUseCase) transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if input.SourceAccountID == input.DestinationAccountID {
		return nil, domain.ErrSameAccount
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	start := time.Now()

	ids := []string{input.SourceAccountID, input.DestinationAccountID}
	sort.Strings(ids)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(ids) {
		return nil, domain.ErrAccountNotFound
	}

	var source, destination *domain.Account
	for _, a := range accounts {
		switch a.ID {
		case input.SourceAccountID:
			source = a
		case input.DestinationAccountID:
			destination = a
		}
	}

	if source == nil || destination == nil {
		return nil, domain.ErrAccountNotFound
	}

	if err := source.ValidateTransactable(); err != nil {
		return nil, err
	}

	if err := destination.ValidateTransactable(); err != nil {
		return nil, err
	}

	if source.Currency != currency || destination.Currency != currency {
		return nil, domain.ErrCurrencyMismatch
	}

	balance, err := uc.entryRepo.SumByAccountTx(ctx, tx, source.ID)
	if err != nil {
		return nil, err
	}

	if balance.LessThan(input.Amount) {
		uc.countRejection(domain.TransactionTypeTransfer, "insufficient_funds")
		return nil, domain.ErrInsufficientFunds
	}

	now := time.Now().UTC()

	txn := &domain.Transaction{
		ID:                   uc.idGen.Generate(),
		Type:                 domain.TransactionTypeTransfer,
		SourceAccountID:      &source.ID,
		DestinationAccountID: &destination.ID,
		Amount:               input.Amount,
		Currency:             currency,
		Status:               domain.TransactionStatusPending,
		Description:          input.Description,
		CreatedAt:            now,
	}

	if err := uc.recordTransaction(ctx, tx, txn, []*domain.LedgerEntry{
		uc.newEntry(source.ID, txn.ID, domain.EntryTypeDebit, input.Amount, now),
		uc.newEntry(destination.ID, txn.ID, domain.EntryTypeCredit, input.Amount, now),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidateBalances(ctx, source.ID, destination.ID)
	uc.observeCompleted(txn, start)

	return txn, nil
}

// recordTransaction durably records the transaction before any of its
// entries, appends the entries, and moves the transaction to completed.
func (uc *LedgerUseCase) recordTransaction(ctx context.Context, tx Tx, txn *domain.Transaction, entries []*domain.LedgerEntry) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	if err := uc.transactionRepo.Create(ctx, tx, txn); err != nil {
		return err
	}

	for _, entry := range entries {
		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := uc.transactionRepo.UpdateStatus(ctx, tx, txn.ID, domain.TransactionStatusCompleted); err != nil {
		return err
	}

	txn.Status = domain.TransactionStatusCompleted

	if uc.metrics != nil {
		uc.metrics.EntriesWritten.Add(float64(len(entries)))
	}

	return nil
}

// withRetry re-runs the whole transactional unit through the retrier. Each
// attempt begins its own storage transaction, so a retried deadlock starts
// clean.
func (uc *LedgerUseCase) withRetry(ctx context.Context, op func() (*domain.Transaction, error)) (*domain.Transaction, error) {
	if uc.retrier == nil {
		return op()
	}

	var txn *domain.Transaction
	err := uc.retrier.Retry(ctx, func() error {
		result, opErr := op()
		if opErr != nil {
			return opErr
		}
		txn = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// invalidateBalances evicts the cached balance of every account whose
// entry history just changed. Best effort; an unreachable cache falls back
// to the entry TTL.
func (uc *LedgerUseCase) invalidateBalances(ctx context.Context, accountIDs ...string) {
	if uc.cache == nil {
		return
	}

	for _, id := range accountIDs {
		_ = uc.cache.Delete(ctx, balanceCacheKey(id))
	}
}

func (uc *LedgerUseCase) observeCompleted(txn *domain.Transaction, start time.Time) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.TransactionsCreated.WithLabelValues(string(txn.Type)).Inc()
	uc.metrics.TransactionDuration.WithLabelValues(string(txn.Type)).Observe(time.Since(start).Seconds())
	uc.metrics.TransactionAmount.WithLabelValues(string(txn.Type)).Observe(txn.Amount.InexactFloat64())
}

func (uc *LedgerUseCase) countRejection(txType domain.TransactionType, reason string) {
	if uc.metrics != nil {
		uc.metrics.TransactionErrors.WithLabelValues(string(txType), reason).Inc()
	}
}

func (uc *LedgerUseCase) newEntry(accountID, transactionID string, entryType domain.EntryType, amount decimal.Decimal, now time.Time) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		AccountID:     accountID,
		TransactionID: transactionID,
		EntryType:     entryType,
		Amount:        amount,
		CreatedAt:     now,
	}
}
