package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
	"github.com/saisuryavinay/financial-ledger-api/internal/usecase"
)

// TransactionRepo returns the store's TransactionRepository view.
// TransactionRepository, EntryRepository and LedgerRepository share method
// names with AccountRepository, so each gets its own view type instead of
// being implemented on Store directly.
func (s *Store) TransactionRepo() usecase.TransactionRepository { return (*transactionRepo)(s) }

// EntryRepo returns the store's EntryRepository view.
func (s *Store) EntryRepo() usecase.EntryRepository { return (*entryRepo)(s) }

// LedgerRepo returns the store's LedgerRepository view.
func (s *Store) LedgerRepo() usecase.LedgerRepository { return (*ledgerRepo)(s) }

type transactionRepo Store

// Create stages a transaction row; it becomes visible on commit.
func (r *transactionRepo) Create(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	t, err := asMemTx(tx)
	if err != nil {
		return err
	}

	cp := *txn
	s := (*Store)(r)
	t.stage(func() {
		s.transactions[cp.ID] = &cp
	})

	return nil
}

// UpdateStatus stages a status transition for an already-staged or
// committed transaction.
func (r *transactionRepo) UpdateStatus(ctx context.Context, tx usecase.Tx, id string, status domain.TransactionStatus) error {
	t, err := asMemTx(tx)
	if err != nil {
		return err
	}

	s := (*Store)(r)
	t.stage(func() {
		if txn, ok := s.transactions[id]; ok {
			txn.Status = status
		}
	})

	return nil
}

// GetByID retrieves a committed transaction by ID.
func (r *transactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	cp := *txn

	return &cp, nil
}

// ListByAccount lists committed transactions touching an account.
func (r *transactionRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Transaction
	for _, txn := range s.transactions {
		if (txn.SourceAccountID != nil && *txn.SourceAccountID == accountID) ||
			(txn.DestinationAccountID != nil && *txn.DestinationAccountID == accountID) {
			cp := *txn
			matched = append(matched, &cp)
		}
	}

	sortTransactions(matched)

	return paginateTransactions(matched, limit, offset), nil
}

type entryRepo Store

// Create stages a ledger entry; it becomes visible on commit.
func (r *entryRepo) Create(ctx context.Context, tx usecase.Tx, entry *domain.LedgerEntry) error {
	t, err := asMemTx(tx)
	if err != nil {
		return err
	}

	cp := *entry
	s := (*Store)(r)
	t.stage(func() {
		s.entries = append(s.entries, &cp)
	})

	return nil
}

// ListByAccount lists an account's committed entries in creation order.
func (r *entryRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.LedgerEntry
	for _, e := range s.entries {
		if e.AccountID == accountID {
			cp := *e
			matched = append(matched, &cp)
		}
	}

	if offset >= len(matched) {
		return nil, nil
	}

	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, nil
}

// ListByTransaction lists the committed entries of one transaction.
func (r *entryRepo) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.LedgerEntry
	for _, e := range s.entries {
		if e.TransactionID == transactionID {
			cp := *e
			matched = append(matched, &cp)
		}
	}

	return matched, nil
}

// SumByAccount folds the account's committed entries of completed
// transactions into a signed balance.
func (r *entryRepo) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumLocked(accountID), nil
}

// SumByAccountTx resolves the balance inside tx. Committed state only: the
// engine reads balances before staging any write, and the account row lock
// held by tx keeps that read stable until commit.
func (r *entryRepo) SumByAccountTx(ctx context.Context, tx usecase.Tx, accountID string) (decimal.Decimal, error) {
	if _, err := asMemTx(tx); err != nil {
		return decimal.Zero, err
	}

	return r.SumByAccount(ctx, accountID)
}

func (s *Store) sumLocked(accountID string) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range s.entries {
		if e.AccountID != accountID {
			continue
		}

		txn, ok := s.transactions[e.TransactionID]
		if !ok || txn.Status != domain.TransactionStatusCompleted {
			continue
		}

		balance = balance.Add(e.SignedAmount())
	}

	return balance
}

type ledgerRepo Store

// SumEntryTotals sums debit and credit amounts over entries of completed
// transactions.
func (r *ledgerRepo) SumEntryTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	totalDebits := decimal.Zero
	totalCredits := decimal.Zero

	for _, e := range s.entries {
		txn, ok := s.transactions[e.TransactionID]
		if !ok || txn.Status != domain.TransactionStatusCompleted {
			continue
		}

		if e.EntryType == domain.EntryTypeDebit {
			totalDebits = totalDebits.Add(e.Amount)
		} else {
			totalCredits = totalCredits.Add(e.Amount)
		}
	}

	return totalDebits, totalCredits, nil
}

// CountUnbalancedTransactions counts completed transactions whose entry
// legs disagree with the transaction record.
func (r *ledgerRepo) CountUnbalancedTransactions(ctx context.Context) (int64, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	debits := make(map[string]decimal.Decimal)
	credits := make(map[string]decimal.Decimal)

	for _, e := range s.entries {
		if e.EntryType == domain.EntryTypeDebit {
			debits[e.TransactionID] = debits[e.TransactionID].Add(e.Amount)
		} else {
			credits[e.TransactionID] = credits[e.TransactionID].Add(e.Amount)
		}
	}

	var unbalanced int64
	for id, txn := range s.transactions {
		if txn.Status != domain.TransactionStatusCompleted {
			continue
		}

		wantDebit := decimal.Zero
		wantCredit := decimal.Zero

		switch txn.Type {
		case domain.TransactionTypeDeposit:
			wantCredit = txn.Amount
		case domain.TransactionTypeWithdrawal:
			wantDebit = txn.Amount
		case domain.TransactionTypeTransfer:
			wantDebit = txn.Amount
			wantCredit = txn.Amount
		}

		if !debits[id].Equal(wantDebit) || !credits[id].Equal(wantCredit) {
			unbalanced++
		}
	}

	return unbalanced, nil
}

func sortTransactions(txns []*domain.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		if txns[i].CreatedAt.Equal(txns[j].CreatedAt) {
			return txns[i].ID < txns[j].ID
		}

		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
}

func paginateTransactions(txns []*domain.Transaction, limit, offset int) []*domain.Transaction {
	if offset >= len(txns) {
		return nil
	}

	txns = txns[offset:]
	if limit < len(txns) {
		txns = txns[:limit]
	}

	return txns
}
