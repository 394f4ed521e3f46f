// Package memory provides an in-memory implementation of the usecase
// repositories. It emulates the relational store's semantics — per-account
// exclusive row locks and all-or-nothing transactions — so the engine's
// concurrency behavior can be exercised without a database.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
	"github.com/saisuryavinay/financial-ledger-api/internal/usecase"
)

var errTxDone = errors.New("transaction already finished")

// Store holds all ledger state in memory. It implements usecase.TxManager
// and AccountRepository directly; TransactionRepo, EntryRepo and LedgerRepo
// expose the remaining repository views.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	transactions map[string]*domain.Transaction
	entries      []*domain.LedgerEntry

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
		locks:        make(map[string]*sync.Mutex),
	}
}

func (s *Store) lockFor(accountID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	if _, ok := s.locks[accountID]; !ok {
		s.locks[accountID] = &sync.Mutex{}
	}

	return s.locks[accountID]
}

// memTx buffers writes until Commit and holds the row locks acquired on
// behalf of the operation. Commit applies all staged writes under the store
// mutex; Rollback discards them. Either way the locks are released.
type memTx struct {
	store  *Store
	mu     sync.Mutex
	staged []func()
	locked []*sync.Mutex
	done   bool
}

// Begin starts a new in-memory transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Tx, error) {
	return &memTx{store: s}, nil
}

// Commit applies all staged writes atomically and releases held locks.
func (t *memTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return errTxDone
	}

	t.store.mu.Lock()
	for _, apply := range t.staged {
		apply()
	}
	t.store.mu.Unlock()

	t.finish()

	return nil
}

// Rollback discards staged writes and releases held locks. Rolling back a
// finished transaction is a no-op, so it is safe to defer.
func (t *memTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}

	t.staged = nil
	t.finish()

	return nil
}

func (t *memTx) finish() {
	for i := len(t.locked) - 1; i >= 0; i-- {
		t.locked[i].Unlock()
	}
	t.locked = nil
	t.done = true
}

func (t *memTx) stage(apply func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged = append(t.staged, apply)
}

func (t *memTx) acquire(lock *sync.Mutex) {
	lock.Lock()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked = append(t.locked, lock)
}

func asMemTx(tx usecase.Tx) (*memTx, error) {
	t, ok := tx.(*memTx)
	if !ok {
		return nil, errors.New("memory: foreign transaction type")
	}
	return t, nil
}

// Create registers a new account.
func (s *Store) Create(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return errors.New("memory: duplicate account id")
	}

	cp := *account
	s.accounts[account.ID] = &cp

	return nil
}

// GetByID retrieves an account by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *account

	return &cp, nil
}

// GetByIDForUpdate locks the account's row lock for the duration of tx and
// returns the committed state observed after acquisition.
func (s *Store) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Account, error) {
	t, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	t.acquire(s.lockFor(id))

	// Re-read after acquisition: the balance-relevant state a previous
	// holder committed must be visible.
	return s.GetByID(ctx, id)
}

// GetByIDsForUpdate locks multiple accounts, always in ascending id order.
func (s *Store) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	t, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}

	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	accounts := make([]*domain.Account, 0, len(sorted))
	for _, id := range sorted {
		if _, lookupErr := s.GetByID(ctx, id); lookupErr != nil {
			continue // missing rows lock nothing, as in SELECT ... FOR UPDATE
		}

		t.acquire(s.lockFor(id))

		account, lookupErr := s.GetByID(ctx, id)
		if lookupErr != nil {
			continue
		}

		accounts = append(accounts, account)
	}

	return accounts, nil
}

// UpdateStatus transitions an account's status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	account.Status = status
	account.UpdatedAt = updatedAt

	return nil
}

// List lists accounts ordered by id.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]*domain.Account, 0, limit)
	for i := offset; i < len(ids) && len(result) < limit; i++ {
		cp := *s.accounts[ids[i]]
		result = append(result, &cp)
	}

	return result, nil
}
