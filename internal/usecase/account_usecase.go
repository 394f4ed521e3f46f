package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
	"github.com/saisuryavinay/financial-ledger-api/internal/infrastructure/metrics"
)

// AccountUseCase is the account registry: it owns account identity and
// status. It exposes no balance mutation; balances come from the entry
// history via the balance resolver.
type AccountUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase. metrics may be nil.
func NewAccountUseCase(accountRepo AccountRepository, entryRepo EntryRepository, idGen IDGenerator, metrics *metrics.Metrics) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	OwnerName   string
	AccountType domain.AccountType
	Currency    string
}

// CreateAccount registers a new active account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateOwnerName(input.OwnerName); err != nil {
		return nil, err
	}

	if err := domain.ValidateAccountType(input.AccountType); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:          uc.idGen.Generate(),
		OwnerName:   strings.TrimSpace(input.OwnerName),
		AccountType: input.AccountType,
		Currency:    currency,
		Status:      domain.AccountStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
		uc.metrics.AccountOperations.WithLabelValues("create").Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountWithBalance retrieves an account together with its derived
// balance.
func (uc *AccountUseCase) GetAccountWithBalance(ctx context.Context, id string) (*domain.Account, decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, decimal.Zero, err
	}

	balance, err := uc.entryRepo.SumByAccount(ctx, id)
	if err != nil {
		return nil, decimal.Zero, err
	}

	return account, balance, nil
}

// CloseAccount soft-closes an account. Accounts are never deleted; a closed
// account keeps its history but rejects further money movement.
func (uc *AccountUseCase) CloseAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.Status == domain.AccountStatusClosed {
		return account, nil
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.UpdateStatus(ctx, id, domain.AccountStatusClosed, now); err != nil {
		return nil, err
	}

	account.Status = domain.AccountStatusClosed
	account.UpdatedAt = now

	if uc.metrics != nil {
		uc.metrics.AccountsClosed.Inc()
		uc.metrics.AccountOperations.WithLabelValues("close").Inc()
	}

	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}
