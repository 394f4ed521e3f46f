package dto

import (
	"github.com/shopspring/decimal"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
	"github.com/saisuryavinay/financial-ledger-api/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	OwnerName   string `json:"owner_name"`
	AccountType string `json:"account_type"`
	Currency    string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerName:   r.OwnerName,
		AccountType: domain.AccountType(r.AccountType),
		Currency:    r.Currency,
	}
}

// DepositRequest represents a request to deposit into an account.
type DepositRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DepositRequest) ToUseCaseInput() usecase.DepositInput {
	return usecase.DepositInput{
		AccountID:   r.AccountID,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// WithdrawRequest represents a request to withdraw from an account.
type WithdrawRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *WithdrawRequest) ToUseCaseInput() usecase.WithdrawInput {
	return usecase.WithdrawInput{
		AccountID:   r.AccountID,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// TransferRequest represents a request to transfer between accounts.
type TransferRequest struct {
	SourceAccountID      string          `json:"source_account_id"`
	DestinationAccountID string          `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Description          string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		Amount:               r.Amount,
		Currency:             r.Currency,
		Description:          r.Description,
	}
}
