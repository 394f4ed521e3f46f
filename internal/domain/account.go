package domain

import (
	"time"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusClosed AccountStatus = "closed"
)

// Account represents a ledger account. It carries no balance field;
// the balance is always derived from the account's ledger entries.
type Account struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string
	OwnerName   string
	AccountType AccountType
	Currency    string
	Status      AccountStatus
}

// IsActive reports whether the account can participate in money movement.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// ValidateTransactable checks that the account accepts ledger writes.
func (a *Account) ValidateTransactable() error {
	if !a.IsActive() {
		return ErrAccountClosed
	}
	return nil
}
