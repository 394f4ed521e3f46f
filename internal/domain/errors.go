package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountClosed   = errors.New("account is closed")

	// Transaction errors
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrSameAccount            = errors.New("source and destination accounts must differ")
	ErrMissingAccount         = errors.New("transaction is missing a required account reference")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrCurrencyMismatch       = errors.New("currency does not match account currency")
	ErrInsufficientFunds      = errors.New("insufficient funds")

	// Storage errors
	ErrLockTimeout = errors.New("could not acquire account lock")
)
