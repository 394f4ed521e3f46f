package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement a transaction records.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
)

// TransactionStatus is the lifecycle state of a transaction. A transaction
// is created pending and moves to exactly one terminal state.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction records the intent and outcome of one money-movement
// operation. SourceAccountID is nil for deposits, DestinationAccountID is
// nil for withdrawals. Immutable once it reaches a terminal status.
type Transaction struct {
	CreatedAt            time.Time
	SourceAccountID      *string
	DestinationAccountID *string
	ID                   string
	Type                 TransactionType
	Currency             string
	Status               TransactionStatus
	Description          string
	Amount               decimal.Decimal
}

// Validate validates the structural invariants of a transaction.
func (t *Transaction) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	switch t.Type {
	case TransactionTypeDeposit:
		if t.DestinationAccountID == nil {
			return ErrMissingAccount
		}
	case TransactionTypeWithdrawal:
		if t.SourceAccountID == nil {
			return ErrMissingAccount
		}
	case TransactionTypeTransfer:
		if t.SourceAccountID == nil || t.DestinationAccountID == nil {
			return ErrMissingAccount
		}
		if *t.SourceAccountID == *t.DestinationAccountID {
			return ErrSameAccount
		}
	default:
		return ErrInvalidTransactionType
	}

	return nil
}

// IsTerminal reports whether the transaction has reached a final status.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}
