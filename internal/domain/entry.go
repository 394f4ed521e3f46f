package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType tags a ledger entry as money leaving or entering an account.
type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// LedgerEntry is an immutable record of money moving into or out of one
// account. Entries are append-only and always belong to a transaction.
type LedgerEntry struct {
	CreatedAt     time.Time
	ID            string
	AccountID     string
	TransactionID string
	EntryType     EntryType
	Amount        decimal.Decimal
}

// SignedAmount returns the entry amount with its balance sign applied:
// credits are positive, debits negative.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.EntryType == EntryTypeDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
