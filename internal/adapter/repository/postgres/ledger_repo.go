package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerRepository: ledger-wide
// aggregates used by the consistency check.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// SumEntryTotals sums debit and credit amounts over entries of completed
// transactions.
func (r *LedgerRepository) SumEntryTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(e.amount) FILTER (WHERE e.entry_type = 'debit'), 0),
			COALESCE(SUM(e.amount) FILTER (WHERE e.entry_type = 'credit'), 0)
		FROM ledger_entries e
		JOIN transactions t ON t.id = e.transaction_id
		WHERE t.status = 'completed'
	`

	var debits, credits pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query).Scan(&debits, &credits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(debits), numericToDecimal(credits), nil
}

// CountUnbalancedTransactions counts completed transactions whose entry
// legs disagree with the recorded amount. Per type: a transfer carries one
// debit and one credit of the full amount, a deposit one credit only, a
// withdrawal one debit only.
func (r *LedgerRepository) CountUnbalancedTransactions(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions t
		LEFT JOIN (
			SELECT
				transaction_id,
				COALESCE(SUM(amount) FILTER (WHERE entry_type = 'debit'), 0) AS debit_total,
				COALESCE(SUM(amount) FILTER (WHERE entry_type = 'credit'), 0) AS credit_total
			FROM ledger_entries
			GROUP BY transaction_id
		) legs ON legs.transaction_id = t.id
		WHERE t.status = 'completed'
		  AND (
			COALESCE(legs.debit_total, 0) <> CASE WHEN t.type IN ('withdrawal', 'transfer') THEN t.amount ELSE 0 END
			OR COALESCE(legs.credit_total, 0) <> CASE WHEN t.type IN ('deposit', 'transfer') THEN t.amount ELSE 0 END
		  )
	`

	var count int64
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
