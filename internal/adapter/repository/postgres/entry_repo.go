package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/saisuryavinay/financial-ledger-api/internal/domain"
	"github.com/saisuryavinay/financial-ledger-api/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository. Entries are append
// only; there is no update or delete path.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

const entryColumns = `id, account_id, transaction_id, entry_type, amount, created_at`

// Balance folds credits minus debits over the account's entries, counting
// only entries whose transaction completed.
const sumByAccountQuery = `
	SELECT COALESCE(SUM(
		CASE WHEN e.entry_type = 'credit' THEN e.amount ELSE -e.amount END
	), 0)
	FROM ledger_entries e
	JOIN transactions t ON t.id = e.transaction_id
	WHERE e.account_id = $1 AND t.status = 'completed'
`

// Create inserts a ledger entry inside tx.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Tx, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO ledger_entries (id, account_id, transaction_id, entry_type, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.TransactionID,
		entry.EntryType,
		decimalToNumeric(entry.Amount),
		entry.CreatedAt,
	)

	return err
}

// ListByAccount lists an account's entries ordered by creation time,
// ascending.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListByTransaction lists the entries belonging to a transaction.
func (r *EntryRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// SumByAccount resolves an account's balance from its entry history.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, sumByAccountQuery, accountID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// SumByAccountTx resolves an account's balance inside tx, so the value is
// read under the account lock the caller holds.
func (r *EntryRepository) SumByAccountTx(ctx context.Context, tx usecase.Tx, accountID string) (decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var sum pgtype.Numeric
	if err := pgxTx.QueryRow(ctx, sumByAccountQuery, accountID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

func collectEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry

	for rows.Next() {
		var (
			entry  domain.LedgerEntry
			amount pgtype.Numeric
		)

		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.TransactionID,
			&entry.EntryType,
			&amount,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Amount = numericToDecimal(amount)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
