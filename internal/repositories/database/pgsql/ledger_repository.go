package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	"github.com/SscSPs/exchange_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(base BaseRepository) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: base}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// Signed sums per currency: credits add, debits subtract.
const signedSums = `
	COALESCE(SUM(CASE WHEN currency = 'BASE' THEN
		CASE WHEN entry_type = 'CREDIT' THEN amount ELSE -amount END ELSE 0 END), 0) AS base_sum,
	COALESCE(SUM(CASE WHEN currency = 'QUOTE' THEN
		CASE WHEN entry_type = 'CREDIT' THEN amount ELSE -amount END ELSE 0 END), 0) AS quote_sum`

func (r *PgxLedgerRepository) AppendEntries(ctx context.Context, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO ledger_entries (entry_id, journal_id, order_id, account_id, account_kind, currency, entry_type, amount, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	for _, e := range entries {
		m := mapping.ToModelLedgerEntry(e)
		batch.Queue(query,
			m.EntryID,
			m.JournalID,
			m.OrderID,
			m.AccountID,
			m.AccountKind,
			m.Currency,
			m.EntryType,
			m.Amount,
			m.CorrelationID,
			m.CreatedAt,
		)
	}

	// Close the batch results to surface the error of any queued insert
	if err := r.DB.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to append ledger entries for journal "+entries[0].JournalID, err)
	}
	return nil
}

func (r *PgxLedgerRepository) SumUserLedgers(ctx context.Context) (map[string]domain.Amounts, error) {
	query := `
		SELECT account_id, ` + signedSums + `
		FROM ledger_entries
		WHERE account_kind = 'USER'
		GROUP BY account_id;
	`
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to sum user ledgers", err)
	}
	defer rows.Close()

	sums := map[string]domain.Amounts{}
	for rows.Next() {
		var accountID string
		var a domain.Amounts
		if err := rows.Scan(&accountID, &a.Base, &a.Quote); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan user ledger sum", err)
		}
		sums[accountID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating user ledger sums", err)
	}
	return sums, nil
}

func (r *PgxLedgerRepository) SumAccountKind(ctx context.Context, kind domain.AccountKind) (domain.Amounts, error) {
	query := `SELECT ` + signedSums + ` FROM ledger_entries WHERE account_kind = $1;`
	var a domain.Amounts
	if err := r.DB.QueryRow(ctx, query, string(kind)).Scan(&a.Base, &a.Quote); err != nil {
		return domain.Amounts{}, apperrors.NewAppError(500, fmt.Sprintf("failed to sum %s ledger", kind), err)
	}
	return a, nil
}
