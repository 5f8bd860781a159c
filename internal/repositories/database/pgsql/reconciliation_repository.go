package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	"github.com/SscSPs/exchange_engine/internal/models"
	"github.com/SscSPs/exchange_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxReconciliationRepository struct {
	BaseRepository
}

func newPgxReconciliationRepository(base BaseRepository) portsrepo.ReconciliationRepositoryFacade {
	return &PgxReconciliationRepository{BaseRepository: base}
}

var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

func (r *PgxReconciliationRepository) FindReport(ctx context.Context, reportDate string) (*domain.ReconciliationReport, error) {
	query := `
		SELECT report_date::text, total_users, balances_base, balances_quote, ledger_base, ledger_quote,
		       discrepancy_base, discrepancy_quote, discrepancy_count, top_offenders, status
		FROM reconciliation_reports
		WHERE report_date = $1::date;
	`
	var m models.ReconciliationReport
	err := r.DB.QueryRow(ctx, query, reportDate).Scan(
		&m.ReportDate,
		&m.TotalUsers,
		&m.BalancesBase,
		&m.BalancesQuote,
		&m.LedgerBase,
		&m.LedgerQuote,
		&m.DiscrepancyBase,
		&m.DiscrepancyQuote,
		&m.DiscrepancyCount,
		&m.TopOffenders,
		&m.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: reconciliation report for '%s'", apperrors.ErrNotFound, reportDate)
		}
		return nil, apperrors.NewAppError(500, "failed to find reconciliation report "+reportDate, err)
	}
	report, err := mapping.ToDomainReconciliationReport(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode reconciliation report "+reportDate, err)
	}
	return &report, nil
}

// UpsertReport replaces the row of the same date, so reruns within a day are idempotent.
func (r *PgxReconciliationRepository) UpsertReport(ctx context.Context, report domain.ReconciliationReport) error {
	m, err := mapping.ToModelReconciliationReport(report)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode reconciliation report "+report.ReportDate, err)
	}
	query := `
		INSERT INTO reconciliation_reports (
			report_date, total_users, balances_base, balances_quote, ledger_base, ledger_quote,
			discrepancy_base, discrepancy_quote, discrepancy_count, top_offenders, status, updated_at
		)
		VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (report_date) DO UPDATE SET
			total_users = EXCLUDED.total_users,
			balances_base = EXCLUDED.balances_base,
			balances_quote = EXCLUDED.balances_quote,
			ledger_base = EXCLUDED.ledger_base,
			ledger_quote = EXCLUDED.ledger_quote,
			discrepancy_base = EXCLUDED.discrepancy_base,
			discrepancy_quote = EXCLUDED.discrepancy_quote,
			discrepancy_count = EXCLUDED.discrepancy_count,
			top_offenders = EXCLUDED.top_offenders,
			status = EXCLUDED.status,
			updated_at = NOW();
	`
	_, err = r.DB.Exec(ctx, query,
		m.ReportDate,
		m.TotalUsers,
		m.BalancesBase,
		m.BalancesQuote,
		m.LedgerBase,
		m.LedgerQuote,
		m.DiscrepancyBase,
		m.DiscrepancyQuote,
		m.DiscrepancyCount,
		m.TopOffenders,
		m.Status,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to upsert reconciliation report "+report.ReportDate, err)
	}
	return nil
}
