package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/shopspring/decimal"
)

// ReportDateLayout is the format of a report's date key.
const ReportDateLayout = "2006-01-02"

type reconciliationService struct {
	BaseService
	balances     portsrepo.BalanceReader
	ledger       portsrepo.LedgerReader
	reports      portsrepo.ReconciliationRepositoryFacade
	epsilon      decimal.Decimal
	topOffenders int
}

// NewReconciliationService creates the balance/ledger reconciliation engine.
func NewReconciliationService(balances portsrepo.BalanceReader, ledger portsrepo.LedgerReader, reports portsrepo.ReconciliationRepositoryFacade, opts ...ServiceOption) portssvc.ReconciliationSvcFacade {
	cfg := newServiceConfig(opts)
	return &reconciliationService{
		BaseService:  cfg.base(),
		balances:     balances,
		ledger:       ledger,
		reports:      reports,
		epsilon:      cfg.epsilon,
		topOffenders: cfg.topOffenders,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// Reconcile compares every stored balance with the balance its USER ledger entries produce and
// upserts today's report. It only reads balances and ledger, so it tolerates skew between the two reads
// and reports it as a discrepancy.
func (s *reconciliationService) Reconcile(ctx context.Context) (*domain.ReconciliationReport, error) {
	ctx, _ = audit.EnsureCorrelationID(ctx)
	start := s.Now()

	balances, err := s.balances.ListBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	ledger, err := s.ledger.SumUserLedgers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger: %w", err)
	}

	report := domain.ReconciliationReport{
		ReportDate: start.Format(ReportDateLayout),
		TotalUsers: len(balances),
		Balances:   domain.Amounts{Base: decimal.Zero, Quote: decimal.Zero},
		Ledger:     domain.Amounts{Base: decimal.Zero, Quote: decimal.Zero},
	}

	seen := make(map[string]bool, len(balances))
	var offenders []domain.UserDiscrepancy
	for _, b := range balances {
		seen[b.UserID] = true
		report.Balances = report.Balances.Add(b.Amounts())
		if d, ok := s.discrepancy(b.UserID, b.Amounts(), ledger[b.UserID]); ok {
			offenders = append(offenders, d)
		}
	}
	for userID, derived := range ledger {
		report.Ledger = report.Ledger.Add(derived)
		if seen[userID] {
			continue
		}
		// ledger activity for a user without a balance row
		if d, ok := s.discrepancy(userID, domain.Amounts{}, derived); ok {
			offenders = append(offenders, d)
		}
	}

	diff := report.Balances.Sub(report.Ledger)
	slices.SortFunc(offenders, func(a, b domain.UserDiscrepancy) int {
		if c := b.Magnitude().Cmp(a.Magnitude()); c != 0 {
			return c
		}
		return strings.Compare(a.UserID, b.UserID)
	})
	report.Discrepancies = domain.Discrepancies{
		Base:         diff.Base,
		Quote:        diff.Quote,
		Count:        len(offenders),
		TopOffenders: offenders[:min(len(offenders), s.topOffenders)],
	}
	if report.Discrepancies.TopOffenders == nil {
		report.Discrepancies.TopOffenders = []domain.UserDiscrepancy{}
	}
	report.Status = domain.ReconciliationCompleted
	if report.Discrepancies.Count > 0 {
		report.Status = domain.ReconciliationPartial
	}

	if err := s.reports.UpsertReport(ctx, report); err != nil {
		s.LogError(ctx, err, "Failed to store reconciliation report", slog.String("report_date", report.ReportDate))
		return nil, fmt.Errorf("failed to store reconciliation report: %w", err)
	}

	s.Metric(ctx, "reconciliation.total_users", float64(report.TotalUsers), nil)
	s.Metric(ctx, "reconciliation.discrepancy_magnitude", diff.Base.Abs().Add(diff.Quote.Abs()).InexactFloat64(), nil)
	s.Metric(ctx, "reconciliation.offending_users", float64(report.Discrepancies.Count), nil)
	s.Metric(ctx, "reconciliation.duration_ms", elapsedMillis(start, s.Now()), nil)

	severity := domain.SeverityInfo
	if report.Status == domain.ReconciliationPartial {
		severity = domain.SeverityWarn
		s.LogWarn(ctx, "Reconciliation found discrepancies",
			slog.String("report_date", report.ReportDate),
			slog.Int("count", report.Discrepancies.Count),
			slog.String("base", diff.Base.String()),
			slog.String("quote", diff.Quote.String()))
	}
	s.Audit(ctx, domain.AuditEntry{
		Action:       "reconciliation.completed",
		ResourceType: "reconciliation_report",
		ResourceID:   report.ReportDate,
		NewValues: map[string]any{
			"status":         report.Status,
			"total_users":    report.TotalUsers,
			"count":          report.Discrepancies.Count,
			"base_discrep":   diff.Base.String(),
			"quote_discrep":  diff.Quote.String(),
			"balances_base":  report.Balances.Base.String(),
			"balances_quote": report.Balances.Quote.String(),
		},
		Severity: severity,
	})
	return &report, nil
}

func (s *reconciliationService) discrepancy(userID string, stored, derived domain.Amounts) (domain.UserDiscrepancy, bool) {
	d := stored.Sub(derived)
	if d.Base.Abs().LessThan(s.epsilon) && d.Quote.Abs().LessThan(s.epsilon) {
		return domain.UserDiscrepancy{}, false
	}
	return domain.UserDiscrepancy{UserID: userID, Base: d.Base, Quote: d.Quote}, true
}

func (s *reconciliationService) GetReport(ctx context.Context, reportDate string) (*domain.ReconciliationReport, error) {
	if _, err := time.Parse(ReportDateLayout, reportDate); err != nil {
		return nil, fmt.Errorf("%w: report date must be formatted as YYYY-MM-DD", apperrors.ErrValidation)
	}
	return s.reports.FindReport(ctx, reportDate)
}
