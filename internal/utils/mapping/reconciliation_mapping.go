package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/models"
)

// ToModelReconciliationReport flattens a domain report into its row form.
func ToModelReconciliationReport(d domain.ReconciliationReport) (models.ReconciliationReport, error) {
	offenders := d.Discrepancies.TopOffenders
	if offenders == nil {
		offenders = []domain.UserDiscrepancy{}
	}
	raw, err := json.Marshal(offenders)
	if err != nil {
		return models.ReconciliationReport{}, fmt.Errorf("encode top offenders: %w", err)
	}
	return models.ReconciliationReport{
		ReportDate:       d.ReportDate,
		TotalUsers:       d.TotalUsers,
		BalancesBase:     d.Balances.Base,
		BalancesQuote:    d.Balances.Quote,
		LedgerBase:       d.Ledger.Base,
		LedgerQuote:      d.Ledger.Quote,
		DiscrepancyBase:  d.Discrepancies.Base,
		DiscrepancyQuote: d.Discrepancies.Quote,
		DiscrepancyCount: d.Discrepancies.Count,
		TopOffenders:     raw,
		Status:           string(d.Status),
	}, nil
}

// ToDomainReconciliationReport rebuilds a domain report from its row form.
func ToDomainReconciliationReport(m models.ReconciliationReport) (domain.ReconciliationReport, error) {
	offenders := []domain.UserDiscrepancy{}
	if len(m.TopOffenders) > 0 {
		if err := json.Unmarshal(m.TopOffenders, &offenders); err != nil {
			return domain.ReconciliationReport{}, fmt.Errorf("decode top offenders: %w", err)
		}
	}
	return domain.ReconciliationReport{
		ReportDate: m.ReportDate,
		TotalUsers: m.TotalUsers,
		Balances:   domain.Amounts{Base: m.BalancesBase, Quote: m.BalancesQuote},
		Ledger:     domain.Amounts{Base: m.LedgerBase, Quote: m.LedgerQuote},
		Discrepancies: domain.Discrepancies{
			Base:         m.DiscrepancyBase,
			Quote:        m.DiscrepancyQuote,
			Count:        m.DiscrepancyCount,
			TopOffenders: offenders,
		},
		Status: domain.ReconciliationStatus(m.Status),
	}, nil
}
