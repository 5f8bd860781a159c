package models

import "github.com/shopspring/decimal"

// ReconciliationReport is the flattened row of reconciliation_reports.
type ReconciliationReport struct {
	ReportDate       string          `db:"report_date"`
	TotalUsers       int             `db:"total_users"`
	BalancesBase     decimal.Decimal `db:"balances_base"`
	BalancesQuote    decimal.Decimal `db:"balances_quote"`
	LedgerBase       decimal.Decimal `db:"ledger_base"`
	LedgerQuote      decimal.Decimal `db:"ledger_quote"`
	DiscrepancyBase  decimal.Decimal `db:"discrepancy_base"`
	DiscrepancyQuote decimal.Decimal `db:"discrepancy_quote"`
	DiscrepancyCount int             `db:"discrepancy_count"`
	TopOffenders     []byte          `db:"top_offenders"` // JSONB array of domain.UserDiscrepancy
	Status           string          `db:"status"`
}
