package domain

import "github.com/shopspring/decimal"

// ReconciliationStatus classifies a report.
type ReconciliationStatus string

const (
	ReconciliationCompleted ReconciliationStatus = "completed"
	ReconciliationPartial   ReconciliationStatus = "partial"
)

// UserDiscrepancy is the difference between a user's stored balance and the ledger-derived one.
type UserDiscrepancy struct {
	UserID string          `json:"userID"`
	Base   decimal.Decimal `json:"base"`
	Quote  decimal.Decimal `json:"quote"`
}

// Magnitude is |base| + |quote|, used to rank offenders.
func (d UserDiscrepancy) Magnitude() decimal.Decimal {
	return d.Base.Abs().Add(d.Quote.Abs())
}

// Discrepancies is the aggregate discrepancy section of a report.
type Discrepancies struct {
	Base         decimal.Decimal   `json:"base"`
	Quote        decimal.Decimal   `json:"quote"`
	Count        int               `json:"count"`
	TopOffenders []UserDiscrepancy `json:"topOffenders"`
}

// ReconciliationReport compares aggregate balances against the ledger. Keyed by ReportDate.
type ReconciliationReport struct {
	ReportDate    string               `json:"reportDate"`
	TotalUsers    int                  `json:"totalUsers"`
	Balances      Amounts              `json:"balances"`
	Ledger        Amounts              `json:"ledger"`
	Discrepancies Discrepancies        `json:"discrepancies"`
	Status        ReconciliationStatus `json:"status"`
}
