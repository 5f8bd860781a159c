package dto

import (
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SweepRequest defines the body of a scheduler-triggered sweep.
type SweepRequest struct {
	TriggerSource string `json:"triggerSource" binding:"required,max=64"`
}

// SweepResponse defines the structure returned after a sweep pass.
type SweepResponse struct {
	ProcessedOrders int             `json:"processedOrders"`
	TotalCandidates int             `json:"totalCandidates"`
	Expired         int             `json:"expired"`
	Failed          int             `json:"failed"`
	Skipped         int             `json:"skipped"`
	Conflicted      int             `json:"conflicted"`
	CurrentPrice    decimal.Decimal `json:"currentPrice"`
	PriceAgeSeconds float64         `json:"priceAgeSeconds"`
}

// DepositRequest defines the structure for crediting a user from outside the platform.
type DepositRequest struct {
	Base  decimal.Decimal `json:"base"`
	Quote decimal.Decimal `json:"quote"`
}

// ReconciliationReportResponse mirrors domain.ReconciliationReport for API responses.
type ReconciliationReportResponse struct {
	ReportDate    string                      `json:"reportDate"`
	TotalUsers    int                         `json:"totalUsers"`
	Balances      BalancesResponse            `json:"balances"`
	Ledger        BalancesResponse            `json:"ledger"`
	Discrepancies DiscrepanciesResponse       `json:"discrepancies"`
	Status        domain.ReconciliationStatus `json:"status"`
}

// DiscrepanciesResponse is the discrepancy section of a report.
type DiscrepanciesResponse struct {
	Base         decimal.Decimal    `json:"base"`
	Quote        decimal.Decimal    `json:"quote"`
	Count        int                `json:"count"`
	TopOffenders []OffenderResponse `json:"topOffenders"`
}

// OffenderResponse is one user's discrepancy.
type OffenderResponse struct {
	UserID string          `json:"userId"`
	Base   decimal.Decimal `json:"base"`
	Quote  decimal.Decimal `json:"quote"`
}

// ToReconciliationReportResponse converts a domain.ReconciliationReport to its response DTO
func ToReconciliationReportResponse(r *domain.ReconciliationReport) ReconciliationReportResponse {
	offenders := make([]OffenderResponse, len(r.Discrepancies.TopOffenders))
	for i, o := range r.Discrepancies.TopOffenders {
		offenders[i] = OffenderResponse{UserID: o.UserID, Base: o.Base, Quote: o.Quote}
	}
	return ReconciliationReportResponse{
		ReportDate: r.ReportDate,
		TotalUsers: r.TotalUsers,
		Balances:   BalancesResponse{Base: r.Balances.Base, Quote: r.Balances.Quote},
		Ledger:     BalancesResponse{Base: r.Ledger.Base, Quote: r.Ledger.Quote},
		Discrepancies: DiscrepanciesResponse{
			Base:         r.Discrepancies.Base,
			Quote:        r.Discrepancies.Quote,
			Count:        r.Discrepancies.Count,
			TopOffenders: offenders,
		},
		Status: r.Status,
	}
}
