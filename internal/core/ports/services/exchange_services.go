package services

import (
	"context"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/dto"
)

// ConversionResult is the filled market order and the balance it produced.
type ConversionResult struct {
	Order      domain.ExchangeOrder
	NewBalance domain.Balance
}

// ConversionSvc executes immediate-fill conversions.
type ConversionSvc interface {
	Convert(ctx context.Context, userID string, req dto.ConvertRequest) (*ConversionResult, error)
}

// OrderReaderSvc defines read operations on a user's orders
type OrderReaderSvc interface {
	// ListOrders returns the user's orders newest first, a token for the next page, and an error.
	ListOrders(ctx context.Context, userID string, params dto.ListOrdersParams) ([]domain.ExchangeOrder, *string, error)
}

// OrderWriterSvc defines limit order placement and cancellation
type OrderWriterSvc interface {
	PlaceLimitOrder(ctx context.Context, userID string, req dto.PlaceLimitOrderRequest) (*domain.ExchangeOrder, error)

	// CancelLimitOrder cancels a pending order owned by userID.
	CancelLimitOrder(ctx context.Context, userID, orderID string) (*domain.ExchangeOrder, error)
}

// OrderSvcFacade combines all order service interfaces
type OrderSvcFacade interface {
	OrderReaderSvc
	OrderWriterSvc
}

// SweepResult summarises one sweep pass.
type SweepResult struct {
	ProcessedOrders int
	TotalCandidates int
	Expired         int
	Failed          int
	Skipped         int
	// Conflicted orders stay pending after losing every balance race of the pass.
	Conflicted   int
	CurrentPrice domain.Freshness
}

// SweepSvc executes eligible resting limit orders.
type SweepSvc interface {
	Sweep(ctx context.Context, triggerSource string) (*SweepResult, error)
}

// ReconciliationSvcFacade runs and reads reconciliation reports.
type ReconciliationSvcFacade interface {
	Reconcile(ctx context.Context) (*domain.ReconciliationReport, error)
	GetReport(ctx context.Context, reportDate string) (*domain.ReconciliationReport, error)
}
