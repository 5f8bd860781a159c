package repositories

import (
	"context"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
)

// ReconciliationReader defines read operations for reconciliation reports
type ReconciliationReader interface {
	// FindReport retrieves the report for a date formatted as YYYY-MM-DD.
	FindReport(ctx context.Context, reportDate string) (*domain.ReconciliationReport, error)
}

// ReconciliationWriter defines write operations for reconciliation reports
type ReconciliationWriter interface {
	// UpsertReport inserts the report or replaces the one stored for the same date.
	UpsertReport(ctx context.Context, report domain.ReconciliationReport) error
}

// ReconciliationRepositoryFacade combines all reconciliation-related repository interfaces
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
}
