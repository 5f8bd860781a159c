package repositories

import (
	"context"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
)

// RateSnapshotReader defines read operations for the price feed's snapshots.
// Snapshots are written by the external feed only.
type RateSnapshotReader interface {
	// FindRateSnapshot retrieves the latest snapshot for symbol.
	FindRateSnapshot(ctx context.Context, symbol string) (*domain.RateSnapshot, error)
}
