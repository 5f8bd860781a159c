package services

import (
	"context"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
)

// PriceSvc is the price freshness gate.
type PriceSvc interface {
	// CheckFreshness reads the latest snapshot and reports its age. It does not fail on a stale snapshot.
	CheckFreshness(ctx context.Context) (*domain.Freshness, error)

	// RequireFresh is CheckFreshness that fails with apperrors.ErrStalePrice when the snapshot is too old.
	RequireFresh(ctx context.Context) (*domain.Freshness, error)
}
