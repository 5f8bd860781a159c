package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
)

// priceService is the price freshness gate.
type priceService struct {
	BaseService
	snapshots portsrepo.RateSnapshotReader
	symbol    string
	maxAge    time.Duration
}

// NewPriceService creates a freshness gate over the feed's snapshot for symbol.
func NewPriceService(snapshots portsrepo.RateSnapshotReader, symbol string, maxAge time.Duration, opts ...ServiceOption) portssvc.PriceSvc {
	cfg := newServiceConfig(opts)
	return &priceService{
		BaseService: cfg.base(),
		snapshots:   snapshots,
		symbol:      symbol,
		maxAge:      maxAge,
	}
}

var _ portssvc.PriceSvc = (*priceService)(nil)

func (s *priceService) CheckFreshness(ctx context.Context) (*domain.Freshness, error) {
	snap, err := s.snapshots.FindRateSnapshot(ctx, s.symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no price published for %s", apperrors.ErrStalePrice, s.symbol)
		}
		s.LogError(ctx, err, "Failed to read rate snapshot", slog.String("symbol", s.symbol))
		return nil, fmt.Errorf("failed to read rate snapshot: %w", err)
	}
	if !snap.Price.IsPositive() {
		return nil, fmt.Errorf("%w: non-positive price %s published for %s", apperrors.ErrInternal, snap.Price, s.symbol)
	}

	age := s.Now().Sub(snap.UpdatedAt)
	return &domain.Freshness{
		IsFresh:      age <= s.maxAge,
		AgeSeconds:   age.Seconds(),
		CurrentPrice: snap.Price,
		LastUpdate:   snap.UpdatedAt,
	}, nil
}

func (s *priceService) RequireFresh(ctx context.Context) (*domain.Freshness, error) {
	f, err := s.CheckFreshness(ctx)
	if err != nil {
		return nil, err
	}
	if err := staleError(f); err != nil {
		s.LogWarn(ctx, "Price feed is stale",
			slog.String("symbol", s.symbol),
			slog.Float64("age_seconds", f.AgeSeconds),
			slog.Duration("max_age", s.maxAge))
		return f, err
	}
	return f, nil
}

// staleError converts a failed freshness verdict into the retryable error callers see.
func staleError(f *domain.Freshness) error {
	if f.IsFresh {
		return nil
	}
	return fmt.Errorf("%w: last update %.0fs ago", apperrors.ErrStalePrice, f.AgeSeconds)
}
