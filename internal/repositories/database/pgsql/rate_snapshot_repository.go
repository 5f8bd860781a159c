package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	"github.com/SscSPs/exchange_engine/internal/models"
	"github.com/SscSPs/exchange_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

// PgxRateSnapshotRepository reads the rows the external price feed maintains.
type PgxRateSnapshotRepository struct {
	BaseRepository
}

func newPgxRateSnapshotRepository(base BaseRepository) portsrepo.RateSnapshotReader {
	return &PgxRateSnapshotRepository{BaseRepository: base}
}

var _ portsrepo.RateSnapshotReader = (*PgxRateSnapshotRepository)(nil)

func (r *PgxRateSnapshotRepository) FindRateSnapshot(ctx context.Context, symbol string) (*domain.RateSnapshot, error) {
	query := `SELECT symbol, price, updated_at FROM rate_snapshots WHERE symbol = $1;`
	var m models.RateSnapshot
	err := r.DB.QueryRow(ctx, query, symbol).Scan(&m.Symbol, &m.Price, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: rate snapshot '%s'", apperrors.ErrNotFound, symbol)
		}
		return nil, apperrors.NewAppError(500, "failed to find rate snapshot "+symbol, err)
	}
	s := mapping.ToDomainRateSnapshot(m)
	return &s, nil
}
