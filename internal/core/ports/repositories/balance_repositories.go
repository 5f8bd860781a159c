package repositories

import (
	"context"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
)

// BalanceReader defines read operations for balance data
type BalanceReader interface {
	// FindBalance retrieves the balance row of a user. Returns apperrors.ErrNotFound if the user was never provisioned.
	FindBalance(ctx context.Context, userID string) (*domain.Balance, error)

	// ListBalances retrieves every balance row, ordered by user ID.
	ListBalances(ctx context.Context) ([]domain.Balance, error)
}

// BalanceWriter defines write operations for balance data
type BalanceWriter interface {
	// CreateBalance inserts a new balance row. Returns apperrors.ErrDuplicate if one exists.
	CreateBalance(ctx context.Context, balance domain.Balance) error

	// CompareAndSwapBalance writes next only if the stored row still holds the amounts in expected.
	// A predicate mismatch returns apperrors.ErrConflict.
	CompareAndSwapBalance(ctx context.Context, expected, next domain.Balance) error
}

// BalanceRepositoryFacade combines all balance-related repository interfaces
type BalanceRepositoryFacade interface {
	BalanceReader
	BalanceWriter
}
