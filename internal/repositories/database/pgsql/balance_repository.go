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

type PgxBalanceRepository struct {
	BaseRepository
}

func newPgxBalanceRepository(base BaseRepository) portsrepo.BalanceRepositoryFacade {
	return &PgxBalanceRepository{BaseRepository: base}
}

var _ portsrepo.BalanceRepositoryFacade = (*PgxBalanceRepository)(nil)

const balanceColumns = `user_id, base_balance, quote_balance, updated_at`

func scanBalance(row pgx.Row) (models.Balance, error) {
	var m models.Balance
	err := row.Scan(&m.UserID, &m.BaseBalance, &m.QuoteBalance, &m.UpdatedAt)
	return m, err
}

func (r *PgxBalanceRepository) FindBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE user_id = $1;`
	m, err := scanBalance(r.DB.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: balance for user '%s'", apperrors.ErrNotFound, userID)
		}
		return nil, apperrors.NewAppError(500, "failed to find balance for user "+userID, err)
	}
	b := mapping.ToDomainBalance(m)
	return &b, nil
}

func (r *PgxBalanceRepository) ListBalances(ctx context.Context) ([]domain.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances ORDER BY user_id;`
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list balances", err)
	}
	defer rows.Close()

	var balances []domain.Balance
	for rows.Next() {
		m, err := scanBalance(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan balance row", err)
		}
		balances = append(balances, mapping.ToDomainBalance(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating balance rows", err)
	}
	return balances, nil
}

func (r *PgxBalanceRepository) CreateBalance(ctx context.Context, balance domain.Balance) error {
	m := mapping.ToModelBalance(balance)
	query := `
		INSERT INTO balances (user_id, base_balance, quote_balance, updated_at)
		VALUES ($1, $2, $3, $4);
	`
	_, err := r.DB.Exec(ctx, query, m.UserID, m.BaseBalance, m.QuoteBalance, m.UpdatedAt)
	if err != nil {
		if hasPgCode(err, codeUniqueViolation) {
			return fmt.Errorf("%w: balance for user '%s'", apperrors.ErrDuplicate, balance.UserID)
		}
		return apperrors.NewAppError(500, "failed to create balance for user "+balance.UserID, err)
	}
	return nil
}

// CompareAndSwapBalance updates the row only while it still holds the expected amounts.
func (r *PgxBalanceRepository) CompareAndSwapBalance(ctx context.Context, expected, next domain.Balance) error {
	m := mapping.ToModelBalance(next)
	query := `
		UPDATE balances
		SET base_balance = $2, quote_balance = $3, updated_at = $4
		WHERE user_id = $1 AND base_balance = $5 AND quote_balance = $6;
	`
	tag, err := r.DB.Exec(ctx, query,
		expected.UserID,
		m.BaseBalance,
		m.QuoteBalance,
		m.UpdatedAt,
		expected.BaseBalance,
		expected.QuoteBalance,
	)
	if err != nil {
		if hasPgCode(err, codeCheckViolation) {
			return fmt.Errorf("%w: balance for user '%s' would go negative", apperrors.ErrInsufficientBalance, expected.UserID)
		}
		return apperrors.NewAppError(500, "failed to update balance for user "+expected.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindBalance(ctx, expected.UserID); err != nil {
			return err
		}
		return fmt.Errorf("%w: balance for user '%s' changed since it was read", apperrors.ErrConflict, expected.UserID)
	}
	return nil
}
