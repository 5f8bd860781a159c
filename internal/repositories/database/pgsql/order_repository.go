package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	"github.com/SscSPs/exchange_engine/internal/models"
	"github.com/SscSPs/exchange_engine/internal/utils/mapping"
	"github.com/SscSPs/exchange_engine/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxOrderRepository struct {
	BaseRepository
}

func newPgxOrderRepository(base BaseRepository) portsrepo.OrderRepositoryFacade {
	return &PgxOrderRepository{BaseRepository: base}
}

var _ portsrepo.OrderRepositoryFacade = (*PgxOrderRepository)(nil)

const orderColumns = `
	order_id, user_id, side, order_type, input_amount, input_currency,
	limit_price, execution_price, amount_base, amount_quote, fee_base, fee_quote,
	status, failure_reason, correlation_id, created_at, filled_at, cancelled_at, expires_at`

func scanOrder(row pgx.Row) (models.ExchangeOrder, error) {
	var m models.ExchangeOrder
	err := row.Scan(
		&m.OrderID,
		&m.UserID,
		&m.Side,
		&m.OrderType,
		&m.InputAmount,
		&m.InputCurrency,
		&m.LimitPrice,
		&m.ExecutionPrice,
		&m.AmountBase,
		&m.AmountQuote,
		&m.FeeBase,
		&m.FeeQuote,
		&m.Status,
		&m.FailureReason,
		&m.CorrelationID,
		&m.CreatedAt,
		&m.FilledAt,
		&m.CancelledAt,
		&m.ExpiresAt,
	)
	return m, err
}

func (r *PgxOrderRepository) queryOrders(ctx context.Context, what, query string, args ...any) ([]models.ExchangeOrder, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query "+what, err)
	}
	defer rows.Close()

	var out []models.ExchangeOrder
	for rows.Next() {
		m, err := scanOrder(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan order row for "+what, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating order rows for "+what, err)
	}
	return out, nil
}

func (r *PgxOrderRepository) FindOrderByID(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM exchange_orders WHERE order_id = $1;`
	m, err := scanOrder(r.DB.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order '%s'", apperrors.ErrNotFound, orderID)
		}
		return nil, apperrors.NewAppError(500, "failed to find order "+orderID, err)
	}
	o := mapping.ToDomainExchangeOrder(m)
	return &o, nil
}

// ListOrdersByUser pages newest first on (created_at, order_id).
func (r *PgxOrderRepository) ListOrdersByUser(ctx context.Context, userID string, status *domain.OrderStatus, limit int, nextToken *string) ([]domain.ExchangeOrder, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	query := `SELECT ` + orderColumns + ` FROM exchange_orders WHERE user_id = $1`
	args := []any{userID}
	if status != nil {
		args = append(args, string(*status))
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, err := pagination.DecodeCursorToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		args = append(args, lastCreatedAt, lastID)
		query += fmt.Sprintf(" AND (created_at, order_id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, fetchLimit)
	query += " ORDER BY created_at DESC, order_id DESC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.queryOrders(ctx, "orders of user "+userID, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var nextTokenVal *string
	if len(rows) > limit {
		last := rows[limit-1]
		token := pagination.EncodeCursorToken(last.CreatedAt, last.OrderID)
		nextTokenVal = &token
		rows = rows[:limit]
	}
	return mapping.ToDomainExchangeOrders(rows), nextTokenVal, nil
}

func (r *PgxOrderRepository) ListEligibleLimitOrders(ctx context.Context, price decimal.Decimal, now time.Time, limit int) ([]domain.ExchangeOrder, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM exchange_orders
		WHERE status = 'pending' AND order_type = 'limit'
		  AND (expires_at IS NULL OR expires_at > $2)
		  AND ((side = 'buy' AND limit_price >= $1) OR (side = 'sell' AND limit_price <= $1))
		ORDER BY created_at, order_id
		LIMIT $3;
	`
	rows, err := r.queryOrders(ctx, "eligible limit orders", query, price, now, limit)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainExchangeOrders(rows), nil
}

func (r *PgxOrderRepository) ListExpiredLimitOrders(ctx context.Context, now time.Time, limit int) ([]domain.ExchangeOrder, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM exchange_orders
		WHERE status = 'pending' AND order_type = 'limit' AND expires_at <= $1
		ORDER BY created_at, order_id
		LIMIT $2;
	`
	rows, err := r.queryOrders(ctx, "expired limit orders", query, now, limit)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainExchangeOrders(rows), nil
}

func (r *PgxOrderRepository) SaveOrder(ctx context.Context, order domain.ExchangeOrder) error {
	m := mapping.ToModelExchangeOrder(order)
	query := `
		INSERT INTO exchange_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err := r.DB.Exec(ctx, query,
		m.OrderID,
		m.UserID,
		m.Side,
		m.OrderType,
		m.InputAmount,
		m.InputCurrency,
		m.LimitPrice,
		m.ExecutionPrice,
		m.AmountBase,
		m.AmountQuote,
		m.FeeBase,
		m.FeeQuote,
		m.Status,
		m.FailureReason,
		m.CorrelationID,
		m.CreatedAt,
		m.FilledAt,
		m.CancelledAt,
		m.ExpiresAt,
	)
	if err != nil {
		if hasPgCode(err, codeUniqueViolation) {
			return fmt.Errorf("%w: order '%s'", apperrors.ErrDuplicate, order.OrderID)
		}
		return apperrors.NewAppError(500, "failed to save order "+order.OrderID, err)
	}
	return nil
}

// TransitionOrder is a single conditional UPDATE; zero affected rows means the order left change.From.
func (r *PgxOrderRepository) TransitionOrder(ctx context.Context, change domain.StatusChange) (bool, error) {
	args := []any{change.OrderID, string(change.From), string(change.To)}
	set := "status = $3"

	switch change.To {
	case domain.Filled:
		if f := change.Fill; f != nil {
			set += ", execution_price = $4, amount_base = $5, amount_quote = $6, fee_base = $7, fee_quote = $8, filled_at = $9"
			args = append(args, f.ExecutionPrice, f.AmountBase, f.AmountQuote, f.FeeBase, f.FeeQuote, f.FilledAt.UTC())
		}
	case domain.Pending:
		set += ", execution_price = NULL, filled_at = NULL, failure_reason = $4"
		args = append(args, mapping.NullableText(change.Reason))
	case domain.Cancelled:
		set += ", cancelled_at = $4"
		args = append(args, change.At.UTC())
	default:
		set += ", failure_reason = $4"
		args = append(args, mapping.NullableText(change.Reason))
	}

	query := `UPDATE exchange_orders SET ` + set + ` WHERE order_id = $1 AND status = $2;`
	tag, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to transition order "+change.OrderID+" to "+string(change.To), err)
	}
	return tag.RowsAffected() == 1, nil
}
