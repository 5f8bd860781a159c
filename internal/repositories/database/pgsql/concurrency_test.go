package pgsql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBalanceRow struct {
	balance domain.Balance
	err     error
}

func (r fakeBalanceRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.balance.UserID
	*dest[1].(*decimal.Decimal) = r.balance.BaseBalance
	*dest[2].(*decimal.Decimal) = r.balance.QuoteBalance
	*dest[3].(*time.Time) = r.balance.UpdatedAt
	return nil
}

// fakeDB records the last statement and answers with canned results.
type fakeDB struct {
	tag      string
	execErr  error
	row      pgx.Row
	execSQL  string
	execArgs []any
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execSQL, db.execArgs = sql, args
	return pgconn.NewCommandTag(db.tag), db.execErr
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if db.row == nil {
		return fakeBalanceRow{err: pgx.ErrNoRows}
	}
	return db.row
}

func (db *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompareAndSwapBalance(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expected := domain.Balance{UserID: "user-1", BaseBalance: dec("10"), QuoteBalance: dec("500"), UpdatedAt: now}
	next := domain.Balance{UserID: "user-1", BaseBalance: dec("12"), QuoteBalance: dec("490"), UpdatedAt: now.Add(time.Second)}
	moved := domain.Balance{UserID: "user-1", BaseBalance: dec("11"), QuoteBalance: dec("495"), UpdatedAt: now}

	tests := []struct {
		name    string
		db      *fakeDB
		wantErr error
	}{
		{"applied", &fakeDB{tag: "UPDATE 1"}, nil},
		{"row changed since read", &fakeDB{tag: "UPDATE 0", row: fakeBalanceRow{balance: moved}}, apperrors.ErrConflict},
		{"row missing", &fakeDB{tag: "UPDATE 0"}, apperrors.ErrNotFound},
		{"non-negative check", &fakeDB{execErr: &pgconn.PgError{Code: codeCheckViolation}}, apperrors.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newPgxBalanceRepository(BaseRepository{DB: tt.db})

			err := repo.CompareAndSwapBalance(context.Background(), expected, next)

			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, tt.db.execSQL, "WHERE user_id = $1 AND base_balance = $5 AND quote_balance = $6")
			require.Len(t, tt.db.execArgs, 6)
			assert.Equal(t, "user-1", tt.db.execArgs[0])
			assert.True(t, tt.db.execArgs[1].(decimal.Decimal).Equal(next.BaseBalance))
			assert.True(t, tt.db.execArgs[2].(decimal.Decimal).Equal(next.QuoteBalance))
			assert.True(t, tt.db.execArgs[4].(decimal.Decimal).Equal(expected.BaseBalance))
			assert.True(t, tt.db.execArgs[5].(decimal.Decimal).Equal(expected.QuoteBalance))
		})
	}
}

func TestTransitionOrder(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("cancel only from the expected status", func(t *testing.T) {
		db := &fakeDB{tag: "UPDATE 1"}
		repo := newPgxOrderRepository(BaseRepository{DB: db})

		applied, err := repo.TransitionOrder(context.Background(), domain.StatusChange{
			OrderID: "order-1", From: domain.Pending, To: domain.Cancelled, At: at,
		})

		require.NoError(t, err)
		assert.True(t, applied)
		assert.Contains(t, db.execSQL, "WHERE order_id = $1 AND status = $2")
		assert.Contains(t, db.execSQL, "cancelled_at = $4")
		assert.Equal(t, []any{"order-1", "pending", "cancelled", at}, db.execArgs)
	})

	t.Run("no row in the expected status", func(t *testing.T) {
		db := &fakeDB{tag: "UPDATE 0"}
		repo := newPgxOrderRepository(BaseRepository{DB: db})

		applied, err := repo.TransitionOrder(context.Background(), domain.StatusChange{
			OrderID: "order-1", From: domain.Pending, To: domain.Cancelled, At: at,
		})

		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("fill writes execution details", func(t *testing.T) {
		db := &fakeDB{tag: "UPDATE 1"}
		repo := newPgxOrderRepository(BaseRepository{DB: db})
		fill := domain.FillDetails{
			ExecutionPrice: dec("5"), AmountBase: dec("19.6"), AmountQuote: dec("100"),
			FeeBase: dec("0.4"), FeeQuote: decimal.Zero, FilledAt: at,
		}

		applied, err := repo.TransitionOrder(context.Background(), domain.StatusChange{
			OrderID: "order-1", From: domain.Pending, To: domain.Filled, At: at, Fill: &fill,
		})

		require.NoError(t, err)
		assert.True(t, applied)
		assert.Contains(t, db.execSQL, "execution_price = $4")
		assert.Contains(t, db.execSQL, "WHERE order_id = $1 AND status = $2")
		require.Len(t, db.execArgs, 9)
		assert.Equal(t, "pending", db.execArgs[1])
		assert.Equal(t, "filled", db.execArgs[2])
	})

	t.Run("storage error", func(t *testing.T) {
		db := &fakeDB{execErr: errors.New("connection reset")}
		repo := newPgxOrderRepository(BaseRepository{DB: db})

		applied, err := repo.TransitionOrder(context.Background(), domain.StatusChange{
			OrderID: "order-1", From: domain.Pending, To: domain.Expired, At: at,
		})

		require.Error(t, err)
		assert.False(t, applied)
		assert.True(t, apperrors.IsInternal(err))
	})
}
