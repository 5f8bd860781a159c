package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeOrder is one row of exchange_orders. Nullable columns use sql/decimal null wrappers.
type ExchangeOrder struct {
	OrderID        string              `db:"order_id"`
	UserID         string              `db:"user_id"`
	Side           string              `db:"side"`
	OrderType      string              `db:"order_type"`
	InputAmount    decimal.Decimal     `db:"input_amount"`
	InputCurrency  string              `db:"input_currency"`
	LimitPrice     decimal.NullDecimal `db:"limit_price"`
	ExecutionPrice decimal.NullDecimal `db:"execution_price"`
	AmountBase     decimal.Decimal     `db:"amount_base"`
	AmountQuote    decimal.Decimal     `db:"amount_quote"`
	FeeBase        decimal.Decimal     `db:"fee_base"`
	FeeQuote       decimal.Decimal     `db:"fee_quote"`
	Status         string              `db:"status"`
	FailureReason  sql.NullString      `db:"failure_reason"`
	CorrelationID  string              `db:"correlation_id"`
	CreatedAt      time.Time           `db:"created_at"`
	FilledAt       *time.Time          `db:"filled_at"`
	CancelledAt    *time.Time          `db:"cancelled_at"`
	ExpiresAt      *time.Time          `db:"expires_at"`
}
