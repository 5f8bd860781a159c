package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the balances row of one user.
type Balance struct {
	UserID       string          `db:"user_id"`
	BaseBalance  decimal.Decimal `db:"base_balance"`
	QuoteBalance decimal.Decimal `db:"quote_balance"`
	UpdatedAt    time.Time       `db:"updated_at"`
}
