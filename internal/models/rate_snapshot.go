package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSnapshot is the row the price feed upserts per symbol.
type RateSnapshot struct {
	Symbol    string          `db:"symbol"`
	Price     decimal.Decimal `db:"price"`
	UpdatedAt time.Time       `db:"updated_at"`
}
