package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSnapshot is the last price written by the external feed, in quote per base unit.
type RateSnapshot struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Freshness is the result of checking a snapshot against a maximum age.
type Freshness struct {
	IsFresh      bool            `json:"isFresh"`
	AgeSeconds   float64         `json:"ageSeconds"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	LastUpdate   time.Time       `json:"lastUpdate"`
}
