package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distinguishes immediate conversions from resting orders.
type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

// OrderStatus is the lifecycle state of an ExchangeOrder.
type OrderStatus string

const (
	Pending   OrderStatus = "pending"
	Filled    OrderStatus = "filled"
	Cancelled OrderStatus = "cancelled"
	Expired   OrderStatus = "expired"
	Failed    OrderStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s != Pending
}

// ExchangeOrder is one conversion request, either filled immediately (market) or resting (limit).
type ExchangeOrder struct {
	OrderID        string           `json:"orderID"`
	UserID         string           `json:"userID"`
	Side           Side             `json:"side"`
	OrderType      OrderType        `json:"orderType"`
	InputAmount    decimal.Decimal  `json:"inputAmount"`
	InputCurrency  Currency         `json:"inputCurrency"`
	LimitPrice     *decimal.Decimal `json:"limitPrice,omitempty"`
	ExecutionPrice *decimal.Decimal `json:"executionPrice,omitempty"`
	AmountBase     decimal.Decimal  `json:"amountBase"`
	AmountQuote    decimal.Decimal  `json:"amountQuote"`
	FeeBase        decimal.Decimal  `json:"feeBase"`
	FeeQuote       decimal.Decimal  `json:"feeQuote"`
	Status         OrderStatus      `json:"status"`
	FailureReason  string           `json:"failureReason,omitempty"`
	CorrelationID  string           `json:"correlationID"`
	CreatedAt      time.Time        `json:"createdAt"`
	FilledAt       *time.Time       `json:"filledAt,omitempty"`
	CancelledAt    *time.Time       `json:"cancelledAt,omitempty"`
	ExpiresAt      *time.Time       `json:"expiresAt,omitempty"`
}

// IsExpired reports whether the order has an expiry at or before now.
func (o ExchangeOrder) IsExpired(now time.Time) bool {
	return o.ExpiresAt != nil && !now.Before(*o.ExpiresAt)
}

// Crosses reports whether a limit order is executable at price.
// Buys execute when the price is at or below the limit, sells when it is at or above.
func (o ExchangeOrder) Crosses(price decimal.Decimal) bool {
	if o.OrderType != Limit || o.LimitPrice == nil {
		return false
	}
	if o.Side == BuyBase {
		return o.LimitPrice.GreaterThanOrEqual(price)
	}
	return o.LimitPrice.LessThanOrEqual(price)
}

// FillDetails are the amounts written when an order transitions to filled.
type FillDetails struct {
	ExecutionPrice decimal.Decimal
	AmountBase     decimal.Decimal
	AmountQuote    decimal.Decimal
	FeeBase        decimal.Decimal
	FeeQuote       decimal.Decimal
	FilledAt       time.Time
}

// StatusChange describes a conditional status update: it only applies while the order is in From.
type StatusChange struct {
	OrderID string
	From    OrderStatus
	To      OrderStatus
	At      time.Time
	Fill    *FillDetails
	Reason  string
}
