package dto

import (
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ConvertRequest defines the structure for an immediate-fill conversion.
type ConvertRequest struct {
	Side          domain.Side     `json:"side" binding:"required,oneof=buy sell"`
	InputAmount   decimal.Decimal `json:"inputAmount" binding:"required,dpositive"`
	InputCurrency domain.Currency `json:"inputCurrency" binding:"required,oneof=BASE QUOTE"`
}

// PlaceLimitOrderRequest defines the structure for placing a resting limit order.
type PlaceLimitOrderRequest struct {
	Side          domain.Side     `json:"side" binding:"required,oneof=buy sell"`
	InputAmount   decimal.Decimal `json:"inputAmount" binding:"required,dpositive"`
	InputCurrency domain.Currency `json:"inputCurrency" binding:"required,oneof=BASE QUOTE"`
	LimitPrice    decimal.Decimal `json:"limitPrice" binding:"required,dpositive"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
}

// ListOrdersParams defines the query parameters for listing orders.
type ListOrdersParams struct {
	Status    *domain.OrderStatus `form:"status" binding:"omitempty,oneof=pending filled cancelled expired failed"`
	Limit     int                 `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string             `form:"nextToken"`
}

// BalancesResponse is the base/quote pair returned to callers.
type BalancesResponse struct {
	Base  decimal.Decimal `json:"base"`
	Quote decimal.Decimal `json:"quote"`
}

// BalanceResponse defines the structure for balance reads.
type BalanceResponse struct {
	UserID    string           `json:"userID"`
	Balances  BalancesResponse `json:"balances"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// ToBalanceResponse converts a domain.Balance to BalanceResponse DTO
func ToBalanceResponse(b *domain.Balance) BalanceResponse {
	return BalanceResponse{
		UserID:    b.UserID,
		Balances:  BalancesResponse{Base: b.BaseBalance, Quote: b.QuoteBalance},
		UpdatedAt: b.UpdatedAt,
	}
}

// ConvertResponse defines the structure returned for a filled conversion.
type ConvertResponse struct {
	OrderID        string             `json:"orderId"`
	Status         domain.OrderStatus `json:"status"`
	ExecutionPrice decimal.Decimal    `json:"executionPrice"`
	AmountBase     decimal.Decimal    `json:"amountBase"`
	AmountQuote    decimal.Decimal    `json:"amountQuote"`
	FeeBase        decimal.Decimal    `json:"feeBase"`
	FeeQuote       decimal.Decimal    `json:"feeQuote"`
	NewBalances    BalancesResponse   `json:"newBalances"`
}

// ToConvertResponse converts a filled order and its resulting balance to ConvertResponse DTO
func ToConvertResponse(order domain.ExchangeOrder, balance domain.Balance) ConvertResponse {
	resp := ConvertResponse{
		OrderID:     order.OrderID,
		Status:      order.Status,
		AmountBase:  order.AmountBase,
		AmountQuote: order.AmountQuote,
		FeeBase:     order.FeeBase,
		FeeQuote:    order.FeeQuote,
		NewBalances: BalancesResponse{Base: balance.BaseBalance, Quote: balance.QuoteBalance},
	}
	if order.ExecutionPrice != nil {
		resp.ExecutionPrice = *order.ExecutionPrice
	}
	return resp
}

// OrderResponse defines the structure for API responses containing order details.
type OrderResponse struct {
	OrderID        string             `json:"orderId"`
	Side           domain.Side        `json:"side"`
	OrderType      domain.OrderType   `json:"orderType"`
	InputAmount    decimal.Decimal    `json:"inputAmount"`
	InputCurrency  domain.Currency    `json:"inputCurrency"`
	LimitPrice     *decimal.Decimal   `json:"limitPrice,omitempty"`
	ExecutionPrice *decimal.Decimal   `json:"executionPrice,omitempty"`
	AmountBase     decimal.Decimal    `json:"amountBase"`
	AmountQuote    decimal.Decimal    `json:"amountQuote"`
	FeeBase        decimal.Decimal    `json:"feeBase"`
	FeeQuote       decimal.Decimal    `json:"feeQuote"`
	Status         domain.OrderStatus `json:"status"`
	FailureReason  string             `json:"failureReason,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	FilledAt       *time.Time         `json:"filledAt,omitempty"`
	CancelledAt    *time.Time         `json:"cancelledAt,omitempty"`
	ExpiresAt      *time.Time         `json:"expiresAt,omitempty"`
}

// ToOrderResponse converts a domain.ExchangeOrder to OrderResponse DTO
func ToOrderResponse(o domain.ExchangeOrder) OrderResponse {
	return OrderResponse{
		OrderID:        o.OrderID,
		Side:           o.Side,
		OrderType:      o.OrderType,
		InputAmount:    o.InputAmount,
		InputCurrency:  o.InputCurrency,
		LimitPrice:     o.LimitPrice,
		ExecutionPrice: o.ExecutionPrice,
		AmountBase:     o.AmountBase,
		AmountQuote:    o.AmountQuote,
		FeeBase:        o.FeeBase,
		FeeQuote:       o.FeeQuote,
		Status:         o.Status,
		FailureReason:  o.FailureReason,
		CreatedAt:      o.CreatedAt,
		FilledAt:       o.FilledAt,
		CancelledAt:    o.CancelledAt,
		ExpiresAt:      o.ExpiresAt,
	}
}

// ListOrdersResponse wraps a page of orders.
type ListOrdersResponse struct {
	Orders    []OrderResponse `json:"orders"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToListOrdersResponse converts a page of orders to ListOrdersResponse DTO
func ToListOrdersResponse(orders []domain.ExchangeOrder, nextToken *string) ListOrdersResponse {
	resp := ListOrdersResponse{Orders: make([]OrderResponse, len(orders)), NextToken: nextToken}
	for i, o := range orders {
		resp.Orders[i] = ToOrderResponse(o)
	}
	return resp
}

// CancelOrderResponse is returned for a cancelled order.
type CancelOrderResponse struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
}
