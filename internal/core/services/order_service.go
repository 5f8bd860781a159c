package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/dto"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/google/uuid"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
)

type orderService struct {
	BaseService
	orders   portsrepo.OrderRepositoryFacade
	balances portsrepo.BalanceReader
	params   domain.ExchangeParams
}

// NewOrderService creates the limit order service.
func NewOrderService(orders portsrepo.OrderRepositoryFacade, balances portsrepo.BalanceReader, params domain.ExchangeParams, opts ...ServiceOption) portssvc.OrderSvcFacade {
	cfg := newServiceConfig(opts)
	return &orderService{
		BaseService: cfg.base(),
		orders:      orders,
		balances:    balances,
		params:      params,
	}
}

var _ portssvc.OrderSvcFacade = (*orderService)(nil)

// PlaceLimitOrder records a resting order. Nothing is reserved: funds are checked again when
// the order fills.
func (s *orderService) PlaceLimitOrder(ctx context.Context, userID string, req dto.PlaceLimitOrderRequest) (*domain.ExchangeOrder, error) {
	ctx, correlationID := audit.EnsureCorrelationID(ctx)

	if err := validateOrderInput(req.Side, req.InputAmount, req.InputCurrency); err != nil {
		return nil, err
	}
	if !req.LimitPrice.IsPositive() {
		return nil, fmt.Errorf("%w: limit price must be positive", apperrors.ErrValidation)
	}
	now := s.Now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expiry must be in the future", apperrors.ErrValidation)
	}

	trade, err := priceWithinBounds(req.Side, req.InputAmount, req.InputCurrency, req.LimitPrice, s.params.FeeRate(domain.Limit), s.params)
	if err != nil {
		return nil, err
	}

	if _, err := s.balances.FindBalance(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user '%s' has no balance", apperrors.ErrValidation, userID)
		}
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	limitPrice := req.LimitPrice
	order := domain.ExchangeOrder{
		OrderID:       uuid.NewString(),
		UserID:        userID,
		Side:          req.Side,
		OrderType:     domain.Limit,
		InputAmount:   req.InputAmount,
		InputCurrency: req.InputCurrency,
		LimitPrice:    &limitPrice,
		AmountBase:    trade.AmountBase,
		AmountQuote:   trade.AmountQuote,
		FeeBase:       trade.FeeBase,
		FeeQuote:      trade.FeeQuote,
		Status:        domain.Pending,
		CorrelationID: correlationID,
		CreatedAt:     now,
	}
	if req.ExpiresAt != nil {
		expiresAt := req.ExpiresAt.UTC()
		order.ExpiresAt = &expiresAt
	}

	if err := s.orders.SaveOrder(ctx, order); err != nil {
		s.LogError(ctx, err, "Failed to save limit order", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to save limit order: %w", err)
	}

	s.LogInfo(ctx, "Limit order placed", slog.String("order_id", order.OrderID), slog.String("user_id", userID))
	s.Audit(ctx, domain.AuditEntry{
		Action:       "order.placed",
		ResourceType: "exchange_order",
		ResourceID:   order.OrderID,
		UserID:       userID,
		NewValues: map[string]any{
			"side":           order.Side,
			"input_amount":   order.InputAmount.String(),
			"input_currency": order.InputCurrency,
			"limit_price":    limitPrice.String(),
			"status":         order.Status,
		},
		Severity: domain.SeverityInfo,
	})
	return &order, nil
}

// CancelLimitOrder cancels a pending order owned by userID. Orders of other users are reported as not found.
func (s *orderService) CancelLimitOrder(ctx context.Context, userID string, orderID string) (*domain.ExchangeOrder, error) {
	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order '%s'", apperrors.ErrNotFound, orderID)
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order '%s' is %s", apperrors.ErrInvalidState, orderID, order.Status)
	}

	now := s.Now()
	applied, err := s.orders.TransitionOrder(ctx, domain.StatusChange{
		OrderID: orderID,
		From:    domain.Pending,
		To:      domain.Cancelled,
		At:      now,
		Reason:  "cancelled by user",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: order '%s' is no longer pending", apperrors.ErrInvalidState, orderID)
	}

	order.Status = domain.Cancelled
	order.CancelledAt = &now
	s.Audit(ctx, domain.AuditEntry{
		Action:       "order.cancelled",
		ResourceType: "exchange_order",
		ResourceID:   orderID,
		UserID:       userID,
		OldValues:    map[string]any{"status": domain.Pending},
		NewValues:    map[string]any{"status": domain.Cancelled},
		Severity:     domain.SeverityInfo,
	})
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID string, params dto.ListOrdersParams) ([]domain.ExchangeOrder, *string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultOrderPageSize
	}
	if limit > maxOrderPageSize {
		limit = maxOrderPageSize
	}
	if params.Status != nil && !validStatus(*params.Status) {
		return nil, nil, fmt.Errorf("%w: unknown status '%s'", apperrors.ErrValidation, *params.Status)
	}
	return s.orders.ListOrdersByUser(ctx, userID, params.Status, limit, params.NextToken)
}

func validStatus(st domain.OrderStatus) bool {
	switch st {
	case domain.Pending, domain.Filled, domain.Cancelled, domain.Expired, domain.Failed:
		return true
	}
	return false
}
