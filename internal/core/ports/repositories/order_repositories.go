package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OrderReader defines read operations for exchange orders
type OrderReader interface {
	// FindOrderByID retrieves an order by its ID.
	FindOrderByID(ctx context.Context, orderID string) (*domain.ExchangeOrder, error)

	// ListOrdersByUser retrieves a user's orders, newest first, using token-based pagination.
	// It returns the orders, a token for the next page, and an error.
	ListOrdersByUser(ctx context.Context, userID string, status *domain.OrderStatus, limit int, nextToken *string) ([]domain.ExchangeOrder, *string, error)

	// ListEligibleLimitOrders retrieves pending, non-expired limit orders that cross price, oldest first.
	ListEligibleLimitOrders(ctx context.Context, price decimal.Decimal, now time.Time, limit int) ([]domain.ExchangeOrder, error)

	// ListExpiredLimitOrders retrieves pending limit orders whose expiry is at or before now, oldest first.
	ListExpiredLimitOrders(ctx context.Context, now time.Time, limit int) ([]domain.ExchangeOrder, error)
}

// OrderWriter defines write operations for exchange orders
type OrderWriter interface {
	// SaveOrder inserts a new order in whatever status it carries.
	SaveOrder(ctx context.Context, order domain.ExchangeOrder) error

	// TransitionOrder applies change only while the order is still in change.From.
	// It reports false, with no error, when the order was not in that status.
	TransitionOrder(ctx context.Context, change domain.StatusChange) (bool, error)
}

// OrderRepositoryFacade combines all order-related repository interfaces
type OrderRepositoryFacade interface {
	OrderReader
	OrderWriter
}
