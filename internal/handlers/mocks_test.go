package handlers_test

import (
	"context"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock ConversionService ---
type MockConversionService struct {
	mock.Mock
}

func (m *MockConversionService) Convert(ctx context.Context, userID string, req dto.ConvertRequest) (*portssvc.ConversionResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.ConversionResult), args.Error(1)
}

var _ portssvc.ConversionSvc = (*MockConversionService)(nil)

// --- Mock OrderService ---
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) ListOrders(ctx context.Context, userID string, params dto.ListOrdersParams) ([]domain.ExchangeOrder, *string, error) {
	args := m.Called(ctx, userID, params)
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, next, args.Error(2)
	}
	return args.Get(0).([]domain.ExchangeOrder), next, args.Error(2)
}

func (m *MockOrderService) PlaceLimitOrder(ctx context.Context, userID string, req dto.PlaceLimitOrderRequest) (*domain.ExchangeOrder, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeOrder), args.Error(1)
}

func (m *MockOrderService) CancelLimitOrder(ctx context.Context, userID, orderID string) (*domain.ExchangeOrder, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeOrder), args.Error(1)
}

var _ portssvc.OrderSvcFacade = (*MockOrderService)(nil)

// --- Mock BalanceService ---
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockBalanceService) ProvisionBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockBalanceService) Deposit(ctx context.Context, userID string, req dto.DepositRequest, actor string) (*domain.Balance, error) {
	args := m.Called(ctx, userID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

var _ portssvc.BalanceSvcFacade = (*MockBalanceService)(nil)

// --- Mock SweepService ---
type MockSweepService struct {
	mock.Mock
}

func (m *MockSweepService) Sweep(ctx context.Context, triggerSource string) (*portssvc.SweepResult, error) {
	args := m.Called(ctx, triggerSource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.SweepResult), args.Error(1)
}

var _ portssvc.SweepSvc = (*MockSweepService)(nil)

// --- Mock ReconciliationService ---
type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) Reconcile(ctx context.Context) (*domain.ReconciliationReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationReport), args.Error(1)
}

func (m *MockReconciliationService) GetReport(ctx context.Context, reportDate string) (*domain.ReconciliationReport, error) {
	args := m.Called(ctx, reportDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationReport), args.Error(1)
}

var _ portssvc.ReconciliationSvcFacade = (*MockReconciliationService)(nil)

// --- Mock PriceService ---
type MockPriceService struct {
	mock.Mock
}

func (m *MockPriceService) CheckFreshness(ctx context.Context) (*domain.Freshness, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Freshness), args.Error(1)
}

func (m *MockPriceService) RequireFresh(ctx context.Context) (*domain.Freshness, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Freshness), args.Error(1)
}

var _ portssvc.PriceSvc = (*MockPriceService)(nil)
