package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/core/services"
	"github.com/SscSPs/exchange_engine/internal/dto"
	"github.com/SscSPs/exchange_engine/internal/utils/accounting"
	"github.com/stretchr/testify/suite"
)

type SweepServiceTestSuite struct {
	suite.Suite
	withUnitOfWork bool
	ctx            context.Context
	e              *engine
}

func (s *SweepServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.e = newEngine(s.withUnitOfWork)
	s.e.setPrice("5.00", time.Second)
	s.e.fund("user-1", "100", "1000")
}

func TestSweepServiceTestSuite(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			suite.Run(t, &SweepServiceTestSuite{withUnitOfWork: st.withUnitOfWork})
		})
	}
}

func (s *SweepServiceTestSuite) place(userID string, side domain.Side, amount string, currency domain.Currency, limit string) *domain.ExchangeOrder {
	order, err := s.e.order.PlaceLimitOrder(s.ctx, userID, dto.PlaceLimitOrderRequest{
		Side:          side,
		InputAmount:   dec(amount),
		InputCurrency: currency,
		LimitPrice:    dec(limit),
	})
	s.Require().NoError(err)
	s.e.clock.Advance(time.Millisecond)
	return order
}

func (s *SweepServiceTestSuite) status(orderID string) domain.OrderStatus {
	return s.e.store.Orders()[orderID].Status
}

func (s *SweepServiceTestSuite) TestSweep_FillsCrossingBuyAtCurrentPrice() {
	order := s.place("user-1", domain.BuyBase, "100", domain.Quote, "5.50")

	result, err := s.e.sweep.Sweep(s.ctx, "test")

	s.Require().NoError(err)
	s.Equal(1, result.TotalCandidates)
	s.Equal(1, result.ProcessedOrders)
	s.True(result.CurrentPrice.CurrentPrice.Equal(dec("5")))

	filled := s.e.store.Orders()[order.OrderID]
	s.Equal(domain.Filled, filled.Status)
	s.True(filled.ExecutionPrice.Equal(dec("5")), "fills at the current price, not the limit")
	s.True(filled.AmountBase.Equal(dec("20")))
	s.True(filled.FeeBase.Equal(dec("0.4")), "limit orders pay the limit fee rate")
	s.NotNil(filled.FilledAt)

	b := s.e.balanceOf("user-1")
	s.True(b.BaseBalance.Equal(dec("119.6")))
	s.True(b.QuoteBalance.Equal(dec("900")))

	entries := s.e.entriesFor(order.OrderID)
	s.Len(entries, 5)
	s.NoError(accounting.ValidateJournalBalance(entries))

	audits := s.e.auditsWith("order.filled")
	s.Require().Len(audits, 1)
	s.Equal("5.5", audits[0].NewValues["limit_price"])
	s.Equal("5", audits[0].NewValues["execution_price"])
	s.Equal("119.6", audits[0].NewValues["base_balance"])
}

func (s *SweepServiceTestSuite) TestSweep_SellBelowLimitStaysPending() {
	order := s.place("user-1", domain.SellBase, "10", domain.Base, "4.50")
	s.e.setPrice("4.40", time.Second)

	result, err := s.e.sweep.Sweep(s.ctx, "test")

	s.Require().NoError(err)
	s.Equal(0, result.TotalCandidates)
	s.Equal(0, result.ProcessedOrders)
	s.Equal(domain.Pending, s.status(order.OrderID))
	s.True(s.e.balanceOf("user-1").BaseBalance.Equal(dec("100")))

	s.e.setPrice("4.60", time.Second)
	result, err = s.e.sweep.Sweep(s.ctx, "test")
	s.Require().NoError(err)
	s.Equal(1, result.ProcessedOrders)
	s.Equal(domain.Filled, s.status(order.OrderID))
}

func (s *SweepServiceTestSuite) TestSweep_StalePrice() {
	s.place("user-1", domain.BuyBase, "100", domain.Quote, "5.50")
	s.e.clock.Advance(time.Minute)

	_, err := s.e.sweep.Sweep(s.ctx, "test")

	s.ErrorIs(err, apperrors.ErrStalePrice)
	s.Len(s.e.ordersWithStatus(domain.Pending), 1)
}

func (s *SweepServiceTestSuite) TestSweep_ExpiresOrders() {
	expiresAt := s.e.clock.Now().Add(time.Minute)
	order, err := s.e.order.PlaceLimitOrder(s.ctx, "user-1", dto.PlaceLimitOrderRequest{
		Side: domain.BuyBase, InputAmount: dec("100"), InputCurrency: domain.Quote,
		LimitPrice: dec("5.50"), ExpiresAt: &expiresAt,
	})
	s.Require().NoError(err)

	s.e.clock.Advance(2 * time.Minute)
	s.e.setPrice("5.00", time.Second)
	result, err := s.e.sweep.Sweep(s.ctx, "test")

	s.Require().NoError(err)
	s.Equal(1, result.Expired)
	s.Equal(0, result.ProcessedOrders)
	s.Equal(domain.Expired, s.status(order.OrderID))
	s.True(s.e.balanceOf("user-1").QuoteBalance.Equal(dec("1000")))
	s.Len(s.e.auditsWith("order.expired"), 1)
}

func (s *SweepServiceTestSuite) TestSweep_UnfundableOrderFails() {
	first := s.place("user-1", domain.BuyBase, "600", domain.Quote, "5.50")
	second := s.place("user-1", domain.BuyBase, "600", domain.Quote, "5.50")

	result, err := s.e.sweep.Sweep(s.ctx, "test")

	s.Require().NoError(err)
	s.Equal(2, result.TotalCandidates)
	s.Equal(1, result.ProcessedOrders)
	s.Equal(1, result.Failed)
	s.Equal(domain.Filled, s.status(first.OrderID), "oldest order is executed first")
	s.Equal(domain.Failed, s.status(second.OrderID))
	s.True(s.e.balanceOf("user-1").QuoteBalance.Equal(dec("400")))

	failed := s.e.auditsWith("order.failed")
	s.Require().Len(failed, 1)
	s.Equal(domain.SeverityError, failed[0].Severity)
	s.Equal(second.OrderID, failed[0].ResourceID)
}

func (s *SweepServiceTestSuite) TestSweep_BalanceWriteFailureNeverLeavesOrderFilled() {
	order := s.place("user-1", domain.BuyBase, "100", domain.Quote, "5.50")
	s.e.store.FailNext("CompareAndSwapBalance", errors.New("connection reset"))

	result, err := s.e.sweep.Sweep(s.ctx, "test")

	s.Require().NoError(err)
	s.Equal(0, result.ProcessedOrders)
	s.Equal(1, result.Failed)
	s.Equal(domain.Failed, s.status(order.OrderID))
	s.Empty(s.e.entriesFor(order.OrderID))
	s.True(s.e.balanceOf("user-1").QuoteBalance.Equal(dec("1000")))
	if !s.withUnitOfWork {
		s.Len(s.e.auditsWith("order.rollback"), 1, "the claim is rolled back to pending before the order is failed")
	}
}

func (s *SweepServiceTestSuite) TestSweep_LedgerFailureRestoresBalance() {
	order := s.place("user-1", domain.BuyBase, "100", domain.Quote, "5.50")
	s.e.store.FailNext("AppendEntries", errors.New("disk full"))

	_, err := s.e.sweep.Sweep(s.ctx, "test")

	s.Require().NoError(err)
	s.Equal(domain.Failed, s.status(order.OrderID))
	b := s.e.balanceOf("user-1")
	s.True(b.QuoteBalance.Equal(dec("1000")))
	s.True(b.BaseBalance.Equal(dec("100")))
}

func (s *SweepServiceTestSuite) TestSweep_RetriesLostBalanceRace() {
	order := s.place("user-1", domain.BuyBase, "100", domain.Quote, "5.50")
	s.e.store.FailNext("CompareAndSwapBalance", fmt.Errorf("%w: raced", apperrors.ErrConflict))

	result, err := s.e.sweep.Sweep(s.ctx, "test")

	s.Require().NoError(err)
	s.Equal(1, result.ProcessedOrders)
	s.Equal(domain.Filled, s.status(order.OrderID))
	s.True(s.e.balanceOf("user-1").QuoteBalance.Equal(dec("900")))
	s.Len(s.e.entriesFor(order.OrderID), 5)
}

func (s *SweepServiceTestSuite) TestSweep_PersistentConflictLeavesOrderPending() {
	order := s.place("user-1", domain.BuyBase, "100", domain.Quote, "5.50")
	for i := 0; i < 4; i++ {
		s.e.store.FailNext("CompareAndSwapBalance", fmt.Errorf("%w: raced", apperrors.ErrConflict))
	}

	result, err := s.e.sweep.Sweep(s.ctx, "test")

	s.Require().NoError(err)
	s.Equal(0, result.Failed)
	s.Equal(1, result.Conflicted)
	s.Equal(domain.Pending, s.status(order.OrderID))
	s.True(s.e.balanceOf("user-1").QuoteBalance.Equal(dec("1000")))
	s.Len(s.e.auditsWith("order.fill_conflict"), 1)
}

func (s *SweepServiceTestSuite) TestSweep_ConcurrentSweepsFillEachOrderOnce() {
	users := []string{"user-a", "user-b", "user-c", "user-d", "user-e"}
	var orderIDs []string
	for _, u := range users {
		s.e.fund(u, "0", "500")
		o := s.place(u, domain.BuyBase, "100", domain.Quote, "6")
		orderIDs = append(orderIDs, o.OrderID)
	}

	const sweeps = 4
	var wg sync.WaitGroup
	results := make([]*portssvc.SweepResult, sweeps)
	errs := make([]error, sweeps)
	for i := 0; i < sweeps; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.e.sweep.Sweep(s.ctx, fmt.Sprintf("scheduler-%d", i))
		}(i)
	}
	wg.Wait()

	processed := 0
	for i := 0; i < sweeps; i++ {
		s.Require().NoError(errs[i])
		processed += results[i].ProcessedOrders
	}
	s.Equal(len(users), processed, "every order is filled by exactly one sweep")

	for i, u := range users {
		s.Equal(domain.Filled, s.status(orderIDs[i]))
		s.Len(s.e.entriesFor(orderIDs[i]), 5, "one journal per order")
		b := s.e.balanceOf(u)
		s.True(b.QuoteBalance.Equal(dec("400")), "user %s quote %s", u, b.QuoteBalance)
		s.True(b.BaseBalance.Equal(dec("19.6")), "user %s base %s", u, b.BaseBalance)
	}
	s.Len(s.e.auditsWith("order.filled"), len(users))
}

func (s *SweepServiceTestSuite) TestSweep_BatchSizeCapsCandidates() {
	e := newEngine(s.withUnitOfWork, services.WithSweepBatchSize(2))
	e.setPrice("5.00", time.Second)
	e.fund("user-1", "0", "1000")
	for i := 0; i < 3; i++ {
		_, err := e.order.PlaceLimitOrder(s.ctx, "user-1", dto.PlaceLimitOrderRequest{
			Side: domain.BuyBase, InputAmount: dec("10"), InputCurrency: domain.Quote, LimitPrice: dec("5"),
		})
		s.Require().NoError(err)
		e.clock.Advance(time.Millisecond)
	}

	result, err := e.sweep.Sweep(s.ctx, "test")

	s.Require().NoError(err)
	s.Equal(2, result.TotalCandidates)
	s.Equal(2, result.ProcessedOrders)
	s.Len(e.ordersWithStatus(domain.Pending), 1)
}
