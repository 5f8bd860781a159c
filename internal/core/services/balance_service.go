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
	"github.com/SscSPs/exchange_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

type balanceService struct {
	BaseService
	balances        portsrepo.BalanceRepositoryFacade
	executor        Executor
	scale           int32
	conflictRetries int
}

// NewBalanceService creates the balance provisioning and funding service.
func NewBalanceService(balances portsrepo.BalanceRepositoryFacade, executor Executor, params domain.ExchangeParams, opts ...ServiceOption) portssvc.BalanceSvcFacade {
	cfg := newServiceConfig(opts)
	return &balanceService{
		BaseService:     cfg.base(),
		balances:        balances,
		executor:        executor,
		scale:           params.AmountScale,
		conflictRetries: cfg.conflictRetries,
	}
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

func (s *balanceService) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	return s.balances.FindBalance(ctx, userID)
}

// ProvisionBalance is idempotent: a user that already has a row gets it back unchanged.
func (s *balanceService) ProvisionBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	}
	existing, err := s.balances.FindBalance(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	balance := domain.Balance{
		UserID:       userID,
		BaseBalance:  decimal.Zero,
		QuoteBalance: decimal.Zero,
		UpdatedAt:    s.Now(),
	}
	if err := s.balances.CreateBalance(ctx, balance); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.balances.FindBalance(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create balance: %w", err)
	}

	s.LogInfo(ctx, "Balance provisioned", slog.String("user_id", userID))
	s.Audit(ctx, domain.AuditEntry{
		Action:       "balance.provisioned",
		ResourceType: "balance",
		ResourceID:   userID,
		UserID:       userID,
		NewValues:    balanceValues(balance),
		Severity:     domain.SeverityInfo,
	})
	return &balance, nil
}

// Deposit credits a user from the external account. Unprovisioned users are provisioned first.
func (s *balanceService) Deposit(ctx context.Context, userID string, req dto.DepositRequest, actor string) (*domain.Balance, error) {
	ctx, correlationID := audit.EnsureCorrelationID(ctx)

	amounts := domain.Amounts{Base: req.Base.Round(s.scale), Quote: req.Quote.Round(s.scale)}
	if amounts.Base.IsNegative() || amounts.Quote.IsNegative() {
		return nil, fmt.Errorf("%w: deposit amounts must not be negative", apperrors.ErrValidation)
	}
	if !amounts.Base.IsPositive() && !amounts.Quote.IsPositive() {
		return nil, fmt.Errorf("%w: deposit must credit at least one currency", apperrors.ErrValidation)
	}

	if _, err := s.ProvisionBalance(ctx, userID); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		current, err := s.balances.FindBalance(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to read balance: %w", err)
		}

		next, err := s.executor.Settle(ctx, Settlement{
			Expected: *current,
			Entries:  accounting.DepositJournal(userID, amounts, correlationID, s.Now()),
		})
		if err == nil {
			s.LogInfo(ctx, "Deposit applied", slog.String("user_id", userID), slog.String("actor", actor))
			s.Audit(ctx, domain.AuditEntry{
				Action:       "balance.deposit",
				ResourceType: "balance",
				ResourceID:   userID,
				UserID:       userID,
				OldValues:    balanceValues(*current),
				NewValues: map[string]any{
					"base_balance":  next.BaseBalance.String(),
					"quote_balance": next.QuoteBalance.String(),
					"actor":         actor,
				},
				Severity: domain.SeverityInfo,
			})
			return next, nil
		}
		if errors.Is(err, apperrors.ErrConflict) && attempt < s.conflictRetries {
			continue
		}
		return nil, err
	}
}
