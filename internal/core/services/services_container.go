package services

import (
	"fmt"

	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...ServiceOption) (*portssvc.ServiceContainer, error) {
	params := cfg.ExchangeParams()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exchange parameters: %w", err)
	}

	strategy, err := ParseExecutionStrategy(cfg.ExecutionStrategy)
	if err != nil {
		return nil, err
	}

	opts = append([]ServiceOption{
		WithConflictRetries(cfg.ConflictRetries),
		WithSweepBatchSize(cfg.SweepBatchSize),
		WithReconciliationTolerance(cfg.ReconciliationEpsilon, cfg.ReconciliationTopN),
	}, opts...)

	// The executor is chosen once, by what the store can do.
	executor, err := NewExecutor(repos, strategy, opts...)
	if err != nil {
		return nil, err
	}

	container := &portssvc.ServiceContainer{}
	container.Price = NewPriceService(repos.RateSnapshotRepo, cfg.PriceSymbol, cfg.PriceMaxAge, opts...)
	container.Balance = NewBalanceService(repos.BalanceRepo, executor, params, opts...)
	container.Conversion = NewConversionService(repos.BalanceRepo, container.Price, executor, params, opts...)
	container.Order = NewOrderService(repos.OrderRepo, repos.BalanceRepo, params, opts...)
	container.Sweep = NewSweepService(repos.OrderRepo, repos.BalanceRepo, container.Price, executor, params, opts...)
	container.Reconciliation = NewReconciliationService(repos.BalanceRepo, repos.LedgerRepo, repos.ReconciliationRepo, opts...)

	return container, nil
}
