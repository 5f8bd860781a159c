package services

import (
	"context"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/dto"
)

// BalanceReaderSvc defines read operations on balances
type BalanceReaderSvc interface {
	GetBalance(ctx context.Context, userID string) (*domain.Balance, error)
}

// BalanceWriterSvc defines provisioning and funding operations on balances
type BalanceWriterSvc interface {
	// ProvisionBalance creates the zero balance row of a user if it does not exist yet.
	ProvisionBalance(ctx context.Context, userID string) (*domain.Balance, error)

	// Deposit credits a user from the external account, posting the matching ledger entries.
	Deposit(ctx context.Context, userID string, req dto.DepositRequest, actor string) (*domain.Balance, error)
}

// BalanceSvcFacade combines all balance service interfaces
type BalanceSvcFacade interface {
	BalanceReaderSvc
	BalanceWriterSvc
}
