package advance

import (
	"context"

	"github.com/agrifin/backend/internal/domain/advance"
)

// TransactionScope provides transactional access to the advance repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. Collaborator calls (credit scoring, liquidity pool) never
// happen inside a scope; that is the saga boundary.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all advance repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// ContractRepo returns the contract repository scoped to the current transaction
	ContractRepo() advance.AdvanceContractRepository
	// HistoryRepo returns the status history repository scoped to the current transaction
	HistoryRepo() advance.AdvanceStatusHistoryRepository
	// LedgerRepo returns the ledger repository scoped to the current transaction
	LedgerRepo() advance.AdvanceLedgerRepository
	// OrderRepo returns the delivery order repository scoped to the current transaction
	OrderRepo() advance.DeliveryOrderRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests.
type NoOpTransactionScope struct {
	contractRepo advance.AdvanceContractRepository
	historyRepo  advance.AdvanceStatusHistoryRepository
	ledgerRepo   advance.AdvanceLedgerRepository
	orderRepo    advance.DeliveryOrderRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	contractRepo advance.AdvanceContractRepository,
	historyRepo advance.AdvanceStatusHistoryRepository,
	ledgerRepo advance.AdvanceLedgerRepository,
	orderRepo advance.DeliveryOrderRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		contractRepo: contractRepo,
		historyRepo:  historyRepo,
		ledgerRepo:   ledgerRepo,
		orderRepo:    orderRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ContractRepo returns the contract repository.
func (s *NoOpTransactionScope) ContractRepo() advance.AdvanceContractRepository {
	return s.contractRepo
}

// HistoryRepo returns the status history repository.
func (s *NoOpTransactionScope) HistoryRepo() advance.AdvanceStatusHistoryRepository {
	return s.historyRepo
}

// LedgerRepo returns the ledger repository.
func (s *NoOpTransactionScope) LedgerRepo() advance.AdvanceLedgerRepository {
	return s.ledgerRepo
}

// OrderRepo returns the delivery order repository.
func (s *NoOpTransactionScope) OrderRepo() advance.DeliveryOrderRepository {
	return s.orderRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
