package persistence

import (
	"context"

	appadvance "github.com/agrifin/backend/internal/application/advance"
	"github.com/agrifin/backend/internal/domain/advance"
	"gorm.io/gorm"
)

// GormTransactionScope implements the application TransactionScope using
// GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appadvance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides repositories bound to a single
// transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) ContractRepo() advance.AdvanceContractRepository {
	return NewGormAdvanceContractRepository(r.tx)
}

func (r *gormTransactionalRepositories) HistoryRepo() advance.AdvanceStatusHistoryRepository {
	return NewGormAdvanceStatusHistoryRepository(r.tx)
}

func (r *gormTransactionalRepositories) LedgerRepo() advance.AdvanceLedgerRepository {
	return NewGormAdvanceLedgerRepository(r.tx)
}

func (r *gormTransactionalRepositories) OrderRepo() advance.DeliveryOrderRepository {
	return NewGormDeliveryOrderRepository(r.tx)
}

// Ensure interface compliance
var _ appadvance.TransactionScope = (*GormTransactionScope)(nil)
var _ appadvance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
