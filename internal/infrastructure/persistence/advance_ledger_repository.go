package persistence

import (
	"context"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAdvanceLedgerRepository implements AdvanceLedgerRepository using GORM
type GormAdvanceLedgerRepository struct {
	db *gorm.DB
}

// NewGormAdvanceLedgerRepository creates a new GormAdvanceLedgerRepository
func NewGormAdvanceLedgerRepository(db *gorm.DB) *GormAdvanceLedgerRepository {
	return &GormAdvanceLedgerRepository{db: db}
}

// Append inserts a ledger entry. The ledger is append-only.
func (r *GormAdvanceLedgerRepository) Append(ctx context.Context, entry *advance.AdvanceTransaction) error {
	model := models.AdvanceTransactionModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByContract returns a contract's ledger entries, oldest first
func (r *GormAdvanceLedgerRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]advance.AdvanceTransaction, error) {
	var transactionModels []models.AdvanceTransactionModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&transactionModels).Error; err != nil {
		return nil, err
	}
	entries := make([]advance.AdvanceTransaction, len(transactionModels))
	for i, model := range transactionModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Ensure interface compliance
var _ advance.AdvanceLedgerRepository = (*GormAdvanceLedgerRepository)(nil)
