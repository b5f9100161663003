package persistence

import (
	"context"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAdvanceStatusHistoryRepository implements AdvanceStatusHistoryRepository using GORM
type GormAdvanceStatusHistoryRepository struct {
	db *gorm.DB
}

// NewGormAdvanceStatusHistoryRepository creates a new GormAdvanceStatusHistoryRepository
func NewGormAdvanceStatusHistoryRepository(db *gorm.DB) *GormAdvanceStatusHistoryRepository {
	return &GormAdvanceStatusHistoryRepository{db: db}
}

// Append inserts a status transition row. Rows are never updated or deleted.
func (r *GormAdvanceStatusHistoryRepository) Append(ctx context.Context, history *advance.AdvanceStatusHistory) error {
	model := models.AdvanceStatusHistoryModelFromDomain(history)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByContract returns the transition log for a contract, oldest first
func (r *GormAdvanceStatusHistoryRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]advance.AdvanceStatusHistory, error) {
	var historyModels []models.AdvanceStatusHistoryModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&historyModels).Error; err != nil {
		return nil, err
	}
	entries := make([]advance.AdvanceStatusHistory, len(historyModels))
	for i, model := range historyModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Ensure interface compliance
var _ advance.AdvanceStatusHistoryRepository = (*GormAdvanceStatusHistoryRepository)(nil)
