package persistence

import (
	"context"
	"errors"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/agrifin/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDeliveryOrderRepository implements DeliveryOrderRepository using GORM
type GormDeliveryOrderRepository struct {
	db *gorm.DB
}

// NewGormDeliveryOrderRepository creates a new GormDeliveryOrderRepository
func NewGormDeliveryOrderRepository(db *gorm.DB) *GormDeliveryOrderRepository {
	return &GormDeliveryOrderRepository{db: db}
}

// FindByID finds a delivery order by its ID
func (r *GormDeliveryOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*advance.DeliveryOrder, error) {
	var model models.DeliveryOrderModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// MarkAdvanceRequested flags the order as having an advance against it
func (r *GormDeliveryOrderRepository) MarkAdvanceRequested(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.DeliveryOrderModel{}).
		Where("id = ?", id).
		Update("advance_requested", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure interface compliance
var _ advance.DeliveryOrderRepository = (*GormDeliveryOrderRepository)(nil)
