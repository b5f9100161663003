package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/agrifin/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAdvanceContractRepository implements AdvanceContractRepository using GORM
type GormAdvanceContractRepository struct {
	db *gorm.DB
}

// NewGormAdvanceContractRepository creates a new GormAdvanceContractRepository
func NewGormAdvanceContractRepository(db *gorm.DB) *GormAdvanceContractRepository {
	return &GormAdvanceContractRepository{db: db}
}

// forUpdate adds a row lock on dialects that support it. SQLite serializes
// writers on its own and rejects the FOR UPDATE syntax.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// FindByID finds an advance contract by its ID
func (r *GormAdvanceContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*advance.AdvanceContract, error) {
	var model models.AdvanceContractModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an advance contract by ID under a row lock.
// Must be called within a transaction.
func (r *GormAdvanceContractRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*advance.AdvanceContract, error) {
	var model models.AdvanceContractModel
	if err := forUpdate(r.db.WithContext(ctx)).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds the contract issued against an order
func (r *GormAdvanceContractRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*advance.AdvanceContract, error) {
	var model models.AdvanceContractModel
	if err := r.db.WithContext(ctx).
		First(&model, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByContractNumber finds a contract by its human-readable number
func (r *GormAdvanceContractRepository) FindByContractNumber(ctx context.Context, contractNumber string) (*advance.AdvanceContract, error) {
	var model models.AdvanceContractModel
	if err := r.db.WithContext(ctx).
		First(&model, "contract_number = ?", contractNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByFarmer lists a farmer's contracts, newest first unless the filter
// asks for a different whitelisted ordering
func (r *GormAdvanceContractRepository) FindByFarmer(ctx context.Context, farmerID uuid.UUID, filter advance.AdvanceFilter) ([]advance.AdvanceContract, error) {
	var contractModels []models.AdvanceContractModel
	query := r.db.WithContext(ctx).Model(&models.AdvanceContractModel{}).
		Where("farmer_id = ?", farmerID)
	query = applyAdvanceFilter(query, filter)

	sortField := ValidateSortField(filter.SortBy, AdvanceContractSortFields, "requested_at")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.SortDir))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&contractModels).Error; err != nil {
		return nil, err
	}
	contracts := make([]advance.AdvanceContract, len(contractModels))
	for i, model := range contractModels {
		contracts[i] = *model.ToDomain()
	}
	return contracts, nil
}

// CountByFarmer counts a farmer's contracts matching the filter
func (r *GormAdvanceContractRepository) CountByFarmer(ctx context.Context, farmerID uuid.UUID, filter advance.AdvanceFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.AdvanceContractModel{}).
		Where("farmer_id = ?", farmerID)
	query = applyAdvanceFilter(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func applyAdvanceFilter(query *gorm.DB, filter advance.AdvanceFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// NextContractNumber returns the next number in the ADV-YYYY-NNNNNN sequence.
// The current maximum row is read under a row lock so concurrent creations
// in separate transactions serialize instead of colliding. Must be called
// within the transaction that inserts the contract.
func (r *GormAdvanceContractRepository) NextContractNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", advance.ContractNumberPrefix, year)

	var numbers []string
	err := forUpdate(r.db.WithContext(ctx)).
		Model(&models.AdvanceContractModel{}).
		Where("contract_number LIKE ?", prefix+"%").
		Order("contract_number DESC").
		Limit(1).
		Pluck("contract_number", &numbers).Error
	if err != nil {
		return "", err
	}

	sequence := 1
	if len(numbers) > 0 {
		parts := strings.Split(numbers[0], "-")
		last, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			return "", fmt.Errorf("malformed contract number %q: %w", numbers[0], err)
		}
		sequence = last + 1
	}

	return fmt.Sprintf("%s%06d", prefix, sequence), nil
}

// Create inserts a new contract. A unique index violation on order_id or
// contract_number surfaces as shared.ErrAlreadyExists so callers can resolve
// creation races idempotently.
func (r *GormAdvanceContractRepository) Create(ctx context.Context, contract *advance.AdvanceContract) error {
	model := models.AdvanceContractModelFromDomain(contract)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save persists the full state of an existing contract. Callers serialize
// balance mutations via FindByIDForUpdate.
func (r *GormAdvanceContractRepository) Save(ctx context.Context, contract *advance.AdvanceContract) error {
	model := models.AdvanceContractModelFromDomain(contract)
	return r.db.WithContext(ctx).Save(model).Error
}

// ExistsByOrderID reports whether a contract exists for the order
func (r *GormAdvanceContractRepository) ExistsByOrderID(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AdvanceContractModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure interface compliance
var _ advance.AdvanceContractRepository = (*GormAdvanceContractRepository)(nil)
