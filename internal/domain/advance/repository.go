package advance

import (
	"context"

	"github.com/google/uuid"
)

// ContractNumberPrefix is the human-readable prefix of contract numbers.
// Full format: ADV-YYYY-NNNNNN, unique and strictly increasing within a year.
const ContractNumberPrefix = "ADV"

// CreateResult is the discriminated outcome of a transactional insert
// attempt. A duplicate order resolves to the pre-existing contract as
// ordinary control flow, not an error.
type CreateResult struct {
	Contract       *AdvanceContract
	AlreadyExisted bool
}

// AdvanceFilter narrows contract listings. SortBy and SortDir are validated
// against a whitelist in the persistence layer; invalid values fall back to
// requested_at DESC.
type AdvanceFilter struct {
	Status   *AdvanceStatus
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

// AdvanceContractRepository persists the AdvanceContract aggregate
type AdvanceContractRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AdvanceContract, error)
	// FindByIDForUpdate reads the contract under a row lock. Callers must be
	// inside a transaction; every balance read-modify-write goes through it.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*AdvanceContract, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*AdvanceContract, error)
	FindByContractNumber(ctx context.Context, contractNumber string) (*AdvanceContract, error)
	FindByFarmer(ctx context.Context, farmerID uuid.UUID, filter AdvanceFilter) ([]AdvanceContract, error)
	CountByFarmer(ctx context.Context, farmerID uuid.UUID, filter AdvanceFilter) (int64, error)
	// NextContractNumber reads the current year maximum under a row lock and
	// returns the next number in sequence. Must be called within the same
	// transaction that inserts the contract.
	NextContractNumber(ctx context.Context, year int) (string, error)
	Create(ctx context.Context, contract *AdvanceContract) error
	Save(ctx context.Context, contract *AdvanceContract) error
	ExistsByOrderID(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// AdvanceStatusHistoryRepository is the append-only status transition log
type AdvanceStatusHistoryRepository interface {
	Append(ctx context.Context, history *AdvanceStatusHistory) error
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]AdvanceStatusHistory, error)
}

// AdvanceLedgerRepository is the append-only monetary ledger
type AdvanceLedgerRepository interface {
	Append(ctx context.Context, entry *AdvanceTransaction) error
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]AdvanceTransaction, error)
}
