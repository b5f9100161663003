package advance

import (
	"context"
	"time"

	"github.com/agrifin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditAssessment is the credit scoring collaborator's view of a farmer
type CreditAssessment struct {
	OverallScore int             `json:"overall_score"`
	RiskTier     RiskTier        `json:"risk_tier"`
	FraudScore   decimal.Decimal `json:"fraud_score"`
}

// EligibilityResult is the outcome of a collaborator eligibility check
type EligibilityResult struct {
	IsEligible bool     `json:"is_eligible"`
	Reason     string   `json:"reason,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

// CreditScoringService is the port to the external credit scoring subsystem.
// The scoring algorithm itself is out of scope; this core only consumes its
// answers and asks for recalculation on terminal repayment outcomes.
type CreditScoringService interface {
	CalculateScore(ctx context.Context, producerID uuid.UUID) (*CreditAssessment, error)
	CheckEligibility(ctx context.Context, producerID uuid.UUID, amount decimal.Decimal, orderID uuid.UUID) (*EligibilityResult, error)
	RecalculateScore(ctx context.Context, producerID uuid.UUID) error
}

// PoolCandidate is an ACTIVE pool able to fund an allocation
type PoolCandidate struct {
	PoolID           uuid.UUID       `json:"pool_id"`
	AvailableCapital decimal.Decimal `json:"available_capital"`
}

// AllocationRequest asks the pool collaborator to reserve capital for a contract
type AllocationRequest struct {
	ContractID          uuid.UUID            `json:"contract_id"`
	PoolID              uuid.UUID            `json:"pool_id"`
	FarmerID            uuid.UUID            `json:"farmer_id"`
	OrderID             uuid.UUID            `json:"order_id"`
	Amount              decimal.Decimal      `json:"amount"`
	Currency            valueobject.Currency `json:"currency"`
	RiskTier            RiskTier             `json:"risk_tier"`
	ExpectedDeliveryAt  time.Time            `json:"expected_delivery_at"`
	ExpectedRepaymentAt time.Time            `json:"expected_repayment_at"`
}

// AllocationResult reports the pool that actually funded the allocation.
// It may differ from the candidate initially chosen by the coordinator.
type AllocationResult struct {
	PoolID uuid.UUID `json:"pool_id"`
}

// CapitalReleaseType distinguishes full from partial capital release
type CapitalReleaseType string

const (
	ReleaseTypeFull    CapitalReleaseType = "FULL"
	ReleaseTypePartial CapitalReleaseType = "PARTIAL"
)

// ReleaseRequest asks the pool collaborator to release allocated capital
// after a repayment
type ReleaseRequest struct {
	ContractID    uuid.UUID          `json:"contract_id"`
	PoolID        uuid.UUID          `json:"pool_id"`
	Amount        decimal.Decimal    `json:"amount"`
	ReleaseType   CapitalReleaseType `json:"release_type"`
	FeesCollected decimal.Decimal    `json:"fees_collected"`
}

// LiquidityPoolService is the port to the external pooled-capital subsystem.
// Its calls happen outside the core's persistence transactions; allocation
// failure is compensated by cancelling the contract, never retried silently.
type LiquidityPoolService interface {
	// FindAllocationCandidate returns the ACTIVE pool with the largest
	// available capital able to cover amount, or nil when none qualifies.
	// Ties are broken deterministically by pool id.
	FindAllocationCandidate(ctx context.Context, amount decimal.Decimal, currency valueobject.Currency) (*PoolCandidate, error)
	AllocateCapital(ctx context.Context, req AllocationRequest) (*AllocationResult, error)
	ReleaseCapital(ctx context.Context, req ReleaseRequest) error
	HandleDefault(ctx context.Context, contractID, poolID uuid.UUID, remainingBalance, recoveredAmount decimal.Decimal) error
}
