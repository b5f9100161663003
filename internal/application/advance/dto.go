package advance

import (
	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestAdvanceInput carries a farmer's request for an advance against an order
type RequestAdvanceInput struct {
	FarmerID        uuid.UUID
	OrderID         uuid.UUID
	RequestedAmount *decimal.Decimal
	Actor           string
}

// RequestAdvanceResult is the outcome of a creation request. Duplicate
// requests for the same order resolve to the pre-existing contract with
// AlreadyExisted set; both callers observe the same contract.
type RequestAdvanceResult struct {
	Contract       *advance.AdvanceContract `json:"contract"`
	AlreadyExisted bool                     `json:"already_existed"`
}

// TransitionInput drives one state machine transition
type TransitionInput struct {
	ContractID uuid.UUID
	NewStatus  advance.AdvanceStatus
	Actor      string
	Reason     string
}

// DisbursementInput records the payout of an approved advance
type DisbursementInput struct {
	ContractID uuid.UUID
	Reference  string
	Fee        decimal.Decimal
	Actor      string
}

// RepaymentInput applies a payment against the outstanding balance
type RepaymentInput struct {
	ContractID       uuid.UUID
	Amount           decimal.Decimal
	PaymentReference string
	Actor            string
}

// RepaymentResult reports the effect of one repayment
type RepaymentResult struct {
	Contract      *advance.AdvanceContract `json:"contract"`
	AmountApplied decimal.Decimal          `json:"amount_applied"`
	BalanceBefore decimal.Decimal          `json:"balance_before"`
	BalanceAfter  decimal.Decimal          `json:"balance_after"`
	FeesCollected decimal.Decimal          `json:"fees_collected"`
	FullyRepaid   bool                     `json:"fully_repaid"`
}

// DefaultInput writes a contract off
type DefaultInput struct {
	ContractID      uuid.UUID
	Reason          string
	RecoveredAmount decimal.Decimal
	Actor           string
}

// DefaultResult reports the recorded loss
type DefaultResult struct {
	Contract        *advance.AdvanceContract `json:"contract"`
	LossAmount      decimal.Decimal          `json:"loss_amount"`
	RecoveredAmount decimal.Decimal          `json:"recovered_amount"`
}

// AdvanceDetails bundles a contract with its audit trails
type AdvanceDetails struct {
	Contract      *advance.AdvanceContract       `json:"contract"`
	StatusHistory []advance.AdvanceStatusHistory `json:"status_history"`
	Ledger        []advance.AdvanceTransaction   `json:"ledger"`
}
