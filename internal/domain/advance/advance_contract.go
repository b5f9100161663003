package advance

import (
	"fmt"
	"time"

	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/agrifin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdvanceContract is the aggregate root for a short-term cash advance issued
// against a future delivery order. Exactly one contract exists per order;
// contracts are never physically deleted, terminal outcomes are retained for
// audit. The invariant remainingBalance = advanceAmount - amountRepaid holds
// after every mutation and remainingBalance is never negative.
type AdvanceContract struct {
	shared.BaseAggregateRoot
	ContractNumber string               `json:"contract_number"`
	FarmerID       uuid.UUID            `json:"farmer_id"`
	BuyerID        uuid.UUID            `json:"buyer_id"`
	OrderID        uuid.UUID            `json:"order_id"`
	PoolID         *uuid.UUID           `json:"pool_id,omitempty"`
	Currency       valueobject.Currency `json:"currency"`

	OrderAmount         decimal.Decimal `json:"order_amount"`
	AdvancePercentage   decimal.Decimal `json:"advance_percentage"`
	AdvanceAmount       decimal.Decimal `json:"advance_amount"`
	FarmerFeePercentage decimal.Decimal `json:"farmer_fee_percentage"`
	FarmerFeeAmount     decimal.Decimal `json:"farmer_fee_amount"`
	BuyerFeePercentage  decimal.Decimal `json:"buyer_fee_percentage"`
	BuyerFeeAmount      decimal.Decimal `json:"buyer_fee_amount"`
	PlatformFeeTotal    decimal.Decimal `json:"platform_fee_total"`
	NetToFarmer         decimal.Decimal `json:"net_to_farmer"`
	AmountRepaid        decimal.Decimal `json:"amount_repaid"`
	RemainingBalance    decimal.Decimal `json:"remaining_balance"`

	CreditScore int             `json:"credit_score"`
	RiskTier    RiskTier        `json:"risk_tier"`
	FraudScore  decimal.Decimal `json:"fraud_score"`

	Status         AdvanceStatus  `json:"status"`
	ApprovalMethod ApprovalMethod `json:"approval_method"`

	DisbursementReference string          `json:"disbursement_reference,omitempty"`
	DisbursementFee       decimal.Decimal `json:"disbursement_fee"`
	CancelReason          string          `json:"cancel_reason,omitempty"`
	DefaultReason         string          `json:"default_reason,omitempty"`

	RequestedAt        time.Time  `json:"requested_at"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	DisbursedAt        *time.Time `json:"disbursed_at,omitempty"`
	ExpectedDeliveryAt time.Time  `json:"expected_delivery_at"`
	DueDate            time.Time  `json:"due_date"`
	RepaidAt           *time.Time `json:"repaid_at,omitempty"`
}

// NewAdvanceContract creates a contract from an eligible quote. The initial
// status is PENDING_APPROVAL, or APPROVED with approvalMethod AUTOMATIC when
// the credit score meets the auto-approve threshold.
func NewAdvanceContract(contractNumber string, terms *AdvanceTerms) (*AdvanceContract, error) {
	if contractNumber == "" {
		return nil, shared.NewDomainError("INVALID_CONTRACT_NUMBER", "Contract number cannot be empty")
	}
	if terms == nil {
		return nil, shared.NewDomainError("INVALID_TERMS", "Advance terms are required")
	}
	if !terms.IsEligible {
		return nil, shared.NewDomainError("ADVANCE_NOT_ELIGIBLE", "Cannot create a contract from an ineligible quote")
	}
	if terms.ActualAdvanceAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Advance amount must be positive")
	}
	if !terms.RiskTier.IsValid() {
		return nil, shared.NewDomainError("UNKNOWN_RISK_TIER",
			fmt.Sprintf("No advance policy for risk tier %q", terms.RiskTier))
	}

	now := time.Now()
	c := &AdvanceContract{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		ContractNumber:      contractNumber,
		FarmerID:            terms.FarmerID,
		BuyerID:             terms.BuyerID,
		OrderID:             terms.OrderID,
		Currency:            terms.Currency,
		OrderAmount:         terms.OrderAmount,
		AdvancePercentage:   terms.MaxAdvancePercentage,
		AdvanceAmount:       terms.ActualAdvanceAmount,
		FarmerFeePercentage: terms.FarmerFeePercentage,
		FarmerFeeAmount:     terms.FarmerFeeAmount,
		BuyerFeePercentage:  terms.BuyerFeePercentage,
		BuyerFeeAmount:      terms.BuyerFeeAmount,
		PlatformFeeTotal:    terms.PlatformFeeTotal,
		NetToFarmer:         terms.NetToFarmer,
		AmountRepaid:        decimal.Zero,
		RemainingBalance:    terms.ActualAdvanceAmount,
		CreditScore:         terms.CreditScore,
		RiskTier:            terms.RiskTier,
		FraudScore:          terms.FraudScore,
		Status:              StatusPendingApproval,
		ApprovalMethod:      ApprovalMethodManual,
		DisbursementFee:     decimal.Zero,
		RequestedAt:         now,
		ExpectedDeliveryAt:  terms.ExpectedDeliveryAt,
		DueDate:             terms.DueDate,
	}

	if terms.CreditScore >= AutoApproveScoreThreshold {
		c.Status = StatusApproved
		c.ApprovalMethod = ApprovalMethodAutomatic
		c.ApprovedAt = &now
	}

	c.AddDomainEvent(NewAdvanceRequestedEvent(c))
	if c.Status == StatusApproved {
		c.AddDomainEvent(NewAdvanceApprovedEvent(c))
	}

	return c, nil
}

// IsAutoApproved returns true if the contract was approved automatically
func (c *AdvanceContract) IsAutoApproved() bool {
	return c.ApprovalMethod == ApprovalMethodAutomatic
}

// AssignPool records the pool that funded the allocation
func (c *AdvanceContract) AssignPool(poolID uuid.UUID) {
	c.PoolID = &poolID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// TransitionTo moves the contract to newStatus if the adjacency map allows
// it. On success the relevant timestamp is stamped; on failure nothing is
// mutated and an INVALID_TRANSITION error is returned.
func (c *AdvanceContract) TransitionTo(newStatus AdvanceStatus) error {
	if !newStatus.IsValid() {
		return shared.NewDomainError("INVALID_STATUS",
			fmt.Sprintf("%q is not a defined advance status", newStatus))
	}
	if !c.Status.CanTransitionTo(newStatus) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition advance from %s to %s", c.Status, newStatus))
	}

	now := time.Now()
	c.Status = newStatus
	switch newStatus {
	case StatusApproved:
		c.ApprovedAt = &now
	case StatusDisbursed:
		c.DisbursedAt = &now
	case StatusCompleted:
		c.RepaidAt = &now
	}
	c.UpdatedAt = now
	c.IncrementVersion()

	return nil
}

// Cancel moves the contract to CANCELLED recording the reason. Used both for
// operator cancellation and as the saga compensation when capital allocation
// fails after the contract row was committed.
func (c *AdvanceContract) Cancel(reason string) error {
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	if err := c.TransitionTo(StatusCancelled); err != nil {
		return err
	}
	c.CancelReason = reason
	c.AddDomainEvent(NewAdvanceCancelledEvent(c, reason))
	return nil
}

// RecordDisbursement marks the advance as disbursed. Disbursement does not
// change the receivable, so the ledger entry for it carries an unchanged
// balance.
func (c *AdvanceContract) RecordDisbursement(reference string, fee decimal.Decimal) error {
	if c.Status != StatusApproved {
		return shared.NewDomainError("NOT_APPROVED",
			fmt.Sprintf("Cannot disburse advance in %s status", c.Status))
	}
	if err := c.TransitionTo(StatusDisbursed); err != nil {
		return err
	}
	c.DisbursementReference = reference
	if !fee.IsZero() {
		c.DisbursementFee = fee
	}
	c.AddDomainEvent(NewAdvanceDisbursedEvent(c))
	return nil
}

// RepaymentOutcome describes the effect of applying one repayment
type RepaymentOutcome struct {
	AmountApplied decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	FeesCollected decimal.Decimal
	FullyRepaid   bool
	LedgerType    TransactionType
}

// ApplyRepayment applies a payment to the outstanding balance. Amounts above
// the remaining balance are capped, never recorded as applied. Fees are
// collected proportionally to the repaid fraction of the advance.
func (c *AdvanceContract) ApplyRepayment(amount decimal.Decimal) (*RepaymentOutcome, error) {
	if !c.Status.CanRepay() {
		return nil, shared.NewDomainError("NOT_REPAYABLE",
			fmt.Sprintf("Cannot apply repayment to advance in %s status", c.Status))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Repayment amount must be positive")
	}

	balanceBefore := c.RemainingBalance
	applied := amount
	if applied.GreaterThan(c.RemainingBalance) {
		applied = c.RemainingBalance
	}
	newBalance := c.RemainingBalance.Sub(applied)
	fullyRepaid := newBalance.LessThanOrEqual(decimal.Zero)

	feesCollected := decimal.Zero
	if c.AdvanceAmount.IsPositive() {
		feesCollected = valueobject.RoundAmount(
			applied.Div(c.AdvanceAmount).Mul(c.BuyerFeeAmount), valueobject.RoundingHalfUp)
	}

	now := time.Now()
	c.AmountRepaid = c.AmountRepaid.Add(applied)
	c.RemainingBalance = newBalance
	if fullyRepaid {
		c.Status = StatusCompleted
		c.RepaidAt = &now
	} else {
		c.Status = StatusPartiallyRepaid
	}
	c.UpdatedAt = now
	c.IncrementVersion()

	outcome := &RepaymentOutcome{
		AmountApplied: applied,
		BalanceBefore: balanceBefore,
		BalanceAfter:  newBalance,
		FeesCollected: feesCollected,
		FullyRepaid:   fullyRepaid,
		LedgerType:    TransactionTypePartialRepayment,
	}
	if fullyRepaid {
		outcome.LedgerType = TransactionTypeFinalRepayment
		c.AddDomainEvent(NewAdvanceCompletedEvent(c))
	} else {
		c.AddDomainEvent(NewAdvanceRepaymentAppliedEvent(c, applied))
	}

	return outcome, nil
}

// DefaultOutcome describes the effect of writing a contract off
type DefaultOutcome struct {
	RecoveredAmount   decimal.Decimal
	LossAmount        decimal.Decimal
	BalanceWrittenOff decimal.Decimal
}

// MarkDefaulted writes the contract off as a terminal non-repayment outcome.
// Any recovered amount counts as repaid; the rest is the recorded loss. The
// remaining balance is forced to zero so the receivable stops accruing.
func (c *AdvanceContract) MarkDefaulted(reason string, recoveredAmount decimal.Decimal) (*DefaultOutcome, error) {
	if !c.Status.CanDefault() {
		return nil, shared.NewDomainError("NOT_DEFAULTABLE",
			fmt.Sprintf("Cannot default advance in %s status", c.Status))
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Default reason is required")
	}
	if recoveredAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Recovered amount cannot be negative")
	}

	recovered := recoveredAmount
	if recovered.GreaterThan(c.RemainingBalance) {
		recovered = c.RemainingBalance
	}
	loss := c.RemainingBalance.Sub(recovered)
	writtenOff := c.RemainingBalance

	now := time.Now()
	c.Status = StatusDefaulted
	c.DefaultReason = reason
	c.AmountRepaid = c.AmountRepaid.Add(recovered)
	c.RemainingBalance = decimal.Zero
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewAdvanceDefaultedEvent(c, loss, recovered))

	return &DefaultOutcome{
		RecoveredAmount:   recovered,
		LossAmount:        loss,
		BalanceWrittenOff: writtenOff,
	}, nil
}

// IsOverdue returns true if the due date has passed and the contract still
// carries an outstanding balance
func (c *AdvanceContract) IsOverdue() bool {
	if c.Status.IsTerminal() || c.Status == StatusDefaulted {
		return false
	}
	return c.RemainingBalance.IsPositive() && time.Now().After(c.DueDate)
}

// DaysOverdue returns the number of days past due (0 if not overdue)
func (c *AdvanceContract) DaysOverdue() int {
	if !c.IsOverdue() {
		return 0
	}
	return int(time.Since(c.DueDate).Hours() / 24)
}

// GetAdvanceAmountMoney returns the advance amount as Money
func (c *AdvanceContract) GetAdvanceAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(c.AdvanceAmount, c.Currency)
	return m
}

// GetRemainingBalanceMoney returns the outstanding balance as Money
func (c *AdvanceContract) GetRemainingBalanceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(c.RemainingBalance, c.Currency)
	return m
}

// RepaidPercentage returns the percentage of the advance that has been
// repaid (0-100)
func (c *AdvanceContract) RepaidPercentage() decimal.Decimal {
	if c.AdvanceAmount.IsZero() {
		return decimal.NewFromInt(100)
	}
	return c.AmountRepaid.Div(c.AdvanceAmount).Mul(decimal.NewFromInt(100)).Round(2)
}
