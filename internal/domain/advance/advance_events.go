package advance

import (
	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants for the advance aggregate
const (
	EventTypeAdvanceRequested        = "advance.requested"
	EventTypeAdvanceApproved         = "advance.approved"
	EventTypeAdvanceCancelled        = "advance.cancelled"
	EventTypeAdvanceDisbursed        = "advance.disbursed"
	EventTypeAdvanceRepaymentApplied = "advance.repayment_applied"
	EventTypeAdvanceCompleted        = "advance.completed"
	EventTypeAdvanceDefaulted        = "advance.defaulted"

	aggregateTypeAdvanceContract = "AdvanceContract"
)

// AdvanceRequestedEvent is raised when a contract is created
type AdvanceRequestedEvent struct {
	shared.BaseDomainEvent
	ContractNumber string          `json:"contract_number"`
	OrderID        string          `json:"order_id"`
	FarmerID       string          `json:"farmer_id"`
	AdvanceAmount  decimal.Decimal `json:"advance_amount"`
}

// NewAdvanceRequestedEvent creates an AdvanceRequestedEvent
func NewAdvanceRequestedEvent(c *AdvanceContract) *AdvanceRequestedEvent {
	return &AdvanceRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdvanceRequested, aggregateTypeAdvanceContract, c.ID),
		ContractNumber:  c.ContractNumber,
		OrderID:         c.OrderID.String(),
		FarmerID:        c.FarmerID.String(),
		AdvanceAmount:   c.AdvanceAmount,
	}
}

// AdvanceApprovedEvent is raised when a contract reaches APPROVED
type AdvanceApprovedEvent struct {
	shared.BaseDomainEvent
	ContractNumber string         `json:"contract_number"`
	ApprovalMethod ApprovalMethod `json:"approval_method"`
}

// NewAdvanceApprovedEvent creates an AdvanceApprovedEvent
func NewAdvanceApprovedEvent(c *AdvanceContract) *AdvanceApprovedEvent {
	return &AdvanceApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdvanceApproved, aggregateTypeAdvanceContract, c.ID),
		ContractNumber:  c.ContractNumber,
		ApprovalMethod:  c.ApprovalMethod,
	}
}

// AdvanceCancelledEvent is raised when a contract is cancelled, including the
// saga compensation path after a failed capital allocation
type AdvanceCancelledEvent struct {
	shared.BaseDomainEvent
	ContractNumber string `json:"contract_number"`
	Reason         string `json:"reason"`
}

// NewAdvanceCancelledEvent creates an AdvanceCancelledEvent
func NewAdvanceCancelledEvent(c *AdvanceContract, reason string) *AdvanceCancelledEvent {
	return &AdvanceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdvanceCancelled, aggregateTypeAdvanceContract, c.ID),
		ContractNumber:  c.ContractNumber,
		Reason:          reason,
	}
}

// AdvanceDisbursedEvent is raised when the advance is paid out
type AdvanceDisbursedEvent struct {
	shared.BaseDomainEvent
	ContractNumber string          `json:"contract_number"`
	NetToFarmer    decimal.Decimal `json:"net_to_farmer"`
	Reference      string          `json:"reference"`
}

// NewAdvanceDisbursedEvent creates an AdvanceDisbursedEvent
func NewAdvanceDisbursedEvent(c *AdvanceContract) *AdvanceDisbursedEvent {
	return &AdvanceDisbursedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdvanceDisbursed, aggregateTypeAdvanceContract, c.ID),
		ContractNumber:  c.ContractNumber,
		NetToFarmer:     c.NetToFarmer,
		Reference:       c.DisbursementReference,
	}
}

// AdvanceRepaymentAppliedEvent is raised on a partial repayment
type AdvanceRepaymentAppliedEvent struct {
	shared.BaseDomainEvent
	ContractNumber   string          `json:"contract_number"`
	AmountApplied    decimal.Decimal `json:"amount_applied"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// NewAdvanceRepaymentAppliedEvent creates an AdvanceRepaymentAppliedEvent
func NewAdvanceRepaymentAppliedEvent(c *AdvanceContract, applied decimal.Decimal) *AdvanceRepaymentAppliedEvent {
	return &AdvanceRepaymentAppliedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeAdvanceRepaymentApplied, aggregateTypeAdvanceContract, c.ID),
		ContractNumber:   c.ContractNumber,
		AmountApplied:    applied,
		RemainingBalance: c.RemainingBalance,
	}
}

// AdvanceCompletedEvent is raised when the advance is fully repaid
type AdvanceCompletedEvent struct {
	shared.BaseDomainEvent
	ContractNumber string          `json:"contract_number"`
	AmountRepaid   decimal.Decimal `json:"amount_repaid"`
}

// NewAdvanceCompletedEvent creates an AdvanceCompletedEvent
func NewAdvanceCompletedEvent(c *AdvanceContract) *AdvanceCompletedEvent {
	return &AdvanceCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdvanceCompleted, aggregateTypeAdvanceContract, c.ID),
		ContractNumber:  c.ContractNumber,
		AmountRepaid:    c.AmountRepaid,
	}
}

// AdvanceDefaultedEvent is raised when the advance is written off
type AdvanceDefaultedEvent struct {
	shared.BaseDomainEvent
	ContractNumber  string          `json:"contract_number"`
	LossAmount      decimal.Decimal `json:"loss_amount"`
	RecoveredAmount decimal.Decimal `json:"recovered_amount"`
}

// NewAdvanceDefaultedEvent creates an AdvanceDefaultedEvent
func NewAdvanceDefaultedEvent(c *AdvanceContract, loss, recovered decimal.Decimal) *AdvanceDefaultedEvent {
	return &AdvanceDefaultedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdvanceDefaulted, aggregateTypeAdvanceContract, c.ID),
		ContractNumber:  c.ContractNumber,
		LossAmount:      loss,
		RecoveredAmount: recovered,
	}
}
