package advance

import (
	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TransactionTypeDisbursement     TransactionType = "DISBURSEMENT"
	TransactionTypePartialRepayment TransactionType = "PARTIAL_REPAYMENT"
	TransactionTypeFinalRepayment   TransactionType = "FINAL_REPAYMENT"
)

// IsValid checks if the transaction type is defined
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDisbursement, TransactionTypePartialRepayment, TransactionTypeFinalRepayment:
		return true
	}
	return false
}

// AdvanceTransaction is one row of the append-only monetary ledger for a
// contract. balanceAfter of an entry equals balanceBefore of the logically
// next entry for the same contract.
type AdvanceTransaction struct {
	shared.BaseEntity
	ContractID       uuid.UUID       `json:"contract_id"`
	Type             TransactionType `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	BalanceBefore    decimal.Decimal `json:"balance_before"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	PaymentReference string          `json:"payment_reference"`
}

// NewLedgerEntry creates a ledger row for a balance movement
func NewLedgerEntry(contractID uuid.UUID, txType TransactionType, amount, balanceBefore, balanceAfter decimal.Decimal, reference string) *AdvanceTransaction {
	return &AdvanceTransaction{
		BaseEntity:       shared.NewBaseEntity(),
		ContractID:       contractID,
		Type:             txType,
		Amount:           amount,
		BalanceBefore:    balanceBefore,
		BalanceAfter:     balanceAfter,
		PaymentReference: reference,
	}
}
