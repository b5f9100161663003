package advance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eligibleTerms(t *testing.T, score int) *AdvanceTerms {
	t.Helper()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	in := quoteInput(quoteOrder(10000, now.AddDate(0, 0, 23)), TierB, now)
	in.Assessment.OverallScore = score

	terms, err := CalculateTerms(in)
	require.NoError(t, err)
	require.True(t, terms.IsEligible)
	return terms
}

func activeContract(t *testing.T) *AdvanceContract {
	t.Helper()
	c, err := NewAdvanceContract("ADV-2026-000001", eligibleTerms(t, 750))
	require.NoError(t, err)
	require.NoError(t, c.RecordDisbursement("PAYOUT-001", decimal.Zero))
	require.NoError(t, c.TransitionTo(StatusActive))
	c.ClearDomainEvents()
	return c
}

func TestNewAdvanceContract_AutoApproval(t *testing.T) {
	c, err := NewAdvanceContract("ADV-2026-000001", eligibleTerms(t, 750))
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, c.Status)
	assert.Equal(t, ApprovalMethodAutomatic, c.ApprovalMethod)
	assert.True(t, c.IsAutoApproved())
	assert.NotNil(t, c.ApprovedAt)
	assert.Equal(t, "8000.00", c.AdvanceAmount.StringFixed(2))
	assert.Equal(t, "8000.00", c.RemainingBalance.StringFixed(2))
	assert.True(t, c.AmountRepaid.IsZero())
	assert.Len(t, c.GetDomainEvents(), 2)
}

func TestNewAdvanceContract_ManualApprovalBelowThreshold(t *testing.T) {
	c, err := NewAdvanceContract("ADV-2026-000002", eligibleTerms(t, 650))
	require.NoError(t, err)

	assert.Equal(t, StatusPendingApproval, c.Status)
	assert.Equal(t, ApprovalMethodManual, c.ApprovalMethod)
	assert.Nil(t, c.ApprovedAt)
	assert.Len(t, c.GetDomainEvents(), 1)
}

func TestNewAdvanceContract_Validation(t *testing.T) {
	terms := eligibleTerms(t, 750)

	_, err := NewAdvanceContract("", terms)
	assert.Error(t, err)

	_, err = NewAdvanceContract("ADV-2026-000003", nil)
	assert.Error(t, err)

	ineligible := *terms
	ineligible.IsEligible = false
	_, err = NewAdvanceContract("ADV-2026-000003", &ineligible)
	assert.Error(t, err)
}

func TestTransitionTo_InvalidTransitionLeavesContractUntouched(t *testing.T) {
	c, err := NewAdvanceContract("ADV-2026-000004", eligibleTerms(t, 750))
	require.NoError(t, err)
	require.NoError(t, c.RecordDisbursement("PAYOUT-004", decimal.Zero))
	versionBefore := c.GetVersion()

	err = c.TransitionTo(StatusRejected)
	assert.Error(t, err)
	assert.Equal(t, StatusDisbursed, c.Status)
	assert.Equal(t, versionBefore, c.GetVersion())
}

func TestTransitionTo_UnknownStatus(t *testing.T) {
	c, err := NewAdvanceContract("ADV-2026-000005", eligibleTerms(t, 750))
	require.NoError(t, err)
	assert.Error(t, c.TransitionTo(AdvanceStatus("BOGUS")))
}

func TestCancel(t *testing.T) {
	c, err := NewAdvanceContract("ADV-2026-000006", eligibleTerms(t, 750))
	require.NoError(t, err)

	assert.Error(t, c.Cancel(""))

	require.NoError(t, c.Cancel("allocation failed"))
	assert.Equal(t, StatusCancelled, c.Status)
	assert.Equal(t, "allocation failed", c.CancelReason)

	// Cancelled is terminal.
	assert.Error(t, c.Cancel("again"))
}

func TestRecordDisbursement(t *testing.T) {
	c, err := NewAdvanceContract("ADV-2026-000007", eligibleTerms(t, 750))
	require.NoError(t, err)

	fee := decimal.NewFromFloat(2.50)
	require.NoError(t, c.RecordDisbursement("PAYOUT-007", fee))
	assert.Equal(t, StatusDisbursed, c.Status)
	assert.Equal(t, "PAYOUT-007", c.DisbursementReference)
	assert.Equal(t, "2.50", c.DisbursementFee.StringFixed(2))
	assert.NotNil(t, c.DisbursedAt)
	// Disbursement never touches the receivable.
	assert.Equal(t, "8000.00", c.RemainingBalance.StringFixed(2))

	// Second disbursement is rejected.
	assert.Error(t, c.RecordDisbursement("PAYOUT-007b", decimal.Zero))
}

func TestRecordDisbursement_RequiresApproval(t *testing.T) {
	c, err := NewAdvanceContract("ADV-2026-000008", eligibleTerms(t, 650))
	require.NoError(t, err)
	assert.Error(t, c.RecordDisbursement("PAYOUT-008", decimal.Zero))
}

func TestApplyRepayment_Partial(t *testing.T) {
	c := activeContract(t)

	outcome, err := c.ApplyRepayment(decimal.NewFromInt(3000))
	require.NoError(t, err)

	assert.Equal(t, "3000.00", outcome.AmountApplied.StringFixed(2))
	assert.Equal(t, "8000.00", outcome.BalanceBefore.StringFixed(2))
	assert.Equal(t, "5000.00", outcome.BalanceAfter.StringFixed(2))
	assert.False(t, outcome.FullyRepaid)
	assert.Equal(t, TransactionTypePartialRepayment, outcome.LedgerType)
	// Buyer fee of 80 collected proportionally: 3000/8000 * 80 = 30.
	assert.Equal(t, "30.00", outcome.FeesCollected.StringFixed(2))

	assert.Equal(t, StatusPartiallyRepaid, c.Status)
	assert.Equal(t, "3000.00", c.AmountRepaid.StringFixed(2))
	assert.Equal(t, "5000.00", c.RemainingBalance.StringFixed(2))
	assert.Equal(t, "37.50", c.RepaidPercentage().StringFixed(2))
}

func TestApplyRepayment_FullCompletesContract(t *testing.T) {
	c := activeContract(t)

	outcome, err := c.ApplyRepayment(decimal.NewFromInt(8000))
	require.NoError(t, err)

	assert.True(t, outcome.FullyRepaid)
	assert.Equal(t, TransactionTypeFinalRepayment, outcome.LedgerType)
	assert.Equal(t, "0.00", outcome.BalanceAfter.StringFixed(2))
	assert.Equal(t, StatusCompleted, c.Status)
	assert.NotNil(t, c.RepaidAt)
}

func TestApplyRepayment_OverpaymentIsCapped(t *testing.T) {
	c := activeContract(t)

	outcome, err := c.ApplyRepayment(decimal.NewFromInt(9000))
	require.NoError(t, err)

	// Only the outstanding 8000 is applied, the excess is never recorded.
	assert.Equal(t, "8000.00", outcome.AmountApplied.StringFixed(2))
	assert.True(t, outcome.FullyRepaid)
	assert.Equal(t, "8000.00", c.AmountRepaid.StringFixed(2))
	assert.True(t, c.RemainingBalance.IsZero())
}

func TestApplyRepayment_Validation(t *testing.T) {
	c := activeContract(t)

	_, err := c.ApplyRepayment(decimal.Zero)
	assert.Error(t, err)

	_, err = c.ApplyRepayment(decimal.NewFromInt(-100))
	assert.Error(t, err)

	// Not repayable before activation.
	pending, err := NewAdvanceContract("ADV-2026-000009", eligibleTerms(t, 650))
	require.NoError(t, err)
	_, err = pending.ApplyRepayment(decimal.NewFromInt(100))
	assert.Error(t, err)
}

func TestMarkDefaulted(t *testing.T) {
	c := activeContract(t)
	_, err := c.ApplyRepayment(decimal.NewFromInt(3000))
	require.NoError(t, err)

	outcome, err := c.MarkDefaulted("90 days past due", decimal.NewFromInt(2000))
	require.NoError(t, err)

	assert.Equal(t, "2000.00", outcome.RecoveredAmount.StringFixed(2))
	assert.Equal(t, "3000.00", outcome.LossAmount.StringFixed(2))
	assert.Equal(t, "5000.00", outcome.BalanceWrittenOff.StringFixed(2))

	assert.Equal(t, StatusDefaulted, c.Status)
	assert.Equal(t, "90 days past due", c.DefaultReason)
	assert.True(t, c.RemainingBalance.IsZero())
	assert.Equal(t, "5000.00", c.AmountRepaid.StringFixed(2))
}

func TestMarkDefaulted_RecoveryCappedAtBalance(t *testing.T) {
	c := activeContract(t)

	outcome, err := c.MarkDefaulted("fraud confirmed", decimal.NewFromInt(10000))
	require.NoError(t, err)

	assert.Equal(t, "8000.00", outcome.RecoveredAmount.StringFixed(2))
	assert.True(t, outcome.LossAmount.IsZero())
}

func TestMarkDefaulted_Validation(t *testing.T) {
	c := activeContract(t)

	_, err := c.MarkDefaulted("", decimal.Zero)
	assert.Error(t, err)

	_, err = c.MarkDefaulted("reason", decimal.NewFromInt(-1))
	assert.Error(t, err)

	// A completed contract cannot default.
	done := activeContract(t)
	_, err = done.ApplyRepayment(decimal.NewFromInt(8000))
	require.NoError(t, err)
	_, err = done.MarkDefaulted("reason", decimal.Zero)
	assert.Error(t, err)
}

func TestIsOverdue(t *testing.T) {
	c := activeContract(t)

	c.DueDate = time.Now().AddDate(0, 0, 5)
	assert.False(t, c.IsOverdue())
	assert.Equal(t, 0, c.DaysOverdue())

	c.DueDate = time.Now().AddDate(0, 0, -10)
	assert.True(t, c.IsOverdue())
	assert.Equal(t, 10, c.DaysOverdue())

	// A defaulted contract is no longer overdue, the balance was written off.
	_, err := c.MarkDefaulted("past due", decimal.Zero)
	require.NoError(t, err)
	assert.False(t, c.IsOverdue())
}
