package advance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceStatus_IsValid(t *testing.T) {
	for status := range allowedTransitions {
		assert.True(t, status.IsValid(), "status %s should be valid", status)
	}
	assert.False(t, AdvanceStatus("UNKNOWN").IsValid())
	assert.False(t, AdvanceStatus("").IsValid())
}

func TestAdvanceStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    AdvanceStatus
		to      AdvanceStatus
		allowed bool
	}{
		{"pending to under review", StatusPendingApproval, StatusUnderReview, true},
		{"pending to approved", StatusPendingApproval, StatusApproved, true},
		{"pending to rejected", StatusPendingApproval, StatusRejected, true},
		{"pending straight to disbursed", StatusPendingApproval, StatusDisbursed, false},
		{"under review to approved", StatusUnderReview, StatusApproved, true},
		{"approved to disbursed", StatusApproved, StatusDisbursed, true},
		{"approved to active skips disbursed", StatusApproved, StatusActive, false},
		{"disbursed to active", StatusDisbursed, StatusActive, true},
		{"disbursed back to rejected", StatusDisbursed, StatusRejected, false},
		{"active to partially repaid", StatusActive, StatusPartiallyRepaid, true},
		{"active to completed", StatusActive, StatusCompleted, true},
		{"active to overdue", StatusActive, StatusOverdue, true},
		{"overdue to in collections", StatusOverdue, StatusInCollections, true},
		{"defaulted to in collections", StatusDefaulted, StatusInCollections, true},
		{"in collections to refunded", StatusInCollections, StatusRefunded, true},
		{"disputed back to active", StatusDisputed, StatusActive, true},
		{"completed is terminal", StatusCompleted, StatusActive, false},
		{"cancelled is terminal", StatusCancelled, StatusPendingApproval, false},
		{"rejected is terminal", StatusRejected, StatusUnderReview, false},
		{"refunded is terminal", StatusRefunded, StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestAdvanceStatus_IsTerminal(t *testing.T) {
	terminal := []AdvanceStatus{StatusRejected, StatusCompleted, StatusCancelled, StatusRefunded}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	nonTerminal := []AdvanceStatus{
		StatusPendingApproval, StatusApproved, StatusDisbursed, StatusActive,
		StatusPartiallyRepaid, StatusOverdue, StatusDefaulted, StatusInCollections,
		StatusDisputed,
	}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}

	assert.False(t, AdvanceStatus("UNKNOWN").IsTerminal())
}

func TestAdvanceStatus_CanRepay(t *testing.T) {
	repayable := []AdvanceStatus{
		StatusActive, StatusDeliveryInProgress, StatusDeliveryConfirmed,
		StatusPartiallyRepaid, StatusOverdue, StatusDefaultWarning,
	}
	for _, s := range repayable {
		assert.True(t, s.CanRepay(), "%s should accept repayments", s)
	}

	notRepayable := []AdvanceStatus{
		StatusPendingApproval, StatusApproved, StatusDisbursed, StatusCompleted,
		StatusDefaulted, StatusCancelled, StatusRefunded, StatusDisputed,
	}
	for _, s := range notRepayable {
		assert.False(t, s.CanRepay(), "%s should not accept repayments", s)
	}
}

func TestAdvanceStatus_CanDefault(t *testing.T) {
	// Everything repayable can also default, plus collections and disputes.
	assert.True(t, StatusActive.CanDefault())
	assert.True(t, StatusOverdue.CanDefault())
	assert.True(t, StatusInCollections.CanDefault())
	assert.True(t, StatusDisputed.CanDefault())

	assert.False(t, StatusCompleted.CanDefault())
	assert.False(t, StatusCancelled.CanDefault())
	assert.False(t, StatusDefaulted.CanDefault())
	assert.False(t, StatusPendingApproval.CanDefault())
}
