package advance

// AdvanceStatus represents the lifecycle status of an advance contract
type AdvanceStatus string

const (
	StatusPendingApproval    AdvanceStatus = "PENDING_APPROVAL"
	StatusUnderReview        AdvanceStatus = "UNDER_REVIEW"
	StatusApproved           AdvanceStatus = "APPROVED"
	StatusRejected           AdvanceStatus = "REJECTED"
	StatusDisbursed          AdvanceStatus = "DISBURSED"
	StatusActive             AdvanceStatus = "ACTIVE"
	StatusDeliveryInProgress AdvanceStatus = "DELIVERY_IN_PROGRESS"
	StatusDeliveryConfirmed  AdvanceStatus = "DELIVERY_CONFIRMED"
	StatusPartiallyRepaid    AdvanceStatus = "PARTIALLY_REPAID"
	StatusCompleted          AdvanceStatus = "COMPLETED"
	StatusOverdue            AdvanceStatus = "OVERDUE"
	StatusDefaultWarning     AdvanceStatus = "DEFAULT_WARNING"
	StatusDefaulted          AdvanceStatus = "DEFAULTED"
	StatusInCollections      AdvanceStatus = "IN_COLLECTIONS"
	StatusCancelled          AdvanceStatus = "CANCELLED"
	StatusRefunded           AdvanceStatus = "REFUNDED"
	StatusDisputed           AdvanceStatus = "DISPUTED"
)

// allowedTransitions is the fixed adjacency map of the lifecycle state
// machine. A status missing a successor here can never move to it; terminal
// statuses have no outgoing edges. Adding a status requires adding its row.
var allowedTransitions = map[AdvanceStatus][]AdvanceStatus{
	StatusPendingApproval: {StatusUnderReview, StatusApproved, StatusRejected, StatusCancelled},
	StatusUnderReview:     {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:        {StatusDisbursed, StatusCancelled},
	StatusRejected:        {},
	StatusDisbursed:       {StatusActive, StatusDisputed},
	StatusActive: {
		StatusDeliveryInProgress, StatusDeliveryConfirmed, StatusPartiallyRepaid,
		StatusCompleted, StatusOverdue, StatusDisputed, StatusDefaulted,
	},
	StatusDeliveryInProgress: {
		StatusDeliveryConfirmed, StatusPartiallyRepaid, StatusCompleted,
		StatusOverdue, StatusDisputed, StatusDefaulted,
	},
	StatusDeliveryConfirmed: {
		StatusPartiallyRepaid, StatusCompleted, StatusOverdue, StatusDisputed, StatusDefaulted,
	},
	StatusPartiallyRepaid: {
		StatusCompleted, StatusOverdue, StatusDefaultWarning, StatusDisputed, StatusDefaulted,
	},
	StatusCompleted: {},
	StatusOverdue: {
		StatusPartiallyRepaid, StatusCompleted, StatusDefaultWarning,
		StatusDefaulted, StatusInCollections, StatusDisputed,
	},
	StatusDefaultWarning: {
		StatusPartiallyRepaid, StatusCompleted, StatusDefaulted, StatusInCollections,
	},
	StatusDefaulted:     {StatusInCollections},
	StatusInCollections: {StatusCompleted, StatusDefaulted, StatusRefunded},
	StatusCancelled:     {},
	StatusRefunded:      {},
	StatusDisputed:      {StatusActive, StatusRefunded, StatusDefaulted},
}

// IsValid checks if the status is a defined AdvanceStatus
func (s AdvanceStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// String returns the string representation of the status
func (s AdvanceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status has no outgoing transitions
func (s AdvanceStatus) IsTerminal() bool {
	successors, ok := allowedTransitions[s]
	return ok && len(successors) == 0
}

// CanTransitionTo returns true if the adjacency map allows moving to next
func (s AdvanceStatus) CanTransitionTo(next AdvanceStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanRepay returns true if repayments can be applied in this status
func (s AdvanceStatus) CanRepay() bool {
	switch s {
	case StatusActive, StatusDeliveryInProgress, StatusDeliveryConfirmed,
		StatusPartiallyRepaid, StatusOverdue, StatusDefaultWarning:
		return true
	}
	return false
}

// CanDefault returns true if the contract can be written off in this status
func (s AdvanceStatus) CanDefault() bool {
	return s.CanRepay() || s == StatusInCollections || s == StatusDisputed
}

// ApprovalMethod records how a contract was approved
type ApprovalMethod string

const (
	ApprovalMethodManual    ApprovalMethod = "MANUAL"
	ApprovalMethodAutomatic ApprovalMethod = "AUTOMATIC"
)
