package advance

import (
	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AdvanceStatusHistory is one row of the append-only status transition log.
// Rows are never mutated or deleted; every transition writes exactly one,
// including the initial creation (fromStatus empty).
type AdvanceStatusHistory struct {
	shared.BaseEntity
	ContractID uuid.UUID     `json:"contract_id"`
	FromStatus AdvanceStatus `json:"from_status"`
	ToStatus   AdvanceStatus `json:"to_status"`
	Actor      string        `json:"actor"`
	Reason     string        `json:"reason"`
}

// NewStatusHistory creates a history row for a transition
func NewStatusHistory(contractID uuid.UUID, from, to AdvanceStatus, actor, reason string) *AdvanceStatusHistory {
	return &AdvanceStatusHistory{
		BaseEntity: shared.NewBaseEntity(),
		ContractID: contractID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Reason:     reason,
	}
}
