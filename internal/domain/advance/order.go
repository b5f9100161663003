package advance

import (
	"context"
	"time"

	"github.com/agrifin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryOrder is the read model of a future delivery order that an advance
// is issued against. The order subsystem owns its lifecycle; this core reads
// it and flags it once an advance has been requested.
type DeliveryOrder struct {
	ID                 uuid.UUID            `json:"id"`
	OrderNumber        string               `json:"order_number"`
	FarmerID           uuid.UUID            `json:"farmer_id"`
	BuyerID            uuid.UUID            `json:"buyer_id"`
	Currency           valueobject.Currency `json:"currency"`
	TotalAmount        decimal.Decimal      `json:"total_amount"`
	ExpectedDeliveryAt time.Time            `json:"expected_delivery_at"`
	AdvanceEligible    bool                 `json:"advance_eligible"`
	AdvanceRequested   bool                 `json:"advance_requested"`
}

// DeliveryOrderRepository provides read access to delivery orders plus the
// single flag this core is allowed to set
type DeliveryOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DeliveryOrder, error)
	MarkAdvanceRequested(ctx context.Context, id uuid.UUID) error
}
