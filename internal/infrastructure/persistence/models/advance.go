package models

import (
	"time"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdvanceContractModel is the persistence model for the AdvanceContract
// aggregate root. The unique index on order_id enforces one contract per
// order at the database level.
type AdvanceContractModel struct {
	AggregateModel
	ContractNumber string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	FarmerID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	BuyerID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	OrderID        uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	PoolID         *uuid.UUID           `gorm:"type:uuid;index"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`

	OrderAmount         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AdvancePercentage   decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	AdvanceAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FarmerFeePercentage decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	FarmerFeeAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BuyerFeePercentage  decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	BuyerFeeAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PlatformFeeTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NetToFarmer         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountRepaid        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RemainingBalance    decimal.Decimal `gorm:"type:decimal(18,4);not null;index"`

	CreditScore int                    `gorm:"not null"`
	RiskTier    advance.RiskTier       `gorm:"type:varchar(1);not null"`
	FraudScore  decimal.Decimal        `gorm:"type:decimal(8,4);not null"`
	Status      advance.AdvanceStatus  `gorm:"type:varchar(30);not null;default:'PENDING_APPROVAL';index"`
	Approval    advance.ApprovalMethod `gorm:"column:approval_method;type:varchar(10);not null"`

	DisbursementReference string          `gorm:"type:varchar(100)"`
	DisbursementFee       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CancelReason          string          `gorm:"type:varchar(500)"`
	DefaultReason         string          `gorm:"type:varchar(500)"`

	RequestedAt        time.Time `gorm:"not null"`
	ApprovedAt         *time.Time
	DisbursedAt        *time.Time
	ExpectedDeliveryAt time.Time `gorm:"not null"`
	DueDate            time.Time `gorm:"not null;index"`
	RepaidAt           *time.Time
}

// TableName returns the table name for GORM
func (AdvanceContractModel) TableName() string {
	return "advance_contracts"
}

// ToDomain converts the persistence model to a domain AdvanceContract.
func (m *AdvanceContractModel) ToDomain() *advance.AdvanceContract {
	return &advance.AdvanceContract{
		BaseAggregateRoot:     m.ToDomainAggregateRoot(),
		ContractNumber:        m.ContractNumber,
		FarmerID:              m.FarmerID,
		BuyerID:               m.BuyerID,
		OrderID:               m.OrderID,
		PoolID:                m.PoolID,
		Currency:              m.Currency,
		OrderAmount:           m.OrderAmount,
		AdvancePercentage:     m.AdvancePercentage,
		AdvanceAmount:         m.AdvanceAmount,
		FarmerFeePercentage:   m.FarmerFeePercentage,
		FarmerFeeAmount:       m.FarmerFeeAmount,
		BuyerFeePercentage:    m.BuyerFeePercentage,
		BuyerFeeAmount:        m.BuyerFeeAmount,
		PlatformFeeTotal:      m.PlatformFeeTotal,
		NetToFarmer:           m.NetToFarmer,
		AmountRepaid:          m.AmountRepaid,
		RemainingBalance:      m.RemainingBalance,
		CreditScore:           m.CreditScore,
		RiskTier:              m.RiskTier,
		FraudScore:            m.FraudScore,
		Status:                m.Status,
		ApprovalMethod:        m.Approval,
		DisbursementReference: m.DisbursementReference,
		DisbursementFee:       m.DisbursementFee,
		CancelReason:          m.CancelReason,
		DefaultReason:         m.DefaultReason,
		RequestedAt:           m.RequestedAt,
		ApprovedAt:            m.ApprovedAt,
		DisbursedAt:           m.DisbursedAt,
		ExpectedDeliveryAt:    m.ExpectedDeliveryAt,
		DueDate:               m.DueDate,
		RepaidAt:              m.RepaidAt,
	}
}

// FromDomain populates the persistence model from a domain AdvanceContract.
func (m *AdvanceContractModel) FromDomain(c *advance.AdvanceContract) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.ContractNumber = c.ContractNumber
	m.FarmerID = c.FarmerID
	m.BuyerID = c.BuyerID
	m.OrderID = c.OrderID
	m.PoolID = c.PoolID
	m.Currency = c.Currency
	m.OrderAmount = c.OrderAmount
	m.AdvancePercentage = c.AdvancePercentage
	m.AdvanceAmount = c.AdvanceAmount
	m.FarmerFeePercentage = c.FarmerFeePercentage
	m.FarmerFeeAmount = c.FarmerFeeAmount
	m.BuyerFeePercentage = c.BuyerFeePercentage
	m.BuyerFeeAmount = c.BuyerFeeAmount
	m.PlatformFeeTotal = c.PlatformFeeTotal
	m.NetToFarmer = c.NetToFarmer
	m.AmountRepaid = c.AmountRepaid
	m.RemainingBalance = c.RemainingBalance
	m.CreditScore = c.CreditScore
	m.RiskTier = c.RiskTier
	m.FraudScore = c.FraudScore
	m.Status = c.Status
	m.Approval = c.ApprovalMethod
	m.DisbursementReference = c.DisbursementReference
	m.DisbursementFee = c.DisbursementFee
	m.CancelReason = c.CancelReason
	m.DefaultReason = c.DefaultReason
	m.RequestedAt = c.RequestedAt
	m.ApprovedAt = c.ApprovedAt
	m.DisbursedAt = c.DisbursedAt
	m.ExpectedDeliveryAt = c.ExpectedDeliveryAt
	m.DueDate = c.DueDate
	m.RepaidAt = c.RepaidAt
}

// AdvanceContractModelFromDomain creates a new persistence model from a
// domain AdvanceContract.
func AdvanceContractModelFromDomain(c *advance.AdvanceContract) *AdvanceContractModel {
	m := &AdvanceContractModel{}
	m.FromDomain(c)
	return m
}

// AdvanceStatusHistoryModel is the persistence model for the append-only
// status transition log.
type AdvanceStatusHistoryModel struct {
	BaseModel
	ContractID uuid.UUID             `gorm:"type:uuid;not null;index"`
	FromStatus advance.AdvanceStatus `gorm:"type:varchar(30)"`
	ToStatus   advance.AdvanceStatus `gorm:"type:varchar(30);not null"`
	Actor      string                `gorm:"type:varchar(100);not null"`
	Reason     string                `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (AdvanceStatusHistoryModel) TableName() string {
	return "advance_status_history"
}

// ToDomain converts the persistence model to a domain AdvanceStatusHistory.
func (m *AdvanceStatusHistoryModel) ToDomain() *advance.AdvanceStatusHistory {
	return &advance.AdvanceStatusHistory{
		BaseEntity: m.BaseModel.ToDomain(),
		ContractID: m.ContractID,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		Actor:      m.Actor,
		Reason:     m.Reason,
	}
}

// AdvanceStatusHistoryModelFromDomain creates a persistence model from a
// domain history row.
func AdvanceStatusHistoryModelFromDomain(h *advance.AdvanceStatusHistory) *AdvanceStatusHistoryModel {
	m := &AdvanceStatusHistoryModel{
		ContractID: h.ContractID,
		FromStatus: h.FromStatus,
		ToStatus:   h.ToStatus,
		Actor:      h.Actor,
		Reason:     h.Reason,
	}
	m.FromDomainBaseEntity(h.BaseEntity)
	return m
}

// AdvanceTransactionModel is the persistence model for the append-only
// monetary ledger.
type AdvanceTransactionModel struct {
	BaseModel
	ContractID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	Type             advance.TransactionType `gorm:"type:varchar(20);not null"`
	Amount           decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	BalanceBefore    decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	BalanceAfter     decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	PaymentReference string                  `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (AdvanceTransactionModel) TableName() string {
	return "advance_transactions"
}

// ToDomain converts the persistence model to a domain AdvanceTransaction.
func (m *AdvanceTransactionModel) ToDomain() *advance.AdvanceTransaction {
	return &advance.AdvanceTransaction{
		BaseEntity:       m.BaseModel.ToDomain(),
		ContractID:       m.ContractID,
		Type:             m.Type,
		Amount:           m.Amount,
		BalanceBefore:    m.BalanceBefore,
		BalanceAfter:     m.BalanceAfter,
		PaymentReference: m.PaymentReference,
	}
}

// AdvanceTransactionModelFromDomain creates a persistence model from a
// domain ledger entry.
func AdvanceTransactionModelFromDomain(t *advance.AdvanceTransaction) *AdvanceTransactionModel {
	m := &AdvanceTransactionModel{
		ContractID:       t.ContractID,
		Type:             t.Type,
		Amount:           t.Amount,
		BalanceBefore:    t.BalanceBefore,
		BalanceAfter:     t.BalanceAfter,
		PaymentReference: t.PaymentReference,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}

// DeliveryOrderModel is the read model of the order subsystem's delivery
// orders. The advance core reads it and only ever flips AdvanceRequested.
type DeliveryOrderModel struct {
	ID                 uuid.UUID            `gorm:"type:uuid;primary_key"`
	OrderNumber        string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	FarmerID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	BuyerID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	Currency           valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	TotalAmount        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	ExpectedDeliveryAt time.Time            `gorm:"not null"`
	AdvanceEligible    bool                 `gorm:"not null;default:false"`
	AdvanceRequested   bool                 `gorm:"not null;default:false"`
	CreatedAt          time.Time            `gorm:"not null"`
	UpdatedAt          time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DeliveryOrderModel) TableName() string {
	return "delivery_orders"
}

// ToDomain converts the persistence model to a domain DeliveryOrder.
func (m *DeliveryOrderModel) ToDomain() *advance.DeliveryOrder {
	return &advance.DeliveryOrder{
		ID:                 m.ID,
		OrderNumber:        m.OrderNumber,
		FarmerID:           m.FarmerID,
		BuyerID:            m.BuyerID,
		Currency:           m.Currency,
		TotalAmount:        m.TotalAmount,
		ExpectedDeliveryAt: m.ExpectedDeliveryAt,
		AdvanceEligible:    m.AdvanceEligible,
		AdvanceRequested:   m.AdvanceRequested,
	}
}
