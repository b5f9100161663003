package persistence

import (
	"context"
	"testing"
	"time"

	appadvance "github.com/agrifin/backend/internal/application/advance"
	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/domain/shared/valueobject"
	"github.com/agrifin/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The tests below run the full creation flow against real repositories and a
// real transaction scope, so the unique index on order_id and the in-transaction
// duplicate re-check are exercised rather than mocked.

type stubCreditService struct{}

func (stubCreditService) CalculateScore(context.Context, uuid.UUID) (*advance.CreditAssessment, error) {
	return &advance.CreditAssessment{
		OverallScore: 750,
		RiskTier:     advance.TierB,
		FraudScore:   decimal.NewFromFloat(0.1),
	}, nil
}

func (stubCreditService) CheckEligibility(context.Context, uuid.UUID, decimal.Decimal, uuid.UUID) (*advance.EligibilityResult, error) {
	return &advance.EligibilityResult{IsEligible: true}, nil
}

func (stubCreditService) RecalculateScore(context.Context, uuid.UUID) error {
	return nil
}

// stubPoolService funds everything from one pool. onFindCandidate fires once,
// between the quote and the contract transaction, which is exactly the window
// where a competing request can commit first.
type stubPoolService struct {
	poolID          uuid.UUID
	onFindCandidate func()
}

func (s *stubPoolService) FindAllocationCandidate(context.Context, decimal.Decimal, valueobject.Currency) (*advance.PoolCandidate, error) {
	if s.onFindCandidate != nil {
		hook := s.onFindCandidate
		s.onFindCandidate = nil
		hook()
	}
	return &advance.PoolCandidate{
		PoolID:           s.poolID,
		AvailableCapital: decimal.NewFromInt(1_000_000),
	}, nil
}

func (s *stubPoolService) AllocateCapital(_ context.Context, req advance.AllocationRequest) (*advance.AllocationResult, error) {
	return &advance.AllocationResult{PoolID: req.PoolID}, nil
}

func (s *stubPoolService) ReleaseCapital(context.Context, advance.ReleaseRequest) error {
	return nil
}

func (s *stubPoolService) HandleDefault(context.Context, uuid.UUID, uuid.UUID, decimal.Decimal, decimal.Decimal) error {
	return nil
}

func newFlowService(db *gorm.DB, pool advance.LiquidityPoolService) *appadvance.AdvanceService {
	contractRepo := NewGormAdvanceContractRepository(db)
	historyRepo := NewGormAdvanceStatusHistoryRepository(db)
	ledgerRepo := NewGormAdvanceLedgerRepository(db)
	orderRepo := NewGormDeliveryOrderRepository(db)
	credit := stubCreditService{}
	log := zap.NewNop()

	terms := appadvance.NewTermsService(contractRepo, orderRepo, credit, log)
	return appadvance.NewAdvanceService(
		contractRepo, historyRepo, ledgerRepo,
		NewGormTransactionScope(db),
		terms, pool, credit,
		appadvance.NoOpContractCache{}, log,
	)
}

func insertFlowOrder(t *testing.T, db *gorm.DB, farmerID uuid.UUID) uuid.UUID {
	t.Helper()
	model := &models.DeliveryOrderModel{
		ID:                 uuid.New(),
		OrderNumber:        "DO-2026-000500",
		FarmerID:           farmerID,
		BuyerID:            uuid.New(),
		Currency:           valueobject.USD,
		TotalAmount:        decimal.NewFromInt(10000),
		ExpectedDeliveryAt: time.Now().AddDate(0, 0, 30),
		AdvanceEligible:    true,
	}
	require.NoError(t, db.Create(model).Error)
	return model.ID
}

func contractRowCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.AdvanceContractModel{}).Count(&count).Error)
	return count
}

func TestAdvanceService_RequestAdvance_Flow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	farmerID := uuid.New()
	orderID := insertFlowOrder(t, db, farmerID)

	service := newFlowService(db, &stubPoolService{poolID: uuid.New()})
	input := appadvance.RequestAdvanceInput{FarmerID: farmerID, OrderID: orderID, Actor: "farmer:anna"}

	first, err := service.RequestAdvance(ctx, input)
	require.NoError(t, err)
	assert.False(t, first.AlreadyExisted)
	assert.Equal(t, advance.StatusApproved, first.Contract.Status)
	require.NotNil(t, first.Contract.PoolID)

	// A retry of the same request must observe the committed contract.
	second, err := service.RequestAdvance(ctx, input)
	require.NoError(t, err)
	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.Contract.ID, second.Contract.ID)

	assert.Equal(t, int64(1), contractRowCount(t, db))

	order, err := NewGormDeliveryOrderRepository(db).FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, order.AdvanceRequested)

	history, err := NewGormAdvanceStatusHistoryRepository(db).FindByContract(ctx, first.Contract.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, advance.StatusPendingApproval, history[0].ToStatus)
	assert.Equal(t, advance.StatusApproved, history[1].ToStatus)
}

func TestAdvanceService_RequestAdvance_ConcurrentRequestsShareOneContract(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	farmerID := uuid.New()
	orderID := insertFlowOrder(t, db, farmerID)
	input := appadvance.RequestAdvanceInput{FarmerID: farmerID, OrderID: orderID, Actor: "farmer:anna"}

	// The competitor commits its contract while the first request sits
	// between its quote and its own transaction.
	competitor := newFlowService(db, &stubPoolService{poolID: uuid.New()})
	var winner *appadvance.RequestAdvanceResult

	pool := &stubPoolService{poolID: uuid.New()}
	pool.onFindCandidate = func() {
		var err error
		winner, err = competitor.RequestAdvance(ctx, input)
		require.NoError(t, err)
		require.False(t, winner.AlreadyExisted)
	}
	service := newFlowService(db, pool)

	loser, err := service.RequestAdvance(ctx, input)
	require.NoError(t, err)

	// Both callers observe the same contract and only one row exists.
	require.NotNil(t, winner)
	assert.True(t, loser.AlreadyExisted)
	assert.Equal(t, winner.Contract.ID, loser.Contract.ID)
	assert.Equal(t, winner.Contract.ContractNumber, loser.Contract.ContractNumber)
	assert.Equal(t, int64(1), contractRowCount(t, db))

	// The loser must not have appended its own creation history.
	history, err := NewGormAdvanceStatusHistoryRepository(db).FindByContract(ctx, winner.Contract.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
