package advance

import (
	"context"
	"errors"
	"testing"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type termsFixture struct {
	contractRepo *MockContractRepository
	orderRepo    *MockOrderRepository
	credit       *MockCreditScoringService
	service      *TermsService
}

func newTermsFixture() *termsFixture {
	f := &termsFixture{
		contractRepo: new(MockContractRepository),
		orderRepo:    new(MockOrderRepository),
		credit:       new(MockCreditScoringService),
	}
	f.service = NewTermsService(f.contractRepo, f.orderRepo, f.credit, zap.NewNop())
	return f
}

func TestTermsService_CalculateAdvanceTerms_TierB(t *testing.T) {
	ctx := context.Background()
	f := newTermsFixture()
	farmerID := uuid.New()
	order := createTestOrder(farmerID, 10000)

	f.orderRepo.On("FindByID", ctx, order.ID).Return(order, nil)
	f.contractRepo.On("ExistsByOrderID", ctx, order.ID).Return(false, nil)
	f.credit.On("CalculateScore", ctx, farmerID).Return(&advance.CreditAssessment{
		OverallScore: 680, RiskTier: advance.TierB, FraudScore: decimal.NewFromFloat(0.2),
	}, nil)
	f.credit.On("CheckEligibility", ctx, farmerID,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(8000)) }),
		order.ID).Return(&advance.EligibilityResult{IsEligible: true}, nil)

	terms, err := f.service.CalculateAdvanceTerms(ctx, farmerID, order.ID, nil)

	require.NoError(t, err)
	assert.True(t, terms.IsEligible)
	assert.Equal(t, "80", terms.MaxAdvancePercentage.String())
	assert.Equal(t, "8000", terms.MaxAdvanceAmount.String())
	assert.Equal(t, "8000", terms.ActualAdvanceAmount.String())
	assert.Equal(t, "200", terms.FarmerFeeAmount.String())
	assert.Equal(t, "80", terms.BuyerFeeAmount.String())
	assert.Equal(t, "280", terms.PlatformFeeTotal.String())
	assert.Equal(t, "7800", terms.NetToFarmer.String())
	assert.Equal(t, order.ExpectedDeliveryAt.AddDate(0, 0, 7), terms.DueDate)
	assert.True(t, terms.DaysOutstanding >= 37, "30 days to delivery plus 7 grace")
	assert.Equal(t, "25", terms.OperatingCosts.String())
	assert.Equal(t, "160", terms.RiskProvision.String())
}

func TestTermsService_CalculateAdvanceTerms_RequestedAmountCapped(t *testing.T) {
	ctx := context.Background()
	f := newTermsFixture()
	farmerID := uuid.New()
	order := createTestOrder(farmerID, 10000)

	f.orderRepo.On("FindByID", ctx, order.ID).Return(order, nil)
	f.contractRepo.On("ExistsByOrderID", ctx, order.ID).Return(false, nil)
	f.credit.On("CalculateScore", ctx, farmerID).Return(&advance.CreditAssessment{
		OverallScore: 700, RiskTier: advance.TierB, FraudScore: decimal.Zero,
	}, nil)
	f.credit.On("CheckEligibility", ctx, farmerID, mock.Anything, order.ID).
		Return(&advance.EligibilityResult{IsEligible: true}, nil)

	// Asking for more than the tier cap settles at the cap
	requested := decimal.NewFromInt(9000)
	terms, err := f.service.CalculateAdvanceTerms(ctx, farmerID, order.ID, &requested)
	require.NoError(t, err)
	assert.Equal(t, "8000", terms.ActualAdvanceAmount.String())

	// Asking for less is honored
	smaller := decimal.NewFromInt(5000)
	terms, err = f.service.CalculateAdvanceTerms(ctx, farmerID, order.ID, &smaller)
	require.NoError(t, err)
	assert.Equal(t, "5000", terms.ActualAdvanceAmount.String())
	assert.Equal(t, "125", terms.FarmerFeeAmount.String())
	assert.Equal(t, "4875", terms.NetToFarmer.String())
}

func TestTermsService_CalculateAdvanceTerms_OrderNotFound(t *testing.T) {
	ctx := context.Background()
	f := newTermsFixture()
	orderID := uuid.New()

	f.orderRepo.On("FindByID", ctx, orderID).Return(nil, shared.ErrNotFound)

	terms, err := f.service.CalculateAdvanceTerms(ctx, uuid.New(), orderID, nil)

	assert.Nil(t, terms)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ORDER_NOT_FOUND", domainErr.Code)
}

func TestTermsService_CalculateAdvanceTerms_OwnershipMismatch(t *testing.T) {
	ctx := context.Background()
	f := newTermsFixture()
	order := createTestOrder(uuid.New(), 10000)

	f.orderRepo.On("FindByID", ctx, order.ID).Return(order, nil)

	terms, err := f.service.CalculateAdvanceTerms(ctx, uuid.New(), order.ID, nil)

	assert.Nil(t, terms)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ORDER_OWNERSHIP_MISMATCH", domainErr.Code)
	f.credit.AssertNotCalled(t, "CalculateScore", mock.Anything, mock.Anything)
}

func TestTermsService_CalculateAdvanceTerms_AdvanceAlreadyExists(t *testing.T) {
	ctx := context.Background()
	f := newTermsFixture()
	farmerID := uuid.New()
	order := createTestOrder(farmerID, 10000)

	f.orderRepo.On("FindByID", ctx, order.ID).Return(order, nil)
	f.contractRepo.On("ExistsByOrderID", ctx, order.ID).Return(true, nil)

	terms, err := f.service.CalculateAdvanceTerms(ctx, farmerID, order.ID, nil)

	assert.Nil(t, terms)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ADVANCE_ALREADY_EXISTS", domainErr.Code)
}

func TestTermsService_CalculateAdvanceTerms_CreditUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newTermsFixture()
	farmerID := uuid.New()
	order := createTestOrder(farmerID, 10000)

	f.orderRepo.On("FindByID", ctx, order.ID).Return(order, nil)
	f.contractRepo.On("ExistsByOrderID", ctx, order.ID).Return(false, nil)
	f.credit.On("CalculateScore", ctx, farmerID).Return(nil, errors.New("scoring service down"))

	terms, err := f.service.CalculateAdvanceTerms(ctx, farmerID, order.ID, nil)

	assert.Nil(t, terms)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CREDIT_UNAVAILABLE", domainErr.Code)
}

func TestTermsService_CalculateAdvanceTerms_IneligibleOrder(t *testing.T) {
	ctx := context.Background()
	f := newTermsFixture()
	farmerID := uuid.New()
	order := createTestOrder(farmerID, 10000)
	order.AdvanceEligible = false

	f.orderRepo.On("FindByID", ctx, order.ID).Return(order, nil)
	f.contractRepo.On("ExistsByOrderID", ctx, order.ID).Return(false, nil)
	f.credit.On("CalculateScore", ctx, farmerID).Return(&advance.CreditAssessment{
		OverallScore: 720, RiskTier: advance.TierA, FraudScore: decimal.Zero,
	}, nil)
	f.credit.On("CheckEligibility", ctx, farmerID, mock.Anything, order.ID).
		Return(&advance.EligibilityResult{IsEligible: true}, nil)

	terms, err := f.service.CalculateAdvanceTerms(ctx, farmerID, order.ID, nil)

	// An ineligible order still quotes, flagged ineligible
	require.NoError(t, err)
	assert.False(t, terms.IsEligible)
	assert.NotEmpty(t, terms.IneligibilityReasons)
}

func TestTermsService_CalculateAdvanceTerms_CollaboratorIneligible(t *testing.T) {
	ctx := context.Background()
	f := newTermsFixture()
	farmerID := uuid.New()
	order := createTestOrder(farmerID, 10000)

	f.orderRepo.On("FindByID", ctx, order.ID).Return(order, nil)
	f.contractRepo.On("ExistsByOrderID", ctx, order.ID).Return(false, nil)
	f.credit.On("CalculateScore", ctx, farmerID).Return(&advance.CreditAssessment{
		OverallScore: 550, RiskTier: advance.TierC, FraudScore: decimal.NewFromFloat(0.6),
	}, nil)
	f.credit.On("CheckEligibility", ctx, farmerID, mock.Anything, order.ID).
		Return(&advance.EligibilityResult{
			IsEligible: false,
			Reason:     "too many open advances",
			Conditions: []string{"close one open advance"},
		}, nil)

	terms, err := f.service.CalculateAdvanceTerms(ctx, farmerID, order.ID, nil)

	require.NoError(t, err)
	assert.False(t, terms.IsEligible)
	assert.Contains(t, terms.IneligibilityReasons, "too many open advances")
	assert.Equal(t, []string{"close one open advance"}, terms.EligibilityConditions)
}

func TestTermsService_CalculateAdvanceTerms_BelowMinimum(t *testing.T) {
	ctx := context.Background()
	f := newTermsFixture()
	farmerID := uuid.New()
	order := createTestOrder(farmerID, 100)

	f.orderRepo.On("FindByID", ctx, order.ID).Return(order, nil)
	f.contractRepo.On("ExistsByOrderID", ctx, order.ID).Return(false, nil)
	f.credit.On("CalculateScore", ctx, farmerID).Return(&advance.CreditAssessment{
		OverallScore: 720, RiskTier: advance.TierA, FraudScore: decimal.Zero,
	}, nil)
	f.credit.On("CheckEligibility", ctx, farmerID, mock.Anything, order.ID).
		Return(&advance.EligibilityResult{IsEligible: true}, nil)

	terms, err := f.service.CalculateAdvanceTerms(ctx, farmerID, order.ID, nil)

	// 85% of a 100 order is below the 100 floor
	require.NoError(t, err)
	assert.Equal(t, "85", terms.ActualAdvanceAmount.String())
	assert.False(t, terms.IsEligible)
	assert.NotEmpty(t, terms.IneligibilityReasons)
}
