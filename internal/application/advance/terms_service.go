package advance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// timeNow is swapped out in tests that pin the quote date
var timeNow = time.Now

// TermsService produces advance quotes. It gathers the order and the credit
// assessment, delegates the pricing arithmetic to the domain and never writes
// anything.
type TermsService struct {
	contractRepo advance.AdvanceContractRepository
	orderRepo    advance.DeliveryOrderRepository
	credit       advance.CreditScoringService
	logger       *zap.Logger
}

// NewTermsService creates a TermsService
func NewTermsService(
	contractRepo advance.AdvanceContractRepository,
	orderRepo advance.DeliveryOrderRepository,
	credit advance.CreditScoringService,
	logger *zap.Logger,
) *TermsService {
	return &TermsService{
		contractRepo: contractRepo,
		orderRepo:    orderRepo,
		credit:       credit,
		logger:       logger,
	}
}

// CalculateAdvanceTerms quotes an advance for the farmer against one of their
// delivery orders. An order that is ineligible yields a quote with
// IsEligible=false and the reasons; only missing data and collaborator
// failures are errors.
func (s *TermsService) CalculateAdvanceTerms(
	ctx context.Context,
	farmerID, orderID uuid.UUID,
	requestedAmount *decimal.Decimal,
) (*advance.AdvanceTerms, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND",
				fmt.Sprintf("Delivery order %s not found", orderID))
		}
		return nil, err
	}
	if order.FarmerID != farmerID {
		return nil, shared.NewDomainError("ORDER_OWNERSHIP_MISMATCH",
			"Order does not belong to the requesting farmer")
	}

	exists, err := s.contractRepo.ExistsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ADVANCE_ALREADY_EXISTS",
			fmt.Sprintf("An advance already exists for order %s", orderID))
	}

	assessment, err := s.credit.CalculateScore(ctx, farmerID)
	if err != nil {
		s.logger.Warn("credit scoring unavailable",
			zap.String("farmer_id", farmerID.String()), zap.Error(err))
		return nil, shared.NewDomainError("CREDIT_UNAVAILABLE",
			"Credit assessment is currently unavailable")
	}

	// Price first with an open eligibility gate, then run the collaborator
	// check against the actual advance amount the quote settled on.
	terms, err := advance.CalculateTerms(advance.TermsInput{
		Order:           order,
		Assessment:      *assessment,
		Eligibility:     advance.EligibilityResult{IsEligible: true},
		RequestedAmount: requestedAmount,
		Now:             timeNow(),
	})
	if err != nil {
		return nil, err
	}

	eligibility, err := s.credit.CheckEligibility(ctx, farmerID, terms.ActualAdvanceAmount, orderID)
	if err != nil {
		s.logger.Warn("credit eligibility check unavailable",
			zap.String("farmer_id", farmerID.String()), zap.Error(err))
		return nil, shared.NewDomainError("CREDIT_UNAVAILABLE",
			"Credit eligibility check is currently unavailable")
	}
	if !eligibility.IsEligible {
		reason := eligibility.Reason
		if reason == "" {
			reason = "credit eligibility check failed"
		}
		terms.IneligibilityReasons = append(terms.IneligibilityReasons, reason)
		terms.IsEligible = false
	}
	terms.EligibilityConditions = eligibility.Conditions

	return terms, nil
}
