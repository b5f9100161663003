package advance

import (
	"fmt"
	"time"

	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/agrifin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskTier is a coarse credit bucket driving advance percentage, fees and
// risk provisioning
type RiskTier string

const (
	TierA RiskTier = "A"
	TierB RiskTier = "B"
	TierC RiskTier = "C"
)

// IsValid checks if the tier is a known RiskTier
func (t RiskTier) IsValid() bool {
	return t == TierA || t == TierB || t == TierC
}

// TierPolicy holds the pricing parameters for one risk tier.
// Percentages are expressed as percent figures (80 = 80%), the provision
// rate as a fraction of the advance amount.
type TierPolicy struct {
	MaxAdvancePercentage decimal.Decimal
	FarmerFeePercentage  decimal.Decimal
	BuyerFeePercentage   decimal.Decimal
	RiskProvisionRate    decimal.Decimal
}

var tierPolicies = map[RiskTier]TierPolicy{
	TierA: {
		MaxAdvancePercentage: decimal.NewFromInt(85),
		FarmerFeePercentage:  decimal.NewFromFloat(2.0),
		BuyerFeePercentage:   decimal.NewFromFloat(0.75),
		RiskProvisionRate:    decimal.NewFromFloat(0.010),
	},
	TierB: {
		MaxAdvancePercentage: decimal.NewFromInt(80),
		FarmerFeePercentage:  decimal.NewFromFloat(2.5),
		BuyerFeePercentage:   decimal.NewFromFloat(1.0),
		RiskProvisionRate:    decimal.NewFromFloat(0.020),
	},
	TierC: {
		MaxAdvancePercentage: decimal.NewFromInt(70),
		FarmerFeePercentage:  decimal.NewFromFloat(3.0),
		BuyerFeePercentage:   decimal.NewFromFloat(1.25),
		RiskProvisionRate:    decimal.NewFromFloat(0.035),
	},
}

// PolicyForTier returns the pricing policy for a risk tier
func PolicyForTier(tier RiskTier) (TierPolicy, bool) {
	p, ok := tierPolicies[tier]
	return p, ok
}

// Platform-wide advance policy constants
var (
	// MinAdvanceAmount is the absolute lower bound for an advance
	MinAdvanceAmount = decimal.NewFromInt(100)
	// MaxAdvanceAbsolute is the absolute upper bound for an advance
	MaxAdvanceAbsolute = decimal.NewFromInt(500000)
	// DailyCapitalRate is the pool's daily cost of capital as a fraction
	DailyCapitalRate = decimal.NewFromFloat(0.0004)
	// OperatingCostPerAdvance is the fixed operational cost booked per advance
	OperatingCostPerAdvance = decimal.NewFromFloat(25.00)
)

const (
	// RepaymentGraceDays is added to the expected delivery date to form the due date
	RepaymentGraceDays = 7
	// AutoApproveScoreThreshold is the credit score at or above which a new
	// contract starts APPROVED without manual review
	AutoApproveScoreThreshold = 700
)

// AdvanceTerms is a pure quote for an advance against a delivery order.
// Producing it has no side effects; no contract is created.
type AdvanceTerms struct {
	FarmerID uuid.UUID            `json:"farmer_id"`
	BuyerID  uuid.UUID            `json:"buyer_id"`
	OrderID  uuid.UUID            `json:"order_id"`
	Currency valueobject.Currency `json:"currency"`

	OrderAmount decimal.Decimal `json:"order_amount"`
	CreditScore int             `json:"credit_score"`
	RiskTier    RiskTier        `json:"risk_tier"`
	FraudScore  decimal.Decimal `json:"fraud_score"`

	MaxAdvancePercentage decimal.Decimal  `json:"max_advance_percentage"`
	MaxAdvanceAmount     decimal.Decimal  `json:"max_advance_amount"`
	RequestedAmount      *decimal.Decimal `json:"requested_amount,omitempty"`
	ActualAdvanceAmount  decimal.Decimal  `json:"actual_advance_amount"`

	FarmerFeePercentage decimal.Decimal `json:"farmer_fee_percentage"`
	FarmerFeeAmount     decimal.Decimal `json:"farmer_fee_amount"`
	BuyerFeePercentage  decimal.Decimal `json:"buyer_fee_percentage"`
	BuyerFeeAmount      decimal.Decimal `json:"buyer_fee_amount"`
	PlatformFeeTotal    decimal.Decimal `json:"platform_fee_total"`
	NetToFarmer         decimal.Decimal `json:"net_to_farmer"`

	ExpectedDeliveryAt time.Time `json:"expected_delivery_at"`
	DueDate            time.Time `json:"due_date"`

	DaysOutstanding        int             `json:"days_outstanding"`
	ImplicitInterestRate   decimal.Decimal `json:"implicit_interest_rate"`
	ImplicitInterestAmount decimal.Decimal `json:"implicit_interest_amount"`
	CostOfCapital          decimal.Decimal `json:"cost_of_capital"`
	RiskProvision          decimal.Decimal `json:"risk_provision"`
	OperatingCosts         decimal.Decimal `json:"operating_costs"`
	GrossProfit            decimal.Decimal `json:"gross_profit"`
	ProfitMargin           decimal.Decimal `json:"profit_margin"`

	IsEligible            bool     `json:"is_eligible"`
	IneligibilityReasons  []string `json:"ineligibility_reasons,omitempty"`
	EligibilityConditions []string `json:"eligibility_conditions,omitempty"`
}

// TermsInput carries everything the quote calculation needs. Lookups and
// collaborator calls happen before; the calculation itself is deterministic.
type TermsInput struct {
	Order           *DeliveryOrder
	Assessment      CreditAssessment
	Eligibility     EligibilityResult
	RequestedAmount *decimal.Decimal
	Now             time.Time
}

// CalculateTerms turns (order, risk assessment, requested amount) into a full
// advance quote. All rounding routes through the Money utility: fee amounts
// round up, the farmer payout rounds down, totals round half-up, percentage
// figures round to 4 places.
func CalculateTerms(in TermsInput) (*AdvanceTerms, error) {
	policy, ok := PolicyForTier(in.Assessment.RiskTier)
	if !ok {
		return nil, shared.NewDomainError("UNKNOWN_RISK_TIER",
			fmt.Sprintf("No advance policy for risk tier %q", in.Assessment.RiskTier))
	}

	order := in.Order
	orderAmount, err := valueobject.NewMoney(order.TotalAmount, order.Currency)
	if err != nil {
		return nil, err
	}

	maxAdvance := orderAmount.CalculatePercentage(policy.MaxAdvancePercentage).RoundGeneral()

	actual := maxAdvance
	if in.RequestedAmount != nil && in.RequestedAmount.LessThan(maxAdvance.Amount()) {
		requested, err := valueobject.NewMoney(*in.RequestedAmount, order.Currency)
		if err != nil {
			return nil, err
		}
		actual = requested.RoundGeneral()
	}

	terms := &AdvanceTerms{
		FarmerID:             order.FarmerID,
		BuyerID:              order.BuyerID,
		OrderID:              order.ID,
		Currency:             order.Currency,
		OrderAmount:          order.TotalAmount,
		CreditScore:          in.Assessment.OverallScore,
		RiskTier:             in.Assessment.RiskTier,
		FraudScore:           in.Assessment.FraudScore,
		MaxAdvancePercentage: policy.MaxAdvancePercentage,
		MaxAdvanceAmount:     maxAdvance.Amount(),
		RequestedAmount:      in.RequestedAmount,
		ActualAdvanceAmount:  actual.Amount(),
		FarmerFeePercentage:  policy.FarmerFeePercentage,
		BuyerFeePercentage:   policy.BuyerFeePercentage,
		ExpectedDeliveryAt:   order.ExpectedDeliveryAt,
	}

	// Eligibility gate: failing it yields an ineligible quote, not an error.
	if !order.AdvanceEligible {
		terms.IneligibilityReasons = append(terms.IneligibilityReasons,
			"order is not flagged as advance eligible")
	}
	if actual.Amount().LessThan(MinAdvanceAmount) {
		terms.IneligibilityReasons = append(terms.IneligibilityReasons,
			fmt.Sprintf("advance amount %s is below the minimum of %s", actual.Amount(), MinAdvanceAmount))
	}
	if actual.Amount().GreaterThan(MaxAdvanceAbsolute) {
		terms.IneligibilityReasons = append(terms.IneligibilityReasons,
			fmt.Sprintf("advance amount %s exceeds the maximum of %s", actual.Amount(), MaxAdvanceAbsolute))
	}
	if !in.Eligibility.IsEligible {
		reason := in.Eligibility.Reason
		if reason == "" {
			reason = "credit eligibility check failed"
		}
		terms.IneligibilityReasons = append(terms.IneligibilityReasons, reason)
	}
	terms.IsEligible = len(terms.IneligibilityReasons) == 0
	terms.EligibilityConditions = in.Eligibility.Conditions

	// Fees: platform-favoring rounding on each fee, neutral on the total,
	// counterparty-favoring on the net payout.
	farmerFee := actual.CalculatePercentage(policy.FarmerFeePercentage).RoundFeeUp()
	buyerFee := actual.CalculatePercentage(policy.BuyerFeePercentage).RoundFeeUp()
	terms.FarmerFeeAmount = farmerFee.Amount()
	terms.BuyerFeeAmount = buyerFee.Amount()
	terms.PlatformFeeTotal = farmerFee.MustAdd(buyerFee).RoundGeneral().Amount()
	terms.NetToFarmer = actual.MustSubtract(farmerFee).RoundPayoutDown().Amount()

	// Timeline
	terms.DueDate = order.ExpectedDeliveryAt.AddDate(0, 0, RepaymentGraceDays)

	// Cost of capital and profitability. The implicit interest rate is a
	// percentage figure; the interest amount applies it back as a fraction.
	days := int(decimal.NewFromFloat(terms.DueDate.Sub(in.Now).Hours() / 24).Ceil().IntPart())
	if days < 1 {
		days = 1
	}
	terms.DaysOutstanding = days
	terms.ImplicitInterestRate = valueobject.RoundPercentage(
		DailyCapitalRate.Mul(decimal.NewFromInt(int64(days))).Mul(decimal.NewFromInt(100)))
	terms.ImplicitInterestAmount = valueobject.RoundAmount(
		actual.Amount().Mul(terms.ImplicitInterestRate).Div(decimal.NewFromInt(100)),
		valueobject.RoundingHalfUp)
	terms.CostOfCapital = terms.ImplicitInterestAmount
	terms.RiskProvision = valueobject.RoundAmount(
		actual.Amount().Mul(policy.RiskProvisionRate), valueobject.RoundingHalfUp)
	terms.OperatingCosts = OperatingCostPerAdvance
	terms.GrossProfit = valueobject.RoundAmount(
		terms.PlatformFeeTotal.Sub(terms.CostOfCapital.Add(terms.RiskProvision).Add(terms.OperatingCosts)),
		valueobject.RoundingHalfUp)
	if terms.PlatformFeeTotal.IsZero() {
		terms.ProfitMargin = decimal.Zero
	} else {
		terms.ProfitMargin = valueobject.RoundPercentage(
			terms.GrossProfit.Div(terms.PlatformFeeTotal).Mul(decimal.NewFromInt(100)))
	}

	return terms, nil
}
