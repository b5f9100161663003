package advance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCacheTTL bounds how stale a cached contract read may be
const DefaultCacheTTL = 30 * time.Second

// maxCreateAttempts bounds retries when concurrent requests for different
// orders draw the same contract number
const maxCreateAttempts = 3

// AdvanceService coordinates the advance lifecycle: creation with capital
// allocation, disbursement, repayments, write-offs and cached reads.
//
// Persistence writes happen inside a TransactionScope; collaborator calls
// (credit scoring, liquidity pool) happen outside it. An allocation failure
// after the contract row is committed is compensated by cancelling the
// contract. Post-commit collaborator failures on the repayment and default
// paths are logged and left for reconciliation, never rolled back.
type AdvanceService struct {
	contractRepo advance.AdvanceContractRepository
	historyRepo  advance.AdvanceStatusHistoryRepository
	ledgerRepo   advance.AdvanceLedgerRepository
	scope        TransactionScope
	terms        *TermsService
	pool         advance.LiquidityPoolService
	credit       advance.CreditScoringService
	cache        ContractCache
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewAdvanceService creates an AdvanceService
func NewAdvanceService(
	contractRepo advance.AdvanceContractRepository,
	historyRepo advance.AdvanceStatusHistoryRepository,
	ledgerRepo advance.AdvanceLedgerRepository,
	scope TransactionScope,
	terms *TermsService,
	pool advance.LiquidityPoolService,
	credit advance.CreditScoringService,
	cache ContractCache,
	logger *zap.Logger,
) *AdvanceService {
	return &AdvanceService{
		contractRepo: contractRepo,
		historyRepo:  historyRepo,
		ledgerRepo:   ledgerRepo,
		scope:        scope,
		terms:        terms,
		pool:         pool,
		credit:       credit,
		cache:        cache,
		cacheTTL:     DefaultCacheTTL,
		logger:       logger,
	}
}

// SetCacheTTL overrides how long cached contract reads stay fresh
func (s *AdvanceService) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// RequestAdvance creates an advance contract for an order and reserves pool
// capital for it. The operation is idempotent per order: a concurrent or
// repeated request resolves to the already existing contract.
func (s *AdvanceService) RequestAdvance(ctx context.Context, input RequestAdvanceInput) (*RequestAdvanceResult, error) {
	// Fast path for retries: the order already carries a contract.
	existing, err := s.contractRepo.FindByOrderID(ctx, input.OrderID)
	if err == nil {
		return &RequestAdvanceResult{Contract: existing, AlreadyExisted: true}, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	quote, err := s.terms.CalculateAdvanceTerms(ctx, input.FarmerID, input.OrderID, input.RequestedAmount)
	if err != nil {
		// A competitor can commit between the fast path and the duplicate
		// check inside the quote. Resolve to the winner instead of failing.
		if isDomainCode(err, "ADVANCE_ALREADY_EXISTS") {
			if existing, findErr := s.contractRepo.FindByOrderID(ctx, input.OrderID); findErr == nil {
				return &RequestAdvanceResult{Contract: existing, AlreadyExisted: true}, nil
			}
		}
		return nil, err
	}
	if !quote.IsEligible {
		return nil, shared.NewDomainError("ADVANCE_NOT_ELIGIBLE",
			fmt.Sprintf("Advance is not eligible: %v", quote.IneligibilityReasons))
	}

	candidate, err := s.pool.FindAllocationCandidate(ctx, quote.ActualAdvanceAmount, quote.Currency)
	if err != nil {
		return nil, fmt.Errorf("finding allocation candidate: %w", err)
	}
	if candidate == nil {
		return nil, shared.NewDomainError("NO_CAPITAL_AVAILABLE",
			"No liquidity pool can fund this advance right now")
	}

	result, err := s.createContract(ctx, input, quote)
	if err != nil {
		return nil, err
	}
	if result.AlreadyExisted {
		return result, nil
	}

	contract := result.Contract
	allocation, err := s.pool.AllocateCapital(ctx, advance.AllocationRequest{
		ContractID:          contract.ID,
		PoolID:              candidate.PoolID,
		FarmerID:            contract.FarmerID,
		OrderID:             contract.OrderID,
		Amount:              contract.AdvanceAmount,
		Currency:            contract.Currency,
		RiskTier:            contract.RiskTier,
		ExpectedDeliveryAt:  contract.ExpectedDeliveryAt,
		ExpectedRepaymentAt: contract.DueDate,
	})
	if err != nil {
		s.compensateFailedAllocation(ctx, contract.ID, err)
		return nil, shared.NewDomainError("CAPITAL_ALLOCATION_FAILED",
			"Capital could not be allocated; the advance request was cancelled")
	}

	contract.AssignPool(allocation.PoolID)
	if err := s.contractRepo.Save(ctx, contract); err != nil {
		// Capital is already reserved; failing the request here would strand
		// it. Leave the unpersisted pool id for reconciliation.
		s.logger.Error("pool assignment persistence failed, needs reconciliation",
			zap.String("contract_number", contract.ContractNumber),
			zap.String("pool_id", allocation.PoolID.String()),
			zap.Error(err))
	}

	s.logger.Info("advance created",
		zap.String("contract_number", contract.ContractNumber),
		zap.String("order_id", contract.OrderID.String()),
		zap.String("pool_id", allocation.PoolID.String()),
		zap.String("status", string(contract.Status)))

	return result, nil
}

// createContract commits the contract row. A unique-index trip on order_id
// resolves to the winner's contract; a trip on contract_number means two
// requests for different orders drew the same number, so the attempt is
// retried and draws a fresh number past the winner's committed row.
func (s *AdvanceService) createContract(ctx context.Context, input RequestAdvanceInput, quote *advance.AdvanceTerms) (*RequestAdvanceResult, error) {
	for attempt := 1; ; attempt++ {
		result, err := s.createInTransaction(ctx, input, quote)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
		// Both callers of a creation race on the same order must observe
		// the same winner.
		if existing, findErr := s.contractRepo.FindByOrderID(ctx, input.OrderID); findErr == nil {
			return &RequestAdvanceResult{Contract: existing, AlreadyExisted: true}, nil
		}
		if attempt >= maxCreateAttempts {
			return nil, err
		}
		s.logger.Warn("contract number collision, retrying",
			zap.String("order_id", input.OrderID.String()),
			zap.Int("attempt", attempt))
	}
}

func (s *AdvanceService) createInTransaction(ctx context.Context, input RequestAdvanceInput, quote *advance.AdvanceTerms) (*RequestAdvanceResult, error) {
	var result *RequestAdvanceResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Re-check inside the transaction; the unique index on order_id is
		// the final arbiter under concurrency.
		if existing, err := repos.ContractRepo().FindByOrderID(ctx, input.OrderID); err == nil {
			result = &RequestAdvanceResult{Contract: existing, AlreadyExisted: true}
			return nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		number, err := repos.ContractRepo().NextContractNumber(ctx, timeNow().Year())
		if err != nil {
			return err
		}
		contract, err := advance.NewAdvanceContract(number, quote)
		if err != nil {
			return err
		}
		if err := repos.ContractRepo().Create(ctx, contract); err != nil {
			return err
		}

		if err := repos.HistoryRepo().Append(ctx,
			advance.NewStatusHistory(contract.ID, "", advance.StatusPendingApproval, input.Actor, "Advance requested")); err != nil {
			return err
		}
		if contract.Status == advance.StatusApproved {
			if err := repos.HistoryRepo().Append(ctx,
				advance.NewStatusHistory(contract.ID, advance.StatusPendingApproval, advance.StatusApproved,
					"system", fmt.Sprintf("Auto-approved: credit score %d meets threshold", contract.CreditScore))); err != nil {
				return err
			}
		}
		if err := repos.OrderRepo().MarkAdvanceRequested(ctx, input.OrderID); err != nil {
			return err
		}

		result = &RequestAdvanceResult{Contract: contract}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func isDomainCode(err error, code string) bool {
	var derr *shared.DomainError
	return errors.As(err, &derr) && derr.Code == code
}

// compensateFailedAllocation cancels a freshly committed contract after the
// pool collaborator refused to fund it
func (s *AdvanceService) compensateFailedAllocation(ctx context.Context, contractID uuid.UUID, cause error) {
	reason := fmt.Sprintf("Capital allocation failed: %v", cause)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		contract, err := repos.ContractRepo().FindByIDForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		from := contract.Status
		if err := contract.Cancel(reason); err != nil {
			return err
		}
		if err := repos.ContractRepo().Save(ctx, contract); err != nil {
			return err
		}
		return repos.HistoryRepo().Append(ctx,
			advance.NewStatusHistory(contract.ID, from, advance.StatusCancelled, "system", reason))
	})
	if err != nil {
		s.logger.Error("allocation compensation failed, contract needs manual cancellation",
			zap.String("contract_id", contractID.String()),
			zap.NamedError("allocation_error", cause),
			zap.Error(err))
		return
	}
	s.logger.Warn("advance cancelled after allocation failure",
		zap.String("contract_id", contractID.String()),
		zap.NamedError("allocation_error", cause))
}

// TransitionStatus moves a contract along the lifecycle state machine and
// records the transition in the status history.
func (s *AdvanceService) TransitionStatus(ctx context.Context, input TransitionInput) (*advance.AdvanceContract, error) {
	var contract *advance.AdvanceContract
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		contract, err = repos.ContractRepo().FindByIDForUpdate(ctx, input.ContractID)
		if err != nil {
			return err
		}
		from := contract.Status
		if err := contract.TransitionTo(input.NewStatus); err != nil {
			return err
		}
		if err := repos.ContractRepo().Save(ctx, contract); err != nil {
			return err
		}
		return repos.HistoryRepo().Append(ctx,
			advance.NewStatusHistory(contract.ID, from, input.NewStatus, input.Actor, input.Reason))
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, input.ContractID)
	return contract, nil
}

// DisburseAdvance records the payout of an approved contract and activates
// it. The ledger entry carries an unchanged balance since disbursement does
// not touch the receivable.
func (s *AdvanceService) DisburseAdvance(ctx context.Context, input DisbursementInput) (*advance.AdvanceContract, error) {
	var contract *advance.AdvanceContract
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		contract, err = repos.ContractRepo().FindByIDForUpdate(ctx, input.ContractID)
		if err != nil {
			return err
		}
		if err := contract.RecordDisbursement(input.Reference, input.Fee); err != nil {
			return err
		}
		if err := repos.HistoryRepo().Append(ctx,
			advance.NewStatusHistory(contract.ID, advance.StatusApproved, advance.StatusDisbursed,
				input.Actor, "Advance disbursed")); err != nil {
			return err
		}
		if err := repos.LedgerRepo().Append(ctx, advance.NewLedgerEntry(
			contract.ID, advance.TransactionTypeDisbursement, contract.NetToFarmer,
			contract.RemainingBalance, contract.RemainingBalance, input.Reference)); err != nil {
			return err
		}
		if err := contract.TransitionTo(advance.StatusActive); err != nil {
			return err
		}
		if err := repos.ContractRepo().Save(ctx, contract); err != nil {
			return err
		}
		return repos.HistoryRepo().Append(ctx,
			advance.NewStatusHistory(contract.ID, advance.StatusDisbursed, advance.StatusActive,
				"system", "Repayment window opened"))
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, input.ContractID)
	s.logger.Info("advance disbursed",
		zap.String("contract_number", contract.ContractNumber),
		zap.String("reference", input.Reference))
	return contract, nil
}

// ProcessRepayment applies a payment to the outstanding balance under a row
// lock, appends the ledger entry and, after commit, releases pool capital.
// Overpayment is capped at the remaining balance.
func (s *AdvanceService) ProcessRepayment(ctx context.Context, input RepaymentInput) (*RepaymentResult, error) {
	var (
		contract *advance.AdvanceContract
		outcome  *advance.RepaymentOutcome
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		contract, err = repos.ContractRepo().FindByIDForUpdate(ctx, input.ContractID)
		if err != nil {
			return err
		}
		from := contract.Status
		outcome, err = contract.ApplyRepayment(input.Amount)
		if err != nil {
			return err
		}
		if err := repos.ContractRepo().Save(ctx, contract); err != nil {
			return err
		}
		if err := repos.LedgerRepo().Append(ctx, advance.NewLedgerEntry(
			contract.ID, outcome.LedgerType, outcome.AmountApplied,
			outcome.BalanceBefore, outcome.BalanceAfter, input.PaymentReference)); err != nil {
			return err
		}
		return repos.HistoryRepo().Append(ctx,
			advance.NewStatusHistory(contract.ID, from, contract.Status, input.Actor,
				fmt.Sprintf("Repayment of %s %s applied", contract.Currency, outcome.AmountApplied)))
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, input.ContractID)
	s.releaseCapitalAfterRepayment(ctx, contract, outcome)
	if outcome.FullyRepaid {
		if err := s.credit.RecalculateScore(ctx, contract.FarmerID); err != nil {
			s.logger.Warn("score recalculation failed after completion",
				zap.String("contract_number", contract.ContractNumber), zap.Error(err))
		}
	}

	return &RepaymentResult{
		Contract:      contract,
		AmountApplied: outcome.AmountApplied,
		BalanceBefore: outcome.BalanceBefore,
		BalanceAfter:  outcome.BalanceAfter,
		FeesCollected: outcome.FeesCollected,
		FullyRepaid:   outcome.FullyRepaid,
	}, nil
}

func (s *AdvanceService) releaseCapitalAfterRepayment(ctx context.Context, contract *advance.AdvanceContract, outcome *advance.RepaymentOutcome) {
	if contract.PoolID == nil {
		return
	}
	releaseType := advance.ReleaseTypePartial
	if outcome.FullyRepaid {
		releaseType = advance.ReleaseTypeFull
	}
	err := s.pool.ReleaseCapital(ctx, advance.ReleaseRequest{
		ContractID:    contract.ID,
		PoolID:        *contract.PoolID,
		Amount:        outcome.AmountApplied,
		ReleaseType:   releaseType,
		FeesCollected: outcome.FeesCollected,
	})
	if err != nil {
		s.logger.Error("capital release failed, needs reconciliation",
			zap.String("contract_number", contract.ContractNumber),
			zap.String("pool_id", contract.PoolID.String()),
			zap.String("release_type", string(releaseType)),
			zap.Error(err))
	}
}

// MarkAsDefaulted writes a contract off, recording any recovered amount and
// the resulting loss, and notifies the funding pool after commit.
func (s *AdvanceService) MarkAsDefaulted(ctx context.Context, input DefaultInput) (*DefaultResult, error) {
	var (
		contract *advance.AdvanceContract
		outcome  *advance.DefaultOutcome
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		contract, err = repos.ContractRepo().FindByIDForUpdate(ctx, input.ContractID)
		if err != nil {
			return err
		}
		from := contract.Status
		outcome, err = contract.MarkDefaulted(input.Reason, input.RecoveredAmount)
		if err != nil {
			return err
		}
		if err := repos.ContractRepo().Save(ctx, contract); err != nil {
			return err
		}
		return repos.HistoryRepo().Append(ctx,
			advance.NewStatusHistory(contract.ID, from, advance.StatusDefaulted, input.Actor, input.Reason))
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, input.ContractID)
	if contract.PoolID != nil {
		if err := s.pool.HandleDefault(ctx, contract.ID, *contract.PoolID,
			outcome.BalanceWrittenOff, outcome.RecoveredAmount); err != nil {
			s.logger.Error("pool default handling failed, needs reconciliation",
				zap.String("contract_number", contract.ContractNumber),
				zap.String("pool_id", contract.PoolID.String()),
				zap.Error(err))
		}
	}
	if err := s.credit.RecalculateScore(ctx, contract.FarmerID); err != nil {
		s.logger.Warn("score recalculation failed after default",
			zap.String("contract_number", contract.ContractNumber), zap.Error(err))
	}

	s.logger.Info("advance defaulted",
		zap.String("contract_number", contract.ContractNumber),
		zap.String("loss_amount", outcome.LossAmount.String()))

	return &DefaultResult{
		Contract:        contract,
		LossAmount:      outcome.LossAmount,
		RecoveredAmount: outcome.RecoveredAmount,
	}, nil
}

// GetAdvanceDetails returns a contract with its status history and ledger.
// The contract itself is served from the short-TTL cache when fresh; the
// audit trails are always read through.
func (s *AdvanceService) GetAdvanceDetails(ctx context.Context, id uuid.UUID) (*AdvanceDetails, error) {
	contract, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("contract cache read failed", zap.Error(err))
	}
	if contract == nil {
		contract, err = s.contractRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, contract, s.cacheTTL); err != nil {
			s.logger.Warn("contract cache write failed", zap.Error(err))
		}
	}

	history, err := s.historyRepo.FindByContract(ctx, id)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledgerRepo.FindByContract(ctx, id)
	if err != nil {
		return nil, err
	}

	return &AdvanceDetails{Contract: contract, StatusHistory: history, Ledger: ledger}, nil
}

// GetFarmerAdvances lists a farmer's contracts, newest first, optionally
// filtered by status.
func (s *AdvanceService) GetFarmerAdvances(ctx context.Context, farmerID uuid.UUID, filter advance.AdvanceFilter) (*shared.Paginated[advance.AdvanceContract], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	contracts, err := s.contractRepo.FindByFarmer(ctx, farmerID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.contractRepo.CountByFarmer(ctx, farmerID, filter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(contracts, total, filter.Page, filter.PageSize)
	return &result, nil
}

func (s *AdvanceService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("contract cache invalidation failed",
			zap.String("contract_id", id.String()), zap.Error(err))
	}
}
