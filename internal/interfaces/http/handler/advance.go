package handler

import (
	appadvance "github.com/agrifin/backend/internal/application/advance"
	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdvanceHandler handles advance contract API endpoints
type AdvanceHandler struct {
	BaseHandler
	advanceService *appadvance.AdvanceService
	termsService   *appadvance.TermsService
}

// NewAdvanceHandler creates a new AdvanceHandler
func NewAdvanceHandler(advanceService *appadvance.AdvanceService, termsService *appadvance.TermsService) *AdvanceHandler {
	return &AdvanceHandler{
		advanceService: advanceService,
		termsService:   termsService,
	}
}

// QuoteRequest asks for advance terms without creating a contract.
// Monetary fields bind as decimal strings so amounts never transit float64.
type QuoteRequest struct {
	FarmerID        string           `json:"farmer_id" binding:"required,uuid"`
	OrderID         string           `json:"order_id" binding:"required,uuid"`
	RequestedAmount *decimal.Decimal `json:"requested_amount" binding:"omitempty,gt=0"`
}

// RequestAdvanceRequest creates an advance contract against an order
type RequestAdvanceRequest struct {
	FarmerID        string           `json:"farmer_id" binding:"required,uuid"`
	OrderID         string           `json:"order_id" binding:"required,uuid"`
	RequestedAmount *decimal.Decimal `json:"requested_amount" binding:"omitempty,gt=0"`
}

// TransitionRequest moves a contract through its lifecycle
type TransitionRequest struct {
	NewStatus string `json:"new_status" binding:"required"`
	Reason    string `json:"reason" binding:"max=500"`
}

// DisburseRequest records the payout of an approved advance
type DisburseRequest struct {
	Reference string          `json:"reference" binding:"required,max=100"`
	Fee       decimal.Decimal `json:"fee" binding:"omitempty,gte=0"`
}

// RepaymentRequest applies a payment to the outstanding balance
type RepaymentRequest struct {
	Amount           decimal.Decimal `json:"amount" binding:"required,gt=0"`
	PaymentReference string          `json:"payment_reference" binding:"max=100"`
}

// DefaultRequest writes a contract off
type DefaultRequest struct {
	Reason          string          `json:"reason" binding:"required,max=500"`
	RecoveredAmount decimal.Decimal `json:"recovered_amount" binding:"omitempty,gte=0"`
}

// Quote godoc
// @Summary  Calculate advance terms
// @Tags     advances
// @Router   /advances/quote [post]
func (h *AdvanceHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	farmerID, err := uuid.Parse(req.FarmerID)
	if err != nil {
		h.BadRequest(c, "Invalid farmer ID format")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	terms, err := h.termsService.CalculateAdvanceTerms(
		c.Request.Context(), farmerID, orderID, req.RequestedAmount)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, terms)
}

// RequestAdvance godoc
// @Summary  Request an advance against a delivery order
// @Tags     advances
// @Router   /advances [post]
func (h *AdvanceHandler) RequestAdvance(c *gin.Context) {
	var req RequestAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	farmerID, err := uuid.Parse(req.FarmerID)
	if err != nil {
		h.BadRequest(c, "Invalid farmer ID format")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	result, err := h.advanceService.RequestAdvance(c.Request.Context(), appadvance.RequestAdvanceInput{
		FarmerID:        farmerID,
		OrderID:         orderID,
		RequestedAmount: req.RequestedAmount,
		Actor:           getActor(c),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	// A replayed request returns the pre-existing contract, not a new one
	if result.AlreadyExisted {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// GetAdvance godoc
// @Summary  Get an advance contract with its status history and ledger
// @Tags     advances
// @Router   /advances/{id} [get]
func (h *AdvanceHandler) GetAdvance(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	details, err := h.advanceService.GetAdvanceDetails(c.Request.Context(), contractID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, details)
}

// ListFarmerAdvances godoc
// @Summary  List a farmer's advance contracts
// @Tags     advances
// @Router   /farmers/{id}/advances [get]
func (h *AdvanceHandler) ListFarmerAdvances(c *gin.Context) {
	farmerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid farmer ID format")
		return
	}

	var query dto.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := advance.AdvanceFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		SortBy:   query.SortBy,
		SortDir:  query.SortDir,
	}
	if query.Status != "" {
		status := advance.AdvanceStatus(query.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Unknown advance status")
			return
		}
		filter.Status = &status
	}

	page, err := h.advanceService.GetFarmerAdvances(c.Request.Context(), farmerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Transition godoc
// @Summary  Transition an advance contract to a new status
// @Tags     advances
// @Router   /advances/{id}/transition [post]
func (h *AdvanceHandler) Transition(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contract, err := h.advanceService.TransitionStatus(c.Request.Context(), appadvance.TransitionInput{
		ContractID: contractID,
		NewStatus:  advance.AdvanceStatus(req.NewStatus),
		Actor:      getActor(c),
		Reason:     req.Reason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// Disburse godoc
// @Summary  Record the disbursement of an approved advance
// @Tags     advances
// @Router   /advances/{id}/disburse [post]
func (h *AdvanceHandler) Disburse(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req DisburseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contract, err := h.advanceService.DisburseAdvance(c.Request.Context(), appadvance.DisbursementInput{
		ContractID: contractID,
		Reference:  req.Reference,
		Fee:        req.Fee,
		Actor:      getActor(c),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// Repay godoc
// @Summary  Apply a repayment to an advance contract
// @Tags     advances
// @Router   /advances/{id}/repayments [post]
func (h *AdvanceHandler) Repay(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req RepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.advanceService.ProcessRepayment(c.Request.Context(), appadvance.RepaymentInput{
		ContractID:       contractID,
		Amount:           req.Amount,
		PaymentReference: req.PaymentReference,
		Actor:            getActor(c),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// MarkDefaulted godoc
// @Summary  Write an advance contract off as defaulted
// @Tags     advances
// @Router   /advances/{id}/default [post]
func (h *AdvanceHandler) MarkDefaulted(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req DefaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.advanceService.MarkAsDefaulted(c.Request.Context(), appadvance.DefaultInput{
		ContractID:      contractID,
		Reason:          req.Reason,
		RecoveredAmount: req.RecoveredAmount,
		Actor:           getActor(c),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
