package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/jmcandrew/auction-backoffice/internal/application/service"
	"github.com/jmcandrew/auction-backoffice/internal/domain/derive"
	"github.com/jmcandrew/auction-backoffice/internal/domain/entity"
	"github.com/jmcandrew/auction-backoffice/internal/domain/workflow"
	"github.com/jmcandrew/auction-backoffice/internal/voucher"
)

// Stage path identifiers used in the approval routes.
const (
	StageParamDirector1  = workflow.StageDirector1
	StageParamDirector2  = workflow.StageDirector2
	StageParamAccountant = workflow.StageAccountant
)

// Handlers contains all HTTP request handlers.
type Handlers struct {
	refundService        service.RefundService
	reimbursementService service.ReimbursementService
	voucherGenerator     *voucher.Generator
	logger               Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	refundService service.RefundService,
	reimbursementService service.ReimbursementService,
	voucherGenerator *voucher.Generator,
	logger Logger,
) *Handlers {
	return &Handlers{
		refundService:        refundService,
		reimbursementService: reimbursementService,
		voucherGenerator:     voucherGenerator,
		logger:               logger,
	}
}

// Response is the standard JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateRefundRequest is the POST /api/refunds body. Amount is the value
// the caller last derived; the server re-derives and compares.
type CreateRefundRequest struct {
	Type                      string          `json:"type" binding:"required"`
	SourceInvoiceID           int64           `json:"source_invoice_id"`
	Reason                    string          `json:"reason"`
	Amount                    decimal.Decimal `json:"amount"`
	RefundMethod              string          `json:"refund_method"`
	HammerPrice               decimal.Decimal `json:"hammer_price"`
	BuyersPremium             decimal.Decimal `json:"buyers_premium"`
	InternationalShippingCost decimal.Decimal `json:"international_shipping_cost"`
	LocalShippingCost         decimal.Decimal `json:"local_shipping_cost"`
	HandlingInsuranceCost     decimal.Decimal `json:"handling_insurance_cost"`
	RequestedBy               string          `json:"requested_by"`
}

// CreateReimbursementRequest is the POST /api/reimbursements body.
type CreateReimbursementRequest struct {
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	PaymentMethod string           `json:"payment_method"`
	PaymentDate   time.Time        `json:"payment_date"`
	Purpose       string           `json:"purpose"`
	RequestedBy   string           `json:"requested_by"`
	ReceiptCount  int              `json:"receipt_count"`
}

// DecisionRequest is the body of the three approval endpoints.
type DecisionRequest struct {
	Approved        *bool  `json:"approved"`
	ActorID         string `json:"actor_id"`
	Comments        string `json:"comments"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
}

// CompletePaymentRequest is the complete-payment body.
type CompletePaymentRequest struct {
	PaymentReference string `json:"payment_reference"`
	ActorID          string `json:"actor_id"`
}

// MarkItemReturnedRequest is the item-returned body.
type MarkItemReturnedRequest struct {
	StaffID string `json:"staff_id"`
}

// ListRequest holds common pagination query parameters.
type ListRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (r *ListRequest) clamp() {
	if r.Limit <= 0 || r.Limit > 100 {
		r.Limit = 20
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// ListEligibleInvoices handles GET /api/invoices/for-refund.
func (h *Handlers) ListEligibleInvoices(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	req.clamp()

	invoices, err := h.refundService.ListEligibleInvoices(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: invoices})
}

// BuildRefundDraft handles GET /api/invoices/:id/refund-draft.
func (h *Handlers) BuildRefundDraft(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	refundType := derive.RefundType(c.Query("type"))
	if !refundType.IsValid() {
		h.badRequest(c, "unknown refund type")
		return
	}

	draft, err := h.refundService.BuildDraft(c.Request.Context(), id, refundType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: draft})
}

// CreateRefund handles POST /api/refunds.
func (h *Handlers) CreateRefund(c *gin.Context) {
	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	refund, err := h.refundService.Create(c.Request.Context(), service.CreateRefundInput{
		Type:                      derive.RefundType(req.Type),
		SourceInvoiceID:           req.SourceInvoiceID,
		Reason:                    req.Reason,
		Amount:                    req.Amount,
		RefundMethod:              entity.RefundMethod(req.RefundMethod),
		HammerPrice:               req.HammerPrice,
		BuyersPremium:             req.BuyersPremium,
		InternationalShippingCost: req.InternationalShippingCost,
		LocalShippingCost:         req.LocalShippingCost,
		HandlingInsuranceCost:     req.HandlingInsuranceCost,
		RequestedBy:               req.RequestedBy,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: refund})
}

// ListRefunds handles GET /api/refunds.
func (h *Handlers) ListRefunds(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	req.clamp()

	refunds, err := h.refundService.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: refunds})
}

// GetRefund handles GET /api/refunds/:id.
func (h *Handlers) GetRefund(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	refund, err := h.refundService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: refund})
}

// MarkItemReturned handles PUT /api/refunds/:id/item-returned.
func (h *Handlers) MarkItemReturned(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	var req MarkItemReturnedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	if err := h.refundService.MarkItemReturned(c.Request.Context(), id, req.StaffID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// CreateReimbursement handles POST /api/reimbursements.
func (h *Handlers) CreateReimbursement(c *gin.Context) {
	var req CreateReimbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	created, err := h.reimbursementService.Create(c.Request.Context(), service.CreateReimbursementInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      entity.ExpenseCategory(req.Category),
		TotalAmount:   req.TotalAmount,
		TaxRate:       req.TaxRate,
		PaymentMethod: entity.PaymentMethod(req.PaymentMethod),
		PaymentDate:   req.PaymentDate,
		Purpose:       req.Purpose,
		RequestedBy:   req.RequestedBy,
		ReceiptCount:  req.ReceiptCount,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// ListReimbursements handles GET /api/reimbursements.
func (h *Handlers) ListReimbursements(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	req.clamp()

	reqs, err := h.reimbursementService.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: reqs})
}

// GetReimbursement handles GET /api/reimbursements/:id.
func (h *Handlers) GetReimbursement(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	req, err := h.reimbursementService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// GetReimbursementHistory handles GET /api/reimbursements/:id/history.
func (h *Handlers) GetReimbursementHistory(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	entries, err := h.reimbursementService.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// DecideStage returns the handler for one approval stage endpoint.
func (h *Handlers) DecideStage(stage workflow.Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c)
		if !ok {
			return
		}

		var req DecisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "invalid request body")
			return
		}
		if req.Approved == nil {
			h.badRequest(c, "approved is required")
			return
		}

		updated, err := h.reimbursementService.Decide(c.Request.Context(), id, stage, service.DecisionInput{
			Approved:        *req.Approved,
			ActorID:         req.ActorID,
			Comments:        req.Comments,
			RejectionReason: req.RejectionReason,
			RequestID:       req.RequestID,
		})
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: updated})
	}
}

// CompletePayment handles PUT /api/reimbursements/:id/complete-payment.
func (h *Handlers) CompletePayment(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	var req CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	updated, err := h.reimbursementService.CompletePayment(c.Request.Context(), id, req.PaymentReference, req.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// GenerateVoucher handles POST /api/reimbursements/:id/voucher.
func (h *Handlers) GenerateVoucher(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	req, err := h.reimbursementService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	history, err := h.reimbursementService.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	path, err := h.voucherGenerator.Generate(req, history)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"voucher_path": path}})
}

func (h *Handlers) paramID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// respondError maps service and domain errors onto status codes. Illegal
// transitions surface the machine's error text verbatim so the caller
// sees exactly why the server disagreed.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: verr.Error()})
	case errors.Is(err, derive.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrStaleAmount),
		errors.Is(err, service.ErrInvoiceNotEligible),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrStageResolved),
		errors.Is(err, workflow.ErrPriorStagePending),
		errors.Is(err, workflow.ErrRequestRejected),
		errors.Is(err, workflow.ErrMissingRejectionReason),
		errors.Is(err, workflow.ErrNotFullyApproved):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
