package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmcandrew/auction-backoffice/internal/application/port"
	"github.com/jmcandrew/auction-backoffice/internal/domain/derive"
	"github.com/jmcandrew/auction-backoffice/internal/domain/entity"
)

// Logger is the minimal logging dependency of the service layer.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateRefundInput is a refund submission. Amount is the value the
// caller last derived; the service re-derives it from the cost components
// and rejects the submission if the two disagree.
type CreateRefundInput struct {
	Type            derive.RefundType
	SourceInvoiceID int64
	Reason          string
	Amount          decimal.Decimal
	RefundMethod    entity.RefundMethod

	HammerPrice               decimal.Decimal
	BuyersPremium             decimal.Decimal
	InternationalShippingCost decimal.Decimal
	LocalShippingCost         decimal.Decimal
	HandlingInsuranceCost     decimal.Decimal

	RequestedBy string
}

// RefundService assembles refund requests from invoice snapshots and
// submits them.
type RefundService interface {
	ListEligibleInvoices(ctx context.Context, limit, offset int) ([]*entity.Invoice, error)
	BuildDraft(ctx context.Context, invoiceID int64, refundType derive.RefundType) (*entity.RefundRequest, error)
	Create(ctx context.Context, input CreateRefundInput) (*entity.RefundRequest, error)
	MarkItemReturned(ctx context.Context, id int64, staffID string) error
	Get(ctx context.Context, id int64) (*entity.RefundRequest, error)
	List(ctx context.Context, limit, offset int) ([]*entity.RefundRequest, error)
}

type refundServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	refundRepo  port.RefundRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewRefundService creates a new RefundService.
func NewRefundService(
	invoiceRepo port.InvoiceRepository,
	refundRepo port.RefundRepository,
	txManager port.TransactionManager,
	logger Logger,
) RefundService {
	return &refundServiceImpl{
		invoiceRepo: invoiceRepo,
		refundRepo:  refundRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// ListEligibleInvoices returns invoices usable as refund sources.
func (s *refundServiceImpl) ListEligibleInvoices(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	invoices, err := s.invoiceRepo.ListEligibleForRefund(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list eligible invoices", "error", err)
		return nil, err
	}
	return invoices, nil
}

// BuildDraft snapshots the selected invoice's charges into a refund draft
// and derives the amount for the requested type. The draft is not
// persisted; it is what the caller edits before submitting.
func (s *refundServiceImpl) BuildDraft(ctx context.Context, invoiceID int64, refundType derive.RefundType) (*entity.RefundRequest, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		s.logger.Error("Failed to fetch invoice for draft", "error", err, "invoice_id", invoiceID)
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: invoice %d", ErrNotFound, invoiceID)
	}

	draft := &entity.RefundRequest{
		Type:                      refundType,
		SourceInvoiceID:           invoice.ID,
		HammerPrice:               invoice.HammerPrice,
		BuyersPremium:             invoice.BuyersPremium,
		InternationalShippingCost: invoice.InternationalSurcharge,
		LocalShippingCost:         invoice.ShippingCharge,
		HandlingInsuranceCost:     invoice.HandlingCharge.Add(invoice.InsuranceCharge),
	}

	amount, err := derive.RefundAmount(refundType, draft.CostInputs())
	if err != nil {
		return nil, err
	}
	draft.Amount = amount

	return draft, nil
}

// Create validates and persists a refund submission. The amount is
// re-derived from the submitted cost components and must equal what the
// caller sent; refund records are immutable after this point.
func (s *refundServiceImpl) Create(ctx context.Context, input CreateRefundInput) (*entity.RefundRequest, error) {
	if err := validateRefundInput(input); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, input.SourceInvoiceID)
	if err != nil {
		s.logger.Error("Failed to fetch source invoice", "error", err, "invoice_id", input.SourceInvoiceID)
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: invoice %d", ErrNotFound, input.SourceInvoiceID)
	}
	if !invoice.Settled || invoice.Refunded {
		return nil, fmt.Errorf("%w: invoice %s", ErrInvoiceNotEligible, invoice.InvoiceNumber)
	}

	refund := &entity.RefundRequest{
		Type:                      input.Type,
		SourceInvoiceID:           input.SourceInvoiceID,
		Reason:                    input.Reason,
		RefundMethod:              input.RefundMethod,
		HammerPrice:               input.HammerPrice,
		BuyersPremium:             input.BuyersPremium,
		InternationalShippingCost: input.InternationalShippingCost,
		LocalShippingCost:         input.LocalShippingCost,
		HandlingInsuranceCost:     input.HandlingInsuranceCost,
		RequestedBy:               input.RequestedBy,
		CreatedAt:                 time.Now(),
	}

	derived, err := derive.RefundAmount(input.Type, refund.CostInputs())
	if err != nil {
		return nil, err
	}
	if !derived.Equal(input.Amount) {
		s.logger.Error("Stale refund amount rejected",
			"invoice_id", input.SourceInvoiceID,
			"submitted", input.Amount.String(),
			"derived", derived.String())
		return nil, fmt.Errorf("%w: submitted %s, derived %s", ErrStaleAmount, input.Amount, derived)
	}
	refund.Amount = derived

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.refundRepo.Create(txCtx, refund); err != nil {
			return fmt.Errorf("create refund: %w", err)
		}

		refund.RefundNumber = fmt.Sprintf("RF-%06d", refund.ID)
		if err := s.refundRepo.SetRefundNumber(txCtx, refund.ID, refund.RefundNumber); err != nil {
			return fmt.Errorf("set refund number: %w", err)
		}

		if err := s.invoiceRepo.MarkRefunded(txCtx, invoice.ID); err != nil {
			return fmt.Errorf("mark invoice refunded: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create refund", "error", err, "invoice_id", input.SourceInvoiceID)
		return nil, err
	}

	s.logger.Info("Refund created",
		"id", refund.ID,
		"refund_number", refund.RefundNumber,
		"amount", refund.Amount.String())
	return refund, nil
}

// MarkItemReturned records the staff member confirming physical return.
func (s *refundServiceImpl) MarkItemReturned(ctx context.Context, id int64, staffID string) error {
	if staffID == "" {
		return &ValidationError{Fields: []string{"itemReturnedBy"}}
	}

	refund, err := s.refundRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if refund == nil {
		return fmt.Errorf("%w: refund %d", ErrNotFound, id)
	}

	if err := s.refundRepo.SetItemReturnedBy(ctx, id, staffID); err != nil {
		s.logger.Error("Failed to mark item returned", "error", err, "id", id)
		return err
	}

	s.logger.Info("Item return confirmed", "id", id, "staff_id", staffID)
	return nil
}

// Get retrieves a refund by ID.
func (s *refundServiceImpl) Get(ctx context.Context, id int64) (*entity.RefundRequest, error) {
	refund, err := s.refundRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get refund", "error", err, "id", id)
		return nil, err
	}
	if refund == nil {
		return nil, fmt.Errorf("%w: refund %d", ErrNotFound, id)
	}
	return refund, nil
}

// List retrieves a paginated list of refunds.
func (s *refundServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.RefundRequest, error) {
	refunds, err := s.refundRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list refunds", "error", err)
		return nil, err
	}
	return refunds, nil
}

func validateRefundInput(input CreateRefundInput) error {
	verr := &ValidationError{}
	if !input.Type.IsValid() {
		verr.Add("type")
	}
	if input.SourceInvoiceID == 0 {
		verr.Add("sourceInvoiceId")
	}
	if input.Reason == "" {
		verr.Add("reason")
	}
	if !input.RefundMethod.IsValid() {
		verr.Add("refundMethod")
	}
	if input.RequestedBy == "" {
		verr.Add("requestedBy")
	}
	if input.Amount.IsNegative() {
		verr.Add("amount")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
