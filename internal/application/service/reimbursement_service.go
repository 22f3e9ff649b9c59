package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmcandrew/auction-backoffice/internal/application/port"
	"github.com/jmcandrew/auction-backoffice/internal/domain/derive"
	"github.com/jmcandrew/auction-backoffice/internal/domain/entity"
	"github.com/jmcandrew/auction-backoffice/internal/domain/workflow"
)

// CreateReimbursementInput is a reimbursement submission. TotalAmount is
// the user-entered gross figure; tax and net are derived server-side.
type CreateReimbursementInput struct {
	Title         string
	Description   string
	Category      entity.ExpenseCategory
	TotalAmount   decimal.Decimal
	TaxRate       *decimal.Decimal // nil means the configured default rate
	PaymentMethod entity.PaymentMethod
	PaymentDate   time.Time
	Purpose       string
	RequestedBy   string
	ReceiptCount  int
}

// DecisionInput is one reviewer's decision on an approval stage.
// RequestID is an optional idempotency key: a replayed key returns the
// already-applied record instead of a transition error.
type DecisionInput struct {
	Approved        bool
	ActorID         string
	Comments        string
	RejectionReason string
	RequestID       string
}

// ReimbursementService drives reimbursement requests through the
// three-stage approval chain and payment completion.
type ReimbursementService interface {
	Create(ctx context.Context, input CreateReimbursementInput) (*entity.ReimbursementRequest, error)
	Get(ctx context.Context, id int64) (*entity.ReimbursementRequest, error)
	List(ctx context.Context, limit, offset int) ([]*entity.ReimbursementRequest, error)
	Decide(ctx context.Context, id int64, stage workflow.Stage, input DecisionInput) (*entity.ReimbursementRequest, error)
	CompletePayment(ctx context.Context, id int64, paymentReference, actorID string) (*entity.ReimbursementRequest, error)
	History(ctx context.Context, id int64) ([]*entity.ApprovalHistory, error)
}

type reimbursementServiceImpl struct {
	repo           port.ReimbursementRepository
	historyRepo    port.HistoryRepository
	txManager      port.TransactionManager
	defaultTaxRate decimal.Decimal
	logger         Logger

	// locks serializes state-changing actions per request so two
	// concurrent decisions cannot both read the same pending stage.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewReimbursementService creates a new ReimbursementService.
func NewReimbursementService(
	repo port.ReimbursementRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	defaultTaxRate decimal.Decimal,
	logger Logger,
) ReimbursementService {
	return &reimbursementServiceImpl{
		repo:           repo,
		historyRepo:    historyRepo,
		txManager:      txManager,
		defaultTaxRate: defaultTaxRate,
		logger:         logger,
		locks:          make(map[int64]*sync.Mutex),
	}
}

// Create validates and persists a new reimbursement request with all
// three approval stages pending.
func (s *reimbursementServiceImpl) Create(ctx context.Context, input CreateReimbursementInput) (*entity.ReimbursementRequest, error) {
	if err := validateReimbursementInput(input); err != nil {
		return nil, err
	}

	taxRate := s.defaultTaxRate
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}

	taxAmount, netAmount, err := derive.TaxBreakdown(input.TotalAmount, taxRate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	req := &entity.ReimbursementRequest{
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		TotalAmount:   input.TotalAmount,
		TaxRate:       taxRate,
		TaxAmount:     taxAmount,
		NetAmount:     netAmount,
		PaymentMethod: input.PaymentMethod,
		PaymentDate:   input.PaymentDate,
		Purpose:       input.Purpose,
		RequestedBy:   input.RequestedBy,
		HasReceipts:   input.ReceiptCount > 0,
		Approvals:     workflow.NewApprovals(),
		Status:        workflow.StatePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create reimbursement: %w", err)
		}

		req.ReimbursementNumber = fmt.Sprintf("RMB-%06d", req.ID)
		if err := s.repo.SetReimbursementNumber(txCtx, req.ID, req.ReimbursementNumber); err != nil {
			return fmt.Errorf("set reimbursement number: %w", err)
		}

		history := &entity.ApprovalHistory{
			ReimbursementID: req.ID,
			Action:          entity.ActionCreate,
			ActorID:         req.RequestedBy,
			NewStatus:       req.Status.String(),
			Timestamp:       now,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create reimbursement", "error", err, "requested_by", input.RequestedBy)
		return nil, err
	}

	s.logger.Info("Reimbursement created",
		"id", req.ID,
		"reimbursement_number", req.ReimbursementNumber,
		"total_amount", req.TotalAmount.String(),
		"tax_amount", req.TaxAmount.String(),
		"net_amount", req.NetAmount.String())
	return req, nil
}

// Get retrieves a reimbursement by ID.
func (s *reimbursementServiceImpl) Get(ctx context.Context, id int64) (*entity.ReimbursementRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get reimbursement", "error", err, "id", id)
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: reimbursement %d", ErrNotFound, id)
	}
	return req, nil
}

// List retrieves a paginated list of reimbursements.
func (s *reimbursementServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.ReimbursementRequest, error) {
	reqs, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list reimbursements", "error", err)
		return nil, err
	}
	return reqs, nil
}

// Decide applies one reviewer's decision to the given stage. Legality is
// checked by the approval chain before anything is written; the stage
// decision, the recomputed aggregate status and the audit row are
// persisted in one transaction.
func (s *reimbursementServiceImpl) Decide(ctx context.Context, id int64, stage workflow.Stage, input DecisionInput) (*entity.ReimbursementRequest, error) {
	if input.ActorID == "" {
		return nil, &ValidationError{Fields: []string{"actorId"}}
	}
	if input.RequestID != "" {
		if _, err := uuid.Parse(input.RequestID); err != nil {
			return nil, &ValidationError{Fields: []string{"requestId"}}
		}
	}

	unlock := s.lock(id)
	defer unlock()

	if input.RequestID != "" {
		seen, err := s.historyRepo.GetByRequestID(ctx, input.RequestID)
		if err != nil {
			return nil, err
		}
		if seen != nil {
			s.logger.Info("Replayed decision request", "id", id, "request_id", input.RequestID)
			return s.Get(ctx, id)
		}
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	decision := workflow.StageDecision{
		Status:    workflow.StageApproved,
		ActorID:   input.ActorID,
		DecidedAt: &now,
		Comments:  input.Comments,
	}
	action := entity.ActionApprove
	if !input.Approved {
		decision.Status = workflow.StageRejected
		decision.RejectionReason = input.RejectionReason
		action = entity.ActionReject
	}

	previousStatus := req.Status
	updated, err := req.Approvals.Apply(stage, decision)
	if err != nil {
		s.logger.Error("Illegal approval decision",
			"id", id,
			"stage", stage.String(),
			"action", action,
			"error", err)
		return nil, err
	}

	req.Approvals = updated
	req.Status = updated.Aggregate(req.Paid())
	req.UpdatedAt = now

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateApprovals(txCtx, req); err != nil {
			return fmt.Errorf("update approvals: %w", err)
		}

		history := &entity.ApprovalHistory{
			ReimbursementID: id,
			Stage:           stage.String(),
			Action:          action,
			ActorID:         input.ActorID,
			PreviousStatus:  previousStatus.String(),
			NewStatus:       req.Status.String(),
			Comments:        input.Comments,
			RequestID:       input.RequestID,
			Timestamp:       now,
		}
		if action == entity.ActionReject {
			history.Comments = input.RejectionReason
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist decision", "error", err, "id", id, "stage", stage.String())
		return nil, err
	}

	s.logger.Info("Decision applied",
		"id", id,
		"stage", stage.String(),
		"action", action,
		"status", req.Status.String())
	return req, nil
}

// CompletePayment records the payment reference and moves a fully
// approved request to PAID. This is the fourth, final gate and is
// distinct from accountant approval.
func (s *reimbursementServiceImpl) CompletePayment(ctx context.Context, id int64, paymentReference, actorID string) (*entity.ReimbursementRequest, error) {
	verr := &ValidationError{}
	if paymentReference == "" {
		verr.Add("paymentReference")
	}
	if actorID == "" {
		verr.Add("actorId")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	unlock := s.lock(id)
	defer unlock()

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != workflow.StateFullyApproved {
		return nil, fmt.Errorf("%w: status is %s", workflow.ErrNotFullyApproved, req.Status)
	}

	machine := workflow.NewReimbursementMachine(req.Status)
	if err := machine.Fire(ctx, workflow.TriggerCompletePayment); err != nil {
		return nil, err
	}

	now := time.Now()
	previousStatus := req.Status
	req.PaymentReference = paymentReference
	req.PaidAt = &now
	req.Status = req.Approvals.Aggregate(true)
	req.UpdatedAt = now

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateApprovals(txCtx, req); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		history := &entity.ApprovalHistory{
			ReimbursementID: id,
			Action:          entity.ActionCompletePayment,
			ActorID:         actorID,
			PreviousStatus:  previousStatus.String(),
			NewStatus:       req.Status.String(),
			Comments:        paymentReference,
			Timestamp:       now,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to complete payment", "error", err, "id", id)
		return nil, err
	}

	s.logger.Info("Payment completed", "id", id, "payment_reference", paymentReference)
	return req, nil
}

// History returns the audit trail for a reimbursement.
func (s *reimbursementServiceImpl) History(ctx context.Context, id int64) ([]*entity.ApprovalHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.GetByReimbursementID(ctx, id)
}

// lock acquires the per-request mutex and returns its release func.
func (s *reimbursementServiceImpl) lock(id int64) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func validateReimbursementInput(input CreateReimbursementInput) error {
	verr := &ValidationError{}
	if input.Title == "" {
		verr.Add("title")
	}
	if input.Description == "" {
		verr.Add("description")
	}
	if !input.Category.IsValid() {
		verr.Add("category")
	}
	if !input.TotalAmount.IsPositive() {
		verr.Add("totalAmount")
	}
	if !input.PaymentMethod.IsValid() {
		verr.Add("paymentMethod")
	}
	if input.PaymentDate.IsZero() {
		verr.Add("paymentDate")
	}
	if input.Purpose == "" {
		verr.Add("purpose")
	}
	if input.RequestedBy == "" {
		verr.Add("requestedBy")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
