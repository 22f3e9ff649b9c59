package port

import (
	"context"

	"github.com/jmcandrew/auction-backoffice/internal/domain/entity"
)

// InvoiceRepository defines persistence operations for Invoice snapshots.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	ListEligibleForRefund(ctx context.Context, limit, offset int) ([]*entity.Invoice, error)
	MarkRefunded(ctx context.Context, id int64) error
}

// RefundRepository defines persistence operations for RefundRequest.
// Refund records are immutable apart from the item-returned confirmation.
type RefundRepository interface {
	Create(ctx context.Context, refund *entity.RefundRequest) error
	SetRefundNumber(ctx context.Context, id int64, number string) error
	GetByID(ctx context.Context, id int64) (*entity.RefundRequest, error)
	List(ctx context.Context, limit, offset int) ([]*entity.RefundRequest, error)
	SetItemReturnedBy(ctx context.Context, id int64, staffID string) error
}

// ReimbursementRepository defines persistence operations for
// ReimbursementRequest.
type ReimbursementRepository interface {
	Create(ctx context.Context, req *entity.ReimbursementRequest) error
	SetReimbursementNumber(ctx context.Context, id int64, number string) error
	GetByID(ctx context.Context, id int64) (*entity.ReimbursementRequest, error)
	List(ctx context.Context, limit, offset int) ([]*entity.ReimbursementRequest, error)

	// UpdateApprovals persists the approval set, derived aggregate status,
	// and payment fields of an existing request.
	UpdateApprovals(ctx context.Context, req *entity.ReimbursementRequest) error
}

// HistoryRepository defines persistence operations for the approval audit
// trail.
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ApprovalHistory) error
	GetByReimbursementID(ctx context.Context, reimbursementID int64) ([]*entity.ApprovalHistory, error)

	// GetByRequestID looks up a history row by its idempotency key.
	// Returns nil without error when the key has not been seen.
	GetByRequestID(ctx context.Context, requestID string) (*entity.ApprovalHistory, error)
}

// TransactionManager handles database transactions.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
