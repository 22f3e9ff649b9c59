package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jmcandrew/auction-backoffice/internal/application/port"
	"github.com/jmcandrew/auction-backoffice/internal/domain/entity"
	"github.com/jmcandrew/auction-backoffice/internal/domain/workflow"
)

// ReimbursementRepository implements port.ReimbursementRepository over
// sqlite. The three sub-approvals are flattened into stage-prefixed
// columns; the status column always holds the derived aggregate.
type ReimbursementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReimbursementRepository creates a new reimbursement repository.
func NewReimbursementRepository(db *sql.DB, logger *zap.Logger) port.ReimbursementRepository {
	return &ReimbursementRepository{db: db, logger: logger}
}

const reimbursementColumns = `id, reimbursement_number, title, description,
	category, total_amount, tax_rate, tax_amount, net_amount,
	payment_method, payment_date, purpose, requested_by, has_receipts,
	status,
	d1_status, d1_actor_id, d1_decided_at, d1_comments, d1_rejection_reason,
	d2_status, d2_actor_id, d2_decided_at, d2_comments, d2_rejection_reason,
	acct_status, acct_actor_id, acct_decided_at, acct_comments, acct_rejection_reason,
	payment_reference, paid_at, created_at, updated_at`

// Create persists a new reimbursement request and sets its assigned ID.
func (r *ReimbursementRepository) Create(ctx context.Context, req *entity.ReimbursementRequest) error {
	query := `
		INSERT INTO reimbursement_requests (
			reimbursement_number, title, description, category,
			total_amount, tax_rate, tax_amount, net_amount,
			payment_method, payment_date, purpose, requested_by,
			has_receipts, status,
			d1_status, d2_status, acct_status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		req.ReimbursementNumber,
		req.Title,
		req.Description,
		string(req.Category),
		decimalToDB(req.TotalAmount),
		decimalToDB(req.TaxRate),
		decimalToDB(req.TaxAmount),
		decimalToDB(req.NetAmount),
		string(req.PaymentMethod),
		req.PaymentDate,
		req.Purpose,
		req.RequestedBy,
		req.HasReceipts,
		req.Status.String(),
		string(req.Approvals.Director1.Status),
		string(req.Approvals.Director2.Status),
		string(req.Approvals.Accountant.Status),
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create reimbursement", zap.Error(err))
		return fmt.Errorf("failed to create reimbursement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	return nil
}

// SetReimbursementNumber assigns the server-generated number.
func (r *ReimbursementRepository) SetReimbursementNumber(ctx context.Context, id int64, number string) error {
	query := `UPDATE reimbursement_requests SET reimbursement_number = ? WHERE id = ?`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, number, id); err != nil {
		r.logger.Error("Failed to set reimbursement number", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set reimbursement number: %w", err)
	}
	return nil
}

// GetByID retrieves a reimbursement by ID. Returns nil when not found.
func (r *ReimbursementRepository) GetByID(ctx context.Context, id int64) (*entity.ReimbursementRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM reimbursement_requests WHERE id = ?`, reimbursementColumns)

	req, err := scanReimbursement(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get reimbursement", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get reimbursement: %w", err)
	}
	return req, nil
}

// List retrieves reimbursements newest first.
func (r *ReimbursementRepository) List(ctx context.Context, limit, offset int) ([]*entity.ReimbursementRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM reimbursement_requests
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, reimbursementColumns)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list reimbursements", zap.Error(err))
		return nil, fmt.Errorf("failed to list reimbursements: %w", err)
	}
	defer rows.Close()

	var reqs []*entity.ReimbursementRequest
	for rows.Next() {
		req, err := scanReimbursement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reimbursement: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// UpdateApprovals persists the approval set, aggregate status and payment
// fields of an existing request.
func (r *ReimbursementRepository) UpdateApprovals(ctx context.Context, req *entity.ReimbursementRequest) error {
	query := `
		UPDATE reimbursement_requests SET
			status = ?,
			d1_status = ?, d1_actor_id = ?, d1_decided_at = ?, d1_comments = ?, d1_rejection_reason = ?,
			d2_status = ?, d2_actor_id = ?, d2_decided_at = ?, d2_comments = ?, d2_rejection_reason = ?,
			acct_status = ?, acct_actor_id = ?, acct_decided_at = ?, acct_comments = ?, acct_rejection_reason = ?,
			payment_reference = ?, paid_at = ?, updated_at = ?
		WHERE id = ?
	`

	args := []interface{}{req.Status.String()}
	for _, d := range []workflow.StageDecision{
		req.Approvals.Director1,
		req.Approvals.Director2,
		req.Approvals.Accountant,
	} {
		args = append(args,
			string(d.Status),
			d.ActorID,
			nullableTime(d.DecidedAt),
			d.Comments,
			d.RejectionReason,
		)
	}
	args = append(args, req.PaymentReference, nullableTime(req.PaidAt), req.UpdatedAt, req.ID)

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update approvals", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update approvals: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("reimbursement %d not found", req.ID)
	}
	return nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func scanReimbursement(row scannable) (*entity.ReimbursementRequest, error) {
	var (
		req                         entity.ReimbursementRequest
		category, paymentMethod     string
		status                      string
		total, taxRate, tax, net    string
		paymentReference            sql.NullString
		paidAt                      sql.NullTime
		stageStatus                 [3]string
		stageActor, stageComments   [3]sql.NullString
		stageReason                 [3]sql.NullString
		stageDecidedAt              [3]sql.NullTime
	)

	err := row.Scan(
		&req.ID,
		&req.ReimbursementNumber,
		&req.Title,
		&req.Description,
		&category,
		&total,
		&taxRate,
		&tax,
		&net,
		&paymentMethod,
		&req.PaymentDate,
		&req.Purpose,
		&req.RequestedBy,
		&req.HasReceipts,
		&status,
		&stageStatus[0], &stageActor[0], &stageDecidedAt[0], &stageComments[0], &stageReason[0],
		&stageStatus[1], &stageActor[1], &stageDecidedAt[1], &stageComments[1], &stageReason[1],
		&stageStatus[2], &stageActor[2], &stageDecidedAt[2], &stageComments[2], &stageReason[2],
		&paymentReference,
		&paidAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Category = entity.ExpenseCategory(category)
	req.PaymentMethod = entity.PaymentMethod(paymentMethod)
	req.Status = workflow.State(status)
	if paymentReference.Valid {
		req.PaymentReference = paymentReference.String
	}
	if paidAt.Valid {
		t := paidAt.Time
		req.PaidAt = &t
	}

	for _, field := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{total, &req.TotalAmount},
		{taxRate, &req.TaxRate},
		{tax, &req.TaxAmount},
		{net, &req.NetAmount},
	} {
		d, err := decimalFromDB(field.raw)
		if err != nil {
			return nil, err
		}
		*field.dest = d
	}

	decisions := []*workflow.StageDecision{
		&req.Approvals.Director1,
		&req.Approvals.Director2,
		&req.Approvals.Accountant,
	}
	for i, d := range decisions {
		d.Status = workflow.StageStatus(stageStatus[i])
		if stageActor[i].Valid {
			d.ActorID = stageActor[i].String
		}
		if stageDecidedAt[i].Valid {
			t := stageDecidedAt[i].Time
			d.DecidedAt = &t
		}
		if stageComments[i].Valid {
			d.Comments = stageComments[i].String
		}
		if stageReason[i].Valid {
			d.RejectionReason = stageReason[i].String
		}
	}

	return &req, nil
}

var _ port.ReimbursementRepository = (*ReimbursementRepository)(nil)
