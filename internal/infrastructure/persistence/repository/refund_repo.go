package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jmcandrew/auction-backoffice/internal/application/port"
	"github.com/jmcandrew/auction-backoffice/internal/domain/derive"
	"github.com/jmcandrew/auction-backoffice/internal/domain/entity"
)

// RefundRepository implements port.RefundRepository over sqlite.
type RefundRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRefundRepository creates a new refund repository.
func NewRefundRepository(db *sql.DB, logger *zap.Logger) port.RefundRepository {
	return &RefundRepository{db: db, logger: logger}
}

const refundColumns = `id, refund_number, type, source_invoice_id, reason,
	amount, refund_method, hammer_price, buyers_premium,
	international_shipping_cost, local_shipping_cost, handling_insurance_cost,
	item_returned_by, requested_by, created_at`

// Create persists a new refund request and sets its assigned ID.
func (r *RefundRepository) Create(ctx context.Context, refund *entity.RefundRequest) error {
	query := `
		INSERT INTO refund_requests (
			refund_number, type, source_invoice_id, reason, amount,
			refund_method, hammer_price, buyers_premium,
			international_shipping_cost, local_shipping_cost,
			handling_insurance_cost, requested_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		refund.RefundNumber,
		refund.Type.String(),
		refund.SourceInvoiceID,
		refund.Reason,
		decimalToDB(refund.Amount),
		string(refund.RefundMethod),
		decimalToDB(refund.HammerPrice),
		decimalToDB(refund.BuyersPremium),
		decimalToDB(refund.InternationalShippingCost),
		decimalToDB(refund.LocalShippingCost),
		decimalToDB(refund.HandlingInsuranceCost),
		refund.RequestedBy,
		refund.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create refund", zap.Error(err))
		return fmt.Errorf("failed to create refund: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	refund.ID = id
	return nil
}

// SetRefundNumber assigns the server-generated refund number.
func (r *RefundRepository) SetRefundNumber(ctx context.Context, id int64, number string) error {
	query := `UPDATE refund_requests SET refund_number = ? WHERE id = ?`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, number, id); err != nil {
		r.logger.Error("Failed to set refund number", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set refund number: %w", err)
	}
	return nil
}

// GetByID retrieves a refund by ID. Returns nil when not found.
func (r *RefundRepository) GetByID(ctx context.Context, id int64) (*entity.RefundRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM refund_requests WHERE id = ?`, refundColumns)

	refund, err := scanRefund(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get refund", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	return refund, nil
}

// List retrieves refunds newest first.
func (r *RefundRepository) List(ctx context.Context, limit, offset int) ([]*entity.RefundRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM refund_requests
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, refundColumns)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list refunds", zap.Error(err))
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*entity.RefundRequest
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		refunds = append(refunds, refund)
	}
	return refunds, rows.Err()
}

// SetItemReturnedBy records the staff member who confirmed physical return.
func (r *RefundRepository) SetItemReturnedBy(ctx context.Context, id int64, staffID string) error {
	query := `UPDATE refund_requests SET item_returned_by = ? WHERE id = ?`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, staffID, id)
	if err != nil {
		r.logger.Error("Failed to set item returned by", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set item returned by: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("refund %d not found", id)
	}
	return nil
}

func scanRefund(row scannable) (*entity.RefundRequest, error) {
	var (
		refund         entity.RefundRequest
		refundType     string
		refundMethod   string
		itemReturnedBy sql.NullString
		amount, hammer, premium,
		intlShipping, localShipping, handling string
	)

	err := row.Scan(
		&refund.ID,
		&refund.RefundNumber,
		&refundType,
		&refund.SourceInvoiceID,
		&refund.Reason,
		&amount,
		&refundMethod,
		&hammer,
		&premium,
		&intlShipping,
		&localShipping,
		&handling,
		&itemReturnedBy,
		&refund.RequestedBy,
		&refund.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	refund.Type = derive.RefundType(refundType)
	refund.RefundMethod = entity.RefundMethod(refundMethod)
	if itemReturnedBy.Valid {
		refund.ItemReturnedBy = &itemReturnedBy.String
	}

	for _, field := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{amount, &refund.Amount},
		{hammer, &refund.HammerPrice},
		{premium, &refund.BuyersPremium},
		{intlShipping, &refund.InternationalShippingCost},
		{localShipping, &refund.LocalShippingCost},
		{handling, &refund.HandlingInsuranceCost},
	} {
		d, err := decimalFromDB(field.raw)
		if err != nil {
			return nil, err
		}
		*field.dest = d
	}

	return &refund, nil
}
