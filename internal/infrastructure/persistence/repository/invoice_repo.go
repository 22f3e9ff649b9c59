package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jmcandrew/auction-backoffice/internal/application/port"
	"github.com/jmcandrew/auction-backoffice/internal/domain/entity"
)

// InvoiceRepository implements port.InvoiceRepository over sqlite.
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{db: db, logger: logger}
}

const invoiceColumns = `id, invoice_number, client_name, auction_reference,
	hammer_price, buyers_premium, shipping_charge, international_surcharge,
	handling_charge, insurance_charge, currency, settled, refunded,
	issued_at, created_at`

// GetByID retrieves an invoice by ID. Returns nil when not found.
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = ?`, invoiceColumns)

	invoice, err := scanInvoice(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// ListEligibleForRefund returns settled invoices that have not yet been
// refunded, newest first.
func (r *InvoiceRepository) ListEligibleForRefund(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM invoices
		WHERE settled = 1 AND refunded = 0
		ORDER BY issued_at DESC
		LIMIT ? OFFSET ?
	`, invoiceColumns)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list eligible invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list eligible invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// MarkRefunded flags an invoice as consumed by a refund.
func (r *InvoiceRepository) MarkRefunded(ctx context.Context, id int64) error {
	query := `UPDATE invoices SET refunded = 1 WHERE id = ?`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to mark invoice refunded", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark invoice refunded: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("invoice %d not found", id)
	}
	return nil
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row scannable) (*entity.Invoice, error) {
	var (
		invoice entity.Invoice
		hammer, premium, shipping,
		intlSurcharge, handling, insurance string
	)

	err := row.Scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&invoice.ClientName,
		&invoice.AuctionReference,
		&hammer,
		&premium,
		&shipping,
		&intlSurcharge,
		&handling,
		&insurance,
		&invoice.Currency,
		&invoice.Settled,
		&invoice.Refunded,
		&invoice.IssuedAt,
		&invoice.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, field := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{hammer, &invoice.HammerPrice},
		{premium, &invoice.BuyersPremium},
		{shipping, &invoice.ShippingCharge},
		{intlSurcharge, &invoice.InternationalSurcharge},
		{handling, &invoice.HandlingCharge},
		{insurance, &invoice.InsuranceCharge},
	} {
		d, err := decimalFromDB(field.raw)
		if err != nil {
			return nil, err
		}
		*field.dest = d
	}

	return &invoice, nil
}
