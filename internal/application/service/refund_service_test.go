package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcandrew/auction-backoffice/internal/domain/derive"
	"github.com/jmcandrew/auction-backoffice/internal/domain/entity"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// passthroughTxManager runs the function directly; the service layer does
// not care whether a real transaction is underneath.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockInvoiceRepo struct {
	GetByIDFn               func(ctx context.Context, id int64) (*entity.Invoice, error)
	ListEligibleForRefundFn func(ctx context.Context, limit, offset int) ([]*entity.Invoice, error)
	MarkRefundedFn          func(ctx context.Context, id int64) error
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockInvoiceRepo) ListEligibleForRefund(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	return m.ListEligibleForRefundFn(ctx, limit, offset)
}

func (m *mockInvoiceRepo) MarkRefunded(ctx context.Context, id int64) error {
	return m.MarkRefundedFn(ctx, id)
}

type mockRefundRepo struct {
	CreateFn            func(ctx context.Context, refund *entity.RefundRequest) error
	SetRefundNumberFn   func(ctx context.Context, id int64, number string) error
	GetByIDFn           func(ctx context.Context, id int64) (*entity.RefundRequest, error)
	ListFn              func(ctx context.Context, limit, offset int) ([]*entity.RefundRequest, error)
	SetItemReturnedByFn func(ctx context.Context, id int64, staffID string) error
}

func (m *mockRefundRepo) Create(ctx context.Context, refund *entity.RefundRequest) error {
	return m.CreateFn(ctx, refund)
}

func (m *mockRefundRepo) SetRefundNumber(ctx context.Context, id int64, number string) error {
	return m.SetRefundNumberFn(ctx, id, number)
}

func (m *mockRefundRepo) GetByID(ctx context.Context, id int64) (*entity.RefundRequest, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockRefundRepo) List(ctx context.Context, limit, offset int) ([]*entity.RefundRequest, error) {
	return m.ListFn(ctx, limit, offset)
}

func (m *mockRefundRepo) SetItemReturnedBy(ctx context.Context, id int64, staffID string) error {
	return m.SetItemReturnedByFn(ctx, id, staffID)
}

func eligibleInvoice() *entity.Invoice {
	return &entity.Invoice{
		ID:                     7,
		InvoiceNumber:          "INV-2026-0007",
		ClientName:             "E. Whitcombe",
		AuctionReference:       "SALE-114",
		HammerPrice:            dec("1200.00"),
		BuyersPremium:          dec("240.00"),
		ShippingCharge:         dec("25.00"),
		InternationalSurcharge: dec("40.00"),
		HandlingCharge:         dec("10.00"),
		InsuranceCharge:        dec("5.00"),
		Currency:               "GBP",
		Settled:                true,
		IssuedAt:               time.Now(),
	}
}

func TestRefundService_BuildDraft(t *testing.T) {
	invoiceRepo := &mockInvoiceRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*entity.Invoice, error) {
			return eligibleInvoice(), nil
		},
	}
	svc := NewRefundService(invoiceRepo, &mockRefundRepo{}, passthroughTxManager{}, nopLogger{})

	t.Run("artwork draft", func(t *testing.T) {
		draft, err := svc.BuildDraft(context.Background(), 7, derive.RefundTypeArtwork)
		require.NoError(t, err)

		assert.Equal(t, int64(7), draft.SourceInvoiceID)
		assert.Equal(t, "1200", draft.HammerPrice.String())
		assert.Equal(t, "240", draft.BuyersPremium.String())
		assert.Equal(t, "1440.00", draft.Amount.StringFixed(2))
	})

	t.Run("courier draft sums handling and insurance", func(t *testing.T) {
		draft, err := svc.BuildDraft(context.Background(), 7, derive.RefundTypeCourierDifference)
		require.NoError(t, err)

		assert.Equal(t, "40", draft.InternationalShippingCost.String())
		assert.Equal(t, "25", draft.LocalShippingCost.String())
		assert.Equal(t, "15", draft.HandlingInsuranceCost.String())
		// 40 - 25 + 15
		assert.Equal(t, "30.00", draft.Amount.StringFixed(2))
	})

	t.Run("missing invoice", func(t *testing.T) {
		repo := &mockInvoiceRepo{
			GetByIDFn: func(ctx context.Context, id int64) (*entity.Invoice, error) {
				return nil, nil
			},
		}
		svc := NewRefundService(repo, &mockRefundRepo{}, passthroughTxManager{}, nopLogger{})

		_, err := svc.BuildDraft(context.Background(), 99, derive.RefundTypeArtwork)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func validCreateInput() CreateRefundInput {
	return CreateRefundInput{
		Type:            derive.RefundTypeArtwork,
		SourceInvoiceID: 7,
		Reason:          "lot withdrawn after settlement",
		Amount:          dec("1440.00"),
		RefundMethod:    entity.RefundMethodBankTransfer,
		HammerPrice:     dec("1200.00"),
		BuyersPremium:   dec("240.00"),
		RequestedBy:     "staff-21",
	}
}

func TestRefundService_Create(t *testing.T) {
	var markedRefunded int64
	invoiceRepo := &mockInvoiceRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*entity.Invoice, error) {
			return eligibleInvoice(), nil
		},
		MarkRefundedFn: func(ctx context.Context, id int64) error {
			markedRefunded = id
			return nil
		},
	}
	refundRepo := &mockRefundRepo{
		CreateFn: func(ctx context.Context, refund *entity.RefundRequest) error {
			refund.ID = 42
			return nil
		},
		SetRefundNumberFn: func(ctx context.Context, id int64, number string) error {
			return nil
		},
	}
	svc := NewRefundService(invoiceRepo, refundRepo, passthroughTxManager{}, nopLogger{})

	refund, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, "RF-000042", refund.RefundNumber)
	assert.Equal(t, "1440.00", refund.Amount.StringFixed(2))
	assert.Equal(t, int64(7), markedRefunded)
}

func TestRefundService_Create_StaleAmount(t *testing.T) {
	invoiceRepo := &mockInvoiceRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*entity.Invoice, error) {
			return eligibleInvoice(), nil
		},
	}
	svc := NewRefundService(invoiceRepo, &mockRefundRepo{}, passthroughTxManager{}, nopLogger{})

	// Caller edited the hammer price after deriving the amount.
	input := validCreateInput()
	input.HammerPrice = dec("1500.00")

	_, err := svc.Create(context.Background(), input)
	assert.ErrorIs(t, err, ErrStaleAmount)
}

func TestRefundService_Create_IneligibleInvoice(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.Invoice)
	}{
		{"unsettled", func(inv *entity.Invoice) { inv.Settled = false }},
		{"already refunded", func(inv *entity.Invoice) { inv.Refunded = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoiceRepo := &mockInvoiceRepo{
				GetByIDFn: func(ctx context.Context, id int64) (*entity.Invoice, error) {
					inv := eligibleInvoice()
					tt.mutate(inv)
					return inv, nil
				},
			}
			svc := NewRefundService(invoiceRepo, &mockRefundRepo{}, passthroughTxManager{}, nopLogger{})

			_, err := svc.Create(context.Background(), validCreateInput())
			assert.ErrorIs(t, err, ErrInvoiceNotEligible)
		})
	}
}

func TestRefundService_Create_ValidationCollectsAllFields(t *testing.T) {
	svc := NewRefundService(&mockInvoiceRepo{}, &mockRefundRepo{}, passthroughTxManager{}, nopLogger{})

	_, err := svc.Create(context.Background(), CreateRefundInput{})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t,
		[]string{"type", "sourceInvoiceId", "reason", "refundMethod", "requestedBy"},
		verr.Fields)
}

func TestRefundService_MarkItemReturned(t *testing.T) {
	var recordedStaff string
	refundRepo := &mockRefundRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*entity.RefundRequest, error) {
			return &entity.RefundRequest{ID: id}, nil
		},
		SetItemReturnedByFn: func(ctx context.Context, id int64, staffID string) error {
			recordedStaff = staffID
			return nil
		},
	}
	svc := NewRefundService(&mockInvoiceRepo{}, refundRepo, passthroughTxManager{}, nopLogger{})

	require.NoError(t, svc.MarkItemReturned(context.Background(), 3, "staff-9"))
	assert.Equal(t, "staff-9", recordedStaff)

	t.Run("staff id required", func(t *testing.T) {
		err := svc.MarkItemReturned(context.Background(), 3, "")
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, []string{"itemReturnedBy"}, verr.Fields)
	})

	t.Run("unknown refund", func(t *testing.T) {
		repo := &mockRefundRepo{
			GetByIDFn: func(ctx context.Context, id int64) (*entity.RefundRequest, error) {
				return nil, nil
			},
		}
		svc := NewRefundService(&mockInvoiceRepo{}, repo, passthroughTxManager{}, nopLogger{})
		assert.ErrorIs(t, svc.MarkItemReturned(context.Background(), 99, "staff-9"), ErrNotFound)
	})
}
