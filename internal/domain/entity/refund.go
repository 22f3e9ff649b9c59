package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmcandrew/auction-backoffice/internal/domain/derive"
)

// RefundMethod is how the refunded amount is paid back to the client.
type RefundMethod string

const (
	RefundMethodBankTransfer RefundMethod = "BANK_TRANSFER"
	RefundMethodCreditCard   RefundMethod = "CREDIT_CARD"
	RefundMethodCheque       RefundMethod = "CHEQUE"
	RefundMethodCash         RefundMethod = "CASH"
	RefundMethodStoreCredit  RefundMethod = "STORE_CREDIT"
)

var validRefundMethods = map[RefundMethod]bool{
	RefundMethodBankTransfer: true,
	RefundMethodCreditCard:   true,
	RefundMethodCheque:       true,
	RefundMethodCash:         true,
	RefundMethodStoreCredit:  true,
}

// IsValid returns true if the refund method is known.
func (m RefundMethod) IsValid() bool {
	return validRefundMethods[m]
}

// RefundRequest is an invoice-scoped refund. The amount is always the
// output of the derivation engine for the stored cost components; it is
// never edited directly, and the record is immutable once created apart
// from the item-returned confirmation.
type RefundRequest struct {
	ID              int64             `json:"id"`
	RefundNumber    string            `json:"refund_number"`
	Type            derive.RefundType `json:"type"`
	SourceInvoiceID int64             `json:"source_invoice_id"`
	Reason          string            `json:"reason"`
	Amount          decimal.Decimal   `json:"amount"`
	RefundMethod    RefundMethod      `json:"refund_method"`

	HammerPrice               decimal.Decimal `json:"hammer_price"`
	BuyersPremium             decimal.Decimal `json:"buyers_premium"`
	InternationalShippingCost decimal.Decimal `json:"international_shipping_cost"`
	LocalShippingCost         decimal.Decimal `json:"local_shipping_cost"`
	HandlingInsuranceCost     decimal.Decimal `json:"handling_insurance_cost"`

	// ItemReturnedBy is the staff member who confirmed physical return of
	// the artwork. Optional at creation, expected before completion.
	ItemReturnedBy *string   `json:"item_returned_by,omitempty"`
	RequestedBy    string    `json:"requested_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// CostInputs returns the refund's cost components in derivation form.
func (r *RefundRequest) CostInputs() derive.CostInputs {
	return derive.CostInputs{
		HammerPrice:           r.HammerPrice,
		BuyersPremium:         r.BuyersPremium,
		InternationalShipping: r.InternationalShippingCost,
		LocalShipping:         r.LocalShippingCost,
		HandlingInsurance:     r.HandlingInsuranceCost,
	}
}
