package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the snapshot of an auction invoice a refund is built from.
// Charges are copied into the refund's cost components at selection time;
// the refund never reads the invoice again after that.
type Invoice struct {
	ID                     int64           `json:"id"`
	InvoiceNumber          string          `json:"invoice_number"`
	ClientName             string          `json:"client_name"`
	AuctionReference       string          `json:"auction_reference"`
	HammerPrice            decimal.Decimal `json:"hammer_price"`
	BuyersPremium          decimal.Decimal `json:"buyers_premium"`
	ShippingCharge         decimal.Decimal `json:"shipping_charge"`
	InternationalSurcharge decimal.Decimal `json:"international_surcharge"`
	HandlingCharge         decimal.Decimal `json:"handling_charge"`
	InsuranceCharge        decimal.Decimal `json:"insurance_charge"`
	Currency               string          `json:"currency"`
	Settled                bool            `json:"settled"`
	Refunded               bool            `json:"refunded"`
	IssuedAt               time.Time       `json:"issued_at"`
	CreatedAt              time.Time       `json:"created_at"`
}
