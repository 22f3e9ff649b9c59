// Package derive implements the monetary derivation rules for refunds and
// reimbursements. Everything in this package is a pure function over
// decimal values: no I/O, no state, safe to call both for live previews
// and for submit-time revalidation.
package derive

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when a derivation input is out of range.
// Invalid input blocks submission; it is never silently coerced to zero.
var ErrInvalidInput = errors.New("invalid derivation input")

// RefundType selects which refund formula applies.
type RefundType string

const (
	RefundTypeArtwork           RefundType = "ARTWORK_REFUND"
	RefundTypeCourierDifference RefundType = "COURIER_DIFFERENCE_REFUND"
)

var validRefundTypes = map[RefundType]bool{
	RefundTypeArtwork:           true,
	RefundTypeCourierDifference: true,
}

// IsValid returns true if the refund type is known.
func (t RefundType) IsValid() bool {
	return validRefundTypes[t]
}

// String returns the string representation of the refund type.
func (t RefundType) String() string {
	return string(t)
}

// CostInputs holds the named cost components a refund amount is derived
// from. A zero-value field means the component is absent, which is valid.
type CostInputs struct {
	HammerPrice           decimal.Decimal
	BuyersPremium         decimal.Decimal
	InternationalShipping decimal.Decimal
	LocalShipping         decimal.Decimal
	HandlingInsurance     decimal.Decimal
}

// RefundAmount computes the refund amount for the given type and cost
// inputs, rounded to 2 decimal places. The result is never negative: the
// courier-difference formula clamps to zero because a refund cannot be
// owed in the other direction.
func RefundAmount(t RefundType, in CostInputs) (decimal.Decimal, error) {
	if !t.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: unknown refund type %q", ErrInvalidInput, t)
	}
	if err := in.validate(); err != nil {
		return decimal.Zero, err
	}

	switch t {
	case RefundTypeArtwork:
		return in.HammerPrice.Add(in.BuyersPremium).Round(2), nil
	case RefundTypeCourierDifference:
		amount := in.InternationalShipping.Sub(in.LocalShipping).Add(in.HandlingInsurance)
		if amount.IsNegative() {
			return decimal.Zero.Round(2), nil
		}
		return amount.Round(2), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown refund type %q", ErrInvalidInput, t)
	}
}

// TaxBreakdown computes the tax and net portions of a gross reimbursement
// amount. The rate is a fraction in [0, 1]; values outside that range are
// an input error, not clamped. Tax is rounded to 2 decimal places and the
// net amount is whatever remains, so tax + net always equals the total.
func TaxBreakdown(totalAmount, taxRate decimal.Decimal) (tax, net decimal.Decimal, err error) {
	if totalAmount.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: total amount must not be negative, got %s", ErrInvalidInput, totalAmount)
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: tax rate must be a fraction in [0, 1], got %s", ErrInvalidInput, taxRate)
	}

	tax = totalAmount.Mul(taxRate).Round(2)
	net = totalAmount.Sub(tax)
	return tax, net, nil
}

func (in CostInputs) validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"hammerPrice", in.HammerPrice},
		{"buyersPremium", in.BuyersPremium},
		{"internationalShippingCost", in.InternationalShipping},
		{"localShippingCost", in.LocalShipping},
		{"handlingInsuranceCost", in.HandlingInsurance},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidInput, f.name, f.value)
		}
	}
	return nil
}
