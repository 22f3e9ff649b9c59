package derive

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestRefundAmount_Artwork(t *testing.T) {
	tests := []struct {
		name     string
		inputs   CostInputs
		expected string
	}{
		{
			name:     "hammer plus premium",
			inputs:   CostInputs{HammerPrice: d("1200.00"), BuyersPremium: d("300.00")},
			expected: "1500.00",
		},
		{
			name:     "missing premium treated as zero",
			inputs:   CostInputs{HammerPrice: d("850.50")},
			expected: "850.50",
		},
		{
			name:     "all fields absent",
			inputs:   CostInputs{},
			expected: "0.00",
		},
		{
			name:     "shipping fields ignored for artwork refunds",
			inputs:   CostInputs{HammerPrice: d("100"), BuyersPremium: d("25"), InternationalShipping: d("999")},
			expected: "125.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := RefundAmount(RefundTypeArtwork, tt.inputs)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amount.StringFixed(2))
		})
	}
}

func TestRefundAmount_CourierDifference(t *testing.T) {
	tests := []struct {
		name     string
		inputs   CostInputs
		expected string
	}{
		{
			name: "international exceeds local",
			inputs: CostInputs{
				InternationalShipping: d("200"),
				LocalShipping:         d("80"),
				HandlingInsurance:     d("15"),
			},
			expected: "135.00",
		},
		{
			name: "clamped to zero when local exceeds international",
			inputs: CostInputs{
				InternationalShipping: d("100"),
				LocalShipping:         d("150"),
				HandlingInsurance:     d("20"),
			},
			expected: "0.00",
		},
		{
			name: "handling alone",
			inputs: CostInputs{
				HandlingInsurance: d("42.35"),
			},
			expected: "42.35",
		},
		{
			name: "hammer price ignored for courier refunds",
			inputs: CostInputs{
				HammerPrice:           d("5000"),
				InternationalShipping: d("60"),
				LocalShipping:         d("10"),
			},
			expected: "50.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := RefundAmount(RefundTypeCourierDifference, tt.inputs)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amount.StringFixed(2))
			assert.False(t, amount.IsNegative())
		})
	}
}

func TestRefundAmount_InvalidInput(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		_, err := RefundAmount(RefundType("STORE_CREDIT"), CostInputs{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative cost component", func(t *testing.T) {
		_, err := RefundAmount(RefundTypeArtwork, CostInputs{HammerPrice: d("-10")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative shipping", func(t *testing.T) {
		_, err := RefundAmount(RefundTypeCourierDifference, CostInputs{LocalShipping: d("-0.01")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestRefundAmount_Idempotent(t *testing.T) {
	inputs := CostInputs{
		InternationalShipping: d("123.456"),
		LocalShipping:         d("23.45"),
		HandlingInsurance:     d("7.89"),
	}

	first, err := RefundAmount(RefundTypeCourierDifference, inputs)
	require.NoError(t, err)
	second, err := RefundAmount(RefundTypeCourierDifference, inputs)
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
}

func TestTaxBreakdown(t *testing.T) {
	tests := []struct {
		name        string
		total       string
		rate        string
		expectedTax string
		expectedNet string
	}{
		{"standard rate", "250.00", "0.20", "50.00", "200.00"},
		{"rounding up not truncation", "33.33", "0.20", "6.67", "26.66"},
		{"zero rate", "99.99", "0", "0.00", "99.99"},
		{"full rate", "80", "1", "80.00", "0.00"},
		{"thousand at twenty percent", "1000", "0.20", "200.00", "800.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tax, net, err := TaxBreakdown(d(tt.total), d(tt.rate))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedTax, tax.StringFixed(2))
			assert.Equal(t, tt.expectedNet, net.StringFixed(2))
			assert.True(t, tax.Add(net).Equal(d(tt.total)), "tax + net must equal total")
		})
	}
}

func TestTaxBreakdown_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		total string
		rate  string
	}{
		{"negative total", "-1", "0.20"},
		{"negative rate", "100", "-0.05"},
		{"rate above one", "100", "1.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := TaxBreakdown(d(tt.total), d(tt.rate))
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
