package decimal_test

import (
	"testing"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-sri/internal/decimal"
)

func TestFromInt(t *testing.T) {
	d := decimal.FromInt(100)
	assert.True(t, d.Equal(dec.NewFromInt(100)))
}

func TestFromFloat(t *testing.T) {
	d := decimal.FromFloat(100.555)
	// Should round to 2 decimal places
	assert.True(t, d.Equal(dec.NewFromFloat(100.56)))
}

func TestFromString(t *testing.T) {
	d, err := decimal.FromString("1234.56")
	require.NoError(t, err)
	assert.True(t, d.Equal(dec.RequireFromString("1234.56")))

	_, err = decimal.FromString("not-a-number")
	require.Error(t, err)
}

func TestMustFromString(t *testing.T) {
	d := decimal.MustFromString("999.99")
	assert.True(t, d.Equal(dec.RequireFromString("999.99")))

	assert.Panics(t, func() {
		decimal.MustFromString("invalid")
	})
}

func TestMul(t *testing.T) {
	a := dec.NewFromInt(100)
	b := dec.NewFromFloat(0.15)
	result := decimal.Mul(a, b)
	assert.True(t, result.Equal(dec.NewFromInt(15)))
}

func TestDiv(t *testing.T) {
	a := dec.NewFromInt(100)
	b := dec.NewFromInt(3)
	result := decimal.Div(a, b)
	assert.True(t, result.Equal(dec.RequireFromString("33.33")))

	// Division by zero returns zero
	result = decimal.Div(a, dec.Zero)
	assert.True(t, result.IsZero())
}

func TestCalculateIVA(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		rate     string
		expected string
	}{
		{"15% of 100.00", "100.00", "15", "15.00"},
		{"12% of 100.00", "100.00", "12", "12.00"},
		{"8% of 50.00", "50.00", "8", "4.00"},
		{"0% of 100.00", "100.00", "0", "0.00"},
		{"15% of 0.10 rounds to cent", "0.10", "15", "0.02"},
		{"15% of 33.33", "33.33", "15", "5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decimal.CalculateIVA(
				dec.RequireFromString(tt.base),
				dec.RequireFromString(tt.rate),
			)
			assert.True(t, result.Equal(dec.RequireFromString(tt.expected)),
				"base=%s rate=%s: got %s, want %s", tt.base, tt.rate, result.String(), tt.expected)
		})
	}
}

func TestCalculateLineBase(t *testing.T) {
	// 3 * 19.99 - 5.00 = 54.97
	result := decimal.CalculateLineBase(
		dec.NewFromInt(3),
		dec.RequireFromString("19.99"),
		dec.RequireFromString("5.00"),
	)
	assert.True(t, result.Equal(dec.RequireFromString("54.97")))
}

func TestSum(t *testing.T) {
	values := []dec.Decimal{
		dec.RequireFromString("1.10"),
		dec.RequireFromString("2.20"),
		dec.RequireFromString("3.30"),
	}
	assert.True(t, decimal.Sum(values).Equal(dec.RequireFromString("6.60")))
	assert.True(t, decimal.Sum(nil).IsZero())
}

func TestIsPositive(t *testing.T) {
	assert.True(t, decimal.IsPositive(dec.NewFromInt(1)))
	assert.False(t, decimal.IsPositive(dec.Zero))
	assert.False(t, decimal.IsPositive(dec.NewFromInt(-1)))
}

func TestIsNonNegative(t *testing.T) {
	assert.True(t, decimal.IsNonNegative(dec.Zero))
	assert.True(t, decimal.IsNonNegative(dec.NewFromInt(1)))
	assert.False(t, decimal.IsNonNegative(dec.NewFromInt(-1)))
}

func TestAmountFormatting(t *testing.T) {
	assert.Equal(t, "10.00", decimal.Amount(dec.NewFromInt(10)))
	assert.Equal(t, "10.50", decimal.Amount(dec.RequireFromString("10.5")))
}

func TestQuantityFormatting(t *testing.T) {
	assert.Equal(t, "2.000000", decimal.Quantity(dec.NewFromInt(2)))
	assert.Equal(t, "0.123457", decimal.Quantity(dec.RequireFromString("0.1234565")))
}

func TestWithinTolerance(t *testing.T) {
	tol := dec.New(1, -2) // 0.01

	assert.True(t, decimal.WithinTolerance(
		dec.RequireFromString("100.00"), dec.RequireFromString("100.01"), tol))
	assert.True(t, decimal.WithinTolerance(
		dec.RequireFromString("100.01"), dec.RequireFromString("100.00"), tol))
	assert.False(t, decimal.WithinTolerance(
		dec.RequireFromString("100.00"), dec.RequireFromString("100.02"), tol))
}
