package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-sri/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestInvoiceLineCalculate(t *testing.T) {
	line := model.InvoiceLine{
		Quantity:  d("3"),
		UnitPrice: d("19.99"),
		Discount:  d("5.00"),
		Tax:       model.TaxBreakdown{RateCode: model.RateCodeFifteen, Rate: d("15")},
	}

	line.Calculate()

	// 3 * 19.99 - 5.00 = 54.97; 15% IVA = 8.2455 -> 8.25
	assert.Equal(t, "54.97", line.Base.StringFixed(2))
	assert.Equal(t, model.TaxCodeIVA, line.Tax.TaxCode)
	assert.Equal(t, "54.97", line.Tax.Base.StringFixed(2))
	assert.Equal(t, "8.25", line.Tax.TaxAmount.StringFixed(2))
}

func TestInvoiceLineCalculate_ZeroRate(t *testing.T) {
	line := model.InvoiceLine{
		Quantity:  d("2"),
		UnitPrice: d("10.00"),
		Tax:       model.TaxBreakdown{RateCode: model.RateCodeZero, Rate: decimal.Zero},
	}

	line.Calculate()

	assert.Equal(t, "20.00", line.Base.StringFixed(2))
	assert.True(t, line.Tax.TaxAmount.IsZero())
}

func TestCalculateTotals(t *testing.T) {
	inv := model.Invoice{
		Tip: d("1.00"),
		Lines: []model.InvoiceLine{
			{
				Quantity:  d("2"),
				UnitPrice: d("50.00"),
				Tax:       model.TaxBreakdown{RateCode: model.RateCodeFifteen, Rate: d("15")},
			},
			{
				Quantity:  d("1"),
				UnitPrice: d("30.00"),
				Discount:  d("10.00"),
				Tax:       model.TaxBreakdown{RateCode: model.RateCodeFifteen, Rate: d("15")},
			},
			{
				Quantity:  d("5"),
				UnitPrice: d("4.00"),
				Tax:       model.TaxBreakdown{RateCode: model.RateCodeZero, Rate: decimal.Zero},
			},
		},
	}

	inv.CalculateTotals()

	// Bases: 100.00 + 20.00 + 20.00 = 140.00
	assert.Equal(t, "140.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", inv.TotalDiscount.StringFixed(2))
	// IVA: 15.00 + 3.00 = 18.00
	assert.Equal(t, "18.00", inv.TotalTax.StringFixed(2))
	// 140.00 + 18.00 + 1.00
	assert.Equal(t, "159.00", inv.GrandTotal.StringFixed(2))

	// Buckets in first-seen order
	require.Len(t, inv.TaxTotals, 2)
	assert.Equal(t, model.RateCodeFifteen, inv.TaxTotals[0].RateCode)
	assert.Equal(t, "120.00", inv.TaxTotals[0].Base.StringFixed(2))
	assert.Equal(t, "18.00", inv.TaxTotals[0].TaxAmount.StringFixed(2))
	assert.Equal(t, model.RateCodeZero, inv.TaxTotals[1].RateCode)
	assert.Equal(t, "20.00", inv.TaxTotals[1].Base.StringFixed(2))
	assert.Equal(t, "0.00", inv.TaxTotals[1].TaxAmount.StringFixed(2))
}

func TestCalculateTotals_Recompute(t *testing.T) {
	inv := model.Invoice{
		Lines: []model.InvoiceLine{
			{
				Quantity:  d("1"),
				UnitPrice: d("10.00"),
				Tax:       model.TaxBreakdown{RateCode: model.RateCodeFifteen, Rate: d("15")},
			},
		},
	}

	inv.CalculateTotals()
	inv.CalculateTotals()

	// Buckets must not accumulate across recomputations.
	require.Len(t, inv.TaxTotals, 1)
	assert.Equal(t, "10.00", inv.TaxTotals[0].Base.StringFixed(2))
	assert.Equal(t, "11.50", inv.GrandTotal.StringFixed(2))
}

func TestNumberSegments(t *testing.T) {
	inv := model.Invoice{Number: "001-002-000000123"}

	assert.Equal(t, "001", inv.Establishment())
	assert.Equal(t, "002", inv.EmissionPoint())
	assert.Equal(t, "000000123", inv.Sequence())
}

func TestNumberSegments_Malformed(t *testing.T) {
	inv := model.Invoice{Number: "001"}

	assert.Equal(t, "001", inv.Establishment())
	assert.Equal(t, "", inv.EmissionPoint())
	assert.Equal(t, "", inv.Sequence())
}
