package model

import (
	"time"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/einvoice-sri/internal/decimal"
)

// IdentifierType is the SRI identification type code for a party.
type IdentifierType string

const (
	IdentifierRUC           IdentifierType = "04"
	IdentifierCedula        IdentifierType = "05"
	IdentifierPassport      IdentifierType = "06"
	IdentifierFinalConsumer IdentifierType = "07"
	IdentifierForeign       IdentifierType = "08"
)

// DocumentType is the SRI document type code.
type DocumentType string

const (
	DocumentTypeInvoice        DocumentType = "01"
	DocumentTypeCreditNote     DocumentType = "04"
	DocumentTypeDebitNote      DocumentType = "05"
	DocumentTypeRemissionGuide DocumentType = "06"
	DocumentTypeWithholding    DocumentType = "07"
)

// Environment selects the SRI environment a document is issued against.
type Environment string

const (
	EnvironmentTest       Environment = "1"
	EnvironmentProduction Environment = "2"
)

// EmissionType is the SRI emission mode.
type EmissionType string

const (
	EmissionNormal      EmissionType = "1"
	EmissionContingency EmissionType = "2"
)

// TaxRateCode is the SRI IVA percentage code used in tax breakdowns.
type TaxRateCode string

const (
	RateCodeZero       TaxRateCode = "0" // 0%
	RateCodeTwelve     TaxRateCode = "2" // 12%
	RateCodeEight      TaxRateCode = "3" // 8%
	RateCodeFifteen    TaxRateCode = "4" // 15%
	RateCodeNotSubject TaxRateCode = "6"
	RateCodeExempt     TaxRateCode = "7"
)

// TaxCodeIVA is the SRI tax code for IVA; the only tax this core computes.
const TaxCodeIVA = "2"

// Party represents the emitter or the receiver of a document.
type Party struct {
	LegalName      string         `json:"legal_name"`
	TradeName      string         `json:"trade_name,omitempty"`
	IdentifierType IdentifierType `json:"identifier_type"`
	Identifier     string         `json:"identifier"`
	Address        string         `json:"address,omitempty"`
	Email          string         `json:"email,omitempty"`
	Phone          string         `json:"phone,omitempty"`

	// Emitter-only fields
	SpecialTaxpayer   string `json:"special_taxpayer,omitempty"`
	KeepsAccounting   bool   `json:"keeps_accounting,omitempty"`
	EstablishmentAddr string `json:"establishment_addr,omitempty"`
}

// TaxBreakdown is the IVA breakdown attached to a single invoice line.
type TaxBreakdown struct {
	TaxCode   string          `json:"tax_code"`
	RateCode  TaxRateCode     `json:"rate_code"`
	Rate      decimal.Decimal `json:"rate"` // percentage, e.g. 15
	Base      decimal.Decimal `json:"base"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

// InvoiceLine is a single detail line of an invoice.
type InvoiceLine struct {
	ItemCode      string          `json:"item_code"`
	AuxiliaryCode string          `json:"auxiliary_code,omitempty"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Discount      decimal.Decimal `json:"discount"`
	Base          decimal.Decimal `json:"base"` // quantity*unit_price - discount
	Tax           TaxBreakdown    `json:"tax"`
}

// Calculate fills the derived amounts of the line from quantity, unit price,
// discount and the tax rate code.
func (l *InvoiceLine) Calculate() {
	l.Base = money.CalculateLineBase(l.Quantity, l.UnitPrice, l.Discount)
	l.Tax.TaxCode = TaxCodeIVA
	l.Tax.Base = l.Base
	l.Tax.TaxAmount = money.CalculateIVA(l.Base, l.Tax.Rate)
}

// TaxTotal is one rate bucket of the invoice totals.
type TaxTotal struct {
	TaxCode   string          `json:"tax_code"`
	RateCode  TaxRateCode     `json:"rate_code"`
	Rate      decimal.Decimal `json:"rate"`
	Base      decimal.Decimal `json:"base"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

// AdditionalField is one name/value entry of the optional additional
// information section.
type AdditionalField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Invoice represents an SRI factura ready for document assembly.
type Invoice struct {
	// Header
	Number       string       `json:"number"` // EEE-PPP-NNNNNNNNN
	IssuedAt     time.Time    `json:"issued_at"`
	DocumentType DocumentType `json:"document_type"`
	Environment  Environment  `json:"environment"`
	EmissionType EmissionType `json:"emission_type"`
	AccessKey    string       `json:"access_key,omitempty"`

	// Parties
	Emitter  Party `json:"emitter"`
	Receiver Party `json:"receiver"`

	// Lines
	Lines []InvoiceLine `json:"lines"`

	// Totals (USD, 2 decimal places)
	Subtotal      decimal.Decimal `json:"subtotal"` // sum of line bases
	TaxTotals     []TaxTotal      `json:"tax_totals"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	Tip           decimal.Decimal `json:"tip"`
	GrandTotal    decimal.Decimal `json:"grand_total"`

	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method,omitempty"` // SRI forma de pago code

	// Optional
	AdditionalInfo []AdditionalField `json:"additional_info,omitempty"`
}

// Establishment returns the EEE segment of the invoice number, or "".
func (inv *Invoice) Establishment() string { return numberSegment(inv.Number, 0) }

// EmissionPoint returns the PPP segment of the invoice number, or "".
func (inv *Invoice) EmissionPoint() string { return numberSegment(inv.Number, 1) }

// Sequence returns the NNNNNNNNN segment of the invoice number, or "".
func (inv *Invoice) Sequence() string { return numberSegment(inv.Number, 2) }

func numberSegment(number string, idx int) string {
	start := 0
	seg := 0
	for i := 0; i <= len(number); i++ {
		if i == len(number) || number[i] == '-' {
			if seg == idx {
				return number[start:i]
			}
			seg++
			start = i + 1
		}
	}
	return ""
}

// CalculateTotals recomputes every line and aggregates the invoice totals,
// grouping tax amounts into per-rate buckets in first-seen order.
func (inv *Invoice) CalculateTotals() {
	subtotal := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero

	inv.TaxTotals = inv.TaxTotals[:0]
	bucketIdx := make(map[TaxRateCode]int)

	for i := range inv.Lines {
		line := &inv.Lines[i]
		line.Calculate()

		subtotal = subtotal.Add(line.Base)
		discount = discount.Add(line.Discount)
		tax = tax.Add(line.Tax.TaxAmount)

		idx, ok := bucketIdx[line.Tax.RateCode]
		if !ok {
			inv.TaxTotals = append(inv.TaxTotals, TaxTotal{
				TaxCode:  line.Tax.TaxCode,
				RateCode: line.Tax.RateCode,
				Rate:     line.Tax.Rate,
			})
			idx = len(inv.TaxTotals) - 1
			bucketIdx[line.Tax.RateCode] = idx
		}
		inv.TaxTotals[idx].Base = inv.TaxTotals[idx].Base.Add(line.Base)
		inv.TaxTotals[idx].TaxAmount = inv.TaxTotals[idx].TaxAmount.Add(line.Tax.TaxAmount)
	}

	inv.Subtotal = subtotal.Round(2)
	inv.TotalDiscount = discount.Round(2)
	inv.TotalTax = tax.Round(2)
	inv.GrandTotal = subtotal.Add(tax).Add(inv.Tip).Round(2)
}
