// Package document assembles invoices into the canonical SRI factura XML.
//
// Section and element order is fixed by the SRI schema. The builder goes
// through typed section structs whose serializers append children in
// declaration order, so order never depends on any backing collection.
package document

import (
	"fmt"
	"regexp"

	"github.com/beevik/etree"

	"github.com/rezonia/einvoice-sri/internal/accesskey"
	money "github.com/rezonia/einvoice-sri/internal/decimal"
	"github.com/rezonia/einvoice-sri/internal/identity"
	"github.com/rezonia/einvoice-sri/internal/model"
)

var numberPattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{9}$`)

// Builder assembles canonical documents for one schema configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a builder for the given configuration. Zero-value
// fields fall back to defaults (schema 2.1.0, DOLAR, payment method 01).
func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg.withDefaults()}
}

// Document is an assembled, immutable factura tree.
type Document struct {
	tree *etree.Document
}

// Tree returns a deep copy of the underlying XML tree.
func (d *Document) Tree() *etree.Document {
	return d.tree.Copy()
}

// XML serializes the document.
func (d *Document) XML() ([]byte, error) {
	return d.tree.WriteToBytes()
}

// Build assembles an invoice into a canonical document. It fails with
// FormatError when a required field is missing, a field exceeds its SRI
// length limit, or an embedded identifier fails its checksum.
func (b *Builder) Build(inv *model.Invoice) (*Document, error) {
	if inv == nil {
		return nil, model.NewFormatError("invoice", "invoice is required", nil)
	}
	if err := b.check(inv); err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("factura")
	root.CreateAttr("id", "comprobante")
	root.CreateAttr("version", string(b.cfg.Version))

	b.taxInfo(inv).appendTo(root)
	b.invoiceInfo(inv).appendTo(root)
	appendDetails(root, inv.Lines)
	appendAdditionalInfo(root, inv.AdditionalInfo)

	return &Document{tree: doc}, nil
}

// check enforces the structural preconditions of Build.
func (b *Builder) check(inv *model.Invoice) error {
	if !b.cfg.Version.Supported() {
		return model.NewFormatError("version", fmt.Sprintf("unsupported schema version %q", b.cfg.Version), nil)
	}
	if inv.IssuedAt.IsZero() {
		return model.NewFormatError("issued_at", "emission date is required", nil)
	}
	if !numberPattern.MatchString(inv.Number) {
		return model.NewFormatError("number", "document number must match EEE-PPP-NNNNNNNNN", nil)
	}
	if !accesskey.Validate(inv.AccessKey) {
		return model.NewFormatError("access_key", "access key is missing or fails validation", nil)
	}
	if inv.DocumentType == "" {
		return model.NewFormatError("document_type", "document type is required", nil)
	}

	if inv.Emitter.LegalName == "" {
		return model.NewFormatError("emitter.legal_name", "emitter legal name is required", nil)
	}
	if inv.Emitter.Address == "" {
		return model.NewFormatError("emitter.address", "emitter head office address is required", nil)
	}
	if !identity.ValidateTaxID(inv.Emitter.Identifier) {
		return model.NewFormatError("emitter.identifier", "emitter RUC failed validation", nil)
	}

	if inv.Receiver.LegalName == "" {
		return model.NewFormatError("receiver.legal_name", "receiver legal name is required", nil)
	}
	if inv.Receiver.Identifier == "" {
		return model.NewFormatError("receiver.identifier", "receiver identifier is required", nil)
	}
	switch inv.Receiver.IdentifierType {
	case model.IdentifierRUC:
		if !identity.ValidateTaxID(inv.Receiver.Identifier) {
			return model.NewFormatError("receiver.identifier", "receiver RUC failed validation", nil)
		}
	case model.IdentifierCedula:
		if !identity.ValidateNationalID(inv.Receiver.Identifier) {
			return model.NewFormatError("receiver.identifier", "receiver cedula failed validation", nil)
		}
	case model.IdentifierPassport, model.IdentifierFinalConsumer, model.IdentifierForeign:
	default:
		return model.NewFormatError("receiver.identifier_type", "receiver identifier type is required", nil)
	}

	if len(inv.Lines) == 0 {
		return model.NewFormatError("lines", "invoice must carry at least one line", nil)
	}
	for i, line := range inv.Lines {
		field := func(name string) string { return fmt.Sprintf("lines[%d].%s", i, name) }
		if line.ItemCode == "" {
			return model.NewFormatError(field("item_code"), "item code is required", nil)
		}
		if line.Description == "" {
			return model.NewFormatError(field("description"), "description is required", nil)
		}
		if line.Discount.IsNegative() {
			return model.NewFormatError(field("discount"), "discount must not be negative", nil)
		}
		if line.Discount.GreaterThan(line.Quantity.Mul(line.UnitPrice)) {
			return model.NewFormatError(field("discount"), "discount exceeds quantity times unit price", nil)
		}
		if err := checkLength(field("item_code"), line.ItemCode, maxItemCode); err != nil {
			return err
		}
		if err := checkLength(field("auxiliary_code"), line.AuxiliaryCode, maxItemCode); err != nil {
			return err
		}
		if err := checkLength(field("description"), line.Description, maxDescription); err != nil {
			return err
		}
	}

	for _, c := range []struct {
		field, value string
		max          int
	}{
		{"emitter.legal_name", inv.Emitter.LegalName, maxLegalName},
		{"emitter.trade_name", inv.Emitter.TradeName, maxLegalName},
		{"emitter.address", inv.Emitter.Address, maxAddress},
		{"receiver.legal_name", inv.Receiver.LegalName, maxLegalName},
		{"receiver.address", inv.Receiver.Address, maxAddress},
	} {
		if err := checkLength(c.field, c.value, c.max); err != nil {
			return err
		}
	}
	for i, f := range inv.AdditionalInfo {
		field := fmt.Sprintf("additional_info[%d]", i)
		if f.Name == "" {
			return model.NewFormatError(field+".name", "additional field name is required", nil)
		}
		if err := checkLength(field+".value", f.Value, maxAdditional); err != nil {
			return err
		}
	}
	return nil
}

func checkLength(field, value string, max int) error {
	if len([]rune(value)) > max {
		return model.NewFormatError(field, fmt.Sprintf("exceeds maximum length of %d characters", max), nil)
	}
	return nil
}

// taxInfoSection is the infoTributaria block, fields in schema order.
type taxInfoSection struct {
	Environment     string
	EmissionType    string
	LegalName       string
	TradeName       string // optional
	RUC             string
	AccessKey       string
	DocumentType    string
	Establishment   string
	EmissionPoint   string
	Sequence        string
	HeadOfficeAddr  string
	SpecialTaxpayer string // optional
}

func (b *Builder) taxInfo(inv *model.Invoice) *taxInfoSection {
	return &taxInfoSection{
		Environment:     string(inv.Environment),
		EmissionType:    string(inv.EmissionType),
		LegalName:       clean(inv.Emitter.LegalName),
		TradeName:       clean(inv.Emitter.TradeName),
		RUC:             inv.Emitter.Identifier,
		AccessKey:       inv.AccessKey,
		DocumentType:    string(inv.DocumentType),
		Establishment:   inv.Establishment(),
		EmissionPoint:   inv.EmissionPoint(),
		Sequence:        inv.Sequence(),
		HeadOfficeAddr:  clean(inv.Emitter.Address),
		SpecialTaxpayer: inv.Emitter.SpecialTaxpayer,
	}
}

func (s *taxInfoSection) appendTo(root *etree.Element) {
	e := root.CreateElement("infoTributaria")
	text(e, "ambiente", s.Environment)
	text(e, "tipoEmision", s.EmissionType)
	text(e, "razonSocial", s.LegalName)
	if s.TradeName != "" {
		text(e, "nombreComercial", s.TradeName)
	}
	text(e, "ruc", s.RUC)
	text(e, "claveAcceso", s.AccessKey)
	text(e, "codDoc", s.DocumentType)
	text(e, "estab", s.Establishment)
	text(e, "ptoEmi", s.EmissionPoint)
	text(e, "secuencial", s.Sequence)
	text(e, "dirMatriz", s.HeadOfficeAddr)
	if s.SpecialTaxpayer != "" {
		text(e, "contribuyenteEspecial", s.SpecialTaxpayer)
	}
}

// invoiceInfoSection is the infoFactura block, fields in schema order.
type invoiceInfoSection struct {
	IssueDate        string
	ReceiverIDType   string
	ReceiverName     string
	ReceiverID       string
	ReceiverAddr     string // optional
	KeepsAccounting  string
	Subtotal         string
	TotalDiscount    string
	TaxTotals        []taxTotalEntry
	Tip              string
	GrandTotal       string
	Currency         string
	PaymentMethod    string
	PaymentTotal     string
}

type taxTotalEntry struct {
	Code     string
	RateCode string
	Base     string
	Rate     string
	Value    string
}

func (b *Builder) invoiceInfo(inv *model.Invoice) *invoiceInfoSection {
	keeps := "NO"
	if inv.Emitter.KeepsAccounting {
		keeps = "SI"
	}
	method := inv.PaymentMethod
	if method == "" {
		method = b.cfg.PaymentMethod
	}
	s := &invoiceInfoSection{
		IssueDate:       inv.IssuedAt.Format("02/01/2006"),
		ReceiverIDType:  string(inv.Receiver.IdentifierType),
		ReceiverName:    clean(inv.Receiver.LegalName),
		ReceiverID:      inv.Receiver.Identifier,
		ReceiverAddr:    clean(inv.Receiver.Address),
		KeepsAccounting: keeps,
		Subtotal:        money.Amount(inv.Subtotal),
		TotalDiscount:   money.Amount(inv.TotalDiscount),
		Tip:             money.Amount(inv.Tip),
		GrandTotal:      money.Amount(inv.GrandTotal),
		Currency:        b.cfg.Currency,
		PaymentMethod:   method,
		PaymentTotal:    money.Amount(inv.GrandTotal),
	}
	for _, t := range inv.TaxTotals {
		s.TaxTotals = append(s.TaxTotals, taxTotalEntry{
			Code:     t.TaxCode,
			RateCode: string(t.RateCode),
			Base:     money.Amount(t.Base),
			Rate:     t.Rate.StringFixed(2),
			Value:    money.Amount(t.TaxAmount),
		})
	}
	return s
}

func (s *invoiceInfoSection) appendTo(root *etree.Element) {
	e := root.CreateElement("infoFactura")
	text(e, "fechaEmision", s.IssueDate)
	text(e, "tipoIdentificacionComprador", s.ReceiverIDType)
	text(e, "razonSocialComprador", s.ReceiverName)
	text(e, "identificacionComprador", s.ReceiverID)
	if s.ReceiverAddr != "" {
		text(e, "direccionComprador", s.ReceiverAddr)
	}
	text(e, "obligadoContabilidad", s.KeepsAccounting)
	text(e, "totalSinImpuestos", s.Subtotal)
	text(e, "totalDescuento", s.TotalDiscount)

	totals := e.CreateElement("totalConImpuestos")
	for _, t := range s.TaxTotals {
		te := totals.CreateElement("totalImpuesto")
		text(te, "codigo", t.Code)
		text(te, "codigoPorcentaje", t.RateCode)
		text(te, "baseImponible", t.Base)
		text(te, "tarifa", t.Rate)
		text(te, "valor", t.Value)
	}

	text(e, "propina", s.Tip)
	text(e, "importeTotal", s.GrandTotal)
	text(e, "moneda", s.Currency)

	payments := e.CreateElement("pagos")
	p := payments.CreateElement("pago")
	text(p, "formaPago", s.PaymentMethod)
	text(p, "total", s.PaymentTotal)
}

func appendDetails(root *etree.Element, lines []model.InvoiceLine) {
	details := root.CreateElement("detalles")
	for _, line := range lines {
		d := details.CreateElement("detalle")
		text(d, "codigoPrincipal", clean(line.ItemCode))
		if line.AuxiliaryCode != "" {
			text(d, "codigoAuxiliar", clean(line.AuxiliaryCode))
		}
		text(d, "descripcion", clean(line.Description))
		text(d, "cantidad", money.Quantity(line.Quantity))
		text(d, "precioUnitario", money.Quantity(line.UnitPrice))
		text(d, "descuento", money.Amount(line.Discount))
		text(d, "precioTotalSinImpuesto", money.Amount(line.Base))

		taxes := d.CreateElement("impuestos")
		t := taxes.CreateElement("impuesto")
		text(t, "codigo", line.Tax.TaxCode)
		text(t, "codigoPorcentaje", string(line.Tax.RateCode))
		text(t, "tarifa", line.Tax.Rate.StringFixed(2))
		text(t, "baseImponible", money.Amount(line.Tax.Base))
		text(t, "valor", money.Amount(line.Tax.TaxAmount))
	}
}

func appendAdditionalInfo(root *etree.Element, fields []model.AdditionalField) {
	if len(fields) == 0 {
		return
	}
	info := root.CreateElement("infoAdicional")
	for _, f := range fields {
		campo := info.CreateElement("campoAdicional")
		campo.CreateAttr("nombre", clean(f.Name))
		campo.SetText(clean(f.Value))
	}
}

func text(parent *etree.Element, tag, value string) {
	parent.CreateElement(tag).SetText(value)
}
