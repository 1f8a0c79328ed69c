package document_test

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-sri/internal/document"
	"github.com/rezonia/einvoice-sri/internal/model"
)

const testAccessKey = "2508202501179214673900110010010000001231234567817"

func testInvoice() *model.Invoice {
	inv := &model.Invoice{
		Number:       "001-001-000000123",
		IssuedAt:     time.Date(2025, time.August, 25, 0, 0, 0, 0, time.UTC),
		DocumentType: model.DocumentTypeInvoice,
		Environment:  model.EnvironmentTest,
		EmissionType: model.EmissionNormal,
		AccessKey:    testAccessKey,
		Emitter: model.Party{
			LegalName:       "COMERCIAL ANDINA S.A.",
			TradeName:       "Andina",
			IdentifierType:  model.IdentifierRUC,
			Identifier:      "1792146739001",
			Address:         "Av. Amazonas N34-451, Quito",
			KeepsAccounting: true,
		},
		Receiver: model.Party{
			LegalName:      "Maria Perez",
			IdentifierType: model.IdentifierCedula,
			Identifier:     "1710034065",
			Address:        "Calle Larga 10-41, Cuenca",
		},
		Lines: []model.InvoiceLine{
			{
				ItemCode:    "PRD-001",
				Description: "Notebook 14 pulgadas",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.RequireFromString("450.00"),
				Tax:         model.TaxBreakdown{RateCode: model.RateCodeFifteen, Rate: decimal.NewFromInt(15)},
			},
		},
		Tip: decimal.Zero,
	}
	inv.CalculateTotals()
	return inv
}

func buildTree(t *testing.T, inv *model.Invoice) *etree.Document {
	t.Helper()

	doc, err := document.NewBuilder(document.Config{}).Build(inv)
	require.NoError(t, err)

	xml, err := doc.XML()
	require.NoError(t, err)

	tree := etree.NewDocument()
	require.NoError(t, tree.ReadFromBytes(xml))
	return tree
}

func childTags(e *etree.Element) []string {
	var tags []string
	for _, c := range e.ChildElements() {
		tags = append(tags, c.Tag)
	}
	return tags
}

func TestBuild_RootElement(t *testing.T) {
	tree := buildTree(t, testInvoice())

	root := tree.Root()
	require.NotNil(t, root)
	assert.Equal(t, "factura", root.Tag)
	assert.Equal(t, "comprobante", root.SelectAttrValue("id", ""))
	assert.Equal(t, "2.1.0", root.SelectAttrValue("version", ""))

	assert.Equal(t, []string{"infoTributaria", "infoFactura", "detalles"}, childTags(root))
}

func TestBuild_TaxInfoOrder(t *testing.T) {
	tree := buildTree(t, testInvoice())

	info := tree.Root().SelectElement("infoTributaria")
	require.NotNil(t, info)

	assert.Equal(t, []string{
		"ambiente", "tipoEmision", "razonSocial", "nombreComercial", "ruc",
		"claveAcceso", "codDoc", "estab", "ptoEmi", "secuencial", "dirMatriz",
	}, childTags(info))

	assert.Equal(t, "1", info.SelectElement("ambiente").Text())
	assert.Equal(t, "1792146739001", info.SelectElement("ruc").Text())
	assert.Equal(t, testAccessKey, info.SelectElement("claveAcceso").Text())
	assert.Equal(t, "01", info.SelectElement("codDoc").Text())
	assert.Equal(t, "001", info.SelectElement("estab").Text())
	assert.Equal(t, "001", info.SelectElement("ptoEmi").Text())
	assert.Equal(t, "000000123", info.SelectElement("secuencial").Text())
}

func TestBuild_OptionalTaxInfoElements(t *testing.T) {
	inv := testInvoice()
	inv.Emitter.TradeName = ""
	inv.Emitter.SpecialTaxpayer = "12345"

	tree := buildTree(t, inv)
	info := tree.Root().SelectElement("infoTributaria")
	require.NotNil(t, info)

	assert.Nil(t, info.SelectElement("nombreComercial"))
	require.NotNil(t, info.SelectElement("contribuyenteEspecial"))
	assert.Equal(t, "12345", info.SelectElement("contribuyenteEspecial").Text())
}

func TestBuild_InvoiceInfo(t *testing.T) {
	tree := buildTree(t, testInvoice())

	info := tree.Root().SelectElement("infoFactura")
	require.NotNil(t, info)

	assert.Equal(t, "25/08/2025", info.SelectElement("fechaEmision").Text())
	assert.Equal(t, "05", info.SelectElement("tipoIdentificacionComprador").Text())
	assert.Equal(t, "1710034065", info.SelectElement("identificacionComprador").Text())
	assert.Equal(t, "SI", info.SelectElement("obligadoContabilidad").Text())
	assert.Equal(t, "900.00", info.SelectElement("totalSinImpuestos").Text())
	assert.Equal(t, "0.00", info.SelectElement("totalDescuento").Text())
	assert.Equal(t, "0.00", info.SelectElement("propina").Text())
	assert.Equal(t, "1035.00", info.SelectElement("importeTotal").Text())
	assert.Equal(t, "DOLAR", info.SelectElement("moneda").Text())

	totals := info.SelectElement("totalConImpuestos")
	require.NotNil(t, totals)
	entries := totals.SelectElements("totalImpuesto")
	require.Len(t, entries, 1)
	assert.Equal(t, "2", entries[0].SelectElement("codigo").Text())
	assert.Equal(t, "4", entries[0].SelectElement("codigoPorcentaje").Text())
	assert.Equal(t, "900.00", entries[0].SelectElement("baseImponible").Text())
	assert.Equal(t, "15.00", entries[0].SelectElement("tarifa").Text())
	assert.Equal(t, "135.00", entries[0].SelectElement("valor").Text())

	payments := info.SelectElement("pagos")
	require.NotNil(t, payments)
	pago := payments.SelectElement("pago")
	require.NotNil(t, pago)
	assert.Equal(t, "01", pago.SelectElement("formaPago").Text())
	assert.Equal(t, "1035.00", pago.SelectElement("total").Text())
}

func TestBuild_Details(t *testing.T) {
	tree := buildTree(t, testInvoice())

	details := tree.Root().SelectElement("detalles")
	require.NotNil(t, details)
	lines := details.SelectElements("detalle")
	require.Len(t, lines, 1)

	d := lines[0]
	assert.Equal(t, "PRD-001", d.SelectElement("codigoPrincipal").Text())
	assert.Equal(t, "Notebook 14 pulgadas", d.SelectElement("descripcion").Text())
	assert.Equal(t, "2.000000", d.SelectElement("cantidad").Text())
	assert.Equal(t, "450.000000", d.SelectElement("precioUnitario").Text())
	assert.Equal(t, "0.00", d.SelectElement("descuento").Text())
	assert.Equal(t, "900.00", d.SelectElement("precioTotalSinImpuesto").Text())

	tax := d.SelectElement("impuestos").SelectElement("impuesto")
	require.NotNil(t, tax)
	assert.Equal(t, "2", tax.SelectElement("codigo").Text())
	assert.Equal(t, "4", tax.SelectElement("codigoPorcentaje").Text())
	assert.Equal(t, "900.00", tax.SelectElement("baseImponible").Text())
	assert.Equal(t, "135.00", tax.SelectElement("valor").Text())
}

func TestBuild_AdditionalInfo(t *testing.T) {
	inv := testInvoice()
	inv.AdditionalInfo = []model.AdditionalField{
		{Name: "email", Value: "maria@example.com"},
		{Name: "telefono", Value: "0991234567"},
	}

	tree := buildTree(t, inv)

	info := tree.Root().SelectElement("infoAdicional")
	require.NotNil(t, info)
	fields := info.SelectElements("campoAdicional")
	require.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].SelectAttrValue("nombre", ""))
	assert.Equal(t, "maria@example.com", fields[0].Text())
}

func TestBuild_EscapesReservedCharacters(t *testing.T) {
	inv := testInvoice()
	inv.Emitter.LegalName = "Juan & Hijos <Cia>"

	doc, err := document.NewBuilder(document.Config{}).Build(inv)
	require.NoError(t, err)
	xml, err := doc.XML()
	require.NoError(t, err)

	assert.Contains(t, string(xml), "Juan &amp; Hijos &lt;Cia&gt;")
	assert.NotContains(t, string(xml), "&amp;amp;")

	// Round-trip preserves the original text
	tree := etree.NewDocument()
	require.NoError(t, tree.ReadFromBytes(xml))
	assert.Equal(t, "Juan & Hijos <Cia>",
		tree.Root().SelectElement("infoTributaria").SelectElement("razonSocial").Text())
}

func TestBuild_PreEscapedInputDoesNotDoubleEscape(t *testing.T) {
	inv := testInvoice()
	inv.Emitter.LegalName = "Juan &amp; Hijos"

	doc, err := document.NewBuilder(document.Config{}).Build(inv)
	require.NoError(t, err)
	xml, err := doc.XML()
	require.NoError(t, err)

	assert.Contains(t, string(xml), "Juan &amp; Hijos")
	assert.NotContains(t, string(xml), "&amp;amp;")
}

func TestBuild_SchemaVersionStamped(t *testing.T) {
	doc, err := document.NewBuilder(document.Config{Version: document.SchemaV110}).Build(testInvoice())
	require.NoError(t, err)
	xml, err := doc.XML()
	require.NoError(t, err)

	tree := etree.NewDocument()
	require.NoError(t, tree.ReadFromBytes(xml))
	assert.Equal(t, "1.1.0", tree.Root().SelectAttrValue("version", ""))
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Invoice)
		field  string
	}{
		{"missing emission date", func(i *model.Invoice) { i.IssuedAt = time.Time{} }, "issued_at"},
		{"malformed number", func(i *model.Invoice) { i.Number = "1-1-1" }, "number"},
		{"missing access key", func(i *model.Invoice) { i.AccessKey = "" }, "access_key"},
		{"corrupt access key", func(i *model.Invoice) { i.AccessKey = testAccessKey[:48] + "8" }, "access_key"},
		{"missing document type", func(i *model.Invoice) { i.DocumentType = "" }, "document_type"},
		{"missing emitter name", func(i *model.Invoice) { i.Emitter.LegalName = "" }, "emitter.legal_name"},
		{"missing emitter address", func(i *model.Invoice) { i.Emitter.Address = "" }, "emitter.address"},
		{"invalid emitter ruc", func(i *model.Invoice) { i.Emitter.Identifier = "1792146738001" }, "emitter.identifier"},
		{"missing receiver name", func(i *model.Invoice) { i.Receiver.LegalName = "" }, "receiver.legal_name"},
		{"invalid receiver cedula", func(i *model.Invoice) { i.Receiver.Identifier = "1710034066" }, "receiver.identifier"},
		{"missing receiver id type", func(i *model.Invoice) { i.Receiver.IdentifierType = "" }, "receiver.identifier_type"},
		{"no lines", func(i *model.Invoice) { i.Lines = nil }, "lines"},
		{"line without item code", func(i *model.Invoice) { i.Lines[0].ItemCode = "" }, "lines[0].item_code"},
		{"line without description", func(i *model.Invoice) { i.Lines[0].Description = "" }, "lines[0].description"},
		{"negative discount", func(i *model.Invoice) {
			i.Lines[0].Discount = decimal.RequireFromString("-100.00")
		}, "lines[0].discount"},
		{"discount above line gross", func(i *model.Invoice) {
			i.Lines[0].Discount = decimal.RequireFromString("99999.00")
		}, "lines[0].discount"},
		{"item code too long", func(i *model.Invoice) { i.Lines[0].ItemCode = strings.Repeat("X", 26) }, "lines[0].item_code"},
		{"legal name too long", func(i *model.Invoice) { i.Emitter.LegalName = strings.Repeat("A", 301) }, "emitter.legal_name"},
		{"additional field without name", func(i *model.Invoice) {
			i.AdditionalInfo = []model.AdditionalField{{Value: "v"}}
		}, "additional_info[0].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := testInvoice()
			tt.mutate(inv)

			_, err := document.NewBuilder(document.Config{}).Build(inv)
			require.Error(t, err)

			var fmtErr *model.FormatError
			require.ErrorAs(t, err, &fmtErr)
			assert.Equal(t, tt.field, fmtErr.Field)
		})
	}
}

func TestBuild_UnsupportedVersion(t *testing.T) {
	_, err := document.NewBuilder(document.Config{Version: "3.0.0"}).Build(testInvoice())
	require.Error(t, err)

	var fmtErr *model.FormatError
	require.ErrorAs(t, err, &fmtErr)
	assert.Equal(t, "version", fmtErr.Field)
}

func TestBuild_NilInvoice(t *testing.T) {
	_, err := document.NewBuilder(document.Config{}).Build(nil)
	require.Error(t, err)
}

func TestDocumentTreeIsACopy(t *testing.T) {
	doc, err := document.NewBuilder(document.Config{}).Build(testInvoice())
	require.NoError(t, err)

	tree := doc.Tree()
	tree.Root().CreateElement("extraneous")

	xml, err := doc.XML()
	require.NoError(t, err)
	assert.NotContains(t, string(xml), "extraneous")
}
