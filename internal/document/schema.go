package document

// SchemaVersion identifies the SRI factura schema targeted by the builder.
// Element names and order are owned by the SRI schema contract; the version
// is stamped on the root element so receivers validate against the right XSD.
type SchemaVersion string

const (
	SchemaV110 SchemaVersion = "1.1.0"
	SchemaV200 SchemaVersion = "2.0.0"
	SchemaV210 SchemaVersion = "2.1.0"
)

// Supported reports whether v is a schema version this builder can target.
func (v SchemaVersion) Supported() bool {
	switch v {
	case SchemaV110, SchemaV200, SchemaV210:
		return true
	}
	return false
}

// Maximum field lengths from the SRI field catalog.
const (
	maxLegalName   = 300
	maxAddress     = 300
	maxItemCode    = 25
	maxDescription = 300
	maxAdditional  = 300
)

// Config holds builder configuration.
type Config struct {
	// Version selects the schema version stamped on the document root.
	Version SchemaVersion
	// Currency is the moneda element value. Defaults to "DOLAR".
	Currency string
	// PaymentMethod is the default forma de pago code when the invoice
	// carries none. Defaults to "01" (no financial system).
	PaymentMethod string
}

func (c Config) withDefaults() Config {
	if c.Version == "" {
		c.Version = SchemaV210
	}
	if c.Currency == "" {
		c.Currency = "DOLAR"
	}
	if c.PaymentMethod == "" {
		c.PaymentMethod = "01"
	}
	return c
}
