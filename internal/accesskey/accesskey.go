// Package accesskey generates and validates the 49-digit clave de acceso
// carried by every SRI electronic document.
//
// Layout of the first 48 digits:
//
//	date ddmmyyyy (8) | document type (2) | emitter RUC (13) | environment (1)
//	| establishment+emission point serial (6) | sequence (9)
//	| numeric code (8) | emission type (1)
//
// The 49th digit is a mod-11 check digit over the first 48: each digit,
// starting from the rightmost, is multiplied by a coefficient drawn
// cyclically from 2..7; the check value is 11 - (sum mod 11), with 11
// mapped to 0 and 10 mapped to 1 (the same remainder table used for RUC
// checksums in internal/identity).
package accesskey

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/rezonia/einvoice-sri/internal/identity"
	"github.com/rezonia/einvoice-sri/internal/model"
)

// Length is the total length of an access key including the check digit.
const Length = 49

// Fields carries everything needed to build an access key.
type Fields struct {
	IssuedAt     time.Time
	DocumentType model.DocumentType
	RUC          string
	Environment  model.Environment
	// Serial is establishment + emission point, 6 digits (e.g. "001001").
	Serial string
	// Sequence is the document sequence number, 1..999999999.
	Sequence int
	// NumericCode is an 8-digit random filler. Generated when empty.
	NumericCode string
	EmissionType model.EmissionType
}

// Generate builds a 49-digit access key from fields. The emitter RUC must
// pass the RUC checksum; the serial must be 6 digits; the sequence must fit
// in 9 digits.
func Generate(f Fields) (string, error) {
	if !identity.ValidateTaxID(f.RUC) {
		return "", model.NewValidationError("ruc", f.RUC, "checksum", "emitter RUC failed validation")
	}
	if len(f.Serial) != 6 || !allDigits(f.Serial) {
		return "", model.NewValidationError("serial", f.Serial, "length", "serial must be 6 digits")
	}
	if f.Sequence < 1 || f.Sequence > 999999999 {
		return "", model.NewValidationError("sequence", f.Sequence, "range", "sequence must be between 1 and 999999999")
	}
	if len(f.DocumentType) != 2 {
		return "", model.NewValidationError("document_type", string(f.DocumentType), "length", "document type must be 2 digits")
	}
	if f.Environment != model.EnvironmentTest && f.Environment != model.EnvironmentProduction {
		return "", model.NewValidationError("environment", string(f.Environment), "enum", "environment must be 1 or 2")
	}
	if f.EmissionType != model.EmissionNormal && f.EmissionType != model.EmissionContingency {
		return "", model.NewValidationError("emission_type", string(f.EmissionType), "enum", "emission type must be 1 or 2")
	}

	code := f.NumericCode
	if code == "" {
		var err error
		code, err = randomNumericCode()
		if err != nil {
			return "", err
		}
	}
	if len(code) != 8 || !allDigits(code) {
		return "", model.NewValidationError("numeric_code", code, "length", "numeric code must be 8 digits")
	}

	base := f.IssuedAt.Format("02012006") +
		string(f.DocumentType) +
		f.RUC +
		string(f.Environment) +
		f.Serial +
		fmt.Sprintf("%09d", f.Sequence) +
		code +
		string(f.EmissionType)

	return base + string(rune('0'+checkDigit(base))), nil
}

// Validate reports whether key is exactly 49 digits whose final digit
// matches the check digit recomputed from the first 48.
func Validate(key string) bool {
	if len(key) != Length || !allDigits(key) {
		return false
	}
	return checkDigit(key[:48]) == int(key[48]-'0')
}

// Parsed is an access key decomposed into its fixed-width fields.
type Parsed struct {
	IssuedAt     time.Time
	DocumentType model.DocumentType
	RUC          string
	Environment  model.Environment
	Serial       string
	Sequence     string
	NumericCode  string
	EmissionType model.EmissionType
	CheckDigit   int
}

// Parse decomposes a valid access key into its fields. Keys failing
// Validate are rejected.
func Parse(key string) (*Parsed, error) {
	if !Validate(key) {
		return nil, model.NewValidationError("access_key", key, "checksum", "access key failed validation")
	}
	issued, err := time.Parse("02012006", key[:8])
	if err != nil {
		return nil, model.NewValidationError("access_key", key[:8], "date", "access key date is not a calendar date")
	}
	return &Parsed{
		IssuedAt:     issued,
		DocumentType: model.DocumentType(key[8:10]),
		RUC:          key[10:23],
		Environment:  model.Environment(key[23:24]),
		Serial:       key[24:30],
		Sequence:     key[30:39],
		NumericCode:  key[39:47],
		EmissionType: model.EmissionType(key[47:48]),
		CheckDigit:   int(key[48] - '0'),
	}, nil
}

// checkDigit computes the mod-11 check digit over a 48-digit base.
func checkDigit(base string) int {
	coefficients := [6]int{2, 3, 4, 5, 6, 7}
	sum := 0
	for i := 0; i < len(base); i++ {
		d := int(base[len(base)-1-i] - '0')
		sum += d * coefficients[i%6]
	}
	check := 11 - sum%11
	switch check {
	case 11:
		return 0
	case 10:
		return 1
	default:
		return check
	}
}

func randomNumericCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		return "", model.NewValidationError("numeric_code", nil, "random", "could not draw random numeric code")
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
