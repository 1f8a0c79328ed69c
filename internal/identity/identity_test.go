package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/einvoice-sri/internal/identity"
)

func TestValidateNationalID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"valid pichincha cedula", "1710034065", true},
		{"valid pichincha cedula 2", "1713175071", true},
		{"valid guayas cedula", "0926687856", true},
		{"wrong check digit", "1710034066", false},
		{"region 00", "0010034065", false},
		{"region 25", "2510034065", false},
		{"third digit 7", "1770034065", false},
		{"too short", "171003406", false},
		{"too long", "17100340655", false},
		{"non-digit", "17100340a5", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, identity.ValidateNationalID(tt.id))
		})
	}
}

func TestValidateNationalID_SingleDigitMutation(t *testing.T) {
	// Flipping any single digit of a valid cedula must be rejected, either
	// by the structural checks or by the checksum.
	const valid = "1710034065"
	for pos := 0; pos < len(valid); pos++ {
		for d := byte('0'); d <= '9'; d++ {
			if valid[pos] == d {
				continue
			}
			mutated := valid[:pos] + string(d) + valid[pos+1:]
			assert.False(t, identity.ValidateNationalID(mutated),
				"mutation at %d to %c accepted", pos, d)
		}
	}
}

func TestValidateTaxID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"natural person", "1710034065001", true},
		{"private company", "1792146739001", true},
		{"public entity", "1760001550001", true},
		{"public entity 2", "1760013560001", true},
		{"private wrong check digit", "1792146738001", false},
		{"public wrong check digit", "1760001560001", false},
		{"natural wrong check digit", "1710034066001", false},
		{"suffix 002", "1710034065002", false},
		{"suffix 000", "1710034065000", false},
		{"third digit 7", "1770034065001", false},
		{"third digit 8", "1780034065001", false},
		{"too short", "171003406500", false},
		{"non-digit", "17921467x9001", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, identity.ValidateTaxID(tt.id))
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		id   string
		kind identity.TaxpayerKind
	}{
		{"1710034065001", identity.KindNaturalPerson},
		{"1750034065", identity.KindNaturalPerson},
		{"1760001550001", identity.KindPublicEntity},
		{"1792146739001", identity.KindPrivateCompany},
		{"1770034065001", identity.KindUnknown},
		{"17", identity.KindUnknown},
		{"1x9", identity.KindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, identity.KindOf(tt.id), "id=%s", tt.id)
	}
}

func TestTaxpayerKindString(t *testing.T) {
	assert.Equal(t, "natural_person", identity.KindNaturalPerson.String())
	assert.Equal(t, "public_entity", identity.KindPublicEntity.String())
	assert.Equal(t, "private_company", identity.KindPrivateCompany.String())
	assert.Equal(t, "unknown", identity.KindUnknown.String())
}
