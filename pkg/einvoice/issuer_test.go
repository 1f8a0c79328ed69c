package einvoice_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-sri/pkg/einvoice"
)

func newTestCredential(t *testing.T) *einvoice.Credential {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "FIRMA PRUEBAS"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(certDER)
	require.NoError(t, err)

	return &einvoice.Credential{PrivateKey: key, Certificate: cert}
}

func testInvoice() *einvoice.Invoice {
	return &einvoice.Invoice{
		Number:       "001-001-000000123",
		IssuedAt:     time.Date(2025, time.August, 25, 0, 0, 0, 0, time.UTC),
		DocumentType: einvoice.DocumentTypeInvoice,
		Environment:  einvoice.EnvironmentTest,
		EmissionType: einvoice.EmissionNormal,
		Emitter: einvoice.Party{
			LegalName:      "COMERCIAL ANDINA S.A.",
			IdentifierType: einvoice.IdentifierRUC,
			Identifier:     "1792146739001",
			Address:        "Av. Amazonas N34-451, Quito",
		},
		Receiver: einvoice.Party{
			LegalName:      "Maria Perez",
			IdentifierType: einvoice.IdentifierCedula,
			Identifier:     "1710034065",
		},
		Lines: []einvoice.InvoiceLine{
			{
				ItemCode:    "PRD-001",
				Description: "Notebook 14 pulgadas",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.RequireFromString("450.00"),
				Tax: einvoice.TaxBreakdown{
					RateCode: "4",
					Rate:     decimal.NewFromInt(15),
				},
			},
		},
	}
}

func TestIssue(t *testing.T) {
	cred := newTestCredential(t)
	issuer := einvoice.NewIssuer(einvoice.NewStaticProvider(cred))
	ctx := context.Background()

	inv := testInvoice()
	result, err := issuer.Issue(ctx, inv)
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Len(t, result.AccessKey, 49)
	assert.Equal(t, inv.AccessKey, result.AccessKey)
	assert.Contains(t, string(result.SignedXML), "Signature")
	assert.Empty(t, result.Violations)

	// Totals filled in place
	assert.Equal(t, "900.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "1035.00", inv.GrandTotal.StringFixed(2))

	// The signed document verifies
	verification, err := issuer.Verify(ctx, result.SignedXML)
	require.NoError(t, err)
	assert.True(t, verification.Valid, "errors: %v", verification.Errors)
}

func TestIssue_KeepsExplicitAccessKey(t *testing.T) {
	const key = "2508202501179214673900110010010000001231234567817"

	cred := newTestCredential(t)
	issuer := einvoice.NewIssuer(einvoice.NewStaticProvider(cred))

	inv := testInvoice()
	inv.AccessKey = key

	result, err := issuer.Issue(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, key, result.AccessKey)
}

func TestIssue_SchemaVersionOption(t *testing.T) {
	cred := newTestCredential(t)
	issuer := einvoice.NewIssuer(
		einvoice.NewStaticProvider(cred),
		einvoice.WithSchemaVersion(einvoice.SchemaV110),
	)

	result, err := issuer.Issue(context.Background(), testInvoice())
	require.NoError(t, err)
	assert.Contains(t, string(result.SignedXML), `version="1.1.0"`)
}

func TestIssue_NilInvoice(t *testing.T) {
	issuer := einvoice.NewIssuer(einvoice.NewStaticProvider(newTestCredential(t)))

	_, err := issuer.Issue(context.Background(), nil)
	require.Error(t, err)
}

func TestIssue_BadEmitterRUC(t *testing.T) {
	issuer := einvoice.NewIssuer(einvoice.NewStaticProvider(newTestCredential(t)))

	inv := testInvoice()
	inv.Emitter.Identifier = "1792146738001"

	_, err := issuer.Issue(context.Background(), inv)
	require.Error(t, err)

	var valErr *einvoice.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestIssue_MissingCredential(t *testing.T) {
	issuer := einvoice.NewIssuer(einvoice.NewStaticProvider(&einvoice.Credential{}))

	_, err := issuer.Issue(context.Background(), testInvoice())
	require.Error(t, err)

	var credErr *einvoice.CredentialError
	assert.ErrorAs(t, err, &credErr)
}

func TestValidateIdentifierEntryPoints(t *testing.T) {
	assert.True(t, einvoice.ValidateNationalID("1710034065"))
	assert.False(t, einvoice.ValidateNationalID("1710034066"))
	assert.True(t, einvoice.ValidateTaxID("1792146739001"))
	assert.False(t, einvoice.ValidateTaxID("1792146738001"))
}
