package einvoice

import (
	"context"

	"github.com/google/uuid"

	"github.com/rezonia/einvoice-sri/internal/accesskey"
	"github.com/rezonia/einvoice-sri/internal/compliance"
	"github.com/rezonia/einvoice-sri/internal/document"
	"github.com/rezonia/einvoice-sri/internal/model"
	"github.com/rezonia/einvoice-sri/internal/signature"
	"github.com/rezonia/einvoice-sri/internal/signature/xmldsig"
)

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithSchemaVersion selects the factura schema version stamped on documents.
func WithSchemaVersion(v SchemaVersion) IssuerOption {
	return func(i *Issuer) {
		i.builderCfg.Version = v
	}
}

// WithCurrency overrides the moneda element value.
func WithCurrency(currency string) IssuerOption {
	return func(i *Issuer) {
		i.builderCfg.Currency = currency
	}
}

// Issuer runs the full issuing pipeline: totals, access key, canonical
// document, enveloped signature, compliance checks.
type Issuer struct {
	provider   signature.Provider
	builderCfg document.Config
	signer     signature.Signer
	verifier   signature.Verifier
}

// NewIssuer creates an issuer signing with credentials from provider.
func NewIssuer(provider signature.Provider, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		provider: provider,
		signer:   xmldsig.NewSigner(),
		verifier: xmldsig.NewVerifier(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IssueResult is the outcome of issuing one invoice.
type IssueResult struct {
	// ID is a unique identifier assigned to this issuing run.
	ID string `json:"id"`
	// AccessKey is the 49-digit key stamped into the document.
	AccessKey string `json:"access_key"`
	// SignedXML is the signed canonical document.
	SignedXML []byte `json:"signed_xml"`
	// Violations is the compliance report; empty means compliant.
	Violations []Violation `json:"violations"`
}

// Issue recomputes totals, generates the access key when the invoice has
// none, assembles and signs the document and runs compliance validation.
// The invoice value is updated in place with totals and access key.
func (i *Issuer) Issue(ctx context.Context, inv *Invoice) (*IssueResult, error) {
	if inv == nil {
		return nil, model.NewFormatError("invoice", "invoice is required", nil)
	}

	inv.CalculateTotals()

	if inv.AccessKey == "" {
		key, err := accesskey.Generate(accesskey.Fields{
			IssuedAt:     inv.IssuedAt,
			DocumentType: inv.DocumentType,
			RUC:          inv.Emitter.Identifier,
			Environment:  inv.Environment,
			Serial:       inv.Establishment() + inv.EmissionPoint(),
			Sequence:     sequenceNumber(inv.Sequence()),
			EmissionType: inv.EmissionType,
		})
		if err != nil {
			return nil, err
		}
		inv.AccessKey = key
	}

	doc, err := document.NewBuilder(i.builderCfg).Build(inv)
	if err != nil {
		return nil, err
	}
	xml, err := doc.XML()
	if err != nil {
		return nil, err
	}

	cred, err := i.provider.SigningCredential(ctx)
	if err != nil {
		return nil, err
	}
	signed, err := i.signer.Sign(ctx, xml, cred)
	if err != nil {
		return nil, err
	}

	violations := compliance.NewValidator(i.verifier).Validate(ctx, inv, signed)

	return &IssueResult{
		ID:         uuid.NewString(),
		AccessKey:  inv.AccessKey,
		SignedXML:  signed,
		Violations: violations,
	}, nil
}

// Verify checks the enveloped signature of a signed document.
func (i *Issuer) Verify(ctx context.Context, signed []byte) (*VerificationResult, error) {
	return i.verifier.Verify(ctx, signed)
}

func sequenceNumber(segment string) int {
	n := 0
	for i := 0; i < len(segment); i++ {
		n = n*10 + int(segment[i]-'0')
	}
	return n
}
