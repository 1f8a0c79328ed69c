// Package einvoice provides the public API for issuing SRI electronic
// invoices: access key generation, canonical document assembly, enveloped
// digital signing and compliance validation.
//
// Example usage:
//
//	cred, err := einvoice.LoadPKCS12("firma.p12", password)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	issuer := einvoice.NewIssuer(einvoice.NewStaticProvider(cred))
//	result, err := issuer.Issue(ctx, invoice)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("factura.xml", result.SignedXML, 0o644)
package einvoice

import (
	"github.com/rezonia/einvoice-sri/internal/compliance"
	"github.com/rezonia/einvoice-sri/internal/document"
	"github.com/rezonia/einvoice-sri/internal/identity"
	"github.com/rezonia/einvoice-sri/internal/model"
	"github.com/rezonia/einvoice-sri/internal/signature"
)

// Re-export core types for public API
type (
	Invoice         = model.Invoice
	InvoiceLine     = model.InvoiceLine
	Party           = model.Party
	TaxBreakdown    = model.TaxBreakdown
	TaxTotal        = model.TaxTotal
	AdditionalField = model.AdditionalField
	IdentifierType  = model.IdentifierType
	DocumentType    = model.DocumentType
	Environment     = model.Environment
	EmissionType    = model.EmissionType

	Credential         = signature.Credential
	CredentialProvider = signature.Provider
	VerificationResult = signature.VerificationResult

	Violation     = compliance.Violation
	SchemaVersion = document.SchemaVersion
	TaxpayerKind  = identity.TaxpayerKind
)

// Re-export identifier type codes
const (
	IdentifierRUC           = model.IdentifierRUC
	IdentifierCedula        = model.IdentifierCedula
	IdentifierPassport      = model.IdentifierPassport
	IdentifierFinalConsumer = model.IdentifierFinalConsumer
	IdentifierForeign       = model.IdentifierForeign
)

// Re-export environments and emission types
const (
	EnvironmentTest       = model.EnvironmentTest
	EnvironmentProduction = model.EnvironmentProduction
	EmissionNormal        = model.EmissionNormal
	EmissionContingency   = model.EmissionContingency
)

// Re-export document types
const (
	DocumentTypeInvoice    = model.DocumentTypeInvoice
	DocumentTypeCreditNote = model.DocumentTypeCreditNote
	DocumentTypeDebitNote  = model.DocumentTypeDebitNote
)

// Re-export schema versions
const (
	SchemaV110 = document.SchemaV110
	SchemaV200 = document.SchemaV200
	SchemaV210 = document.SchemaV210
)

// Re-export error types
type (
	ValidationError = model.ValidationError
	FormatError     = model.FormatError
	CredentialError = model.CredentialError
	IntegrityError  = model.IntegrityError
)

// Identifier validation entry points
var (
	ValidateNationalID = identity.ValidateNationalID
	ValidateTaxID      = identity.ValidateTaxID
)

// Credential loading entry points
var (
	LoadPKCS12        = signature.LoadPKCS12
	LoadPEM           = signature.LoadPEM
	NewStaticProvider = signature.NewStaticProvider
)
