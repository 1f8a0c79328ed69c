package server

import (
	"time"

	"github.com/rezonia/einvoice-sri/internal/compliance"
	"github.com/rezonia/einvoice-sri/internal/model"
)

// IdentifierRequest is the request body for identifier validation.
type IdentifierRequest struct {
	// Type is "cedula" or "ruc".
	Type  string `json:"type" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// IdentifierResponse reports an identifier check.
type IdentifierResponse struct {
	Valid bool   `json:"valid"`
	Kind  string `json:"kind,omitempty"`
}

// KeyGenerateRequest is the request body for access key generation.
type KeyGenerateRequest struct {
	IssuedAt     string `json:"issued_at" binding:"required"` // YYYY-MM-DD
	DocumentType string `json:"document_type"`
	RUC          string `json:"ruc" binding:"required"`
	Environment  string `json:"environment"`
	Serial       string `json:"serial" binding:"required"`
	Sequence     int    `json:"sequence" binding:"required"`
	NumericCode  string `json:"numeric_code"`
	EmissionType string `json:"emission_type"`
}

// KeyResponse carries a generated or validated access key.
type KeyResponse struct {
	AccessKey string `json:"access_key"`
}

// KeyValidateRequest is the request body for access key validation.
type KeyValidateRequest struct {
	AccessKey string `json:"access_key" binding:"required"`
}

// KeyValidateResponse reports an access key check with its parsed fields.
type KeyValidateResponse struct {
	Valid  bool             `json:"valid"`
	Fields *KeyFieldsOutput `json:"fields,omitempty"`
}

// KeyFieldsOutput is the decomposition of a valid access key.
type KeyFieldsOutput struct {
	IssuedAt     string `json:"issued_at"`
	DocumentType string `json:"document_type"`
	RUC          string `json:"ruc"`
	Environment  string `json:"environment"`
	Serial       string `json:"serial"`
	Sequence     string `json:"sequence"`
	NumericCode  string `json:"numeric_code"`
	EmissionType string `json:"emission_type"`
	CheckDigit   int    `json:"check_digit"`
}

// ValidateRequest is the request body for compliance validation.
type ValidateRequest struct {
	Invoice   *model.Invoice `json:"invoice" binding:"required"`
	SignedXML []byte         `json:"signed_xml,omitempty"`
}

// ValidationResponse reports compliance validation outcome.
type ValidationResponse struct {
	Compliant  bool                   `json:"compliant"`
	Violations []compliance.Violation `json:"violations"`
}

// IssueResponse reports a full issuing run.
type IssueResponse struct {
	ID         string                 `json:"id"`
	AccessKey  string                 `json:"access_key"`
	SignedXML  string                 `json:"signed_xml"`
	Violations []compliance.Violation `json:"violations"`
}

// VerifyResponse reports signature verification outcome.
type VerifyResponse struct {
	Valid          bool              `json:"valid"`
	SignatureFound bool              `json:"signature_found"`
	DigestValid    bool              `json:"digest_valid"`
	SignatureValid bool              `json:"signature_valid"`
	Signer         *SignerInfoOutput `json:"signer,omitempty"`
	SignedAt       *time.Time        `json:"signed_at,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
	Errors         []string          `json:"errors,omitempty"`
}

// SignerInfoOutput is signer certificate information.
type SignerInfoOutput struct {
	Name         string     `json:"name"`
	Organization string     `json:"organization,omitempty"`
	SerialNumber string     `json:"serial_number"`
	Issuer       string     `json:"issuer"`
	ValidFrom    *time.Time `json:"valid_from,omitempty"`
	ValidTo      *time.Time `json:"valid_to,omitempty"`
}
