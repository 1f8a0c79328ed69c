// Package signature defines the signing and verification contracts for SRI
// electronic documents, plus the credential model backing them.
//
// The XMLDSig implementation lives in the xmldsig subpackage; this package
// stays free of any cryptographic toolkit so backends are swappable without
// touching document assembly.
package signature

import "context"

// Signer produces an enveloped digital signature over a canonical document.
type Signer interface {
	// Sign canonicalizes doc, digests it, signs the signed-info structure
	// with the credential's private key and returns the document with the
	// signature block appended. The original content is left untouched.
	Sign(ctx context.Context, doc []byte, cred *Credential) ([]byte, error)
}

// Verifier checks an enveloped signature against the document it covers.
type Verifier interface {
	// Verify recomputes the digest over the signed content and checks the
	// signature value against the embedded certificate. A failing digest or
	// signature is reported through the result, not as an error.
	Verify(ctx context.Context, signed []byte) (*VerificationResult, error)
}
