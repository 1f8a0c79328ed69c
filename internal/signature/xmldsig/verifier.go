package xmldsig

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/rezonia/einvoice-sri/internal/signature"
)

// Verifier checks enveloped XMLDSig signatures. The embedded certificate is
// always used for the signature value check; additional roots may be pinned
// so documents signed by unknown certificates are flagged.
type Verifier struct {
	roots []*x509.Certificate
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithTrustedRoots pins CA certificates; when set, the embedded signing
// certificate must chain to one of them.
func WithTrustedRoots(roots ...*x509.Certificate) Option {
	return func(v *Verifier) {
		v.roots = append(v.roots, roots...)
	}
}

// NewVerifier creates a new XML signature verifier.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the enveloped signature in signed. Digest and signature
// mismatches are reported through the result; only unreadable input
// produces a non-nil result with errors recorded, never a panic or a
// partially-checked Valid=true.
func (v *Verifier) Verify(ctx context.Context, signed []byte) (*signature.VerificationResult, error) {
	result := signature.NewVerificationResult()

	extraction, err := extract(signed)
	if err != nil {
		result.AddError(err.Error())
		return result, nil
	}
	result.SignatureFound = true

	// Embedded certificate
	certDER, err := extractCertificate(extraction.SignatureElement)
	if err != nil {
		result.AddError(err.Error())
		return result, nil
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		result.AddError(fmt.Sprintf("failed to parse certificate: %v", err))
		return result, nil
	}
	result.SetSigner(cert)
	result.CertChain = []*x509.Certificate{cert}

	// Independent digest recomputation over the content minus the signature
	v.checkDigest(extraction, result)

	// Cryptographic check of the signature value over SignedInfo
	v.checkSignature(extraction, cert, result)

	if t := extractSigningTime(extraction.SignatureElement); t != nil {
		result.SignedAt = t
	}

	result.ComputeValidity()
	return result, nil
}

// checkDigest recomputes the reference digest and compares it against the
// DigestValue declared inside SignedInfo.
func (v *Verifier) checkDigest(ex *extraction, result *signature.VerificationResult) {
	ref, err := extractReference(ex.SignatureElement)
	if err != nil {
		result.AddError(err.Error())
		return
	}
	if ref.DigestAlgorithm != algSHA256Digest {
		result.AddError(fmt.Sprintf("unsupported digest algorithm: %s", ref.DigestAlgorithm))
		return
	}

	content := ex.SignedElement.Copy()
	if sig := findSignatureElement(content); sig != nil && sig.Parent() != nil {
		sig.Parent().RemoveChild(sig)
	}

	canonicalizer, err := canonicalizerFor(ref.Transforms)
	if err != nil {
		result.AddError(err.Error())
		return
	}
	canonical, err := canonicalizer.Canonicalize(content)
	if err != nil {
		result.AddError(fmt.Sprintf("canonicalization failed: %v", err))
		return
	}

	sum := sha256.Sum256(canonical)
	if base64.StdEncoding.EncodeToString(sum[:]) != ref.DigestValue {
		result.DigestValid = false
		result.AddError("digest mismatch: document content differs from the signed digest")
		return
	}
	result.DigestValid = true
}

// checkSignature validates the SignatureValue against the certificate, and
// the certificate against pinned roots when any are configured.
func (v *Verifier) checkSignature(ex *extraction, cert *x509.Certificate, result *signature.VerificationResult) {
	roots := append([]*x509.Certificate{cert}, v.roots...)
	validationCtx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: roots,
	})

	if _, err := validationCtx.Validate(ex.SignedElement); err != nil {
		result.SignatureValid = false
		result.AddError(fmt.Sprintf("signature validation failed: %v", err))
		return
	}
	result.SignatureValid = true

	if len(v.roots) > 0 {
		pool := x509.NewCertPool()
		for _, root := range v.roots {
			pool.AddCert(root)
		}
		if _, err := cert.Verify(x509.VerifyOptions{Roots: pool}); err != nil {
			result.AddWarning(fmt.Sprintf("signing certificate does not chain to a pinned root: %v", err))
		}
	}
}

// canonicalizerFor picks the canonicalizer declared by the reference
// transforms; the enveloped-signature transform is implied by removal of
// the signature block.
func canonicalizerFor(transforms []string) (dsig.Canonicalizer, error) {
	for _, alg := range transforms {
		switch alg {
		case algC14N10Rec:
			return dsig.MakeC14N10RecCanonicalizer(), nil
		case algC14N10Exclusive:
			return dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList(""), nil
		case algC14N11:
			return dsig.MakeC14N11Canonicalizer(), nil
		case algEnveloped:
			continue
		}
	}
	// No canonicalization transform declared: C14N 1.0 is what SRI
	// documents carry in practice.
	return dsig.MakeC14N10RecCanonicalizer(), nil
}

// extractSigningTime attempts to extract signing time from the signature
func extractSigningTime(sigElem *etree.Element) *time.Time {
	paths := [][]string{
		{"Object", "SignatureProperties", "SignatureProperty", "SigningTime"},
		{"Object", "QualifyingProperties", "SignedProperties", "SignedSignatureProperties", "SigningTime"},
	}

	for _, path := range paths {
		if elem := findChild(sigElem, path...); elem != nil {
			if t, err := time.Parse(time.RFC3339, elem.Text()); err == nil {
				return &t
			}
			if t, err := time.Parse("2006-01-02T15:04:05", elem.Text()); err == nil {
				return &t
			}
		}
	}
	return nil
}
