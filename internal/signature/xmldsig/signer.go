// Package xmldsig implements the signature engine with enveloped XMLDSig
// signatures: C14N 1.0 canonicalization, SHA-256 digests and RSA-SHA256
// signature values, with the signing certificate embedded in KeyInfo.
package xmldsig

import (
	"context"
	"crypto/rsa"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/rezonia/einvoice-sri/internal/model"
	"github.com/rezonia/einvoice-sri/internal/signature"
)

// Signer appends enveloped XMLDSig signatures to documents.
type Signer struct{}

// NewSigner creates a new XML signer.
func NewSigner() *Signer {
	return &Signer{}
}

// keyStore adapts a credential to the signing toolkit's key store.
type keyStore struct {
	cred *signature.Credential
}

func (ks keyStore) GetKeyPair() (*rsa.PrivateKey, []byte, error) {
	return ks.cred.PrivateKey, ks.cred.Certificate.Raw, nil
}

// Sign canonicalizes doc, signs it and returns the document with a
// ds:Signature block appended to the root element. Signing an already
// signed or malformed document fails with FormatError; an unusable
// credential fails with CredentialError.
func (s *Signer) Sign(ctx context.Context, doc []byte, cred *signature.Credential) ([]byte, error) {
	if err := cred.Check(); err != nil {
		return nil, err
	}
	if hasSignature(doc) {
		return nil, model.NewFormatError("document", "document already carries a signature", nil)
	}

	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(doc); err != nil {
		return nil, model.NewFormatError("document", "document is not well-formed XML", err)
	}
	root := tree.Root()
	if root == nil {
		return nil, model.NewFormatError("document", "document has no root element", nil)
	}

	signingCtx := dsig.NewDefaultSigningContext(keyStore{cred: cred})
	signingCtx.Canonicalizer = dsig.MakeC14N10RecCanonicalizer()
	if err := signingCtx.SetSignatureMethod(dsig.RSASHA256SignatureMethod); err != nil {
		return nil, model.NewIntegrityError("could not configure signature method", err)
	}

	signedRoot, err := signingCtx.SignEnveloped(root)
	if err != nil {
		return nil, model.NewIntegrityError("signing failed", err)
	}

	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	out.SetRoot(signedRoot)
	signed, err := out.WriteToBytes()
	if err != nil {
		return nil, model.NewIntegrityError("could not serialize signed document", err)
	}
	return signed, nil
}
