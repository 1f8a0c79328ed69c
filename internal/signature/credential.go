package signature

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"sync/atomic"

	"golang.org/x/crypto/pkcs12"

	"github.com/rezonia/einvoice-sri/internal/model"
)

// Credential is a signing key with its certificate. Read-only after load.
type Credential struct {
	PrivateKey  *rsa.PrivateKey
	Certificate *x509.Certificate
	Chain       []*x509.Certificate
}

// Check verifies the credential is usable: key and certificate present and
// the certificate's public key matching the private key.
func (c *Credential) Check() error {
	if c == nil || c.PrivateKey == nil {
		return model.NewCredentialError("private key is missing", nil)
	}
	if c.Certificate == nil {
		return model.NewCredentialError("certificate is missing", nil)
	}
	pub, ok := c.Certificate.PublicKey.(*rsa.PublicKey)
	if !ok {
		return model.NewCredentialError("certificate does not carry an RSA public key", nil)
	}
	if pub.N.Cmp(c.PrivateKey.N) != 0 || pub.E != c.PrivateKey.E {
		return model.NewCredentialError("certificate does not match the private key", nil)
	}
	return nil
}

// Provider exposes the signing credential to the engine.
type Provider interface {
	SigningCredential(ctx context.Context) (*Credential, error)
}

// StaticProvider serves a fixed credential.
type StaticProvider struct {
	cred *Credential
}

// NewStaticProvider wraps an already-loaded credential.
func NewStaticProvider(cred *Credential) *StaticProvider {
	return &StaticProvider{cred: cred}
}

func (p *StaticProvider) SigningCredential(ctx context.Context) (*Credential, error) {
	if err := p.cred.Check(); err != nil {
		return nil, err
	}
	return p.cred, nil
}

// RotatingProvider holds a credential that can be swapped at runtime. The
// swap is a single pointer publish, so an in-flight Sign never observes a
// half-updated credential.
type RotatingProvider struct {
	cred atomic.Pointer[Credential]
}

// NewRotatingProvider creates a provider with an initial credential.
func NewRotatingProvider(initial *Credential) *RotatingProvider {
	p := &RotatingProvider{}
	p.cred.Store(initial)
	return p
}

// Rotate publishes a replacement credential.
func (p *RotatingProvider) Rotate(cred *Credential) {
	p.cred.Store(cred)
}

func (p *RotatingProvider) SigningCredential(ctx context.Context) (*Credential, error) {
	cred := p.cred.Load()
	if cred == nil {
		return nil, model.NewCredentialError("no signing credential loaded", nil)
	}
	if err := cred.Check(); err != nil {
		return nil, err
	}
	return cred, nil
}

// LoadPKCS12 loads a credential from a .p12/.pfx file.
func LoadPKCS12(path, password string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewCredentialError("could not read PKCS#12 file", err)
	}
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, model.NewCredentialError("could not decode PKCS#12 file", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, model.NewCredentialError("PKCS#12 private key is not RSA", nil)
	}
	cred := &Credential{PrivateKey: rsaKey, Certificate: cert}
	if err := cred.Check(); err != nil {
		return nil, err
	}
	return cred, nil
}

// LoadPEM loads a credential from PEM-encoded key and certificate files.
func LoadPEM(keyPath, certPath string) (*Credential, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, model.NewCredentialError("could not read private key file", err)
	}
	certData, err := os.ReadFile(certPath)
	if err != nil {
		return nil, model.NewCredentialError("could not read certificate file", err)
	}

	key, err := parsePEMKey(keyData)
	if err != nil {
		return nil, err
	}
	cert, chain, err := parsePEMCerts(certData)
	if err != nil {
		return nil, err
	}

	cred := &Credential{PrivateKey: key, Certificate: cert, Chain: chain}
	if err := cred.Check(); err != nil {
		return nil, err
	}
	return cred, nil
}

// LoadPEMCertificates loads every certificate from a PEM file.
func LoadPEMCertificates(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewCredentialError("could not read certificate file", err)
	}
	cert, chain, err := parsePEMCerts(data)
	if err != nil {
		return nil, err
	}
	return append([]*x509.Certificate{cert}, chain...), nil
}

func parsePEMKey(data []byte) (*rsa.PrivateKey, error) {
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, model.NewCredentialError("could not parse PKCS#1 private key", err)
			}
			return key, nil
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, model.NewCredentialError("could not parse PKCS#8 private key", err)
			}
			rsaKey, ok := key.(*rsa.PrivateKey)
			if !ok {
				return nil, model.NewCredentialError("private key is not RSA", nil)
			}
			return rsaKey, nil
		}
	}
	return nil, model.NewCredentialError("no private key found in PEM data", nil)
}

func parsePEMCerts(data []byte) (*x509.Certificate, []*x509.Certificate, error) {
	var certs []*x509.Certificate
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, nil, model.NewCredentialError("could not parse certificate", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, nil, model.NewCredentialError("no certificate found in PEM data", nil)
	}
	return certs[0], certs[1:], nil
}
