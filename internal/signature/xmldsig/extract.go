package xmldsig

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// XMLDSigNamespace is the XML digital signature namespace.
const XMLDSigNamespace = "http://www.w3.org/2000/09/xmldsig#"

// Canonicalization and digest algorithm identifiers the verifier accepts.
const (
	algC14N10Rec       = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	algC14N10Exclusive = "http://www.w3.org/2001/10/xml-exc-c14n#"
	algC14N11          = "http://www.w3.org/2006/12/xml-c14n11"
	algEnveloped       = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
	algSHA256Digest    = "http://www.w3.org/2001/04/xmlenc#sha256"
)

// extraction holds the signature element and its surroundings.
type extraction struct {
	// Document is the parsed XML document
	Document *etree.Document
	// SignatureElement is the <Signature> element
	SignatureElement *etree.Element
	// SignedElement is the element the signature envelops
	SignedElement *etree.Element
}

// extract parses data and locates the enveloped signature.
func extract(data []byte) (*extraction, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty XML document")
	}

	sig := findSignatureElement(root)
	if sig == nil {
		return nil, fmt.Errorf("no Signature element found in document")
	}

	signed := sig.Parent()
	if signed == nil {
		signed = root
	}

	return &extraction{
		Document:         doc,
		SignatureElement: sig,
		SignedElement:    signed,
	}, nil
}

// findSignatureElement searches for the Signature element in the document
func findSignatureElement(root *etree.Element) *etree.Element {
	for _, path := range []string{"Signature", "ds:Signature"} {
		if elem := root.FindElement(path); elem != nil {
			return elem
		}
	}
	return findElementRecursive(root, "Signature")
}

// findElementRecursive searches for an element by local name recursively
func findElementRecursive(elem *etree.Element, localName string) *etree.Element {
	if hasLocalName(elem, localName) {
		return elem
	}
	for _, child := range elem.ChildElements() {
		if found := findElementRecursive(child, localName); found != nil {
			return found
		}
	}
	return nil
}

// findChild resolves a path of local names below elem, ignoring namespace
// prefixes at every step.
func findChild(elem *etree.Element, path ...string) *etree.Element {
	current := elem
	for _, name := range path {
		var next *etree.Element
		for _, child := range current.ChildElements() {
			if hasLocalName(child, name) {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

// hasLocalName checks if element has the given local name (ignoring namespace prefix)
func hasLocalName(elem *etree.Element, localName string) bool {
	tag := elem.Tag
	if idx := strings.IndexByte(tag, ':'); idx >= 0 {
		tag = tag[idx+1:]
	}
	return tag == localName
}

// extractCertificate decodes the signing certificate embedded in a
// Signature element.
func extractCertificate(sig *etree.Element) ([]byte, error) {
	certElem := findChild(sig, "KeyInfo", "X509Data", "X509Certificate")
	if certElem == nil || strings.TrimSpace(certElem.Text()) == "" {
		return nil, fmt.Errorf("no X509Certificate found in Signature")
	}
	der, err := base64.StdEncoding.DecodeString(strings.Map(dropSpace, certElem.Text()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode certificate: %w", err)
	}
	return der, nil
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\t', '\n', '\r':
		return -1
	}
	return r
}

// referenceInfo is the digest reference inside SignedInfo.
type referenceInfo struct {
	DigestAlgorithm string
	DigestValue     string
	Transforms      []string
}

// extractReference reads the Reference covering the enveloped content.
func extractReference(sig *etree.Element) (*referenceInfo, error) {
	ref := findChild(sig, "SignedInfo", "Reference")
	if ref == nil {
		return nil, fmt.Errorf("no Reference found in SignedInfo")
	}

	info := &referenceInfo{}
	if dm := findChild(ref, "DigestMethod"); dm != nil {
		info.DigestAlgorithm = dm.SelectAttrValue("Algorithm", "")
	}
	if dv := findChild(ref, "DigestValue"); dv != nil {
		info.DigestValue = strings.TrimSpace(dv.Text())
	}
	if transforms := findChild(ref, "Transforms"); transforms != nil {
		for _, t := range transforms.ChildElements() {
			if hasLocalName(t, "Transform") {
				info.Transforms = append(info.Transforms, t.SelectAttrValue("Algorithm", ""))
			}
		}
	}

	if info.DigestValue == "" {
		return nil, fmt.Errorf("Reference carries no DigestValue")
	}
	return info, nil
}

// hasSignature reports whether data already carries a Signature element.
func hasSignature(data []byte) bool {
	return bytes.Contains(data, []byte("<Signature")) ||
		bytes.Contains(data, []byte("<ds:Signature")) ||
		bytes.Contains(data, []byte(":Signature "))
}
