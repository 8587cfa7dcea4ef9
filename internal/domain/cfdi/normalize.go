package cfdi

import (
	"unicode/utf8"

	"github.com/beevik/etree"
)

// normalize parses raw bytes into the Comprobante root element.
//
// etree splits a qualified tag like cfdi:Comprobante into namespace prefix
// and local name, and SelectElement matches by local name when no prefix is
// given. Downstream extraction therefore works identically for prefixed and
// unprefixed documents, and repeated child elements always come back as a
// slice (a single child is a one-element slice).
func normalize(raw []byte) (*etree.Element, error) {
	if len(raw) == 0 {
		return nil, &MalformedXMLError{Reason: "empty input"}
	}
	if !utf8.Valid(raw) {
		return nil, &MalformedXMLError{Reason: "input is not valid UTF-8"}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, &MalformedXMLError{Reason: "invalid XML", Err: err}
	}

	root := doc.Root()
	if root == nil {
		return nil, &MalformedXMLError{Reason: "document has no root element"}
	}
	if root.Tag != "Comprobante" {
		return nil, &MalformedXMLError{Reason: "root element is not Comprobante"}
	}
	return root, nil
}
