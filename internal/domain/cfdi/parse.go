package cfdi

import (
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Parse turns raw CFDI XML into a validated Document.
//
// Extraction and validation run level by level in persistence order:
// Comprobante, Emisor, Receptor, then each Concepto with its Traslados,
// then the document-level Traslados. The first violation stops the pipeline,
// so a partially valid document never reaches the repository.
func Parse(raw []byte, opts Options) (*Document, error) {
	root, err := normalize(raw)
	if err != nil {
		return nil, err
	}

	doc, err := extractComprobante(root, opts)
	if err != nil {
		return nil, err
	}
	if err := validateComprobante(doc); err != nil {
		return nil, err
	}

	emisorEl := root.SelectElement("Emisor")
	if emisorEl == nil {
		return nil, &MissingFieldError{Level: LevelComprobante, Field: "Emisor"}
	}
	if doc.Emisor, err = extractEmisor(emisorEl); err != nil {
		return nil, err
	}

	receptorEl := root.SelectElement("Receptor")
	if receptorEl == nil {
		return nil, &MissingFieldError{Level: LevelComprobante, Field: "Receptor"}
	}
	if doc.Receptor, err = extractReceptor(receptorEl); err != nil {
		return nil, err
	}

	if conceptosEl := root.SelectElement("Conceptos"); conceptosEl != nil {
		for _, el := range conceptosEl.SelectElements("Concepto") {
			c, err := extractConcepto(el)
			if err != nil {
				return nil, err
			}
			doc.Conceptos = append(doc.Conceptos, c)
		}
	}

	if err := extractDocumentTaxes(root, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// validateComprobante enforces the document-level mandatory set beyond what
// typed extraction already guarantees.
func validateComprobante(doc *Document) error {
	if doc.Version == "" {
		return &MissingFieldError{Level: LevelComprobante, Field: "Version"}
	}
	if doc.Moneda == "" {
		return &MissingFieldError{Level: LevelComprobante, Field: "Moneda"}
	}
	if doc.TipoDeComprobante == "" {
		return &MissingFieldError{Level: LevelComprobante, Field: "TipoDeComprobante"}
	}
	return nil
}

// extractDocumentTaxes reads the document-level Impuestos summary, a direct
// child of Comprobante (per-concepto Impuestos live under Conceptos/Concepto
// and are handled during concepto extraction).
func extractDocumentTaxes(root *etree.Element, doc *Document) error {
	impuestos := root.SelectElement("Impuestos")
	if impuestos == nil {
		doc.TotalImpuestosTrasladados = decimal.Zero
		return nil
	}

	var err error
	doc.TotalImpuestosTrasladados, err = optionalDecimal(
		impuestos, LevelComprobante, "TotalImpuestosTrasladados", decimal.Zero)
	if err != nil {
		return err
	}

	doc.Traslados, err = extractTraslados(impuestos)
	return err
}
