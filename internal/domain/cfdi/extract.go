package cfdi

import (
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// attr returns the trimmed attribute value, or "" when absent.
func attr(e *etree.Element, name string) string {
	return strings.TrimSpace(e.SelectAttrValue(name, ""))
}

// requireAttr returns the attribute value or a MissingFieldError.
func requireAttr(e *etree.Element, level, name string) (string, error) {
	v := attr(e, name)
	if v == "" {
		return "", &MissingFieldError{Level: level, Field: name}
	}
	return v, nil
}

// requireDecimal converts a mandatory attribute to a decimal.
func requireDecimal(e *etree.Element, level, name string) (decimal.Decimal, error) {
	v, err := requireAttr(e, level, name)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, &FieldTypeError{Level: level, Field: name, Value: v}
	}
	return d, nil
}

// optionalDecimal converts an optional attribute to a decimal, substituting
// def when the attribute is absent. A present but non-numeric value is still
// an error.
func optionalDecimal(e *etree.Element, level, name string, def decimal.Decimal) (decimal.Decimal, error) {
	v := attr(e, name)
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, &FieldTypeError{Level: level, Field: name, Value: v}
	}
	return d, nil
}

func extractComprobante(root *etree.Element, opts Options) (*Document, error) {
	doc := &Document{
		Version:           attr(root, "Version"),
		Serie:             attr(root, "Serie"),
		Folio:             attr(root, "Folio"),
		Moneda:            attr(root, "Moneda"),
		TipoDeComprobante: attr(root, "TipoDeComprobante"),
		Exportacion:       attr(root, "Exportacion"),
		LugarExpedicion:   attr(root, "LugarExpedicion"),
	}
	if doc.Version == "" {
		doc.Version = opts.DefaultVersion
	}

	fecha, err := requireAttr(root, LevelComprobante, "Fecha")
	if err != nil {
		return nil, err
	}
	doc.Fecha, err = time.Parse(FechaLayout, fecha)
	if err != nil {
		return nil, &DateFormatError{Value: fecha}
	}

	if doc.SubTotal, err = requireDecimal(root, LevelComprobante, "SubTotal"); err != nil {
		return nil, err
	}
	if doc.Total, err = requireDecimal(root, LevelComprobante, "Total"); err != nil {
		return nil, err
	}
	if doc.Descuento, err = optionalDecimal(root, LevelComprobante, "Descuento", decimal.Zero); err != nil {
		return nil, err
	}
	if doc.TipoCambio, err = optionalDecimal(root, LevelComprobante, "TipoCambio", decimal.NewFromInt(1)); err != nil {
		return nil, err
	}
	return doc, nil
}

func extractEmisor(el *etree.Element) (Emisor, error) {
	var e Emisor
	var err error
	if e.Rfc, err = requireAttr(el, LevelEmisor, "Rfc"); err != nil {
		return e, err
	}
	if e.Nombre, err = requireAttr(el, LevelEmisor, "Nombre"); err != nil {
		return e, err
	}
	if e.RegimenFiscal, err = requireAttr(el, LevelEmisor, "RegimenFiscal"); err != nil {
		return e, err
	}
	return e, nil
}

func extractReceptor(el *etree.Element) (Receptor, error) {
	var r Receptor
	var err error
	if r.Rfc, err = requireAttr(el, LevelReceptor, "Rfc"); err != nil {
		return r, err
	}
	if r.Nombre, err = requireAttr(el, LevelReceptor, "Nombre"); err != nil {
		return r, err
	}
	if r.RegimenFiscal, err = requireAttr(el, LevelReceptor, "RegimenFiscalReceptor"); err != nil {
		return r, err
	}
	if r.UsoCFDI, err = requireAttr(el, LevelReceptor, "UsoCFDI"); err != nil {
		return r, err
	}
	r.DomicilioFiscal = attr(el, "DomicilioFiscalReceptor")
	return r, nil
}

func extractConcepto(el *etree.Element) (Concepto, error) {
	var c Concepto
	var err error
	if c.ClaveProdServ, err = requireAttr(el, LevelConcepto, "ClaveProdServ"); err != nil {
		return c, err
	}
	if c.Cantidad, err = requireDecimal(el, LevelConcepto, "Cantidad"); err != nil {
		return c, err
	}
	if c.ClaveUnidad, err = requireAttr(el, LevelConcepto, "ClaveUnidad"); err != nil {
		return c, err
	}
	if c.Descripcion, err = requireAttr(el, LevelConcepto, "Descripcion"); err != nil {
		return c, err
	}
	if c.ValorUnitario, err = requireDecimal(el, LevelConcepto, "ValorUnitario"); err != nil {
		return c, err
	}
	if c.Importe, err = requireDecimal(el, LevelConcepto, "Importe"); err != nil {
		return c, err
	}
	if c.Descuento, err = optionalDecimal(el, LevelConcepto, "Descuento", decimal.Zero); err != nil {
		return c, err
	}
	c.ObjetoImp = attr(el, "ObjetoImp")

	if impuestos := el.SelectElement("Impuestos"); impuestos != nil {
		c.Traslados, err = extractTraslados(impuestos)
		if err != nil {
			return c, err
		}
	}
	return c, nil
}

// extractTraslados reads Traslados/Traslado entries under an Impuestos element.
func extractTraslados(impuestos *etree.Element) ([]Traslado, error) {
	traslados := impuestos.SelectElement("Traslados")
	if traslados == nil {
		return nil, nil
	}

	var out []Traslado
	for _, el := range traslados.SelectElements("Traslado") {
		var t Traslado
		var err error
		if t.Base, err = requireDecimal(el, LevelTraslado, "Base"); err != nil {
			return nil, err
		}
		if t.Impuesto, err = requireAttr(el, LevelTraslado, "Impuesto"); err != nil {
			return nil, err
		}
		if t.TipoFactor, err = requireAttr(el, LevelTraslado, "TipoFactor"); err != nil {
			return nil, err
		}
		// Exento taxes omit TasaOCuota and Importe.
		if t.TasaOCuota, err = optionalDecimal(el, LevelTraslado, "TasaOCuota", decimal.Zero); err != nil {
			return nil, err
		}
		if t.Importe, err = optionalDecimal(el, LevelTraslado, "Importe", decimal.Zero); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
