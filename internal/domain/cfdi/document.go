package cfdi

import (
	"time"

	"github.com/shopspring/decimal"
)

// FechaLayout is the timestamp layout mandated by the CFDI 4.0 standard
// for the Fecha attribute (local time, no zone designator).
const FechaLayout = "2006-01-02T15:04:05"

// Emisor is the issuing party of a comprobante.
type Emisor struct {
	Rfc           string
	Nombre        string
	RegimenFiscal string
}

// Receptor is the receiving party of a comprobante.
type Receptor struct {
	Rfc             string
	Nombre          string
	DomicilioFiscal string
	RegimenFiscal   string
	UsoCFDI         string
}

// Traslado is a single transferred-tax entry, either attached to one
// concepto or summarizing the whole document.
type Traslado struct {
	Base       decimal.Decimal
	Impuesto   string
	TipoFactor string
	TasaOCuota decimal.Decimal
	Importe    decimal.Decimal
}

// Concepto is one invoice line item with its transferred taxes.
type Concepto struct {
	ClaveProdServ string
	Cantidad      decimal.Decimal
	ClaveUnidad   string
	Descripcion   string
	ValorUnitario decimal.Decimal
	Importe       decimal.Decimal
	Descuento     decimal.Decimal
	ObjetoImp     string
	Traslados     []Traslado
}

// Document is a fully parsed and validated CFDI comprobante, ready for
// persistence. All monetary and quantity values are decimals.
type Document struct {
	Version                   string
	Serie                     string
	Folio                     string
	Fecha                     time.Time
	SubTotal                  decimal.Decimal
	Descuento                 decimal.Decimal
	Moneda                    string
	TipoCambio                decimal.Decimal
	Total                     decimal.Decimal
	TipoDeComprobante         string
	Exportacion               string
	LugarExpedicion           string
	TotalImpuestosTrasladados decimal.Decimal

	Emisor    Emisor
	Receptor  Receptor
	Conceptos []Concepto
	Traslados []Traslado // document-level summary taxes
}

// Options controls parsing policy.
type Options struct {
	// DefaultVersion is substituted when the Version attribute is absent.
	// An empty value makes Version mandatory.
	DefaultVersion string
}

// DefaultOptions returns the standard parsing policy for CFDI 4.0.
func DefaultOptions() Options {
	return Options{DefaultVersion: "4.0"}
}
