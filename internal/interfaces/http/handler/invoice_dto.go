package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cfdi/backend/internal/domain/cfdi"
)

// InvoiceListRequest holds the query parameters of the invoice list endpoint
type InvoiceListRequest struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Tipo     string `form:"tipo"`
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=50" binding:"omitempty,min=1,max=200"`
}

// dateOnlyLayout is the accepted format for from/to query parameters
const dateOnlyLayout = "2006-01-02"

// toFilter converts the request into a repository filter.
// The To date is inclusive: it covers the whole day.
func (r InvoiceListRequest) toFilter() (cfdi.InvoiceFilter, error) {
	filter := cfdi.InvoiceFilter{
		TipoDeComprobante: r.Tipo,
		Page:              r.Page,
		PageSize:          r.PageSize,
	}
	if r.From != "" {
		from, err := time.Parse(dateOnlyLayout, r.From)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if r.To != "" {
		to, err := time.Parse(dateOnlyLayout, r.To)
		if err != nil {
			return filter, err
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}
	return filter, nil
}

// IngestResponse confirms a stored invoice with its row counts
type IngestResponse struct {
	Filename      string `json:"filename"`
	ComprobanteID uint   `json:"comprobante_id"`
	EmisorID      uint   `json:"emisor_id"`
	ReceptorID    uint   `json:"receptor_id"`
	Conceptos     int    `json:"conceptos"`
	ConceptoTaxes int    `json:"concepto_taxes"`
	DocumentTaxes int    `json:"document_taxes"`
}

// InvoiceSummaryResponse is one row of the invoice list
type InvoiceSummaryResponse struct {
	ID                uint            `json:"id"`
	EmisorRFC         string          `json:"emisor_rfc"`
	ReceptorRFC       string          `json:"receptor_rfc"`
	Serie             string          `json:"serie,omitempty"`
	Folio             string          `json:"folio,omitempty"`
	Fecha             time.Time       `json:"fecha"`
	Moneda            string          `json:"moneda"`
	Total             decimal.Decimal `json:"total"`
	TipoDeComprobante string          `json:"tipo_de_comprobante"`
}

// TrasladoResponse is one transferred-tax row
type TrasladoResponse struct {
	Base       decimal.Decimal `json:"base"`
	Impuesto   string          `json:"impuesto"`
	TipoFactor string          `json:"tipo_factor"`
	TasaOCuota decimal.Decimal `json:"tasa_o_cuota"`
	Importe    decimal.Decimal `json:"importe"`
}

// ConceptoResponse is one invoice line item with its taxes
type ConceptoResponse struct {
	ClaveProdServ string             `json:"clave_prod_serv"`
	Cantidad      decimal.Decimal    `json:"cantidad"`
	ClaveUnidad   string             `json:"clave_unidad"`
	Descripcion   string             `json:"descripcion"`
	ValorUnitario decimal.Decimal    `json:"valor_unitario"`
	Importe       decimal.Decimal    `json:"importe"`
	Descuento     decimal.Decimal    `json:"descuento"`
	ObjetoImp     string             `json:"objeto_imp,omitempty"`
	Traslados     []TrasladoResponse `json:"traslados"`
}

// InvoiceDetailResponse is a stored comprobante with all its nested rows
type InvoiceDetailResponse struct {
	ID                        uint               `json:"id"`
	Version                   string             `json:"version"`
	Serie                     string             `json:"serie,omitempty"`
	Folio                     string             `json:"folio,omitempty"`
	Fecha                     time.Time          `json:"fecha"`
	SubTotal                  decimal.Decimal    `json:"subtotal"`
	Descuento                 decimal.Decimal    `json:"descuento"`
	Moneda                    string             `json:"moneda"`
	TipoCambio                decimal.Decimal    `json:"tipo_cambio"`
	Total                     decimal.Decimal    `json:"total"`
	TipoDeComprobante         string             `json:"tipo_de_comprobante"`
	Exportacion               string             `json:"exportacion,omitempty"`
	LugarExpedicion           string             `json:"lugar_expedicion,omitempty"`
	TotalImpuestosTrasladados decimal.Decimal    `json:"total_impuestos_trasladados"`
	Emisor                    EmisorResponse     `json:"emisor"`
	Receptor                  ReceptorResponse   `json:"receptor"`
	Conceptos                 []ConceptoResponse `json:"conceptos"`
	Traslados                 []TrasladoResponse `json:"traslados"`
}

// EmisorResponse is the issuing party of a stored invoice
type EmisorResponse struct {
	ID            uint   `json:"id"`
	Rfc           string `json:"rfc"`
	Nombre        string `json:"nombre"`
	RegimenFiscal string `json:"regimen_fiscal"`
}

// ReceptorResponse is the receiving party of a stored invoice
type ReceptorResponse struct {
	ID              uint   `json:"id"`
	Rfc             string `json:"rfc"`
	Nombre          string `json:"nombre"`
	DomicilioFiscal string `json:"domicilio_fiscal,omitempty"`
	RegimenFiscal   string `json:"regimen_fiscal"`
	UsoCFDI         string `json:"uso_cfdi"`
}

func trasladosToResponse(traslados []cfdi.Traslado) []TrasladoResponse {
	out := make([]TrasladoResponse, len(traslados))
	for i, tr := range traslados {
		out[i] = TrasladoResponse{
			Base:       tr.Base,
			Impuesto:   tr.Impuesto,
			TipoFactor: tr.TipoFactor,
			TasaOCuota: tr.TasaOCuota,
			Importe:    tr.Importe,
		}
	}
	return out
}

func invoiceDetailFromStored(stored *cfdi.StoredInvoice) InvoiceDetailResponse {
	doc := stored.Document

	conceptos := make([]ConceptoResponse, len(doc.Conceptos))
	for i, con := range doc.Conceptos {
		conceptos[i] = ConceptoResponse{
			ClaveProdServ: con.ClaveProdServ,
			Cantidad:      con.Cantidad,
			ClaveUnidad:   con.ClaveUnidad,
			Descripcion:   con.Descripcion,
			ValorUnitario: con.ValorUnitario,
			Importe:       con.Importe,
			Descuento:     con.Descuento,
			ObjetoImp:     con.ObjetoImp,
			Traslados:     trasladosToResponse(con.Traslados),
		}
	}

	return InvoiceDetailResponse{
		ID:                        stored.ID,
		Version:                   doc.Version,
		Serie:                     doc.Serie,
		Folio:                     doc.Folio,
		Fecha:                     doc.Fecha,
		SubTotal:                  doc.SubTotal,
		Descuento:                 doc.Descuento,
		Moneda:                    doc.Moneda,
		TipoCambio:                doc.TipoCambio,
		Total:                     doc.Total,
		TipoDeComprobante:         doc.TipoDeComprobante,
		Exportacion:               doc.Exportacion,
		LugarExpedicion:           doc.LugarExpedicion,
		TotalImpuestosTrasladados: doc.TotalImpuestosTrasladados,
		Emisor: EmisorResponse{
			ID:            stored.EmisorID,
			Rfc:           doc.Emisor.Rfc,
			Nombre:        doc.Emisor.Nombre,
			RegimenFiscal: doc.Emisor.RegimenFiscal,
		},
		Receptor: ReceptorResponse{
			ID:              stored.ReceptorID,
			Rfc:             doc.Receptor.Rfc,
			Nombre:          doc.Receptor.Nombre,
			DomicilioFiscal: doc.Receptor.DomicilioFiscal,
			RegimenFiscal:   doc.Receptor.RegimenFiscal,
			UsoCFDI:         doc.Receptor.UsoCFDI,
		},
		Conceptos: conceptos,
		Traslados: trasladosToResponse(doc.Traslados),
	}
}
