package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cfdi/backend/internal/domain/cfdi"
)

// EmisorModel maps the cfd_emisor table.
type EmisorModel struct {
	ID            uint   `gorm:"column:id_emisor;primaryKey;autoIncrement"`
	Rfc           string `gorm:"column:rfc;type:varchar(15);not null;index"`
	Nombre        string `gorm:"column:nombre;type:varchar(255);not null"`
	RegimenFiscal string `gorm:"column:regimen_fiscal;type:varchar(5);not null"`
}

// TableName returns the table name for EmisorModel
func (EmisorModel) TableName() string { return "cfd_emisor" }

// ToEntity converts the model to a domain value
func (m *EmisorModel) ToEntity() cfdi.Emisor {
	return cfdi.Emisor{
		Rfc:           m.Rfc,
		Nombre:        m.Nombre,
		RegimenFiscal: m.RegimenFiscal,
	}
}

// EmisorModelFromEntity converts a domain value to a model
func EmisorModelFromEntity(e cfdi.Emisor) *EmisorModel {
	return &EmisorModel{
		Rfc:           e.Rfc,
		Nombre:        e.Nombre,
		RegimenFiscal: e.RegimenFiscal,
	}
}

// ReceptorModel maps the cfd_receptor table.
type ReceptorModel struct {
	ID              uint   `gorm:"column:id_receptor;primaryKey;autoIncrement"`
	Rfc             string `gorm:"column:rfc;type:varchar(15);not null;index"`
	Nombre          string `gorm:"column:nombre;type:varchar(255);not null"`
	DomicilioFiscal string `gorm:"column:domicilio_fiscal;type:varchar(10)"`
	RegimenFiscal   string `gorm:"column:regimen_fiscal;type:varchar(5);not null"`
	UsoCFDI         string `gorm:"column:uso_cfdi;type:varchar(5);not null"`
}

// TableName returns the table name for ReceptorModel
func (ReceptorModel) TableName() string { return "cfd_receptor" }

// ToEntity converts the model to a domain value
func (m *ReceptorModel) ToEntity() cfdi.Receptor {
	return cfdi.Receptor{
		Rfc:             m.Rfc,
		Nombre:          m.Nombre,
		DomicilioFiscal: m.DomicilioFiscal,
		RegimenFiscal:   m.RegimenFiscal,
		UsoCFDI:         m.UsoCFDI,
	}
}

// ReceptorModelFromEntity converts a domain value to a model
func ReceptorModelFromEntity(r cfdi.Receptor) *ReceptorModel {
	return &ReceptorModel{
		Rfc:             r.Rfc,
		Nombre:          r.Nombre,
		DomicilioFiscal: r.DomicilioFiscal,
		RegimenFiscal:   r.RegimenFiscal,
		UsoCFDI:         r.UsoCFDI,
	}
}

// ComprobanteModel maps the cfd_comprobante table.
type ComprobanteModel struct {
	ID                        uint            `gorm:"column:id_comprobante;primaryKey;autoIncrement"`
	Version                   string          `gorm:"column:version;type:varchar(10);not null"`
	Serie                     string          `gorm:"column:serie;type:varchar(25)"`
	Folio                     string          `gorm:"column:folio;type:varchar(40)"`
	Fecha                     time.Time       `gorm:"column:fecha;not null;index"`
	SubTotal                  decimal.Decimal `gorm:"column:subtotal;type:decimal(19,4);not null"`
	Descuento                 decimal.Decimal `gorm:"column:descuento;type:decimal(19,4)"`
	Moneda                    string          `gorm:"column:moneda;type:varchar(10);not null"`
	TipoCambio                decimal.Decimal `gorm:"column:tipo_cambio;type:decimal(19,6)"`
	Total                     decimal.Decimal `gorm:"column:total;type:decimal(19,4);not null"`
	TipoDeComprobante         string          `gorm:"column:tipo_de_comprobante;type:varchar(1);not null"`
	Exportacion               string          `gorm:"column:exportacion;type:varchar(2)"`
	LugarExpedicion           string          `gorm:"column:lugar_expedicion;type:varchar(10)"`
	EmisorID                  uint            `gorm:"column:id_emisor;not null;index"`
	ReceptorID                uint            `gorm:"column:id_receptor;not null;index"`
	TotalImpuestosTrasladados decimal.Decimal `gorm:"column:total_impuestos_trasladados;type:decimal(19,4)"`
}

// TableName returns the table name for ComprobanteModel
func (ComprobanteModel) TableName() string { return "cfd_comprobante" }

// ComprobanteModelFromDocument converts a parsed document header to a model.
// Child rows (conceptos, taxes) are built separately once IDs are known.
func ComprobanteModelFromDocument(doc *cfdi.Document, emisorID, receptorID uint) *ComprobanteModel {
	return &ComprobanteModel{
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
		EmisorID:                  emisorID,
		ReceptorID:                receptorID,
		TotalImpuestosTrasladados: doc.TotalImpuestosTrasladados,
	}
}

// ConceptoModel maps the cfd_concepto table.
type ConceptoModel struct {
	ID            uint            `gorm:"column:id_concepto;primaryKey;autoIncrement"`
	ComprobanteID uint            `gorm:"column:id_comprobante;not null;index"`
	ClaveProdServ string          `gorm:"column:clave_prod_serv;type:varchar(10);not null"`
	Cantidad      decimal.Decimal `gorm:"column:cantidad;type:decimal(19,4);not null"`
	ClaveUnidad   string          `gorm:"column:clave_unidad;type:varchar(5);not null"`
	Descripcion   string          `gorm:"column:descripcion;type:varchar(255);not null"`
	ValorUnitario decimal.Decimal `gorm:"column:valor_unitario;type:decimal(19,4);not null"`
	Importe       decimal.Decimal `gorm:"column:importe;type:decimal(19,4);not null"`
	Descuento     decimal.Decimal `gorm:"column:descuento;type:decimal(19,4)"`
	ObjetoImp     string          `gorm:"column:objeto_imp;type:varchar(2)"`
}

// TableName returns the table name for ConceptoModel
func (ConceptoModel) TableName() string { return "cfd_concepto" }

// ConceptoModelFromEntity converts a domain line item to a model
func ConceptoModelFromEntity(c cfdi.Concepto, comprobanteID uint) *ConceptoModel {
	return &ConceptoModel{
		ComprobanteID: comprobanteID,
		ClaveProdServ: c.ClaveProdServ,
		Cantidad:      c.Cantidad,
		ClaveUnidad:   c.ClaveUnidad,
		Descripcion:   c.Descripcion,
		ValorUnitario: c.ValorUnitario,
		Importe:       c.Importe,
		Descuento:     c.Descuento,
		ObjetoImp:     c.ObjetoImp,
	}
}

// ToEntity converts the model to a domain line item without taxes
func (m *ConceptoModel) ToEntity() cfdi.Concepto {
	return cfdi.Concepto{
		ClaveProdServ: m.ClaveProdServ,
		Cantidad:      m.Cantidad,
		ClaveUnidad:   m.ClaveUnidad,
		Descripcion:   m.Descripcion,
		ValorUnitario: m.ValorUnitario,
		Importe:       m.Importe,
		Descuento:     m.Descuento,
		ObjetoImp:     m.ObjetoImp,
	}
}

// ConceptoTaxModel maps the cfd_impuesto_trasladado_concepto table.
type ConceptoTaxModel struct {
	ID         uint            `gorm:"column:id;primaryKey;autoIncrement"`
	ConceptoID uint            `gorm:"column:id_concepto;not null;index"`
	Base       decimal.Decimal `gorm:"column:base;type:decimal(19,4);not null"`
	Impuesto   string          `gorm:"column:impuesto;type:varchar(3);not null"`
	TipoFactor string          `gorm:"column:tipo_factor;type:varchar(10);not null"`
	TasaOCuota decimal.Decimal `gorm:"column:tasa_o_cuota;type:decimal(19,6)"`
	Importe    decimal.Decimal `gorm:"column:importe;type:decimal(19,4)"`
}

// TableName returns the table name for ConceptoTaxModel
func (ConceptoTaxModel) TableName() string { return "cfd_impuesto_trasladado_concepto" }

// ConceptoTaxModelFromEntity converts a domain tax entry to a model
func ConceptoTaxModelFromEntity(t cfdi.Traslado, conceptoID uint) *ConceptoTaxModel {
	return &ConceptoTaxModel{
		ConceptoID: conceptoID,
		Base:       t.Base,
		Impuesto:   t.Impuesto,
		TipoFactor: t.TipoFactor,
		TasaOCuota: t.TasaOCuota,
		Importe:    t.Importe,
	}
}

// ToEntity converts the model to a domain tax entry
func (m *ConceptoTaxModel) ToEntity() cfdi.Traslado {
	return cfdi.Traslado{
		Base:       m.Base,
		Impuesto:   m.Impuesto,
		TipoFactor: m.TipoFactor,
		TasaOCuota: m.TasaOCuota,
		Importe:    m.Importe,
	}
}

// DocumentTaxModel maps the cfd_impuesto_trasladado_general table.
type DocumentTaxModel struct {
	ID            uint            `gorm:"column:id;primaryKey;autoIncrement"`
	ComprobanteID uint            `gorm:"column:id_comprobante;not null;index"`
	Base          decimal.Decimal `gorm:"column:base;type:decimal(19,4);not null"`
	Impuesto      string          `gorm:"column:impuesto;type:varchar(3);not null"`
	TipoFactor    string          `gorm:"column:tipo_factor;type:varchar(10);not null"`
	TasaOCuota    decimal.Decimal `gorm:"column:tasa_o_cuota;type:decimal(19,6)"`
	Importe       decimal.Decimal `gorm:"column:importe;type:decimal(19,4)"`
}

// TableName returns the table name for DocumentTaxModel
func (DocumentTaxModel) TableName() string { return "cfd_impuesto_trasladado_general" }

// DocumentTaxModelFromEntity converts a domain tax entry to a model
func DocumentTaxModelFromEntity(t cfdi.Traslado, comprobanteID uint) *DocumentTaxModel {
	return &DocumentTaxModel{
		ComprobanteID: comprobanteID,
		Base:          t.Base,
		Impuesto:      t.Impuesto,
		TipoFactor:    t.TipoFactor,
		TasaOCuota:    t.TasaOCuota,
		Importe:       t.Importe,
	}
}

// ToEntity converts the model to a domain tax entry
func (m *DocumentTaxModel) ToEntity() cfdi.Traslado {
	return cfdi.Traslado{
		Base:       m.Base,
		Impuesto:   m.Impuesto,
		TipoFactor: m.TipoFactor,
		TasaOCuota: m.TasaOCuota,
		Importe:    m.Importe,
	}
}
