package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cfdi/backend/internal/domain/cfdi"
	"github.com/cfdi/backend/internal/domain/shared"
	"github.com/cfdi/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements cfdi.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save persists the document and all its children in one transaction.
// Emisor and receptor rows are reused when an identical party is already
// stored, so repeated uploads from the same issuer share one row.
func (r *GormInvoiceRepository) Save(ctx context.Context, doc *cfdi.Document) (*cfdi.SaveResult, error) {
	result := &cfdi.SaveResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		emisor := models.EmisorModelFromEntity(doc.Emisor)
		if err := tx.Where(&models.EmisorModel{
			Rfc:           doc.Emisor.Rfc,
			Nombre:        doc.Emisor.Nombre,
			RegimenFiscal: doc.Emisor.RegimenFiscal,
		}).FirstOrCreate(emisor).Error; err != nil {
			return err
		}

		receptor := models.ReceptorModelFromEntity(doc.Receptor)
		if err := tx.Where(&models.ReceptorModel{
			Rfc:             doc.Receptor.Rfc,
			Nombre:          doc.Receptor.Nombre,
			DomicilioFiscal: doc.Receptor.DomicilioFiscal,
			RegimenFiscal:   doc.Receptor.RegimenFiscal,
			UsoCFDI:         doc.Receptor.UsoCFDI,
		}).FirstOrCreate(receptor).Error; err != nil {
			return err
		}

		comprobante := models.ComprobanteModelFromDocument(doc, emisor.ID, receptor.ID)
		if err := tx.Create(comprobante).Error; err != nil {
			return err
		}

		for _, c := range doc.Conceptos {
			concepto := models.ConceptoModelFromEntity(c, comprobante.ID)
			if err := tx.Create(concepto).Error; err != nil {
				return err
			}
			result.ConceptoCount++

			for _, t := range c.Traslados {
				if err := tx.Create(models.ConceptoTaxModelFromEntity(t, concepto.ID)).Error; err != nil {
					return err
				}
				result.ConceptoTaxCount++
			}
		}

		for _, t := range doc.Traslados {
			if err := tx.Create(models.DocumentTaxModelFromEntity(t, comprobante.ID)).Error; err != nil {
				return err
			}
			result.DocumentTaxCount++
		}

		result.ComprobanteID = comprobante.ID
		result.EmisorID = emisor.ID
		result.ReceptorID = receptor.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExistsByNaturalKey reports whether a comprobante with the same issuer RFC,
// serie and folio is already stored.
func (r *GormInvoiceRepository) ExistsByNaturalKey(ctx context.Context, emisorRFC, serie, folio string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ComprobanteModel{}).
		Joins("JOIN cfd_emisor ON cfd_emisor.id_emisor = cfd_comprobante.id_emisor").
		Where("cfd_emisor.rfc = ? AND cfd_comprobante.serie = ? AND cfd_comprobante.folio = ?",
			emisorRFC, serie, folio).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByID loads one comprobante with its parties, conceptos and taxes.
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uint) (*cfdi.StoredInvoice, error) {
	var comprobante models.ComprobanteModel
	if err := r.db.WithContext(ctx).First(&comprobante, "id_comprobante = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	var emisor models.EmisorModel
	if err := r.db.WithContext(ctx).First(&emisor, "id_emisor = ?", comprobante.EmisorID).Error; err != nil {
		return nil, err
	}
	var receptor models.ReceptorModel
	if err := r.db.WithContext(ctx).First(&receptor, "id_receptor = ?", comprobante.ReceptorID).Error; err != nil {
		return nil, err
	}

	var conceptoModels []models.ConceptoModel
	if err := r.db.WithContext(ctx).
		Where("id_comprobante = ?", id).
		Order("id_concepto").
		Find(&conceptoModels).Error; err != nil {
		return nil, err
	}

	conceptos := make([]cfdi.Concepto, 0, len(conceptoModels))
	for _, cm := range conceptoModels {
		concepto := cm.ToEntity()

		var taxModels []models.ConceptoTaxModel
		if err := r.db.WithContext(ctx).
			Where("id_concepto = ?", cm.ID).
			Order("id").
			Find(&taxModels).Error; err != nil {
			return nil, err
		}
		for _, tm := range taxModels {
			concepto.Traslados = append(concepto.Traslados, tm.ToEntity())
		}
		conceptos = append(conceptos, concepto)
	}

	var docTaxModels []models.DocumentTaxModel
	if err := r.db.WithContext(ctx).
		Where("id_comprobante = ?", id).
		Order("id").
		Find(&docTaxModels).Error; err != nil {
		return nil, err
	}
	docTaxes := make([]cfdi.Traslado, 0, len(docTaxModels))
	for _, tm := range docTaxModels {
		docTaxes = append(docTaxes, tm.ToEntity())
	}

	return &cfdi.StoredInvoice{
		ID:         comprobante.ID,
		EmisorID:   comprobante.EmisorID,
		ReceptorID: comprobante.ReceptorID,
		Document: cfdi.Document{
			Version:                   comprobante.Version,
			Serie:                     comprobante.Serie,
			Folio:                     comprobante.Folio,
			Fecha:                     comprobante.Fecha,
			SubTotal:                  comprobante.SubTotal,
			Descuento:                 comprobante.Descuento,
			Moneda:                    comprobante.Moneda,
			TipoCambio:                comprobante.TipoCambio,
			Total:                     comprobante.Total,
			TipoDeComprobante:         comprobante.TipoDeComprobante,
			Exportacion:               comprobante.Exportacion,
			LugarExpedicion:           comprobante.LugarExpedicion,
			TotalImpuestosTrasladados: comprobante.TotalImpuestosTrasladados,
			Emisor:                    emisor.ToEntity(),
			Receptor:                  receptor.ToEntity(),
			Conceptos:                 conceptos,
			Traslados:                 docTaxes,
		},
	}, nil
}

type invoiceSummaryRow struct {
	ID                uint
	EmisorRFC         string `gorm:"column:emisor_rfc"`
	ReceptorRFC       string `gorm:"column:receptor_rfc"`
	Serie             string
	Folio             string
	Fecha             time.Time
	Moneda            string
	Total             decimal.Decimal
	TipoDeComprobante string `gorm:"column:tipo_de_comprobante"`
}

// FindAll returns invoice headers matching the filter plus the total count.
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter cfdi.InvoiceFilter) ([]cfdi.InvoiceSummary, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.ComprobanteModel{}).
		Joins("JOIN cfd_emisor ON cfd_emisor.id_emisor = cfd_comprobante.id_emisor").
		Joins("JOIN cfd_receptor ON cfd_receptor.id_receptor = cfd_comprobante.id_receptor")
	base = applyInvoiceFilter(base, filter, "cfd_comprobante.")

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Session(&gorm.Session{}).
		Select("cfd_comprobante.id_comprobante AS id, cfd_emisor.rfc AS emisor_rfc, " +
			"cfd_receptor.rfc AS receptor_rfc, cfd_comprobante.serie, cfd_comprobante.folio, " +
			"cfd_comprobante.fecha, cfd_comprobante.moneda, cfd_comprobante.total, " +
			"cfd_comprobante.tipo_de_comprobante").
		Order("cfd_comprobante.fecha DESC, cfd_comprobante.id_comprobante DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var rows []invoiceSummaryRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	summaries := make([]cfdi.InvoiceSummary, 0, len(rows))
	for _, rw := range rows {
		summaries = append(summaries, cfdi.InvoiceSummary{
			ID:                rw.ID,
			EmisorRFC:         rw.EmisorRFC,
			ReceptorRFC:       rw.ReceptorRFC,
			Serie:             rw.Serie,
			Folio:             rw.Folio,
			Fecha:             rw.Fecha,
			Moneda:            rw.Moneda,
			Total:             rw.Total,
			TipoDeComprobante: rw.TipoDeComprobante,
		})
	}
	return summaries, total, nil
}

// Delete removes a comprobante and its dependent rows in one transaction.
// Party rows are retained since they may back other invoices.
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ComprobanteModel{}).
			Where("id_comprobante = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Where("id_concepto IN (?)",
			tx.Model(&models.ConceptoModel{}).Select("id_concepto").Where("id_comprobante = ?", id),
		).Delete(&models.ConceptoTaxModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id_comprobante = ?", id).Delete(&models.DocumentTaxModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id_comprobante = ?", id).Delete(&models.ConceptoModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id_comprobante = ?", id).Delete(&models.ComprobanteModel{}).Error
	})
}

// Totals returns the comprobante totals matching the filter.
func (r *GormInvoiceRepository) Totals(ctx context.Context, filter cfdi.InvoiceFilter) ([]decimal.Decimal, error) {
	query := applyInvoiceFilter(
		r.db.WithContext(ctx).Model(&models.ComprobanteModel{}), filter, "")

	var totals []decimal.Decimal
	if err := query.Order("id_comprobante").Pluck("total", &totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// MonthlyTotals aggregates totals per calendar month in ascending order.
// Uses EXTRACT, which requires PostgreSQL.
func (r *GormInvoiceRepository) MonthlyTotals(ctx context.Context, filter cfdi.InvoiceFilter) ([]cfdi.MonthlyTotal, error) {
	query := applyInvoiceFilter(
		r.db.WithContext(ctx).Model(&models.ComprobanteModel{}), filter, "")

	type monthRow struct {
		Year  int
		Month int
		Total decimal.Decimal
	}
	var rows []monthRow
	err := query.
		Select("CAST(EXTRACT(YEAR FROM fecha) AS INTEGER) AS year, " +
			"CAST(EXTRACT(MONTH FROM fecha) AS INTEGER) AS month, SUM(total) AS total").
		Group("year, month").
		Order("year, month").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	months := make([]cfdi.MonthlyTotal, 0, len(rows))
	for _, rw := range rows {
		months = append(months, cfdi.MonthlyTotal{Year: rw.Year, Month: rw.Month, Total: rw.Total})
	}
	return months, nil
}

// applyInvoiceFilter adds the date range and voucher type conditions. The
// prefix qualifies column names when the query joins other tables.
func applyInvoiceFilter(query *gorm.DB, filter cfdi.InvoiceFilter, prefix string) *gorm.DB {
	if filter.From != nil {
		query = query.Where(prefix+"fecha >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where(prefix+"fecha <= ?", *filter.To)
	}
	if filter.TipoDeComprobante != "" {
		query = query.Where(prefix+"tipo_de_comprobante = ?", filter.TipoDeComprobante)
	}
	return query
}
