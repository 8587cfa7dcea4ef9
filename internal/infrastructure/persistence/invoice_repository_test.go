package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cfdi/backend/internal/domain/cfdi"
	"github.com/cfdi/backend/internal/domain/shared"
	"github.com/cfdi/backend/internal/infrastructure/persistence/models"
)

func setupInvoiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.EmisorModel{},
		&models.ReceptorModel{},
		&models.ComprobanteModel{},
		&models.ConceptoModel{},
		&models.ConceptoTaxModel{},
		&models.DocumentTaxModel{},
	)
	require.NoError(t, err)

	return db
}

func testDocument(serie, folio string, fecha time.Time, total string) *cfdi.Document {
	return &cfdi.Document{
		Version:           "4.0",
		Serie:             serie,
		Folio:             folio,
		Fecha:             fecha,
		SubTotal:          decimal.RequireFromString("1000.00"),
		Descuento:         decimal.RequireFromString("50.00"),
		Moneda:            "MXN",
		TipoCambio:        decimal.NewFromInt(1),
		Total:             decimal.RequireFromString(total),
		TipoDeComprobante: "I",
		Exportacion:       "01",
		LugarExpedicion:   "64000",
		TotalImpuestosTrasladados: decimal.RequireFromString("152.00"),
		Emisor: cfdi.Emisor{
			Rfc:           "AAA010101AAA",
			Nombre:        "Emisora SA de CV",
			RegimenFiscal: "601",
		},
		Receptor: cfdi.Receptor{
			Rfc:           "XAXX010101000",
			Nombre:        "Publico en General",
			RegimenFiscal: "616",
			UsoCFDI:       "G03",
		},
		Conceptos: []cfdi.Concepto{
			{
				ClaveProdServ: "01010101",
				Cantidad:      decimal.NewFromInt(2),
				ClaveUnidad:   "H87",
				Descripcion:   "Widget",
				ValorUnitario: decimal.RequireFromString("500.00"),
				Importe:       decimal.RequireFromString("1000.00"),
				Traslados: []cfdi.Traslado{
					{
						Base:       decimal.RequireFromString("950.00"),
						Impuesto:   "002",
						TipoFactor: "Tasa",
						TasaOCuota: decimal.RequireFromString("0.160000"),
						Importe:    decimal.RequireFromString("152.00"),
					},
				},
			},
			{
				ClaveProdServ: "43231500",
				Cantidad:      decimal.NewFromInt(1),
				ClaveUnidad:   "E48",
				Descripcion:   "Servicio",
				ValorUnitario: decimal.Zero,
				Importe:       decimal.Zero,
			},
		},
		Traslados: []cfdi.Traslado{
			{
				Base:       decimal.RequireFromString("950.00"),
				Impuesto:   "002",
				TipoFactor: "Tasa",
				TasaOCuota: decimal.RequireFromString("0.160000"),
				Importe:    decimal.RequireFromString("152.00"),
			},
		},
	}
}

func TestInvoiceRepository_Save(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	fecha := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	t.Run("persists the full document tree", func(t *testing.T) {
		result, err := repo.Save(ctx, testDocument("F", "1", fecha, "1102.00"))
		require.NoError(t, err)

		assert.NotZero(t, result.ComprobanteID)
		assert.NotZero(t, result.EmisorID)
		assert.NotZero(t, result.ReceptorID)
		assert.Equal(t, 2, result.ConceptoCount)
		assert.Equal(t, 1, result.ConceptoTaxCount)
		assert.Equal(t, 1, result.DocumentTaxCount)

		var conceptoCount int64
		db.Model(&models.ConceptoModel{}).Where("id_comprobante = ?", result.ComprobanteID).Count(&conceptoCount)
		assert.Equal(t, int64(2), conceptoCount)
	})

	t.Run("reuses the emisor row for repeated issuers", func(t *testing.T) {
		first, err := repo.Save(ctx, testDocument("F", "2", fecha, "500.00"))
		require.NoError(t, err)
		second, err := repo.Save(ctx, testDocument("F", "3", fecha, "700.00"))
		require.NoError(t, err)

		assert.Equal(t, first.EmisorID, second.EmisorID)
		assert.Equal(t, first.ReceptorID, second.ReceptorID)

		var emisorCount int64
		db.Model(&models.EmisorModel{}).Count(&emisorCount)
		assert.Equal(t, int64(1), emisorCount)
	})
}

func TestInvoiceRepository_ExistsByNaturalKey(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	fecha := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	_, err := repo.Save(ctx, testDocument("F", "100", fecha, "1102.00"))
	require.NoError(t, err)

	t.Run("finds an existing invoice", func(t *testing.T) {
		exists, err := repo.ExistsByNaturalKey(ctx, "AAA010101AAA", "F", "100")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("different folio does not match", func(t *testing.T) {
		exists, err := repo.ExistsByNaturalKey(ctx, "AAA010101AAA", "F", "101")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("different issuer does not match", func(t *testing.T) {
		exists, err := repo.ExistsByNaturalKey(ctx, "BBB020202BBB", "F", "100")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestInvoiceRepository_FindByID(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	fecha := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	saved, err := repo.Save(ctx, testDocument("F", "200", fecha, "1102.00"))
	require.NoError(t, err)

	t.Run("reconstructs the document", func(t *testing.T) {
		found, err := repo.FindByID(ctx, saved.ComprobanteID)
		require.NoError(t, err)

		assert.Equal(t, saved.ComprobanteID, found.ID)
		assert.Equal(t, "F", found.Document.Serie)
		assert.Equal(t, "200", found.Document.Folio)
		assert.True(t, found.Document.Fecha.Equal(fecha))
		assert.True(t, found.Document.Total.Equal(decimal.RequireFromString("1102.00")))
		assert.Equal(t, "AAA010101AAA", found.Document.Emisor.Rfc)
		assert.Equal(t, "G03", found.Document.Receptor.UsoCFDI)

		require.Len(t, found.Document.Conceptos, 2)
		assert.Len(t, found.Document.Conceptos[0].Traslados, 1)
		assert.Empty(t, found.Document.Conceptos[1].Traslados)
		assert.Len(t, found.Document.Traslados, 1)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 99999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestInvoiceRepository_FindAll(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		fecha := time.Date(2024, time.Month(i+1), 10, 0, 0, 0, 0, time.UTC)
		doc := testDocument("F", string(rune('A'+i)), fecha, "1000.00")
		if i == 4 {
			doc.TipoDeComprobante = "E"
		}
		_, err := repo.Save(ctx, doc)
		require.NoError(t, err)
	}

	t.Run("returns all invoices with the total count", func(t *testing.T) {
		summaries, total, err := repo.FindAll(ctx, cfdi.DefaultInvoiceFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, summaries, 5)
		assert.Equal(t, "AAA010101AAA", summaries[0].EmisorRFC)
		// Ordered by fecha descending
		assert.True(t, summaries[0].Fecha.After(summaries[4].Fecha))
	})

	t.Run("filters by date range", func(t *testing.T) {
		from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
		filter := cfdi.DefaultInvoiceFilter()
		filter.From = &from
		filter.To = &to

		summaries, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, summaries, 2)
	})

	t.Run("filters by voucher type", func(t *testing.T) {
		filter := cfdi.DefaultInvoiceFilter()
		filter.TipoDeComprobante = "E"

		summaries, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, summaries, 1)
		assert.Equal(t, "E", summaries[0].TipoDeComprobante)
	})

	t.Run("paginates", func(t *testing.T) {
		filter := cfdi.InvoiceFilter{Page: 2, PageSize: 2}

		summaries, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, summaries, 2)
	})
}

func TestInvoiceRepository_Delete(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	fecha := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	saved, err := repo.Save(ctx, testDocument("F", "300", fecha, "1102.00"))
	require.NoError(t, err)

	t.Run("removes the invoice and its dependents, keeps the parties", func(t *testing.T) {
		err := repo.Delete(ctx, saved.ComprobanteID)
		require.NoError(t, err)

		var counts = map[string]interface{}{
			"comprobante":   &models.ComprobanteModel{},
			"concepto":      &models.ConceptoModel{},
			"concepto tax":  &models.ConceptoTaxModel{},
			"document tax":  &models.DocumentTaxModel{},
		}
		for name, model := range counts {
			var count int64
			require.NoError(t, db.Model(model).Count(&count).Error)
			assert.Zero(t, count, name)
		}

		var emisorCount int64
		db.Model(&models.EmisorModel{}).Count(&emisorCount)
		assert.Equal(t, int64(1), emisorCount)
	})

	t.Run("deleting twice reports not found", func(t *testing.T) {
		err := repo.Delete(ctx, saved.ComprobanteID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestInvoiceRepository_Totals(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	for i, total := range []string{"100.00", "200.00", "300.00"} {
		fecha := time.Date(2024, time.Month(i+1), 10, 0, 0, 0, 0, time.UTC)
		_, err := repo.Save(ctx, testDocument("T", string(rune('A'+i)), fecha, total))
		require.NoError(t, err)
	}

	totals, err := repo.Totals(ctx, cfdi.DefaultInvoiceFilter())
	require.NoError(t, err)
	require.Len(t, totals, 3)
	assert.True(t, totals[0].Equal(decimal.RequireFromString("100.00")))
	assert.True(t, totals[2].Equal(decimal.RequireFromString("300.00")))
}

func TestInvoiceRepository_MonthlyTotals(t *testing.T) {
	// EXTRACT(YEAR FROM ...) is PostgreSQL syntax; run against a real
	// PostgreSQL database in integration tests.
	t.Skip("MonthlyTotals uses PostgreSQL-specific EXTRACT syntax, skipping for SQLite")
}
