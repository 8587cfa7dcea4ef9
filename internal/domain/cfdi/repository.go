package cfdi

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SaveResult reports the identifiers generated while persisting a Document
// and how many rows each child table received.
type SaveResult struct {
	ComprobanteID    uint
	EmisorID         uint
	ReceptorID       uint
	ConceptoCount    int
	ConceptoTaxCount int
	DocumentTaxCount int
}

// InvoiceFilter narrows invoice queries by issue date and voucher type,
// with offset pagination.
type InvoiceFilter struct {
	From              *time.Time
	To                *time.Time
	TipoDeComprobante string
	Page              int
	PageSize          int
}

// DefaultInvoiceFilter returns a filter with sane pagination.
func DefaultInvoiceFilter() InvoiceFilter {
	return InvoiceFilter{Page: 1, PageSize: 50}
}

// InvoiceSummary is the header row returned by list queries.
type InvoiceSummary struct {
	ID                uint
	EmisorRFC         string
	ReceptorRFC       string
	Serie             string
	Folio             string
	Fecha             time.Time
	Moneda            string
	Total             decimal.Decimal
	TipoDeComprobante string
}

// StoredInvoice is a persisted comprobante reconstructed into its Document
// form, plus the row identifiers needed by callers.
type StoredInvoice struct {
	ID         uint
	EmisorID   uint
	ReceptorID uint
	Document   Document
}

// MonthlyTotal is the sum of comprobante totals for one calendar month.
type MonthlyTotal struct {
	Year  int
	Month int
	Total decimal.Decimal
}

// InvoiceRepository persists and queries comprobantes with their related rows.
type InvoiceRepository interface {
	// Save inserts the document and all its children inside one transaction:
	// emisor, receptor, comprobante, conceptos, per-concepto taxes, document
	// taxes. Any failure rolls the whole document back.
	Save(ctx context.Context, doc *Document) (*SaveResult, error)

	// ExistsByNaturalKey reports whether a comprobante with the same issuer
	// RFC, serie and folio is already stored.
	ExistsByNaturalKey(ctx context.Context, emisorRFC, serie, folio string) (bool, error)

	FindByID(ctx context.Context, id uint) (*StoredInvoice, error)
	FindAll(ctx context.Context, filter InvoiceFilter) ([]InvoiceSummary, int64, error)

	// Delete removes a comprobante and its dependent rows (taxes, conceptos)
	// in one transaction. Emisor and receptor rows are retained since they
	// may back other invoices.
	Delete(ctx context.Context, id uint) error

	// Totals returns the comprobante totals matching the filter, for
	// statistical analysis.
	Totals(ctx context.Context, filter InvoiceFilter) ([]decimal.Decimal, error)

	// MonthlyTotals aggregates totals per calendar month in ascending order.
	MonthlyTotals(ctx context.Context, filter InvoiceFilter) ([]MonthlyTotal, error)
}
