package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cfdi/backend/internal/domain/cfdi"
	"github.com/cfdi/backend/internal/domain/shared"
)

// Result confirms a successful ingestion with the generated identifiers
// and the number of rows written per table.
type Result struct {
	Filename      string
	ComprobanteID uint
	EmisorID      uint
	ReceptorID    uint
	Conceptos     int
	ConceptoTaxes int
	DocumentTaxes int
}

// Service parses CFDI XML and persists it through the invoice repository.
type Service struct {
	invoices cfdi.InvoiceRepository
	opts     cfdi.Options
	logger   *zap.Logger
}

// NewService creates an ingestion service.
func NewService(invoices cfdi.InvoiceRepository, opts cfdi.Options, logger *zap.Logger) *Service {
	return &Service{
		invoices: invoices,
		opts:     opts,
		logger:   logger,
	}
}

// Ingest parses, validates and stores one CFDI document. Parsing errors pass
// through untouched so the HTTP layer can map them precisely. Documents whose
// issuer RFC, serie and folio are already stored are rejected; documents
// without serie or folio have no natural key and are always accepted.
func (s *Service) Ingest(ctx context.Context, filename string, raw []byte) (*Result, error) {
	doc, err := cfdi.Parse(raw, s.opts)
	if err != nil {
		s.logger.Warn("invoice rejected",
			zap.String("filename", filename),
			zap.Error(err))
		return nil, err
	}

	if doc.Serie != "" && doc.Folio != "" {
		exists, err := s.invoices.ExistsByNaturalKey(ctx, doc.Emisor.Rfc, doc.Serie, doc.Folio)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS",
				fmt.Sprintf("invoice %s-%s from %s is already stored", doc.Serie, doc.Folio, doc.Emisor.Rfc))
		}
	}

	saved, err := s.invoices.Save(ctx, doc)
	if err != nil {
		s.logger.Error("invoice persistence failed",
			zap.String("filename", filename),
			zap.String("emisor_rfc", doc.Emisor.Rfc),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("invoice ingested",
		zap.String("filename", filename),
		zap.Uint("comprobante_id", saved.ComprobanteID),
		zap.String("emisor_rfc", doc.Emisor.Rfc),
		zap.Int("conceptos", saved.ConceptoCount))

	return &Result{
		Filename:      filename,
		ComprobanteID: saved.ComprobanteID,
		EmisorID:      saved.EmisorID,
		ReceptorID:    saved.ReceptorID,
		Conceptos:     saved.ConceptoCount,
		ConceptoTaxes: saved.ConceptoTaxCount,
		DocumentTaxes: saved.DocumentTaxCount,
	}, nil
}

// List returns invoice headers matching the filter plus the total match count.
func (s *Service) List(ctx context.Context, filter cfdi.InvoiceFilter) ([]cfdi.InvoiceSummary, int64, error) {
	return s.invoices.FindAll(ctx, filter)
}

// Get returns one stored invoice with its nested rows.
func (s *Service) Get(ctx context.Context, id uint) (*cfdi.StoredInvoice, error) {
	return s.invoices.FindByID(ctx, id)
}

// Delete removes an invoice and its dependent rows.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.invoices.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("invoice deleted", zap.Uint("comprobante_id", id))
	return nil
}
