package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cfdi/backend/internal/application/ingest"
)

// maxInlineXMLSize caps raw-body uploads that bypass multipart
const maxInlineXMLSize = 10 << 20

// InvoiceHandler handles invoice ingestion and read access
type InvoiceHandler struct {
	BaseHandler
	service *ingest.Service
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(service *ingest.Service) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// Ingest receives one CFDI XML document, either as a multipart "file" part
// or as the raw request body, and persists it.
func (h *InvoiceHandler) Ingest(c *gin.Context) {
	filename, raw, err := readUpload(c)
	if err != nil {
		h.BadRequest(c, "Could not read uploaded document")
		return
	}
	if len(raw) == 0 {
		h.BadRequest(c, "Request contains no document")
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), filename, raw)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, IngestResponse{
		Filename:      result.Filename,
		ComprobanteID: result.ComprobanteID,
		EmisorID:      result.EmisorID,
		ReceptorID:    result.ReceptorID,
		Conceptos:     result.Conceptos,
		ConceptoTaxes: result.ConceptoTaxes,
		DocumentTaxes: result.DocumentTaxes,
	})
}

// readUpload extracts the document bytes from a multipart "file" part when
// present, falling back to the raw request body.
func readUpload(c *gin.Context) (string, []byte, error) {
	file, err := c.FormFile("file")
	if err == nil {
		f, err := file.Open()
		if err != nil {
			return "", nil, err
		}
		defer f.Close()
		raw, err := io.ReadAll(f)
		if err != nil {
			return "", nil, err
		}
		return file.Filename, raw, nil
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInlineXMLSize))
	if err != nil {
		return "", nil, err
	}
	return "upload.xml", raw, nil
}

// List returns invoice headers matching the query filter
func (h *InvoiceHandler) List(c *gin.Context) {
	req := InvoiceListRequest{Page: 1, PageSize: 50}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter, err := req.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid date filter, want YYYY-MM-DD")
		return
	}

	summaries, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows := make([]InvoiceSummaryResponse, len(summaries))
	for i, s := range summaries {
		rows[i] = InvoiceSummaryResponse{
			ID:                s.ID,
			EmisorRFC:         s.EmisorRFC,
			ReceptorRFC:       s.ReceptorRFC,
			Serie:             s.Serie,
			Folio:             s.Folio,
			Fecha:             s.Fecha,
			Moneda:            s.Moneda,
			Total:             s.Total,
			TipoDeComprobante: s.TipoDeComprobante,
		}
	}

	h.SuccessWithMeta(c, rows, total, filter.Page, filter.PageSize)
}

// Get returns one stored invoice with its nested rows
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	stored, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoiceDetailFromStored(stored))
}

// Delete removes an invoice and its dependent rows
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// RegisterRoutes registers invoice routes on the given router group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("/ingest", h.Ingest)
		invoices.GET("", h.List)
		invoices.GET("/:id", h.Get)
		invoices.DELETE("/:id", h.Delete)
	}
}
