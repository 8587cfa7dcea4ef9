package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cfdi/backend/internal/application/ingest"
	"github.com/cfdi/backend/internal/domain/cfdi"
	"github.com/cfdi/backend/internal/domain/shared"
	"github.com/cfdi/backend/internal/interfaces/http/dto"
)

const testInvoiceXML = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Version="4.0"
  Serie="F" Folio="123" Fecha="2024-05-14T10:30:00" SubTotal="1000.00"
  Moneda="MXN" Total="1160.00" TipoDeComprobante="I" LugarExpedicion="64000">
  <cfdi:Emisor Rfc="AAA010101AAA" Nombre="Empresa Emisora" RegimenFiscal="601"/>
  <cfdi:Receptor Rfc="BBB020202BBB" Nombre="Cliente Receptor"
    RegimenFiscalReceptor="605" UsoCFDI="G03"/>
  <cfdi:Conceptos>
    <cfdi:Concepto ClaveProdServ="01010101" Cantidad="1" ClaveUnidad="H87"
      Descripcion="Producto" ValorUnitario="1000.00" Importe="1000.00"/>
  </cfdi:Conceptos>
</cfdi:Comprobante>`

// MockInvoiceRepository is a mock implementation of cfdi.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Save(ctx context.Context, doc *cfdi.Document) (*cfdi.SaveResult, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cfdi.SaveResult), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByNaturalKey(ctx context.Context, emisorRFC, serie, folio string) (bool, error) {
	args := m.Called(ctx, emisorRFC, serie, folio)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uint) (*cfdi.StoredInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cfdi.StoredInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter cfdi.InvoiceFilter) ([]cfdi.InvoiceSummary, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]cfdi.InvoiceSummary), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Totals(ctx context.Context, filter cfdi.InvoiceFilter) ([]decimal.Decimal, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepository) MonthlyTotals(ctx context.Context, filter cfdi.InvoiceFilter) ([]cfdi.MonthlyTotal, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cfdi.MonthlyTotal), args.Error(1)
}

func setupInvoiceRouter(repo *MockInvoiceRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := ingest.NewService(repo, cfdi.DefaultOptions(), zap.NewNop())
	handler := NewInvoiceHandler(service)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestInvoiceHandler_Ingest_Multipart(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	repo.On("ExistsByNaturalKey", mock.Anything, "AAA010101AAA", "F", "123").Return(false, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*cfdi.Document")).Return(&cfdi.SaveResult{
		ComprobanteID:    1,
		EmisorID:         2,
		ReceptorID:       3,
		ConceptoCount:    1,
		ConceptoTaxCount: 0,
		DocumentTaxCount: 0,
	}, nil)

	body, contentType := multipartBody(t, "factura.xml", testInvoiceXML)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/ingest", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Contains(t, w.Body.String(), `"filename":"factura.xml"`)
	assert.Contains(t, w.Body.String(), `"comprobante_id":1`)
	repo.AssertExpectations(t)
}

func TestInvoiceHandler_Ingest_RawBody(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	repo.On("ExistsByNaturalKey", mock.Anything, "AAA010101AAA", "F", "123").Return(false, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*cfdi.Document")).Return(&cfdi.SaveResult{ComprobanteID: 9, ConceptoCount: 1}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/ingest", strings.NewReader(testInvoiceXML))
	req.Header.Set("Content-Type", "application/xml")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"filename":"upload.xml"`)
}

func TestInvoiceHandler_Ingest_MalformedXML(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/ingest", strings.NewReader("<Comprobante"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeCFDIMalformed, resp.Error.Code)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceHandler_Ingest_MissingField(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	mutated := strings.Replace(testInvoiceXML, ` Total="1160.00"`, "", 1)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/ingest", strings.NewReader(mutated))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeCFDIMissingField, resp.Error.Code)
}

func TestInvoiceHandler_Ingest_BadDate(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	mutated := strings.Replace(testInvoiceXML, "2024-05-14T10:30:00", "14/05/2024", 1)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/ingest", strings.NewReader(mutated))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeCFDIDateFormat, resp.Error.Code)
}

func TestInvoiceHandler_Ingest_Duplicate(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	repo.On("ExistsByNaturalKey", mock.Anything, "AAA010101AAA", "F", "123").Return(true, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/ingest", strings.NewReader(testInvoiceXML))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceHandler_Ingest_EmptyBody(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/ingest", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandler_List(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	fecha := time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC)
	repo.On("FindAll", mock.Anything, mock.AnythingOfType("cfdi.InvoiceFilter")).Return([]cfdi.InvoiceSummary{
		{
			ID:                1,
			EmisorRFC:         "AAA010101AAA",
			ReceptorRFC:       "BBB020202BBB",
			Serie:             "F",
			Folio:             "123",
			Fecha:             fecha,
			Moneda:            "MXN",
			Total:             decimal.RequireFromString("1160.00"),
			TipoDeComprobante: "I",
		},
	}, int64(1), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices?from=2024-05-01&to=2024-05-31&tipo=I", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
	assert.Contains(t, w.Body.String(), `"emisor_rfc":"AAA010101AAA"`)
}

func TestInvoiceHandler_List_BadDate(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices?from=14/05/2024", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

func TestInvoiceHandler_Get(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	doc, err := cfdi.Parse([]byte(testInvoiceXML), cfdi.DefaultOptions())
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, uint(5)).Return(&cfdi.StoredInvoice{
		ID:         5,
		EmisorID:   2,
		ReceptorID: 3,
		Document:   *doc,
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":5`)
	assert.Contains(t, w.Body.String(), `"rfc":"AAA010101AAA"`)
	assert.Contains(t, w.Body.String(), `"uso_cfdi":"G03"`)
}

func TestInvoiceHandler_Get_NotFound(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	repo.On("FindByID", mock.Anything, uint(99)).Return(nil, shared.ErrNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/99", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvoiceHandler_Get_InvalidID(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/abc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandler_Delete(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	repo.On("Delete", mock.Anything, uint(5)).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/invoices/5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestInvoiceHandler_Delete_StorageError(t *testing.T) {
	repo := new(MockInvoiceRepository)
	router := setupInvoiceRouter(repo)

	repo.On("Delete", mock.Anything, uint(5)).Return(errors.New("connection reset"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/invoices/5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
