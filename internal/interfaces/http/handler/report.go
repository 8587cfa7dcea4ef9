package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cfdi/backend/internal/application/report"
	"github.com/cfdi/backend/internal/domain/cfdi"
)

// ReportHandler serves statistics over stored invoice totals
type ReportHandler struct {
	BaseHandler
	service *report.Service
}

// NewReportHandler creates a new report handler
func NewReportHandler(service *report.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

// Analyze computes the descriptive set over a caller-supplied series
func (h *ReportHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body, want {\"values\": [..]}")
		return
	}

	desc, err := h.service.Analyze(req.Values)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, descriptiveToResponse(desc))
}

// InvoiceSummary computes the descriptive set over stored invoice totals
func (h *ReportHandler) InvoiceSummary(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	desc, err := h.service.InvoiceSummary(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, descriptiveToResponse(desc))
}

// ConfidenceInterval returns a normal-approximation interval for the mean total
func (h *ReportHandler) ConfidenceInterval(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	level := 0.95
	if raw := c.Query("level"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.BadRequest(c, "Invalid level parameter")
			return
		}
		level = parsed
	}

	interval, err := h.service.ConfidenceInterval(c.Request.Context(), filter, level)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, IntervalResponse{
		Count:         interval.Count,
		Mean:          interval.Mean,
		StandardError: interval.StandardError,
		Level:         interval.Level,
		Lower:         interval.Lower,
		Upper:         interval.Upper,
	})
}

// Forecast projects monthly invoice totals with a linear trend
func (h *ReportHandler) Forecast(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	periods := 1
	if raw := c.Query("periods"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "Invalid periods parameter")
			return
		}
		periods = parsed
	}

	forecast, err := h.service.Forecast(c.Request.Context(), filter, periods)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	history := make([]MonthlyTotalResponse, len(forecast.History))
	for i, m := range forecast.History {
		history[i] = MonthlyTotalResponse{Year: m.Year, Month: m.Month, Total: m.Total}
	}
	points := make([]ForecastPointResponse, len(forecast.Trend.Forecast))
	for i, p := range forecast.Trend.Forecast {
		points[i] = ForecastPointResponse{Period: p.Period, Value: p.Value}
	}

	h.Success(c, ForecastResponse{
		Slope:     forecast.Trend.Slope,
		Intercept: forecast.Trend.Intercept,
		History:   history,
		Forecast:  points,
	})
}

// bindFilter parses the shared date/tipo query filter; on failure it writes
// the error response and reports false.
func (h *ReportHandler) bindFilter(c *gin.Context) (filter cfdi.InvoiceFilter, ok bool) {
	req := InvoiceListRequest{Page: 1, PageSize: 50}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return filter, false
	}
	parsed, err := req.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid date filter, want YYYY-MM-DD")
		return filter, false
	}
	return parsed, true
}

// RegisterRoutes registers statistics routes on the given router group
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stats := rg.Group("/stats")
	{
		stats.POST("/analyze", h.Analyze)
		stats.GET("/invoices/summary", h.InvoiceSummary)
		stats.GET("/invoices/confidence-interval", h.ConfidenceInterval)
		stats.GET("/invoices/forecast", h.Forecast)
	}
}
