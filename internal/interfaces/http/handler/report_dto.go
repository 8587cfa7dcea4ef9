package handler

import (
	"github.com/shopspring/decimal"

	"github.com/cfdi/backend/internal/application/report"
)

// AnalyzeRequest is the ad-hoc numeric analysis request body
type AnalyzeRequest struct {
	Values []float64 `json:"values" binding:"required"`
}

// DescriptiveResponse carries the descriptive statistics of one series.
// Field names keep the Spanish labels the statistics are reported under.
type DescriptiveResponse struct {
	Count              int     `json:"count"`
	Media              float64 `json:"media"`
	Mediana            float64 `json:"mediana"`
	Moda               float64 `json:"moda"`
	Varianza           float64 `json:"varianza"`
	DesviacionEstandar float64 `json:"desviacion_estandar"`
}

func descriptiveToResponse(d *report.Descriptive) DescriptiveResponse {
	return DescriptiveResponse{
		Count:              d.Count,
		Media:              d.Mean,
		Mediana:            d.Median,
		Moda:               d.Mode,
		Varianza:           d.Variance,
		DesviacionEstandar: d.StdDev,
	}
}

// IntervalResponse is a confidence interval for the mean invoice total
type IntervalResponse struct {
	Count         int     `json:"count"`
	Mean          float64 `json:"mean"`
	StandardError float64 `json:"standard_error"`
	Level         float64 `json:"level"`
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
}

// MonthlyTotalResponse is the observed total of one calendar month
type MonthlyTotalResponse struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// ForecastPointResponse is one projected month
type ForecastPointResponse struct {
	Period int     `json:"period"`
	Value  float64 `json:"value"`
}

// ForecastResponse is the fitted trend plus its projections
type ForecastResponse struct {
	Slope     float64                 `json:"slope"`
	Intercept float64                 `json:"intercept"`
	History   []MonthlyTotalResponse  `json:"history"`
	Forecast  []ForecastPointResponse `json:"forecast"`
}
