package report

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cfdi/backend/internal/domain/cfdi"
	"github.com/cfdi/backend/internal/domain/shared"
)

// TotalsReader is the slice of the invoice repository the statistics
// service needs.
type TotalsReader interface {
	Totals(ctx context.Context, filter cfdi.InvoiceFilter) ([]decimal.Decimal, error)
	MonthlyTotals(ctx context.Context, filter cfdi.InvoiceFilter) ([]cfdi.MonthlyTotal, error)
}

// MonthlyForecast pairs the fitted trend with the months it was built from.
type MonthlyForecast struct {
	History []cfdi.MonthlyTotal
	Trend   *Trend
}

// Service computes descriptive, inferential and predictive statistics over
// stored invoice totals, plus ad-hoc analysis of caller-supplied series.
type Service struct {
	totals TotalsReader
	logger *zap.Logger
}

// NewService creates a statistics service.
func NewService(totals TotalsReader, logger *zap.Logger) *Service {
	return &Service{totals: totals, logger: logger}
}

// Analyze computes the descriptive set over an arbitrary series.
func (s *Service) Analyze(values []float64) (*Descriptive, error) {
	if len(values) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "at least one value is required")
	}
	return describe(values), nil
}

// InvoiceSummary computes the descriptive set over stored comprobante totals.
func (s *Service) InvoiceSummary(ctx context.Context, filter cfdi.InvoiceFilter) (*Descriptive, error) {
	values, err := s.invoiceTotals(ctx, filter)
	if err != nil {
		return nil, err
	}
	return describe(values), nil
}

// ConfidenceInterval builds a normal-approximation confidence interval for
// the mean invoice total at the given level (e.g. 0.95).
func (s *Service) ConfidenceInterval(ctx context.Context, filter cfdi.InvoiceFilter, level float64) (*Interval, error) {
	if level <= 0 || level >= 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "confidence level must be between 0 and 1 exclusive")
	}
	values, err := s.invoiceTotals(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, shared.NewDomainError("INVALID_INPUT", "at least two invoices are required for a confidence interval")
	}
	return confidenceInterval(values, level), nil
}

// Forecast fits a linear trend over monthly invoice totals and projects the
// next N months.
func (s *Service) Forecast(ctx context.Context, filter cfdi.InvoiceFilter, periods int) (*MonthlyForecast, error) {
	if periods < 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "periods must be at least 1")
	}
	months, err := s.totals.MonthlyTotals(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(months) < 2 {
		return nil, shared.NewDomainError("INVALID_INPUT", "at least two months of data are required for a forecast")
	}

	values := make([]float64, len(months))
	for i, m := range months {
		values[i] = m.Total.InexactFloat64()
	}

	s.logger.Debug("forecast computed",
		zap.Int("months", len(months)),
		zap.Int("periods", periods))

	return &MonthlyForecast{
		History: months,
		Trend:   linearTrend(values, periods),
	}, nil
}

func (s *Service) invoiceTotals(ctx context.Context, filter cfdi.InvoiceFilter) ([]float64, error) {
	totals, err := s.totals.Totals(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(totals) == 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "no invoices match the given filter")
	}
	values := make([]float64, len(totals))
	for i, t := range totals {
		values[i] = t.InexactFloat64()
	}
	return values, nil
}
