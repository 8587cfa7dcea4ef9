package report

import (
	"math"
	"sort"
)

// Descriptive holds the descriptive statistics of one numeric series.
// Variance and standard deviation are population measures (divisor n).
type Descriptive struct {
	Count    int
	Mean     float64
	Median   float64
	Mode     float64
	Variance float64
	StdDev   float64
}

// Interval is a confidence interval for the mean of a series.
type Interval struct {
	Count         int
	Mean          float64
	StandardError float64
	Level         float64
	Lower         float64
	Upper         float64
}

// ForecastPoint is one projected period of a linear trend.
type ForecastPoint struct {
	Period int
	Value  float64
}

// Trend describes the fitted line total = Intercept + Slope*t, with t the
// zero-based period index.
type Trend struct {
	Slope     float64
	Intercept float64
	Periods   int
	Forecast  []ForecastPoint
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mode returns the most frequent value; ties break toward the smallest value.
func mode(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := math.Inf(1), 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

func populationVariance(values []float64) float64 {
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

// describe computes the descriptive set. The caller guarantees len > 0.
func describe(values []float64) *Descriptive {
	variance := populationVariance(values)
	return &Descriptive{
		Count:    len(values),
		Mean:     mean(values),
		Median:   median(values),
		Mode:     mode(values),
		Variance: variance,
		StdDev:   math.Sqrt(variance),
	}
}

// confidenceInterval builds a normal-approximation interval for the mean.
// The standard error uses the sample standard deviation (divisor n-1), so
// the caller guarantees len >= 2 and 0 < level < 1.
func confidenceInterval(values []float64, level float64) *Interval {
	n := float64(len(values))
	m := mean(values)

	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	stderr := math.Sqrt(sum/(n-1)) / math.Sqrt(n)

	z := math.Sqrt2 * math.Erfinv(level)
	margin := z * stderr

	return &Interval{
		Count:         len(values),
		Mean:          m,
		StandardError: stderr,
		Level:         level,
		Lower:         m - margin,
		Upper:         m + margin,
	}
}

// linearTrend fits an ordinary least squares line through the series and
// projects the next periods. The caller guarantees len >= 2.
func linearTrend(values []float64, periods int) *Trend {
	n := float64(len(values))

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	slope := 0.0
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n

	trend := &Trend{
		Slope:     slope,
		Intercept: intercept,
		Periods:   len(values),
	}
	for p := 1; p <= periods; p++ {
		x := n - 1 + float64(p)
		trend.Forecast = append(trend.Forecast, ForecastPoint{
			Period: p,
			Value:  intercept + slope*x,
		})
	}
	return trend
}
