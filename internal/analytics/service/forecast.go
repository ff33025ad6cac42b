package service

import (
	"context"
	"math"
)

// Trend classification tags
const (
	TrendGrowing          = "growing"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

const (
	defaultMonthsBack    = 12
	defaultWindowSize    = 3
	forecastPeriodLength = 30
)

// ForecastPoint is one month of actual or projected revenue
type ForecastPoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// ForecastReport is the full forecast response: the historical series, its
// smoothed form, the projected periods and a trend tag.
type ForecastReport struct {
	Historical    []ForecastPoint `json:"historical"`
	MovingAverage []ForecastPoint `json:"moving_average"`
	Forecast      []ForecastPoint `json:"forecast"`
	Trend         string          `json:"trend"`
}

// MonthlySales buckets ledger revenue by calendar month for the trailing
// monthsBack months, oldest first. Months with no sales are omitted, not
// zero-filled, so the series may be shorter than monthsBack.
func (s *AnalyticsService) MonthlySales(ctx context.Context, monthsBack int) ([]ForecastPoint, error) {
	if monthsBack < 1 {
		monthsBack = defaultMonthsBack
	}

	since := s.now().AddDate(0, 0, -monthsBack*forecastPeriodLength)
	points, err := s.ledger.MonthlyRevenue(ctx, since)
	if err != nil {
		return nil, err
	}

	series := make([]ForecastPoint, len(points))
	for i, p := range points {
		series[i] = ForecastPoint{
			Month:   p.Month,
			Revenue: p.Revenue.InexactFloat64(),
		}
	}

	return series, nil
}

// Forecast projects monthly revenue monthsAhead periods forward. Each
// prediction is the mean of a sliding window that absorbs prior
// predictions, so forecasts compound.
func (s *AnalyticsService) Forecast(ctx context.Context, monthsAhead int) (*ForecastReport, error) {
	if monthsAhead < 1 {
		monthsAhead = 3
	}

	historical, err := s.MonthlySales(ctx, defaultMonthsBack)
	if err != nil {
		return nil, err
	}

	report := &ForecastReport{
		Historical:    historical,
		MovingAverage: []ForecastPoint{},
		Forecast:      []ForecastPoint{},
		Trend:         TrendInsufficientData,
	}

	if len(historical) == 0 {
		return report, nil
	}

	values := make([]float64, len(historical))
	for i, p := range historical {
		values[i] = p.Revenue
	}

	smoothed := movingAverage(values, defaultWindowSize)
	report.MovingAverage = make([]ForecastPoint, len(smoothed))
	for i, v := range smoothed {
		report.MovingAverage[i] = ForecastPoint{Month: historical[i].Month, Revenue: v}
	}

	window := newForecastWindow(values, defaultWindowSize)
	now := s.now()

	report.Forecast = make([]ForecastPoint, monthsAhead)
	for i := 0; i < monthsAhead; i++ {
		predicted := round2(window.mean())
		report.Forecast[i] = ForecastPoint{
			Month:   now.AddDate(0, 0, forecastPeriodLength*(i+1)).Format("2006-01"),
			Revenue: predicted,
		}
		window.push(predicted)
	}

	report.Trend = classifyTrend(values)
	return report, nil
}

// movingAverage smooths a series with a trailing window. Indexes before the
// window fills pass through unchanged.
func movingAverage(values []float64, windowSize int) []float64 {
	result := make([]float64, len(values))
	for i := range values {
		if i < windowSize-1 {
			result[i] = values[i]
			continue
		}

		sum := 0.0
		for j := i - windowSize + 1; j <= i; j++ {
			sum += values[j]
		}
		result[i] = round2(sum / float64(windowSize))
	}

	return result
}

// classifyTrend compares the mean of the most recent values against the
// mean of the earliest ones
func classifyTrend(values []float64) string {
	if len(values) < 2 {
		return TrendInsufficientData
	}

	n := len(values)
	span := defaultWindowSize
	if n < span {
		span = n
	}

	recent := mean(values[n-span:])
	older := mean(values[:span])

	switch {
	case recent > older*1.10:
		return TrendGrowing
	case recent < older*0.90:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// forecastWindow is a fixed-capacity ring over the last few observed or
// predicted values
type forecastWindow struct {
	buf  []float64
	head int
}

// newForecastWindow seeds the ring with the trailing min(capacity, len)
// values of the series
func newForecastWindow(values []float64, capacity int) *forecastWindow {
	if len(values) < capacity {
		capacity = len(values)
	}

	buf := make([]float64, capacity)
	copy(buf, values[len(values)-capacity:])
	return &forecastWindow{buf: buf}
}

// push drops the oldest value and admits a new one
func (w *forecastWindow) push(v float64) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

func (w *forecastWindow) mean() float64 {
	return mean(w.buf)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
