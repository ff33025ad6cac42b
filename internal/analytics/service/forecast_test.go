package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogrepo "github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	salesrepo "github.com/pharmstock/pharmstock-backend/internal/sales/repository"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// stubLedger serves canned aggregates
type stubLedger struct {
	months     []*salesrepo.MonthAggregate
	categories []*salesrepo.CategoryAggregate
	monthly    []*salesrepo.MonthlyPoint
	sold       []*salesrepo.MedicineQuantity
	top        []*salesrepo.MedicineRevenue
}

func (s *stubLedger) MonthAggregates(ctx context.Context) ([]*salesrepo.MonthAggregate, error) {
	return s.months, nil
}

func (s *stubLedger) CategoryAggregates(ctx context.Context) ([]*salesrepo.CategoryAggregate, error) {
	return s.categories, nil
}

func (s *stubLedger) MonthlyRevenue(ctx context.Context, since time.Time) ([]*salesrepo.MonthlyPoint, error) {
	return s.monthly, nil
}

func (s *stubLedger) SoldSince(ctx context.Context, since time.Time) ([]*salesrepo.MedicineQuantity, error) {
	return s.sold, nil
}

func (s *stubLedger) TopByRevenue(ctx context.Context, since time.Time, limit int) ([]*salesrepo.MedicineRevenue, error) {
	if len(s.top) > limit {
		return s.top[:limit], nil
	}
	return s.top, nil
}

type stubCatalog struct {
	medicines []*catalogrepo.Medicine
}

func (s *stubCatalog) All(ctx context.Context) ([]*catalogrepo.Medicine, error) {
	return s.medicines, nil
}

func newTestService(ledger *stubLedger, catalog *stubCatalog, now time.Time) *AnalyticsService {
	log := logger.New("analytics-test", "development")
	svc := NewAnalyticsService(ledger, catalog, nil, log)
	return svc.WithClock(func() time.Time { return now })
}

func monthlyPoint(month string, revenue string) *salesrepo.MonthlyPoint {
	return &salesrepo.MonthlyPoint{
		Month:   month,
		Revenue: decimal.RequireFromString(revenue),
	}
}

func TestMovingAverage(t *testing.T) {
	t.Run("window of three", func(t *testing.T) {
		got := movingAverage([]float64{10, 20, 30, 40}, 3)
		assert.Equal(t, []float64{10, 20, 20, 30}, got)
	})

	t.Run("series shorter than window passes through", func(t *testing.T) {
		got := movingAverage([]float64{10, 20}, 3)
		assert.Equal(t, []float64{10, 20}, got)
	})

	t.Run("empty series", func(t *testing.T) {
		assert.Empty(t, movingAverage(nil, 3))
	})
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   string
	}{
		{"growing", []float64{100, 100, 100, 150, 150, 150}, TrendGrowing},
		{"declining", []float64{150, 150, 150, 100, 100, 100}, TrendDeclining},
		{"stable", []float64{100, 100, 100, 105, 105, 105}, TrendStable},
		{"exact boundary is stable", []float64{100, 100, 100, 110, 110, 110}, TrendStable},
		{"two points share both windows", []float64{100, 200}, TrendStable},
		{"single point", []float64{100}, TrendInsufficientData},
		{"empty", nil, TrendInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTrend(tt.values))
		})
	}
}

func TestForecast_EmptySeries(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(&stubLedger{}, &stubCatalog{}, now)

	report, err := svc.Forecast(context.Background(), 3)
	require.NoError(t, err)

	assert.Empty(t, report.Historical)
	assert.Empty(t, report.Forecast)
	assert.Equal(t, TrendInsufficientData, report.Trend)
}

func TestForecast_CompoundsOnPriorPredictions(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	ledger := &stubLedger{monthly: []*salesrepo.MonthlyPoint{
		monthlyPoint("2025-03", "100.00"),
		monthlyPoint("2025-04", "200.00"),
		monthlyPoint("2025-05", "300.00"),
	}}
	svc := newTestService(ledger, &stubCatalog{}, now)

	report, err := svc.Forecast(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, report.Forecast, 3)
	// window [100,200,300] -> 200; [200,300,200] -> 233.33; [300,200,233.33] -> 244.44
	assert.InDelta(t, 200.00, report.Forecast[0].Revenue, 0.001)
	assert.InDelta(t, 233.33, report.Forecast[1].Revenue, 0.001)
	assert.InDelta(t, 244.44, report.Forecast[2].Revenue, 0.005)

	assert.Equal(t, "2025-07", report.Forecast[0].Month)
	assert.Equal(t, "2025-08", report.Forecast[1].Month)
	assert.Equal(t, "2025-09", report.Forecast[2].Month)
}

func TestForecast_SeedsFromShortSeries(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	ledger := &stubLedger{monthly: []*salesrepo.MonthlyPoint{
		monthlyPoint("2025-05", "120.00"),
	}}
	svc := newTestService(ledger, &stubCatalog{}, now)

	report, err := svc.Forecast(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, report.Forecast, 2)
	assert.InDelta(t, 120.00, report.Forecast[0].Revenue, 0.001)
	assert.InDelta(t, 120.00, report.Forecast[1].Revenue, 0.001)
	assert.Equal(t, TrendInsufficientData, report.Trend, "one data point cannot be classified")
}

func TestForecast_MovingAverageAlignsWithHistory(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	ledger := &stubLedger{monthly: []*salesrepo.MonthlyPoint{
		monthlyPoint("2025-02", "10.00"),
		monthlyPoint("2025-03", "20.00"),
		monthlyPoint("2025-04", "30.00"),
		monthlyPoint("2025-05", "40.00"),
	}}
	svc := newTestService(ledger, &stubCatalog{}, now)

	report, err := svc.Forecast(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, report.MovingAverage, 4)
	assert.Equal(t, "2025-02", report.MovingAverage[0].Month)
	assert.Equal(t, []float64{10, 20, 20, 30}, []float64{
		report.MovingAverage[0].Revenue,
		report.MovingAverage[1].Revenue,
		report.MovingAverage[2].Revenue,
		report.MovingAverage[3].Revenue,
	})
	assert.Equal(t, TrendGrowing, report.Trend)
}

func TestMonthlySales_GapsStayOmitted(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	ledger := &stubLedger{monthly: []*salesrepo.MonthlyPoint{
		monthlyPoint("2025-01", "100.00"),
		monthlyPoint("2025-04", "400.00"),
	}}
	svc := newTestService(ledger, &stubCatalog{}, now)

	series, err := svc.MonthlySales(context.Background(), 12)
	require.NoError(t, err)

	require.Len(t, series, 2, "empty months are omitted, not zero-filled")
	assert.Equal(t, "2025-01", series[0].Month)
	assert.Equal(t, "2025-04", series[1].Month)
}
