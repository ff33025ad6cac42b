package service

import (
	"context"
	"time"

	"github.com/pharmstock/pharmstock-backend/internal/analytics/cache"
	catalogrepo "github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	salesrepo "github.com/pharmstock/pharmstock-backend/internal/sales/repository"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// Cache keys for rendered reports
const (
	cacheKeySeasonal = "analytics:seasonal"
	cacheKeyCategory = "analytics:category"
	cacheKeyStockout = "analytics:stockout"
	cacheKeyReorder  = "analytics:reorder"
)

// LedgerReader is the read-side of the sale ledger the reports need
type LedgerReader interface {
	MonthAggregates(ctx context.Context) ([]*salesrepo.MonthAggregate, error)
	CategoryAggregates(ctx context.Context) ([]*salesrepo.CategoryAggregate, error)
	MonthlyRevenue(ctx context.Context, since time.Time) ([]*salesrepo.MonthlyPoint, error)
	SoldSince(ctx context.Context, since time.Time) ([]*salesrepo.MedicineQuantity, error)
	TopByRevenue(ctx context.Context, since time.Time, limit int) ([]*salesrepo.MedicineRevenue, error)
}

// CatalogReader is the catalog access the reports need
type CatalogReader interface {
	All(ctx context.Context) ([]*catalogrepo.Medicine, error)
}

// AnalyticsService renders reports over the sale ledger and the catalog.
// Reports read the stores directly without a shared snapshot; a report
// spanning several queries may observe sales committed between them.
type AnalyticsService struct {
	ledger  LedgerReader
	catalog CatalogReader
	cache   cache.ReportCache
	logger  *logger.Logger
	now     func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(ledger LedgerReader, catalog CatalogReader, reportCache cache.ReportCache, log *logger.Logger) *AnalyticsService {
	if reportCache == nil {
		reportCache = cache.NewNoopCache()
	}

	return &AnalyticsService{
		ledger:  ledger,
		catalog: catalog,
		cache:   reportCache,
		logger:  log,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests pin it to a fixed moment.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// InvalidateReports drops cached reports after writes that change them
func (s *AnalyticsService) InvalidateReports(ctx context.Context) {
	s.cache.Invalidate(ctx, cacheKeySeasonal, cacheKeyCategory, cacheKeyStockout, cacheKeyReorder)
}

// TopMedicines lists the highest-revenue medicines in the trailing window
func (s *AnalyticsService) TopMedicines(ctx context.Context, days, limit int) ([]*salesrepo.MedicineRevenue, error) {
	if days < 1 {
		days = 30
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	since := s.now().AddDate(0, 0, -days)
	return s.ledger.TopByRevenue(ctx, since, limit)
}
