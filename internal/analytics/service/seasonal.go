package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	salesrepo "github.com/pharmstock/pharmstock-backend/internal/sales/repository"
)

// SeasonSummary aggregates the ledger for one season
type SeasonSummary struct {
	Season       string          `json:"season"`
	Revenue      decimal.Decimal `json:"revenue"`
	Units        int             `json:"units"`
	Transactions int             `json:"transactions"`
	AvgRevenue   decimal.Decimal `json:"avg_revenue_per_transaction"`
}

// SeasonalReport summarizes sales per season
type SeasonalReport struct {
	Seasons       []*SeasonSummary `json:"seasons"`
	CurrentSeason string           `json:"current_season"`
	HighestSeason string           `json:"highest_season"`
	LowestSeason  string           `json:"lowest_season"`
}

// CategoryReport summarizes sales per medicine category
type CategoryReport struct {
	Categories []*salesrepo.CategoryAggregate `json:"categories"`
}

// seasonOrder fixes the presentation order of the season summaries
var seasonOrder = []string{
	salesrepo.SeasonWinter,
	salesrepo.SeasonSpring,
	salesrepo.SeasonSummer,
	salesrepo.SeasonMonsoon,
}

// SeasonalTrends partitions the whole ledger into the four seasons. A
// ledger with no sales yields zeroed summaries. When several seasons tie
// for highest or lowest revenue the winner is whichever the iteration
// visits first, which is not stable between calls.
func (s *AnalyticsService) SeasonalTrends(ctx context.Context) (*SeasonalReport, error) {
	var report SeasonalReport
	if s.cache.Get(ctx, cacheKeySeasonal, &report) {
		return &report, nil
	}

	aggregates, err := s.ledger.MonthAggregates(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make(map[string]*SeasonSummary, len(seasonOrder))
	for _, season := range seasonOrder {
		summaries[season] = &SeasonSummary{
			Season:     season,
			Revenue:    decimal.Zero,
			AvgRevenue: decimal.Zero,
		}
	}

	for _, agg := range aggregates {
		season := salesrepo.SeasonForMonth(time.Month(agg.Month))
		summary := summaries[season]
		summary.Revenue = summary.Revenue.Add(agg.Revenue)
		summary.Units += agg.Units
		summary.Transactions += agg.Transactions
	}

	report.Seasons = make([]*SeasonSummary, 0, len(seasonOrder))
	for _, season := range seasonOrder {
		summary := summaries[season]
		if summary.Transactions > 0 {
			summary.AvgRevenue = summary.Revenue.DivRound(decimal.NewFromInt(int64(summary.Transactions)), 2)
		}
		report.Seasons = append(report.Seasons, summary)
	}

	report.CurrentSeason = salesrepo.SeasonForMonth(s.now().Month())

	var highest, lowest *SeasonSummary
	for _, summary := range summaries {
		if highest == nil || summary.Revenue.GreaterThan(highest.Revenue) {
			highest = summary
		}
		if lowest == nil || summary.Revenue.LessThan(lowest.Revenue) {
			lowest = summary
		}
	}
	report.HighestSeason = highest.Season
	report.LowestSeason = lowest.Season

	s.cache.Set(ctx, cacheKeySeasonal, &report)
	return &report, nil
}

// CategoryTrends summarizes the whole ledger per category. Categories with
// no sales are absent.
func (s *AnalyticsService) CategoryTrends(ctx context.Context) (*CategoryReport, error) {
	var report CategoryReport
	if s.cache.Get(ctx, cacheKeyCategory, &report) {
		return &report, nil
	}

	aggregates, err := s.ledger.CategoryAggregates(ctx)
	if err != nil {
		return nil, err
	}

	if aggregates == nil {
		aggregates = []*salesrepo.CategoryAggregate{}
	}
	report.Categories = aggregates

	s.cache.Set(ctx, cacheKeyCategory, &report)
	return &report, nil
}
