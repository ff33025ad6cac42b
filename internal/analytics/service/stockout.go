package service

import (
	"context"
	"sort"
)

// Urgency tiers for depletion predictions
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

const velocityWindowDays = 30

// StockoutPrediction flags a medicine expected to run out within 30 days
type StockoutPrediction struct {
	MedicineID        int64   `json:"medicine_id"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	CurrentStock      int     `json:"current_stock"`
	DailyAverage      float64 `json:"daily_average"`
	DaysUntilStockout int     `json:"days_until_stockout"`
	PredictedDate     string  `json:"predicted_date"`
	Urgency           string  `json:"urgency"`
}

// StockoutPredictions estimates days-to-stockout from the trailing 30-day
// sales velocity. Medicines with no recent sales are skipped: a zero
// velocity predicts nothing. Most urgent predictions come first.
func (s *AnalyticsService) StockoutPredictions(ctx context.Context) ([]*StockoutPrediction, error) {
	var predictions []*StockoutPrediction
	if s.cache.Get(ctx, cacheKeyStockout, &predictions) {
		return predictions, nil
	}

	now := s.now()
	sold, err := s.ledger.SoldSince(ctx, now.AddDate(0, 0, -velocityWindowDays))
	if err != nil {
		return nil, err
	}

	velocity := make(map[int64]int, len(sold))
	for _, q := range sold {
		velocity[q.MedicineID] = q.Quantity
	}

	medicines, err := s.catalog.All(ctx)
	if err != nil {
		return nil, err
	}

	predictions = []*StockoutPrediction{}
	for _, m := range medicines {
		if m.Stock <= 0 {
			continue
		}

		recentQuantity := velocity[m.ID]
		if recentQuantity == 0 {
			continue
		}

		dailyAverage := float64(recentQuantity) / velocityWindowDays
		daysUntil := float64(m.Stock) / dailyAverage
		if daysUntil > velocityWindowDays {
			continue
		}

		days := int(daysUntil)
		predictions = append(predictions, &StockoutPrediction{
			MedicineID:        m.ID,
			Name:              m.Name,
			Category:          m.Category,
			CurrentStock:      m.Stock,
			DailyAverage:      round2(dailyAverage),
			DaysUntilStockout: days,
			PredictedDate:     now.AddDate(0, 0, days).Format("2006-01-02"),
			Urgency:           urgencyFor(daysUntil),
		})
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].DaysUntilStockout < predictions[j].DaysUntilStockout
	})

	s.cache.Set(ctx, cacheKeyStockout, predictions)
	return predictions, nil
}

// urgencyFor tiers the fractional days estimate, not the truncated integer,
// so 7.5 days reads as medium rather than high.
func urgencyFor(days float64) string {
	switch {
	case days <= 7:
		return UrgencyHigh
	case days <= 14:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
