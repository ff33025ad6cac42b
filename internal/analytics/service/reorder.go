package service

import (
	"context"
	"fmt"
	"math"
	"sort"
)

const (
	safetyStockDays  = 30
	reorderBufferDay = 15
)

// ReorderRecommendation is a proactive restock suggestion for a medicine
// that is still above its reorder level but selling fast enough to fall
// below its safety stock.
type ReorderRecommendation struct {
	MedicineID          int64   `json:"medicine_id"`
	Name                string  `json:"name"`
	Category            string  `json:"category"`
	CurrentStock        int     `json:"current_stock"`
	SafetyStock         int     `json:"safety_stock"`
	RecommendedQuantity int     `json:"recommended_quantity"`
	DailyAverage        float64 `json:"daily_average"`
	Reason              string  `json:"reason"`

	coverageRatio float64
}

// ReorderRecommendations computes restock suggestions from the trailing
// 30-day sales velocity. Medicines already at or below their reorder level
// are excluded: those are the low-stock alert's concern, not a proactive
// recommendation. Lowest coverage comes first.
func (s *AnalyticsService) ReorderRecommendations(ctx context.Context) ([]*ReorderRecommendation, error) {
	var recommendations []*ReorderRecommendation
	if s.cache.Get(ctx, cacheKeyReorder, &recommendations) {
		return recommendations, nil
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

	recommendations = []*ReorderRecommendation{}
	for _, m := range medicines {
		if m.Stock <= m.ReorderLevel {
			continue
		}

		recentQuantity := velocity[m.ID]
		if recentQuantity == 0 {
			continue
		}

		dailyAverage := float64(recentQuantity) / velocityWindowDays
		safetyStock := dailyAverage * safetyStockDays
		if float64(m.Stock) >= safetyStock {
			continue
		}

		quantity := int(math.Ceil(safetyStock - float64(m.Stock) + dailyAverage*reorderBufferDay))

		ratio := 1.0
		if safetyStock > 0 {
			ratio = float64(m.Stock) / safetyStock
		}

		recommendations = append(recommendations, &ReorderRecommendation{
			MedicineID:          m.ID,
			Name:                m.Name,
			Category:            m.Category,
			CurrentStock:        m.Stock,
			SafetyStock:         int(safetyStock),
			RecommendedQuantity: quantity,
			DailyAverage:        round2(dailyAverage),
			Reason: fmt.Sprintf("current stock covers %.1f days at %.2f units/day, below the %d-day safety stock",
				float64(m.Stock)/dailyAverage, dailyAverage, safetyStockDays),
			coverageRatio: ratio,
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].coverageRatio < recommendations[j].coverageRatio
	})

	s.cache.Set(ctx, cacheKeyReorder, recommendations)
	return recommendations, nil
}
