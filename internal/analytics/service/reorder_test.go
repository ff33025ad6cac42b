package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogrepo "github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	salesrepo "github.com/pharmstock/pharmstock-backend/internal/sales/repository"
)

func TestReorderRecommendations(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	ledger := &stubLedger{sold: []*salesrepo.MedicineQuantity{
		soldQuantity(1, 60),
		soldQuantity(2, 45),
	}}
	catalog := &stubCatalog{medicines: []*catalogrepo.Medicine{
		stockMedicine(1, "Paracetamol", 40, 10),
		stockMedicine(2, "Ibuprofen", 40, 10),
	}}
	svc := newTestService(ledger, catalog, now)

	recommendations, err := svc.ReorderRecommendations(context.Background())
	require.NoError(t, err)
	require.Len(t, recommendations, 2)

	// lowest coverage first: 40 of 60 days of safety stock
	first := recommendations[0]
	assert.Equal(t, int64(1), first.MedicineID)
	assert.Equal(t, 60, first.SafetyStock)
	assert.Equal(t, 2.0, first.DailyAverage)
	assert.Equal(t, 50, first.RecommendedQuantity, "gap of 20 plus a 15-day buffer of 30")
	assert.Equal(t, "current stock covers 20.0 days at 2.00 units/day, below the 30-day safety stock", first.Reason)

	second := recommendations[1]
	assert.Equal(t, int64(2), second.MedicineID)
	assert.Equal(t, 45, second.SafetyStock)
	assert.Equal(t, 28, second.RecommendedQuantity, "fractional quantities round up")
}

func TestReorderRecommendations_Exclusions(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	ledger := &stubLedger{sold: []*salesrepo.MedicineQuantity{
		soldQuantity(1, 60),
		soldQuantity(3, 60),
	}}
	catalog := &stubCatalog{medicines: []*catalogrepo.Medicine{
		stockMedicine(1, "Paracetamol", 10, 10), // at reorder level, low-stock alert territory
		stockMedicine(2, "Ibuprofen", 40, 10), // no recent sales
		stockMedicine(3, "Aspirin", 100, 10),  // already above safety stock
	}}
	svc := newTestService(ledger, catalog, now)

	recommendations, err := svc.ReorderRecommendations(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, recommendations)
	assert.Empty(t, recommendations)
}
