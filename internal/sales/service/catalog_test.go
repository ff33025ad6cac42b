package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogrepo "github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	"github.com/pharmstock/pharmstock-backend/internal/sales/service"
	"github.com/pharmstock/pharmstock-backend/pkg/database"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
	"github.com/pharmstock/pharmstock-backend/pkg/testutil"
)

func newRepositoryCatalog(t *testing.T) (*service.RepositoryCatalog, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	db := database.FromSqlx(mockDB.DB, logger.New("catalog-adapter-test", "development"))
	catalog := service.NewRepositoryCatalog(
		catalogrepo.NewMedicineRepository(db),
		catalogrepo.NewAlternativeRepository(db),
	)
	return catalog, mockDB
}

func TestRepositoryCatalog_GetByID(t *testing.T) {
	catalog, mockDB := newRepositoryCatalog(t)

	now := time.Now()
	mockDB.Mock.ExpectQuery("SELECT").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"medicine_id", "name", "description", "manufacturer", "category", "price",
			"stock", "reorder_level", "expiry_date", "barcode", "created_at", "updated_at",
		}).AddRow(int64(3), "Paracetamol", nil, "Cipla", "Fever", "25.50", 100, 10,
			now.AddDate(1, 0, 0), "8901234567890", now, now))

	m, err := catalog.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), m.ID)
	assert.Equal(t, "Paracetamol", m.Name)
	mockDB.ExpectationsWereMet(t)
}

func TestRepositoryCatalog_AvailableAlternatives(t *testing.T) {
	catalog, mockDB := newRepositoryCatalog(t)

	mockDB.Mock.ExpectQuery("FROM alternative_medicines").
		WithArgs(int64(3), 3).
		WillReturnRows(sqlmock.NewRows([]string{
			"medicine_id", "name", "manufacturer", "category", "price",
			"stock", "barcode", "priority", "reason",
		}).AddRow(int64(8), "Ibuprofen", "Abbott", "Fever", "19.00", 40, "8901234567891", 9, nil))

	options, err := catalog.AvailableAlternatives(context.Background(), 3, 3)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, int64(8), options[0].MedicineID)
	assert.Equal(t, 9, options[0].Priority)
	mockDB.ExpectationsWereMet(t)
}
