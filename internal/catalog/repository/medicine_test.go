package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	"github.com/pharmstock/pharmstock-backend/pkg/database"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
	"github.com/pharmstock/pharmstock-backend/pkg/testutil"
)

func newRepo(t *testing.T) (*repository.MedicineRepository, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	db := database.FromSqlx(mockDB.DB, logger.New("catalog-test", "development"))
	return repository.NewMedicineRepository(db), mockDB
}

func medicineRow(id int64, name string, stock int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"medicine_id", "name", "description", "manufacturer", "category", "price",
		"stock", "reorder_level", "expiry_date", "barcode", "created_at", "updated_at",
	}).AddRow(id, name, nil, "Cipla", "Fever", "25.50", stock, 10,
		now.AddDate(1, 0, 0), "8901234567890", now, now)
}

func TestMedicineRepository_GetByID(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.Mock.ExpectQuery("SELECT").
		WithArgs(int64(1)).
		WillReturnRows(medicineRow(1, "Paracetamol", 100))

	m, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ID)
	assert.Equal(t, "Paracetamol", m.Name)
	assert.Equal(t, 100, m.Stock)
	assert.True(t, m.Price.Equal(decimal.RequireFromString("25.50")))
	mockDB.ExpectationsWereMet(t)
}

func TestMedicineRepository_GetByID_NotFound(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.Mock.ExpectQuery("SELECT").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestMedicineRepository_Create_DuplicateBarcode(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.Mock.ExpectQuery("INSERT INTO medicines").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "medicines_barcode_key"})

	m := &repository.Medicine{
		Name:         "Paracetamol",
		Manufacturer: "Cipla",
		Category:     "Fever",
		Price:        decimal.RequireFromString("25.50"),
		Stock:        100,
		ReorderLevel: 10,
		ExpiryDate:   time.Now().AddDate(1, 0, 0),
		Barcode:      "8901234567890",
	}

	err := repo.Create(context.Background(), m)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DUPLICATE_BARCODE", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}
