package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmstock/pharmstock-backend/internal/sales/repository"
	"github.com/pharmstock/pharmstock-backend/pkg/database"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
	"github.com/pharmstock/pharmstock-backend/pkg/testutil"
)

func newLedger(t *testing.T) (*repository.LedgerRepository, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	db := database.FromSqlx(mockDB.DB, logger.New("ledger-test", "development"))
	return repository.NewLedgerRepository(db), mockDB
}

func pendingSale(medicineID int64, quantity int) *repository.Sale {
	unit := decimal.RequireFromString("25.50")
	return &repository.Sale{
		MedicineID: medicineID,
		SellerID:   7,
		Quantity:   quantity,
		UnitPrice:  unit,
		TotalPrice: unit.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

func TestLedgerRepository_CommitSale(t *testing.T) {
	repo, mockDB := newLedger(t)
	sale := pendingSale(1, 10)
	saleDate := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	mockDB.ExpectBegin()
	mockDB.Mock.ExpectQuery("UPDATE medicines").
		WithArgs(int64(1), 10).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(90))
	mockDB.Mock.ExpectQuery("INSERT INTO sales").
		WithArgs(int64(1), int64(7), 10, sale.UnitPrice, sale.TotalPrice).
		WillReturnRows(sqlmock.NewRows([]string{"sale_id", "sale_date"}).AddRow(int64(42), saleDate))
	mockDB.ExpectCommit()

	stockAfter, err := repo.CommitSale(context.Background(), sale)
	require.NoError(t, err)
	assert.Equal(t, 90, stockAfter)
	assert.Equal(t, int64(42), sale.ID)
	assert.Equal(t, saleDate, sale.SaleDate)
	mockDB.ExpectationsWereMet(t)
}

func TestLedgerRepository_CommitSale_InsufficientStock(t *testing.T) {
	repo, mockDB := newLedger(t)
	sale := pendingSale(1, 10)

	mockDB.ExpectBegin()
	mockDB.Mock.ExpectQuery("UPDATE medicines").
		WithArgs(int64(1), 10).
		WillReturnError(sql.ErrNoRows)
	mockDB.Mock.ExpectQuery("SELECT stock FROM medicines").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(5))
	mockDB.ExpectRollback()

	_, err := repo.CommitSale(context.Background(), sale)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	assert.Equal(t, "5", appErr.Details["available_stock"])
	mockDB.ExpectationsWereMet(t)
}

func TestLedgerRepository_CommitSale_MedicineGone(t *testing.T) {
	repo, mockDB := newLedger(t)
	sale := pendingSale(9, 1)

	mockDB.ExpectBegin()
	mockDB.Mock.ExpectQuery("UPDATE medicines").
		WithArgs(int64(9), 1).
		WillReturnError(sql.ErrNoRows)
	mockDB.Mock.ExpectQuery("SELECT stock FROM medicines").
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)
	mockDB.ExpectRollback()

	_, err := repo.CommitSale(context.Background(), sale)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}

func TestLedgerRepository_CommitBatch(t *testing.T) {
	repo, mockDB := newLedger(t)
	sales := []*repository.Sale{pendingSale(1, 10), pendingSale(2, 3)}
	saleDate := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	mockDB.ExpectBegin()
	mockDB.Mock.ExpectQuery("UPDATE medicines").
		WithArgs(int64(1), 10).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(90))
	mockDB.Mock.ExpectQuery("INSERT INTO sales").
		WillReturnRows(sqlmock.NewRows([]string{"sale_id", "sale_date"}).AddRow(int64(1), saleDate))
	mockDB.Mock.ExpectQuery("UPDATE medicines").
		WithArgs(int64(2), 3).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(17))
	mockDB.Mock.ExpectQuery("INSERT INTO sales").
		WillReturnRows(sqlmock.NewRows([]string{"sale_id", "sale_date"}).AddRow(int64(2), saleDate))
	mockDB.ExpectCommit()

	stockAfters, err := repo.CommitBatch(context.Background(), sales)
	require.NoError(t, err)
	assert.Equal(t, []int{90, 17}, stockAfters)
	mockDB.ExpectationsWereMet(t)
}

func TestLedgerRepository_CommitBatch_FailingLineAbortsAll(t *testing.T) {
	repo, mockDB := newLedger(t)
	sales := []*repository.Sale{pendingSale(1, 10), pendingSale(2, 3)}
	saleDate := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	mockDB.ExpectBegin()
	mockDB.Mock.ExpectQuery("UPDATE medicines").
		WithArgs(int64(1), 10).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(90))
	mockDB.Mock.ExpectQuery("INSERT INTO sales").
		WillReturnRows(sqlmock.NewRows([]string{"sale_id", "sale_date"}).AddRow(int64(1), saleDate))
	mockDB.Mock.ExpectQuery("UPDATE medicines").
		WithArgs(int64(2), 3).
		WillReturnError(sql.ErrNoRows)
	mockDB.Mock.ExpectQuery("SELECT stock FROM medicines").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(1))
	mockDB.ExpectRollback()

	_, err := repo.CommitBatch(context.Background(), sales)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}
