package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authrepo "github.com/pharmstock/pharmstock-backend/internal/auth/repository"
	catalogrepo "github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	"github.com/pharmstock/pharmstock-backend/internal/migrations"
	"github.com/pharmstock/pharmstock-backend/internal/sales/repository"
	"github.com/pharmstock/pharmstock-backend/pkg/database"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
	"github.com/pharmstock/pharmstock-backend/pkg/testutil"
)

type ledgerFixture struct {
	db       *database.DB
	ledger   *repository.LedgerRepository
	medicine *catalogrepo.Medicine
	seller   *authrepo.User
}

func setupLedgerFixture(t *testing.T) *ledgerFixture {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	log := logger.New("ledger-integration", "development")

	container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	sqlxDB, err := container.Connect(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { sqlxDB.Close() })

	db := database.FromSqlx(sqlxDB, log)
	require.NoError(t, migrations.Run(ctx, db, log))

	fixtures := testutil.NewFixtureFactory()

	userRepo := authrepo.NewUserRepository(db)
	userFixture := fixtures.User()
	seller := &authrepo.User{
		Email:        userFixture.Email,
		Name:         userFixture.Name,
		PasswordHash: userFixture.PasswordHash,
		Role:         userFixture.Role,
	}
	require.NoError(t, userRepo.Create(ctx, seller))

	medicineRepo := catalogrepo.NewMedicineRepository(db)
	medicineFixture := fixtures.Medicine()
	medicine := &catalogrepo.Medicine{
		Name:         medicineFixture.Name,
		Manufacturer: medicineFixture.Manufacturer,
		Category:     medicineFixture.Category,
		Price:        decimal.RequireFromString(medicineFixture.Price),
		Stock:        medicineFixture.Stock,
		ReorderLevel: medicineFixture.ReorderLevel,
		ExpiryDate:   medicineFixture.ExpiryDate,
		Barcode:      medicineFixture.Barcode,
	}
	require.NoError(t, medicineRepo.Create(ctx, medicine))

	return &ledgerFixture{
		db:       db,
		ledger:   repository.NewLedgerRepository(db),
		medicine: medicine,
		seller:   seller,
	}
}

func (f *ledgerFixture) sale(quantity int) *repository.Sale {
	return &repository.Sale{
		MedicineID: f.medicine.ID,
		SellerID:   f.seller.ID,
		Quantity:   quantity,
		UnitPrice:  f.medicine.Price,
		TotalPrice: f.medicine.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

func (f *ledgerFixture) currentStock(t *testing.T) int {
	var stock int
	err := f.db.GetContext(context.Background(), &stock,
		`SELECT stock FROM medicines WHERE medicine_id = $1`, f.medicine.ID)
	require.NoError(t, err)
	return stock
}

func TestLedgerIntegration_StockDrain(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()

	// drain the initial 100 units in ten sales of ten
	for i := 0; i < 10; i++ {
		stockAfter, err := f.ledger.CommitSale(ctx, f.sale(10))
		require.NoError(t, err)
		assert.Equal(t, 100-(i+1)*10, stockAfter)
	}

	_, err := f.ledger.CommitSale(ctx, f.sale(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))
	assert.Equal(t, 0, f.currentStock(t))
}

func TestLedgerIntegration_ConcurrentOversell(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()

	// two sales of 60 against 100 units: exactly one may commit
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.ledger.CommitSale(ctx, f.sale(60))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, errors.ErrInsufficientStock))
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 40, f.currentStock(t))
}

func TestLedgerIntegration_BatchRollsBackTogether(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()

	// second line oversells, so the first line's decrement must roll back
	_, err := f.ledger.CommitBatch(ctx, []*repository.Sale{
		f.sale(60),
		f.sale(60),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))
	assert.Equal(t, 100, f.currentStock(t))

	var count int
	require.NoError(t, f.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM sales WHERE medicine_id = $1`, f.medicine.ID))
	assert.Zero(t, count)
}

func TestLedgerIntegration_SaleRowRecorded(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()

	sale := f.sale(4)
	stockAfter, err := f.ledger.CommitSale(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, 96, stockAfter)
	assert.NotZero(t, sale.ID)
	assert.WithinDuration(t, time.Now(), sale.SaleDate, time.Minute)

	saleRepo := repository.NewSaleRepository(f.db)
	fetched, err := saleRepo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, f.medicine.Name, fetched.MedicineName)
	assert.True(t, fetched.TotalPrice.Equal(decimal.RequireFromString("102.00")))
}
