package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pharmstock/pharmstock-backend/pkg/database"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
)

// Season names used by the analytics reports
const (
	SeasonWinter  = "Winter"
	SeasonSpring  = "Spring"
	SeasonSummer  = "Summer"
	SeasonMonsoon = "Monsoon"
)

// SeasonForMonth maps a calendar month to its season
func SeasonForMonth(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonMonsoon
	}
}

// Sale is a committed sale transaction
type Sale struct {
	ID           int64           `db:"sale_id" json:"sale_id"`
	MedicineID   int64           `db:"medicine_id" json:"medicine_id"`
	MedicineName string          `db:"medicine_name" json:"medicine_name,omitempty"`
	SellerID     int64           `db:"seller_id" json:"seller_id"`
	Quantity     int             `db:"quantity_sold" json:"quantity_sold"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	SaleDate     time.Time       `db:"sale_date" json:"sale_date"`
}

// Season returns the season the sale was recorded in
func (s *Sale) Season() string {
	return SeasonForMonth(s.SaleDate.Month())
}

// MonthAggregate is a full aggregate per calendar month number (1-12),
// folded over every year in the ledger
type MonthAggregate struct {
	Month        int             `db:"month"`
	Revenue      decimal.Decimal `db:"revenue"`
	Units        int             `db:"units"`
	Transactions int             `db:"transactions"`
}

// CategoryAggregate is a full aggregate per medicine category
type CategoryAggregate struct {
	Category     string          `db:"category" json:"category"`
	Revenue      decimal.Decimal `db:"revenue" json:"revenue"`
	Units        int             `db:"units" json:"units"`
	Transactions int             `db:"transactions" json:"transactions"`
}

// MedicineQuantity is a quantity aggregate per medicine
type MedicineQuantity struct {
	MedicineID int64 `db:"medicine_id"`
	Quantity   int   `db:"quantity"`
}

// MonthlyPoint is a revenue aggregate per calendar month
type MonthlyPoint struct {
	Month    string          `db:"month" json:"month"`
	Revenue  decimal.Decimal `db:"revenue" json:"revenue"`
	Quantity int             `db:"quantity" json:"quantity"`
}

// MedicineRevenue is a revenue aggregate per medicine
type MedicineRevenue struct {
	MedicineID int64           `db:"medicine_id" json:"medicine_id"`
	Name       string          `db:"name" json:"name"`
	Category   string          `db:"category" json:"category"`
	Quantity   int             `db:"quantity" json:"quantity"`
	Revenue    decimal.Decimal `db:"revenue" json:"revenue"`
}

// SaleRepository reads the sale ledger
type SaleRepository struct {
	db *database.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *database.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

const saleColumns = `
	s.sale_id, s.medicine_id, m.name AS medicine_name, s.seller_id,
	s.quantity_sold, s.unit_price, s.total_price, s.sale_date`

// GetByID gets a sale with its medicine name
func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*Sale, error) {
	var sale Sale
	query := `
		SELECT ` + saleColumns + `
		FROM sales s
		JOIN medicines m ON m.medicine_id = s.medicine_id
		WHERE s.sale_id = $1
	`

	err := r.db.GetContext(ctx, &sale, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("sale")
	}
	if err != nil {
		return nil, err
	}

	return &sale, nil
}

// HistoryOptions filters a sale history listing
type HistoryOptions struct {
	MedicineID int64
	SellerID   int64
	Since      *time.Time
	Page       int
	PerPage    int
}

// History lists sales newest first with optional filters
func (r *SaleRepository) History(ctx context.Context, opts HistoryOptions) ([]*Sale, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if opts.MedicineID > 0 {
		args = append(args, opts.MedicineID)
		where += ` AND s.medicine_id = $1`
	}

	if opts.SellerID > 0 {
		args = append(args, opts.SellerID)
		where += fmt.Sprintf(` AND s.seller_id = $%d`, len(args))
	}

	if opts.Since != nil {
		args = append(args, *opts.Since)
		where += fmt.Sprintf(` AND s.sale_date >= $%d`, len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM sales s` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	offset := (opts.Page - 1) * opts.PerPage
	args = append(args, opts.PerPage, offset)
	query := `
		SELECT ` + saleColumns + `
		FROM sales s
		JOIN medicines m ON m.medicine_id = s.medicine_id` + where + `
		ORDER BY s.sale_date DESC, s.sale_id DESC` +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var sales []*Sale
	if err := r.db.SelectContext(ctx, &sales, query, args...); err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

// QuantitySoldSince sums the quantity sold for a medicine since the given time
func (r *SaleRepository) QuantitySoldSince(ctx context.Context, medicineID int64, since time.Time) (int, error) {
	var quantity int
	query := `
		SELECT COALESCE(SUM(quantity_sold), 0)
		FROM sales
		WHERE medicine_id = $1 AND sale_date >= $2
	`

	if err := r.db.GetContext(ctx, &quantity, query, medicineID, since); err != nil {
		return 0, err
	}

	return quantity, nil
}

// MonthAggregates aggregates the entire ledger per calendar month number.
// The season mapping happens in the analytics service.
func (r *SaleRepository) MonthAggregates(ctx context.Context) ([]*MonthAggregate, error) {
	var aggregates []*MonthAggregate
	query := `
		SELECT EXTRACT(MONTH FROM sale_date)::int AS month,
			COALESCE(SUM(total_price), 0) AS revenue,
			COALESCE(SUM(quantity_sold), 0)::int AS units,
			COUNT(*)::int AS transactions
		FROM sales
		GROUP BY EXTRACT(MONTH FROM sale_date)
		ORDER BY month
	`

	if err := r.db.SelectContext(ctx, &aggregates, query); err != nil {
		return nil, err
	}

	return aggregates, nil
}

// CategoryAggregates aggregates the entire ledger per medicine category
func (r *SaleRepository) CategoryAggregates(ctx context.Context) ([]*CategoryAggregate, error) {
	var aggregates []*CategoryAggregate
	query := `
		SELECT m.category,
			COALESCE(SUM(s.total_price), 0) AS revenue,
			COALESCE(SUM(s.quantity_sold), 0)::int AS units,
			COUNT(*)::int AS transactions
		FROM sales s
		JOIN medicines m ON m.medicine_id = s.medicine_id
		GROUP BY m.category
		ORDER BY m.category
	`

	if err := r.db.SelectContext(ctx, &aggregates, query); err != nil {
		return nil, err
	}

	return aggregates, nil
}

// SoldSince sums quantity sold per medicine since the given time. Medicines
// with no sales in the window are absent from the result.
func (r *SaleRepository) SoldSince(ctx context.Context, since time.Time) ([]*MedicineQuantity, error) {
	var quantities []*MedicineQuantity
	query := `
		SELECT medicine_id, COALESCE(SUM(quantity_sold), 0)::int AS quantity
		FROM sales
		WHERE sale_date >= $1
		GROUP BY medicine_id
	`

	if err := r.db.SelectContext(ctx, &quantities, query, since); err != nil {
		return nil, err
	}

	return quantities, nil
}

// MonthlyRevenue aggregates revenue per calendar month since the given time,
// oldest first. Months without sales are absent from the result.
func (r *SaleRepository) MonthlyRevenue(ctx context.Context, since time.Time) ([]*MonthlyPoint, error) {
	var points []*MonthlyPoint
	query := `
		SELECT to_char(sale_date, 'YYYY-MM') AS month,
			COALESCE(SUM(total_price), 0) AS revenue,
			COALESCE(SUM(quantity_sold), 0)::int AS quantity
		FROM sales
		WHERE sale_date >= $1
		GROUP BY to_char(sale_date, 'YYYY-MM')
		ORDER BY month
	`

	if err := r.db.SelectContext(ctx, &points, query, since); err != nil {
		return nil, err
	}

	return points, nil
}

// TopByRevenue lists the highest-revenue medicines since the given time
func (r *SaleRepository) TopByRevenue(ctx context.Context, since time.Time, limit int) ([]*MedicineRevenue, error) {
	var rows []*MedicineRevenue
	query := `
		SELECT m.medicine_id, m.name, m.category,
			COALESCE(SUM(s.quantity_sold), 0)::int AS quantity,
			COALESCE(SUM(s.total_price), 0) AS revenue
		FROM sales s
		JOIN medicines m ON m.medicine_id = s.medicine_id
		WHERE s.sale_date >= $1
		GROUP BY m.medicine_id, m.name, m.category
		ORDER BY revenue DESC
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &rows, query, since, limit); err != nil {
		return nil, err
	}

	return rows, nil
}
