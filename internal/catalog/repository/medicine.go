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

// Categories is the fixed set of medicine categories
var Categories = []string{
	"Allergy",
	"Cold and Mild Flu",
	"Cough",
	"Dermatology",
	"Eye/ENT",
	"Fever",
	"Pain Relief",
	"Vitamins",
	"Women Hygiene",
}

// ValidCategory reports whether the given category belongs to the fixed set
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Medicine represents a catalog entry
type Medicine struct {
	ID           int64           `db:"medicine_id" json:"medicine_id"`
	Name         string          `db:"name" json:"name"`
	Description  *string         `db:"description" json:"description,omitempty"`
	Manufacturer string          `db:"manufacturer" json:"manufacturer"`
	Category     string          `db:"category" json:"category"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Stock        int             `db:"stock" json:"stock"`
	ReorderLevel int             `db:"reorder_level" json:"reorder_level"`
	ExpiryDate   time.Time       `db:"expiry_date" json:"expiry_date"`
	Barcode      string          `db:"barcode" json:"barcode"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// IsExpired reports whether the medicine's expiry date is strictly before today
func (m *Medicine) IsExpired() bool {
	return m.IsExpiredAt(time.Now())
}

// IsExpiredAt reports expiry relative to the given moment (date precision)
func (m *Medicine) IsExpiredAt(now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	expiry := time.Date(m.ExpiryDate.Year(), m.ExpiryDate.Month(), m.ExpiryDate.Day(), 0, 0, 0, 0, time.UTC)
	return expiry.Before(today)
}

// IsLowStock reports whether stock has reached the reorder level
func (m *Medicine) IsLowStock() bool {
	return m.Stock <= m.ReorderLevel
}

const medicineColumns = `
	medicine_id, name, description, manufacturer, category, price, stock,
	reorder_level, expiry_date, barcode, created_at, updated_at`

// MedicineRepository handles medicine persistence
type MedicineRepository struct {
	db *database.DB
}

// NewMedicineRepository creates a new medicine repository
func NewMedicineRepository(db *database.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

// Create inserts a new medicine. Barcode uniqueness is enforced by the
// database; violations surface as DuplicateBarcode.
func (r *MedicineRepository) Create(ctx context.Context, m *Medicine) error {
	query := `
		INSERT INTO medicines (name, description, manufacturer, category, price,
			stock, reorder_level, expiry_date, barcode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING medicine_id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		m.Name, m.Description, m.Manufacturer, m.Category, m.Price,
		m.Stock, m.ReorderLevel, m.ExpiryDate, m.Barcode,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			if errors.Is(appErr, errors.ErrDuplicateBarcode) {
				return errors.DuplicateBarcode(m.Barcode)
			}
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a medicine by its id
func (r *MedicineRepository) GetByID(ctx context.Context, id int64) (*Medicine, error) {
	var m Medicine
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE medicine_id = $1`

	err := r.db.GetContext(ctx, &m, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("medicine")
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// GetByBarcode gets a medicine by its 13-digit barcode
func (r *MedicineRepository) GetByBarcode(ctx context.Context, barcode string) (*Medicine, error) {
	var m Medicine
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE barcode = $1`

	err := r.db.GetContext(ctx, &m, query, barcode)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("medicine")
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// ListOptions filters and orders a catalog listing
type ListOptions struct {
	Search   string
	Category string
	SortBy   string
	Page     int
	PerPage  int
}

// List lists medicines with search, category filter, sorting and pagination
func (r *MedicineRepository) List(ctx context.Context, opts ListOptions) ([]*Medicine, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if opts.Search != "" {
		args = append(args, "%"+opts.Search+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR manufacturer ILIKE $%d OR barcode ILIKE $%d)`,
			len(args), len(args), len(args))
	}

	if opts.Category != "" {
		args = append(args, opts.Category)
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM medicines`+where, args...); err != nil {
		return nil, 0, err
	}

	orderBy := ` ORDER BY name`
	switch opts.SortBy {
	case "price":
		orderBy = ` ORDER BY price`
	case "stock":
		orderBy = ` ORDER BY stock`
	case "expiry":
		orderBy = ` ORDER BY expiry_date`
	}

	offset := (opts.Page - 1) * opts.PerPage
	args = append(args, opts.PerPage, offset)
	query := `SELECT ` + medicineColumns + ` FROM medicines` + where + orderBy +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var medicines []*Medicine
	if err := r.db.SelectContext(ctx, &medicines, query, args...); err != nil {
		return nil, 0, err
	}

	return medicines, total, nil
}

// All returns every medicine in the catalog
func (r *MedicineRepository) All(ctx context.Context) ([]*Medicine, error) {
	var medicines []*Medicine
	query := `SELECT ` + medicineColumns + ` FROM medicines ORDER BY medicine_id`

	if err := r.db.SelectContext(ctx, &medicines, query); err != nil {
		return nil, err
	}

	return medicines, nil
}

// Update updates a medicine's attributes. Stock is not updated here; sales
// mutate it through the ledger's conditional decrement, restocks through Restock.
func (r *MedicineRepository) Update(ctx context.Context, m *Medicine) error {
	query := `
		UPDATE medicines SET
			name = $2, description = $3, manufacturer = $4, category = $5,
			price = $6, reorder_level = $7, expiry_date = $8, barcode = $9,
			updated_at = NOW()
		WHERE medicine_id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Description, m.Manufacturer, m.Category,
		m.Price, m.ReorderLevel, m.ExpiryDate, m.Barcode,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			if errors.Is(appErr, errors.ErrDuplicateBarcode) {
				return errors.DuplicateBarcode(m.Barcode)
			}
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("medicine")
	}

	return nil
}

// Restock increments stock by the given quantity
func (r *MedicineRepository) Restock(ctx context.Context, id int64, quantity int) error {
	if quantity < 1 {
		return errors.InvalidQuantity(quantity)
	}

	query := `UPDATE medicines SET stock = stock + $2, updated_at = NOW() WHERE medicine_id = $1`
	result, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("medicine")
	}

	return nil
}

// Delete removes a medicine. Medicines referenced by sales are protected by
// the ledger's foreign key and surface as a Conflict.
func (r *MedicineRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE medicine_id = $1`, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return errors.Conflict("medicine has recorded sales and cannot be deleted")
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("medicine")
	}

	return nil
}

// ListLowStock returns medicines at or below their reorder level
func (r *MedicineRepository) ListLowStock(ctx context.Context) ([]*Medicine, error) {
	var medicines []*Medicine
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE stock <= reorder_level ORDER BY stock`

	if err := r.db.SelectContext(ctx, &medicines, query); err != nil {
		return nil, err
	}

	return medicines, nil
}

// ListExpiring returns medicines expiring within the given number of days
func (r *MedicineRepository) ListExpiring(ctx context.Context, days int) ([]*Medicine, error) {
	var medicines []*Medicine
	query := `SELECT ` + medicineColumns + ` FROM medicines
		WHERE expiry_date <= CURRENT_DATE + $1 * INTERVAL '1 day'
		ORDER BY expiry_date`

	if err := r.db.SelectContext(ctx, &medicines, query, days); err != nil {
		return nil, err
	}

	return medicines, nil
}
