package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pharmstock/pharmstock-backend/pkg/database"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
)

// AlternativeMapping links a medicine to a substitute with a priority.
// Higher priority means a better substitute.
type AlternativeMapping struct {
	ID                    int64     `db:"alternative_id" json:"alternative_id"`
	PrimaryMedicineID     int64     `db:"primary_medicine_id" json:"primary_medicine_id"`
	AlternativeMedicineID int64     `db:"alternative_medicine_id" json:"alternative_medicine_id"`
	Priority              int       `db:"priority" json:"priority"`
	Reason                *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// AlternativeOption is a sellable substitute suggestion
type AlternativeOption struct {
	MedicineID   int64           `db:"medicine_id" json:"medicine_id"`
	Name         string          `db:"name" json:"name"`
	Manufacturer string          `db:"manufacturer" json:"manufacturer"`
	Category     string          `db:"category" json:"category"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Stock        int             `db:"stock" json:"stock"`
	Barcode      string          `db:"barcode" json:"barcode"`
	Priority     int             `db:"priority" json:"priority"`
	Reason       *string         `db:"reason" json:"reason,omitempty"`
}

// AlternativeRepository handles alternative medicine mappings
type AlternativeRepository struct {
	db *database.DB
}

// NewAlternativeRepository creates a new alternative repository
func NewAlternativeRepository(db *database.DB) *AlternativeRepository {
	return &AlternativeRepository{db: db}
}

// Create inserts a new alternative mapping. The (primary, alternative) pair
// is unique and a medicine cannot be its own alternative.
func (r *AlternativeRepository) Create(ctx context.Context, m *AlternativeMapping) error {
	if m.PrimaryMedicineID == m.AlternativeMedicineID {
		return errors.BadRequest("a medicine cannot be its own alternative")
	}

	query := `
		INSERT INTO alternative_medicines (primary_medicine_id, alternative_medicine_id, priority, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING alternative_id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		m.PrimaryMedicineID, m.AlternativeMedicineID, m.Priority, m.Reason,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// ListForMedicine lists all mappings for a primary medicine, best first
func (r *AlternativeRepository) ListForMedicine(ctx context.Context, primaryID int64) ([]*AlternativeMapping, error) {
	var mappings []*AlternativeMapping
	query := `
		SELECT alternative_id, primary_medicine_id, alternative_medicine_id, priority, reason, created_at
		FROM alternative_medicines
		WHERE primary_medicine_id = $1
		ORDER BY priority DESC
	`

	if err := r.db.SelectContext(ctx, &mappings, query, primaryID); err != nil {
		return nil, err
	}

	return mappings, nil
}

// AvailableAlternatives returns sellable substitutes for a medicine: in
// stock, not expired, ordered by priority descending, at most limit entries.
func (r *AlternativeRepository) AvailableAlternatives(ctx context.Context, primaryID int64, limit int) ([]*AlternativeOption, error) {
	var options []*AlternativeOption
	query := `
		SELECT m.medicine_id, m.name, m.manufacturer, m.category, m.price,
			m.stock, m.barcode, a.priority, a.reason
		FROM alternative_medicines a
		JOIN medicines m ON m.medicine_id = a.alternative_medicine_id
		WHERE a.primary_medicine_id = $1
			AND m.stock > 0
			AND m.expiry_date >= CURRENT_DATE
		ORDER BY a.priority DESC
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &options, query, primaryID, limit); err != nil {
		return nil, err
	}

	return options, nil
}

// Delete removes an alternative mapping
func (r *AlternativeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM alternative_medicines WHERE alternative_id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("alternative mapping")
	}

	return nil
}
