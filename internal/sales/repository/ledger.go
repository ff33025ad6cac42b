package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/pharmstock/pharmstock-backend/pkg/database"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
)

// LedgerRepository commits sales atomically. The stock decrement and the
// sale row are written in one transaction, and the decrement is conditional
// on sufficient stock so concurrent sales can never oversell.
type LedgerRepository struct {
	db *database.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CommitSale decrements stock and records the sale in one transaction.
// Returns the stock remaining after the decrement. When stock is
// insufficient at commit time the transaction aborts with InsufficientStock
// carrying the current stock level.
func (r *LedgerRepository) CommitSale(ctx context.Context, sale *Sale) (int, error) {
	var stockAfter int

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		stockAfter, err = commitOne(ctx, tx, sale)
		return err
	})
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return 0, appErr
		}
		return 0, err
	}

	return stockAfter, nil
}

// CommitBatch commits several sales in one transaction. Either every line
// commits or none does; the first failing line aborts the batch. Returns
// the stock remaining after each line, in input order.
func (r *LedgerRepository) CommitBatch(ctx context.Context, sales []*Sale) ([]int, error) {
	stockAfters := make([]int, len(sales))

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for i, sale := range sales {
			stockAfter, err := commitOne(ctx, tx, sale)
			if err != nil {
				return err
			}
			stockAfters[i] = stockAfter
		}
		return nil
	})
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return stockAfters, nil
}

func commitOne(ctx context.Context, tx *sqlx.Tx, sale *Sale) (int, error) {
	var stockAfter int
	decrement := `
		UPDATE medicines
		SET stock = stock - $2, updated_at = NOW()
		WHERE medicine_id = $1 AND stock >= $2
		RETURNING stock
	`

	err := tx.QueryRowxContext(ctx, decrement, sale.MedicineID, sale.Quantity).Scan(&stockAfter)
	if err == sql.ErrNoRows {
		// No row matched: either the medicine is gone or stock ran out
		// between validation and commit. Re-read to tell them apart.
		var available int
		err = tx.GetContext(ctx, &available, `SELECT stock FROM medicines WHERE medicine_id = $1`, sale.MedicineID)
		if err == sql.ErrNoRows {
			return 0, errors.NotFound("medicine")
		}
		if err != nil {
			return 0, err
		}
		return 0, errors.InsufficientStock(available)
	}
	if err != nil {
		return 0, err
	}

	insert := `
		INSERT INTO sales (medicine_id, seller_id, quantity_sold, unit_price, total_price, sale_date)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING sale_id, sale_date
	`

	err = tx.QueryRowxContext(ctx, insert,
		sale.MedicineID, sale.SellerID, sale.Quantity, sale.UnitPrice, sale.TotalPrice,
	).Scan(&sale.ID, &sale.SaleDate)
	if err != nil {
		return 0, err
	}

	return stockAfter, nil
}
