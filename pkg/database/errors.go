package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return mapUniqueConstraint(pqErr)

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Serialization failure (40001) - concurrent transactions collided
	case "40001":
		return errors.TransactionConflict()

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "stock_non_negative"):
		return errors.Conflict("stock would become negative")

	case strings.Contains(constraint, "quantity_sold_positive"):
		return errors.Validation(map[string]string{
			"quantity": "must be greater than zero",
		})

	case strings.Contains(constraint, "priority_range"):
		return errors.Validation(map[string]string{
			"priority": "must be between 1 and 10",
		})

	case strings.Contains(constraint, "barcode_format"):
		return errors.Validation(map[string]string{
			"barcode": "must be exactly 13 digits",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// mapUniqueConstraint creates a user-friendly error for unique constraint violations.
func mapUniqueConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "barcode"):
		return errors.DuplicateBarcode("")
	case strings.Contains(constraint, "email"):
		return errors.Conflict("a user with this email already exists")
	case strings.Contains(constraint, "alternative"):
		return errors.Conflict("this alternative mapping already exists")
	default:
		return errors.Conflict("a record with these values already exists")
	}
}
