package service

import (
	"context"

	catalogrepo "github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
)

// RepositoryCatalog adapts the catalog repositories to the engine's Catalog
// interface: medicine lookups come from the medicine repository, substitute
// suggestions from the alternative repository.
type RepositoryCatalog struct {
	medicines    *catalogrepo.MedicineRepository
	alternatives *catalogrepo.AlternativeRepository
}

var _ Catalog = (*RepositoryCatalog)(nil)

// NewRepositoryCatalog creates a catalog backed by the two repositories
func NewRepositoryCatalog(medicines *catalogrepo.MedicineRepository, alternatives *catalogrepo.AlternativeRepository) *RepositoryCatalog {
	return &RepositoryCatalog{
		medicines:    medicines,
		alternatives: alternatives,
	}
}

// GetByID loads a medicine by its id
func (c *RepositoryCatalog) GetByID(ctx context.Context, id int64) (*catalogrepo.Medicine, error) {
	return c.medicines.GetByID(ctx, id)
}

// GetByBarcode loads a medicine by its barcode
func (c *RepositoryCatalog) GetByBarcode(ctx context.Context, barcode string) (*catalogrepo.Medicine, error) {
	return c.medicines.GetByBarcode(ctx, barcode)
}

// AvailableAlternatives lists sellable substitutes for a medicine
func (c *RepositoryCatalog) AvailableAlternatives(ctx context.Context, primaryID int64, limit int) ([]*catalogrepo.AlternativeOption, error) {
	return c.alternatives.AvailableAlternatives(ctx, primaryID, limit)
}
