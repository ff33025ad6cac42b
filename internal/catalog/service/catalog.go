package service

import (
	"context"

	"github.com/pharmstock/pharmstock-backend/internal/catalog/events"
	"github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// CatalogService handles medicine catalog business logic
type CatalogService struct {
	medicineRepo    *repository.MedicineRepository
	alternativeRepo *repository.AlternativeRepository
	publisher       *events.CatalogEventPublisher
	logger          *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	medicineRepo *repository.MedicineRepository,
	alternativeRepo *repository.AlternativeRepository,
	publisher *events.CatalogEventPublisher,
	log *logger.Logger,
) *CatalogService {
	return &CatalogService{
		medicineRepo:    medicineRepo,
		alternativeRepo: alternativeRepo,
		publisher:       publisher,
		logger:          log,
	}
}

// CreateMedicine creates a new catalog entry
func (s *CatalogService) CreateMedicine(ctx context.Context, m *repository.Medicine) error {
	if !repository.ValidCategory(m.Category) {
		return errors.BadRequest("unknown category: " + m.Category)
	}

	if err := s.medicineRepo.Create(ctx, m); err != nil {
		return err
	}

	s.publisher.PublishMedicineCreated(ctx, m)
	return nil
}

// GetMedicine gets a medicine by ID
func (s *CatalogService) GetMedicine(ctx context.Context, id int64) (*repository.Medicine, error) {
	return s.medicineRepo.GetByID(ctx, id)
}

// GetMedicineByBarcode gets a medicine by barcode
func (s *CatalogService) GetMedicineByBarcode(ctx context.Context, barcode string) (*repository.Medicine, error) {
	return s.medicineRepo.GetByBarcode(ctx, barcode)
}

// ListMedicines lists medicines with filtering and pagination
func (s *CatalogService) ListMedicines(ctx context.Context, opts repository.ListOptions) ([]*repository.Medicine, int64, error) {
	return s.medicineRepo.List(ctx, opts)
}

// UpdateMedicine updates a medicine's attributes
func (s *CatalogService) UpdateMedicine(ctx context.Context, m *repository.Medicine) error {
	if !repository.ValidCategory(m.Category) {
		return errors.BadRequest("unknown category: " + m.Category)
	}

	if err := s.medicineRepo.Update(ctx, m); err != nil {
		return err
	}

	s.publisher.PublishMedicineUpdated(ctx, m)
	return nil
}

// RestockMedicine increases a medicine's stock
func (s *CatalogService) RestockMedicine(ctx context.Context, id int64, quantity int) (*repository.Medicine, error) {
	if err := s.medicineRepo.Restock(ctx, id, quantity); err != nil {
		return nil, err
	}

	return s.medicineRepo.GetByID(ctx, id)
}

// DeleteMedicine removes a medicine from the catalog
func (s *CatalogService) DeleteMedicine(ctx context.Context, id int64) error {
	if err := s.medicineRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishMedicineDeleted(ctx, id)
	return nil
}

// ListLowStock lists medicines at or below their reorder level
func (s *CatalogService) ListLowStock(ctx context.Context) ([]*repository.Medicine, error) {
	return s.medicineRepo.ListLowStock(ctx)
}

// ListExpiring lists medicines expiring within the given number of days
func (s *CatalogService) ListExpiring(ctx context.Context, days int) ([]*repository.Medicine, error) {
	return s.medicineRepo.ListExpiring(ctx, days)
}

// Categories returns the fixed category set
func (s *CatalogService) Categories() []string {
	return repository.Categories
}

// Alternative mappings

// CreateAlternative links a substitute to a primary medicine. Both sides
// must exist in the catalog.
func (s *CatalogService) CreateAlternative(ctx context.Context, m *repository.AlternativeMapping) error {
	if _, err := s.medicineRepo.GetByID(ctx, m.PrimaryMedicineID); err != nil {
		return err
	}
	if _, err := s.medicineRepo.GetByID(ctx, m.AlternativeMedicineID); err != nil {
		return err
	}

	return s.alternativeRepo.Create(ctx, m)
}

// ListAlternatives lists all mappings for a primary medicine
func (s *CatalogService) ListAlternatives(ctx context.Context, primaryID int64) ([]*repository.AlternativeMapping, error) {
	if _, err := s.medicineRepo.GetByID(ctx, primaryID); err != nil {
		return nil, err
	}

	return s.alternativeRepo.ListForMedicine(ctx, primaryID)
}

// AvailableAlternatives returns sellable substitutes for a medicine
func (s *CatalogService) AvailableAlternatives(ctx context.Context, primaryID int64, limit int) ([]*repository.AlternativeOption, error) {
	if _, err := s.medicineRepo.GetByID(ctx, primaryID); err != nil {
		return nil, err
	}

	return s.alternativeRepo.AvailableAlternatives(ctx, primaryID, limit)
}

// DeleteAlternative removes an alternative mapping
func (s *CatalogService) DeleteAlternative(ctx context.Context, id int64) error {
	return s.alternativeRepo.Delete(ctx, id)
}
