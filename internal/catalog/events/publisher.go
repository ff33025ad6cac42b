package events

import (
	"context"

	"github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
	"github.com/pharmstock/pharmstock-backend/pkg/messaging"
)

// CatalogEventPublisher publishes catalog-related events
type CatalogEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewCatalogEventPublisher creates a new catalog event publisher
func NewCatalogEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*CatalogEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeCatalogEvents, "warehouse-service", log)
	if err != nil {
		return nil, err
	}

	return &CatalogEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishMedicineCreated publishes a medicine created event
func (p *CatalogEventPublisher) PublishMedicineCreated(ctx context.Context, m *repository.Medicine) {
	if p == nil {
		return
	}

	data := messaging.MedicineCreatedEvent{
		MedicineID: m.ID,
		Name:       m.Name,
		Category:   m.Category,
		Barcode:    m.Barcode,
	}

	if err := p.publisher.Publish(ctx, messaging.EventMedicineCreated, data); err != nil {
		p.logger.Error().Err(err).Int64("medicine_id", m.ID).Msg("failed to publish medicine created event")
	}
}

// PublishMedicineUpdated publishes a medicine updated event
func (p *CatalogEventPublisher) PublishMedicineUpdated(ctx context.Context, m *repository.Medicine) {
	if p == nil {
		return
	}

	data := messaging.MedicineCreatedEvent{
		MedicineID: m.ID,
		Name:       m.Name,
		Category:   m.Category,
		Barcode:    m.Barcode,
	}

	if err := p.publisher.Publish(ctx, messaging.EventMedicineUpdated, data); err != nil {
		p.logger.Error().Err(err).Int64("medicine_id", m.ID).Msg("failed to publish medicine updated event")
	}
}

// PublishMedicineDeleted publishes a medicine deleted event
func (p *CatalogEventPublisher) PublishMedicineDeleted(ctx context.Context, id int64) {
	if p == nil {
		return
	}

	data := map[string]int64{"medicine_id": id}

	if err := p.publisher.Publish(ctx, messaging.EventMedicineDeleted, data); err != nil {
		p.logger.Error().Err(err).Int64("medicine_id", id).Msg("failed to publish medicine deleted event")
	}
}
