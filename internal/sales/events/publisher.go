package events

import (
	"context"

	"github.com/pharmstock/pharmstock-backend/internal/sales/repository"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
	"github.com/pharmstock/pharmstock-backend/pkg/messaging"
)

// SaleEventPublisher publishes sale-related events
type SaleEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewSaleEventPublisher creates a new sale event publisher
func NewSaleEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*SaleEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeSalesEvents, "warehouse-service", log)
	if err != nil {
		return nil, err
	}

	return &SaleEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishSaleRecorded publishes a sale recorded event
func (p *SaleEventPublisher) PublishSaleRecorded(ctx context.Context, sale *repository.Sale, stockAfter int) {
	if p == nil {
		return
	}

	data := messaging.SaleRecordedEvent{
		SaleID:     sale.ID,
		MedicineID: sale.MedicineID,
		SellerID:   sale.SellerID,
		Quantity:   sale.Quantity,
		TotalPrice: sale.TotalPrice.String(),
		StockAfter: stockAfter,
	}

	if err := p.publisher.Publish(ctx, messaging.EventSaleRecorded, data); err != nil {
		p.logger.Error().Err(err).Int64("sale_id", sale.ID).Msg("failed to publish sale recorded event")
	}
}

// PublishStockLow publishes a stock low event
func (p *SaleEventPublisher) PublishStockLow(ctx context.Context, medicineID int64, name string, stock, reorderLevel int) {
	if p == nil {
		return
	}

	data := messaging.StockLowEvent{
		MedicineID:   medicineID,
		MedicineName: name,
		Stock:        stock,
		ReorderLevel: reorderLevel,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockLow, data); err != nil {
		p.logger.Error().Err(err).Int64("medicine_id", medicineID).Msg("failed to publish stock low event")
	}
}

// PublishStockDepleted publishes a stock depleted event
func (p *SaleEventPublisher) PublishStockDepleted(ctx context.Context, medicineID int64, name string) {
	if p == nil {
		return
	}

	data := messaging.StockDepletedEvent{
		MedicineID:   medicineID,
		MedicineName: name,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockDepleted, data); err != nil {
		p.logger.Error().Err(err).Int64("medicine_id", medicineID).Msg("failed to publish stock depleted event")
	}
}
