package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Sale events
	EventSaleRecorded = "sales.sale.recorded"

	// Stock events
	EventStockLow      = "catalog.stock.low"
	EventStockDepleted = "catalog.stock.depleted"

	// Catalog events
	EventMedicineCreated = "catalog.medicine.created"
	EventMedicineUpdated = "catalog.medicine.updated"
	EventMedicineDeleted = "catalog.medicine.deleted"
)

// Exchange names
const (
	ExchangeSalesEvents   = "sales.events"
	ExchangeCatalogEvents = "catalog.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// SaleRecordedEvent is published when a sale is committed
type SaleRecordedEvent struct {
	SaleID     int64  `json:"sale_id"`
	MedicineID int64  `json:"medicine_id"`
	SellerID   int64  `json:"seller_id"`
	Quantity   int    `json:"quantity"`
	TotalPrice string `json:"total_price"`
	StockAfter int    `json:"stock_after"`
}

// StockLowEvent is published when a sale drops stock to or below the reorder level
type StockLowEvent struct {
	MedicineID   int64  `json:"medicine_id"`
	MedicineName string `json:"medicine_name"`
	Stock        int    `json:"stock"`
	ReorderLevel int    `json:"reorder_level"`
}

// StockDepletedEvent is published when a sale drops stock to zero
type StockDepletedEvent struct {
	MedicineID   int64  `json:"medicine_id"`
	MedicineName string `json:"medicine_name"`
}

// MedicineCreatedEvent is published when a medicine is added to the catalog
type MedicineCreatedEvent struct {
	MedicineID int64  `json:"medicine_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Barcode    string `json:"barcode"`
}
