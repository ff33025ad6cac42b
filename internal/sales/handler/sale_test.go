package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogrepo "github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	"github.com/pharmstock/pharmstock-backend/internal/sales/handler"
	salesrepo "github.com/pharmstock/pharmstock-backend/internal/sales/repository"
	"github.com/pharmstock/pharmstock-backend/internal/sales/service"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
	"github.com/pharmstock/pharmstock-backend/pkg/httputil"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// stubCatalog serves one medicine and its substitutes
type stubCatalog struct {
	medicine     *catalogrepo.Medicine
	alternatives []*catalogrepo.AlternativeOption
}

func (s *stubCatalog) GetByID(ctx context.Context, id int64) (*catalogrepo.Medicine, error) {
	if s.medicine == nil || s.medicine.ID != id {
		return nil, errors.NotFound("medicine")
	}
	return s.medicine, nil
}

func (s *stubCatalog) GetByBarcode(ctx context.Context, barcode string) (*catalogrepo.Medicine, error) {
	if s.medicine == nil || s.medicine.Barcode != barcode {
		return nil, errors.NotFound("medicine")
	}
	return s.medicine, nil
}

func (s *stubCatalog) AvailableAlternatives(ctx context.Context, primaryID int64, limit int) ([]*catalogrepo.AlternativeOption, error) {
	if len(s.alternatives) > limit {
		return s.alternatives[:limit], nil
	}
	return s.alternatives, nil
}

// stubLedger commits against a single stock counter
type stubLedger struct {
	stock  int
	nextID int64
}

func (s *stubLedger) CommitSale(ctx context.Context, sale *salesrepo.Sale) (int, error) {
	if s.stock < sale.Quantity {
		return 0, errors.InsufficientStock(s.stock)
	}
	s.stock -= sale.Quantity
	s.nextID++
	sale.ID = s.nextID
	sale.SaleDate = time.Now()
	return s.stock, nil
}

func (s *stubLedger) CommitBatch(ctx context.Context, sales []*salesrepo.Sale) ([]int, error) {
	before := s.stock
	committed := s.nextID
	stockAfters := make([]int, len(sales))
	for i, sale := range sales {
		after, err := s.CommitSale(ctx, sale)
		if err != nil {
			s.stock = before
			s.nextID = committed
			return nil, err
		}
		stockAfters[i] = after
	}
	return stockAfters, nil
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code         string            `json:"code"`
		Message      string            `json:"message"`
		Details      map[string]string `json:"details"`
		Alternatives []struct {
			MedicineID int64 `json:"medicine_id"`
		} `json:"alternatives"`
	} `json:"error"`
}

func newSaleHandler(catalog *stubCatalog, ledger *stubLedger) *handler.SaleHandler {
	log := logger.New("sale-handler-test", "development")
	engine := service.NewSaleEngine(catalog, ledger, nil, nil, log)
	return handler.NewSaleHandler(engine, log)
}

func testMedicine() *catalogrepo.Medicine {
	return &catalogrepo.Medicine{
		ID:           1,
		Name:         "Paracetamol",
		Manufacturer: "Cipla",
		Category:     "Fever",
		Price:        decimal.RequireFromString("25.50"),
		Stock:        50,
		ReorderLevel: 10,
		ExpiryDate:   time.Now().AddDate(1, 0, 0),
		Barcode:      "8901234567890",
	}
}

func decodeBody(rec *httptest.ResponseRecorder, v interface{}) error {
	return json.NewDecoder(rec.Body).Decode(v)
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(httputil.WithUser(req.Context(), 7, "seller@pharmacy.test", "seller"))

	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRecordBatch_RejectionNamesLine(t *testing.T) {
	catalog := &stubCatalog{
		medicine: testMedicine(),
		alternatives: []*catalogrepo.AlternativeOption{
			{MedicineID: 8, Name: "Ibuprofen", Priority: 9},
		},
	}
	h := newSaleHandler(catalog, &stubLedger{stock: 50})

	rec := postJSON(t, h.RecordBatch,
		`{"sales":[{"medicine_id":1,"quantity":2},{"medicine_id":1,"quantity":100}]}`)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope errorEnvelope
	require.NoError(t, decodeBody(rec, &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "INSUFFICIENT_STOCK", envelope.Error.Code)
	assert.Equal(t, "1", envelope.Error.Details["line"], "the failing line index must reach the caller")
	assert.Equal(t, "50", envelope.Error.Details["available_stock"])
	require.Len(t, envelope.Error.Alternatives, 1)
	assert.Equal(t, int64(8), envelope.Error.Alternatives[0].MedicineID)
}

func TestRecord_RejectionHasNoLine(t *testing.T) {
	catalog := &stubCatalog{medicine: testMedicine()}
	h := newSaleHandler(catalog, &stubLedger{stock: 50})

	rec := postJSON(t, h.Record, `{"medicine_id":1,"quantity":100}`)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope errorEnvelope
	require.NoError(t, decodeBody(rec, &envelope))
	assert.Equal(t, "INSUFFICIENT_STOCK", envelope.Error.Code)
	_, hasLine := envelope.Error.Details["line"]
	assert.False(t, hasLine, "single sales are not batch lines")
}

func TestRecord_Success(t *testing.T) {
	catalog := &stubCatalog{medicine: testMedicine()}
	h := newSaleHandler(catalog, &stubLedger{stock: 50})

	rec := postJSON(t, h.Record, `{"medicine_id":1,"quantity":2}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
}
