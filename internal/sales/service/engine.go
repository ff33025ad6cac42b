package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	catalogrepo "github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	"github.com/pharmstock/pharmstock-backend/internal/sales/events"
	"github.com/pharmstock/pharmstock-backend/internal/sales/repository"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// maxAlternatives caps how many substitutes a rejection carries
const maxAlternatives = 3

// Catalog is the catalog access the engine needs
type Catalog interface {
	GetByID(ctx context.Context, id int64) (*catalogrepo.Medicine, error)
	GetByBarcode(ctx context.Context, barcode string) (*catalogrepo.Medicine, error)
	AvailableAlternatives(ctx context.Context, primaryID int64, limit int) ([]*catalogrepo.AlternativeOption, error)
}

// Ledger commits validated sales atomically
type Ledger interface {
	CommitSale(ctx context.Context, sale *repository.Sale) (int, error)
	CommitBatch(ctx context.Context, sales []*repository.Sale) ([]int, error)
}

// ReportInvalidator drops cached analytics reports after a commit changes
// the ledger they were rendered from
type ReportInvalidator interface {
	InvalidateReports(ctx context.Context)
}

// Rejection is a refused sale. It wraps the taxonomy error and carries the
// medicine context and substitute suggestions for the response.
type Rejection struct {
	AppErr       *errors.AppError
	MedicineID   int64
	MedicineName string
	Alternatives []*catalogrepo.AlternativeOption
	Line         int
}

// Error implements the error interface
func (r *Rejection) Error() string {
	if r.Line >= 0 {
		return fmt.Sprintf("line %d: %s", r.Line, r.AppErr.Error())
	}
	return r.AppErr.Error()
}

// Unwrap returns the wrapped taxonomy error
func (r *Rejection) Unwrap() error {
	return r.AppErr
}

// SaleRequest is a single sale to record. The medicine is addressed either
// by its id or by its barcode.
type SaleRequest struct {
	MedicineID int64
	Barcode    string
	Quantity   int
	SellerID   int64
}

// SaleResult is a committed sale with its stock outcome
type SaleResult struct {
	Sale            *repository.Sale `json:"sale"`
	StockAfter      int              `json:"stock_after"`
	LowStockWarning bool             `json:"low_stock_warning"`
}

// BatchResult is the outcome of a committed batch
type BatchResult struct {
	Results     []*SaleResult   `json:"results"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// SaleEngine validates and commits sale transactions
type SaleEngine struct {
	catalog   Catalog
	ledger    Ledger
	saleRepo  *repository.SaleRepository
	publisher *events.SaleEventPublisher
	reports   ReportInvalidator
	logger    *logger.Logger
}

// NewSaleEngine creates a new sale engine
func NewSaleEngine(
	catalog Catalog,
	ledger Ledger,
	saleRepo *repository.SaleRepository,
	publisher *events.SaleEventPublisher,
	log *logger.Logger,
) *SaleEngine {
	return &SaleEngine{
		catalog:   catalog,
		ledger:    ledger,
		saleRepo:  saleRepo,
		publisher: publisher,
		logger:    log,
	}
}

// WithReportInvalidator attaches the analytics cache invalidation hook
func (e *SaleEngine) WithReportInvalidator(reports ReportInvalidator) *SaleEngine {
	e.reports = reports
	return e
}

// RecordSale validates and commits a single sale. Validation checks run in
// a fixed order: unknown medicine, expired, insufficient stock, invalid
// quantity. Expiry and stock rejections carry up to three sellable
// alternatives. The commit itself re-checks stock, so a concurrent sale
// can still surface InsufficientStock here.
func (e *SaleEngine) RecordSale(ctx context.Context, req SaleRequest) (*SaleResult, error) {
	medicine, sale, err := e.validate(ctx, req, -1)
	if err != nil {
		return nil, err
	}

	stockAfter, err := e.ledger.CommitSale(ctx, sale)
	if err != nil {
		return nil, e.enrichCommitError(ctx, err, medicine, -1)
	}

	result := e.finalize(ctx, medicine, sale, stockAfter)
	e.invalidateReports(ctx)

	e.logger.Info().
		Int64("sale_id", sale.ID).
		Int64("medicine_id", medicine.ID).
		Int("quantity", sale.Quantity).
		Int("stock_after", stockAfter).
		Msg("sale recorded")

	return result, nil
}

// RecordSaleBatch validates and commits several sales as one transaction.
// Every line is validated before anything is written; any rejection refuses
// the whole batch and names the offending line.
func (e *SaleEngine) RecordSaleBatch(ctx context.Context, reqs []SaleRequest) (*BatchResult, error) {
	if len(reqs) == 0 {
		return nil, errors.BadRequest("batch must contain at least one sale")
	}

	medicines := make([]*catalogrepo.Medicine, len(reqs))
	sales := make([]*repository.Sale, len(reqs))

	for i, req := range reqs {
		medicine, sale, err := e.validate(ctx, req, i)
		if err != nil {
			return nil, err
		}
		medicines[i] = medicine
		sales[i] = sale
	}

	stockAfters, err := e.ledger.CommitBatch(ctx, sales)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{
		Results:     make([]*SaleResult, len(sales)),
		TotalAmount: decimal.Zero,
	}

	for i, sale := range sales {
		batch.Results[i] = e.finalize(ctx, medicines[i], sale, stockAfters[i])
		batch.TotalAmount = batch.TotalAmount.Add(sale.TotalPrice)
	}
	e.invalidateReports(ctx)

	e.logger.Info().
		Int("lines", len(sales)).
		Str("total_amount", batch.TotalAmount.String()).
		Msg("sale batch recorded")

	return batch, nil
}

// validate runs the rejection chain for one request and builds the sale row
func (e *SaleEngine) validate(ctx context.Context, req SaleRequest, line int) (*catalogrepo.Medicine, *repository.Sale, error) {
	medicine, err := e.resolve(ctx, req)
	if err != nil {
		if line >= 0 {
			if appErr, ok := err.(*errors.AppError); ok {
				return nil, nil, &Rejection{AppErr: appErr, MedicineID: req.MedicineID, Line: line}
			}
		}
		return nil, nil, err
	}

	if medicine.IsExpired() {
		return nil, nil, e.reject(ctx, errors.Expired(medicine.Name), medicine, line)
	}

	if req.Quantity > 0 && medicine.Stock < req.Quantity {
		return nil, nil, e.reject(ctx, errors.InsufficientStock(medicine.Stock), medicine, line)
	}

	if req.Quantity < 1 {
		rej := &Rejection{
			AppErr:       errors.InvalidQuantity(req.Quantity),
			MedicineID:   medicine.ID,
			MedicineName: medicine.Name,
			Line:         line,
		}
		return nil, nil, rej
	}

	total := medicine.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
	sale := &repository.Sale{
		MedicineID:   medicine.ID,
		MedicineName: medicine.Name,
		SellerID:     req.SellerID,
		Quantity:     req.Quantity,
		UnitPrice:    medicine.Price,
		TotalPrice:   total,
	}

	return medicine, sale, nil
}

// resolve loads the medicine by id or barcode
func (e *SaleEngine) resolve(ctx context.Context, req SaleRequest) (*catalogrepo.Medicine, error) {
	if req.Barcode != "" {
		return e.catalog.GetByBarcode(ctx, req.Barcode)
	}
	if req.MedicineID > 0 {
		return e.catalog.GetByID(ctx, req.MedicineID)
	}
	return nil, errors.BadRequest("medicine_id or barcode is required")
}

// reject builds a rejection carrying sellable alternatives
func (e *SaleEngine) reject(ctx context.Context, appErr *errors.AppError, medicine *catalogrepo.Medicine, line int) *Rejection {
	alternatives, err := e.catalog.AvailableAlternatives(ctx, medicine.ID, maxAlternatives)
	if err != nil {
		e.logger.Warn().Err(err).Int64("medicine_id", medicine.ID).Msg("failed to load alternatives for rejection")
		alternatives = nil
	}

	return &Rejection{
		AppErr:       appErr,
		MedicineID:   medicine.ID,
		MedicineName: medicine.Name,
		Alternatives: alternatives,
		Line:         line,
	}
}

// enrichCommitError attaches alternatives when the commit-time stock check fails
func (e *SaleEngine) enrichCommitError(ctx context.Context, err error, medicine *catalogrepo.Medicine, line int) error {
	if appErr, ok := err.(*errors.AppError); ok && errors.Is(appErr, errors.ErrInsufficientStock) {
		return e.reject(ctx, appErr, medicine, line)
	}
	return err
}

// invalidateReports drops cached analytics reports once per commit
func (e *SaleEngine) invalidateReports(ctx context.Context) {
	if e.reports != nil {
		e.reports.InvalidateReports(ctx)
	}
}

// finalize builds the result and publishes the outcome events
func (e *SaleEngine) finalize(ctx context.Context, medicine *catalogrepo.Medicine, sale *repository.Sale, stockAfter int) *SaleResult {
	result := &SaleResult{
		Sale:            sale,
		StockAfter:      stockAfter,
		LowStockWarning: stockAfter <= medicine.ReorderLevel,
	}

	e.publisher.PublishSaleRecorded(ctx, sale, stockAfter)
	if stockAfter == 0 {
		e.publisher.PublishStockDepleted(ctx, medicine.ID, medicine.Name)
	}
	if result.LowStockWarning {
		e.publisher.PublishStockLow(ctx, medicine.ID, medicine.Name, stockAfter, medicine.ReorderLevel)
	}

	return result
}

// GetSale gets a sale by ID for a receipt
func (e *SaleEngine) GetSale(ctx context.Context, id int64) (*repository.Sale, error) {
	return e.saleRepo.GetByID(ctx, id)
}

// History lists committed sales newest first
func (e *SaleEngine) History(ctx context.Context, opts repository.HistoryOptions) ([]*repository.Sale, int64, error) {
	return e.saleRepo.History(ctx, opts)
}

// Receipt is a printable record of a committed sale
type Receipt struct {
	SaleID       int64           `json:"sale_id"`
	MedicineID   int64           `json:"medicine_id"`
	MedicineName string          `json:"medicine_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	SoldAt       time.Time       `json:"sold_at"`
	Season       string          `json:"season"`
}

// BuildReceipt loads a sale and renders its receipt
func (e *SaleEngine) BuildReceipt(ctx context.Context, saleID int64) (*Receipt, error) {
	sale, err := e.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	return &Receipt{
		SaleID:       sale.ID,
		MedicineID:   sale.MedicineID,
		MedicineName: sale.MedicineName,
		Quantity:     sale.Quantity,
		UnitPrice:    sale.UnitPrice,
		TotalPrice:   sale.TotalPrice,
		SoldAt:       sale.SaleDate,
		Season:       sale.Season(),
	}, nil
}
