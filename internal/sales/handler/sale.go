package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmstock/pharmstock-backend/internal/sales/repository"
	"github.com/pharmstock/pharmstock-backend/internal/sales/service"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
	"github.com/pharmstock/pharmstock-backend/pkg/httputil"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// SaleHandler handles sale transaction endpoints
type SaleHandler struct {
	engine *service.SaleEngine
	logger *logger.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(engine *service.SaleEngine, log *logger.Logger) *SaleHandler {
	return &SaleHandler{
		engine: engine,
		logger: log,
	}
}

// RecordSaleRequest is the payload for recording a sale. Exactly one of
// medicine_id or barcode addresses the medicine.
type RecordSaleRequest struct {
	MedicineID int64  `json:"medicine_id" validate:"required_without=Barcode,omitempty,gte=1"`
	Barcode    string `json:"barcode" validate:"required_without=MedicineID,omitempty,barcode13"`
	Quantity   int    `json:"quantity" validate:"required"`
}

// RecordBatchRequest is the payload for recording a batch of sales
type RecordBatchRequest struct {
	Sales []RecordSaleRequest `json:"sales" validate:"required,min=1,max=100,dive"`
}

// Record records a single sale
func (h *SaleHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.engine.RecordSale(r.Context(), service.SaleRequest{
		MedicineID: req.MedicineID,
		Barcode:    req.Barcode,
		Quantity:   req.Quantity,
		SellerID:   httputil.GetUserID(r.Context()),
	})
	if err != nil {
		h.writeSaleError(w, err)
		return
	}

	httputil.Created(w, result)
}

// RecordBatch records several sales as one all-or-nothing transaction
func (h *SaleHandler) RecordBatch(w http.ResponseWriter, r *http.Request) {
	var req RecordBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	sellerID := httputil.GetUserID(r.Context())
	reqs := make([]service.SaleRequest, len(req.Sales))
	for i, line := range req.Sales {
		reqs[i] = service.SaleRequest{
			MedicineID: line.MedicineID,
			Barcode:    line.Barcode,
			Quantity:   line.Quantity,
			SellerID:   sellerID,
		}
	}

	result, err := h.engine.RecordSaleBatch(r.Context(), reqs)
	if err != nil {
		h.writeSaleError(w, err)
		return
	}

	httputil.Created(w, result)
}

// History lists committed sales newest first
func (h *SaleHandler) History(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	opts := repository.HistoryOptions{
		Page:    page,
		PerPage: perPage,
	}

	if v := r.URL.Query().Get("medicine_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			httputil.Error(w, errors.BadRequest("invalid medicine_id"))
			return
		}
		opts.MedicineID = id
	}

	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse("2006-01-02", v)
		if err != nil {
			httputil.Error(w, errors.BadRequest("since must be formatted as YYYY-MM-DD"))
			return
		}
		opts.Since = &since
	}

	sales, total, err := h.engine.History(r.Context(), opts)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, sales, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Receipt renders a committed sale as a receipt
func (h *SaleHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httputil.Error(w, errors.BadRequest("invalid id"))
		return
	}

	receipt, err := h.engine.BuildReceipt(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, receipt)
}

// writeSaleError renders rejections with their substitute suggestions.
// Batch rejections name the offending line index in the error details.
func (h *SaleHandler) writeSaleError(w http.ResponseWriter, err error) {
	var rejection *service.Rejection
	if errors.As(err, &rejection) {
		appErr := rejection.AppErr
		if rejection.Line >= 0 {
			withLine := *appErr
			withLine.Details = map[string]string{"line": strconv.Itoa(rejection.Line)}
			for k, v := range appErr.Details {
				withLine.Details[k] = v
			}
			appErr = &withLine
		}
		httputil.ErrorWithAlternatives(w, appErr, rejection.Alternatives)
		return
	}

	httputil.Error(w, err)
}
