package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	"github.com/pharmstock/pharmstock-backend/internal/catalog/service"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
	"github.com/pharmstock/pharmstock-backend/pkg/httputil"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// MedicineHandler handles medicine catalog endpoints
type MedicineHandler struct {
	service *service.CatalogService
	logger  *logger.Logger
}

// NewMedicineHandler creates a new medicine handler
func NewMedicineHandler(svc *service.CatalogService, log *logger.Logger) *MedicineHandler {
	return &MedicineHandler{
		service: svc,
		logger:  log,
	}
}

// CreateMedicineRequest is the payload for creating a medicine
type CreateMedicineRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=255"`
	Description  *string `json:"description"`
	Manufacturer string  `json:"manufacturer" validate:"required,min=1,max=255"`
	Category     string  `json:"category" validate:"required"`
	Price        string  `json:"price" validate:"required"`
	Stock        int     `json:"stock" validate:"gte=0"`
	ReorderLevel int     `json:"reorder_level" validate:"gte=0"`
	ExpiryDate   string  `json:"expiry_date" validate:"required"`
	Barcode      string  `json:"barcode" validate:"required,barcode13"`
}

func (req *CreateMedicineRequest) toMedicine() (*repository.Medicine, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, errors.BadRequest("price must be a non-negative decimal")
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return nil, errors.BadRequest("expiry_date must be formatted as YYYY-MM-DD")
	}

	return &repository.Medicine{
		Name:         req.Name,
		Description:  req.Description,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		Price:        price,
		Stock:        req.Stock,
		ReorderLevel: req.ReorderLevel,
		ExpiryDate:   expiry,
		Barcode:      req.Barcode,
	}, nil
}

// Create creates a new medicine
func (h *MedicineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMedicineRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	medicine, err := req.toMedicine()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.CreateMedicine(r.Context(), medicine); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, medicine)
}

// List lists medicines with search, category filter, sorting and pagination
func (h *MedicineHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	opts := repository.ListOptions{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		SortBy:   r.URL.Query().Get("sort_by"),
		Page:     page,
		PerPage:  perPage,
	}

	medicines, total, err := h.service.ListMedicines(r.Context(), opts)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, medicines, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get gets a medicine by ID
func (h *MedicineHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	medicine, err := h.service.GetMedicine(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, medicine)
}

// GetByBarcode looks up a medicine by its barcode
func (h *MedicineHandler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")

	medicine, err := h.service.GetMedicineByBarcode(r.Context(), barcode)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, medicine)
}

// Update updates a medicine
func (h *MedicineHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req CreateMedicineRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	medicine, err := req.toMedicine()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	medicine.ID = id
	if err := h.service.UpdateMedicine(r.Context(), medicine); err != nil {
		httputil.Error(w, err)
		return
	}

	updated, err := h.service.GetMedicine(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, updated)
}

// RestockRequest is the payload for restocking a medicine
type RestockRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// Restock increases a medicine's stock
func (h *MedicineHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req RestockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	medicine, err := h.service.RestockMedicine(r.Context(), id, req.Quantity)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, medicine)
}

// Delete removes a medicine from the catalog
func (h *MedicineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteMedicine(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListLowStock lists medicines at or below their reorder level
func (h *MedicineHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.service.ListLowStock(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, medicines)
}

// ListExpiring lists medicines expiring within the given number of days
func (h *MedicineHandler) ListExpiring(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days < 1 {
		days = 30
	}

	medicines, err := h.service.ListExpiring(r.Context(), days)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, medicines)
}

// Categories returns the fixed category set
func (h *MedicineHandler) Categories(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.service.Categories())
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.BadRequest("invalid id")
	}
	return id, nil
}
