package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmstock/pharmstock-backend/internal/catalog/repository"
	"github.com/pharmstock/pharmstock-backend/internal/catalog/service"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
	"github.com/pharmstock/pharmstock-backend/pkg/httputil"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// AlternativeHandler handles alternative medicine mapping endpoints
type AlternativeHandler struct {
	service *service.CatalogService
	logger  *logger.Logger
}

// NewAlternativeHandler creates a new alternative handler
func NewAlternativeHandler(svc *service.CatalogService, log *logger.Logger) *AlternativeHandler {
	return &AlternativeHandler{
		service: svc,
		logger:  log,
	}
}

// CreateAlternativeRequest is the payload for linking a substitute
type CreateAlternativeRequest struct {
	AlternativeMedicineID int64   `json:"alternative_medicine_id" validate:"required,gte=1"`
	Priority              int     `json:"priority" validate:"gte=1,lte=10"`
	Reason                *string `json:"reason"`
}

// Create links a substitute to a primary medicine
func (h *AlternativeHandler) Create(w http.ResponseWriter, r *http.Request) {
	primaryID, err := parseID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req CreateAlternativeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	mapping := &repository.AlternativeMapping{
		PrimaryMedicineID:     primaryID,
		AlternativeMedicineID: req.AlternativeMedicineID,
		Priority:              req.Priority,
		Reason:                req.Reason,
	}

	if err := h.service.CreateAlternative(r.Context(), mapping); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, mapping)
}

// List lists all mappings for a primary medicine
func (h *AlternativeHandler) List(w http.ResponseWriter, r *http.Request) {
	primaryID, err := parseID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	mappings, err := h.service.ListAlternatives(r.Context(), primaryID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, mappings)
}

// Available returns sellable substitutes for a medicine
func (h *AlternativeHandler) Available(w http.ResponseWriter, r *http.Request) {
	primaryID, err := parseID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 10 {
		limit = 3
	}

	options, err := h.service.AvailableAlternatives(r.Context(), primaryID, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, options)
}

// Delete removes an alternative mapping
func (h *AlternativeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mappingID, err := strconv.ParseInt(chi.URLParam(r, "mappingID"), 10, 64)
	if err != nil || mappingID < 1 {
		httputil.Error(w, errors.BadRequest("invalid mapping id"))
		return
	}

	if err := h.service.DeleteAlternative(r.Context(), mappingID); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
