package handler

import (
	"net/http"
	"strconv"

	"github.com/pharmstock/pharmstock-backend/internal/analytics/service"
	"github.com/pharmstock/pharmstock-backend/pkg/httputil"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// ReportHandler handles analytics report endpoints
type ReportHandler struct {
	service *service.AnalyticsService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *service.AnalyticsService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  log,
	}
}

// SeasonalTrends reports per-season sales summaries
func (h *ReportHandler) SeasonalTrends(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.SeasonalTrends(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}

// CategoryTrends reports per-category sales summaries
func (h *ReportHandler) CategoryTrends(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.CategoryTrends(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}

// MonthlySales reports revenue per calendar month
func (h *ReportHandler) MonthlySales(w http.ResponseWriter, r *http.Request) {
	months, _ := strconv.Atoi(r.URL.Query().Get("months"))

	series, err := h.service.MonthlySales(r.Context(), months)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, series)
}

// Forecast reports smoothed history and projected revenue
func (h *ReportHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	monthsAhead, _ := strconv.Atoi(r.URL.Query().Get("months_ahead"))

	report, err := h.service.Forecast(r.Context(), monthsAhead)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}

// StockoutPredictions reports medicines at risk of running out
func (h *ReportHandler) StockoutPredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.service.StockoutPredictions(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, predictions)
}

// ReorderRecommendations reports proactive restock suggestions
func (h *ReportHandler) ReorderRecommendations(w http.ResponseWriter, r *http.Request) {
	recommendations, err := h.service.ReorderRecommendations(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, recommendations)
}

// TopMedicines reports the highest-revenue medicines in a trailing window
func (h *ReportHandler) TopMedicines(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	medicines, err := h.service.TopMedicines(r.Context(), days, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, medicines)
}
