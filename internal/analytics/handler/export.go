package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// ExportHandler serves analytics reports as CSV downloads
type ExportHandler struct {
	reports *ReportHandler
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(reports *ReportHandler, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		reports: reports,
		logger:  log,
	}
}

// ExportStockouts serves the stockout predictions as CSV
func (h *ExportHandler) ExportStockouts(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.reports.service.StockoutPredictions(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build stockout export")
		http.Error(w, "failed to generate export", http.StatusInternalServerError)
		return
	}

	writer := beginCSV(w, "stockout-predictions")
	writer.Write([]string{"medicine_id", "name", "category", "current_stock", "daily_average", "days_until_stockout", "predicted_date", "urgency"})
	for _, p := range predictions {
		writer.Write([]string{
			strconv.FormatInt(p.MedicineID, 10),
			p.Name,
			p.Category,
			strconv.Itoa(p.CurrentStock),
			fmt.Sprintf("%.2f", p.DailyAverage),
			strconv.Itoa(p.DaysUntilStockout),
			p.PredictedDate,
			p.Urgency,
		})
	}
	writer.Flush()
}

// ExportReorders serves the reorder recommendations as CSV
func (h *ExportHandler) ExportReorders(w http.ResponseWriter, r *http.Request) {
	recommendations, err := h.reports.service.ReorderRecommendations(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build reorder export")
		http.Error(w, "failed to generate export", http.StatusInternalServerError)
		return
	}

	writer := beginCSV(w, "reorder-recommendations")
	writer.Write([]string{"medicine_id", "name", "category", "current_stock", "safety_stock", "recommended_quantity", "daily_average", "reason"})
	for _, rec := range recommendations {
		writer.Write([]string{
			strconv.FormatInt(rec.MedicineID, 10),
			rec.Name,
			rec.Category,
			strconv.Itoa(rec.CurrentStock),
			strconv.Itoa(rec.SafetyStock),
			strconv.Itoa(rec.RecommendedQuantity),
			fmt.Sprintf("%.2f", rec.DailyAverage),
			rec.Reason,
		})
	}
	writer.Flush()
}

// ExportMonthlySales serves the monthly revenue series as CSV
func (h *ExportHandler) ExportMonthlySales(w http.ResponseWriter, r *http.Request) {
	months, _ := strconv.Atoi(r.URL.Query().Get("months"))

	series, err := h.reports.service.MonthlySales(r.Context(), months)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build monthly sales export")
		http.Error(w, "failed to generate export", http.StatusInternalServerError)
		return
	}

	writer := beginCSV(w, "monthly-sales")
	writer.Write([]string{"month", "revenue"})
	for _, p := range series {
		writer.Write([]string{p.Month, fmt.Sprintf("%.2f", p.Revenue)})
	}
	writer.Flush()
}

func beginCSV(w http.ResponseWriter, name string) *csv.Writer {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return csv.NewWriter(w)
}
