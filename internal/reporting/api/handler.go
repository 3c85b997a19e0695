package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/reporting"
)

type Handler struct {
	ReportService *reporting.Service
	Logger        *logger.Logger
}

func (h *Handler) GetEventReport(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	report, err := h.ReportService.GetEventReport(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEventReport: %v", err))
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEventReport: failed to encode response: %v", err))
	}
}

func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.ReportService.GetOverview(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOverview: %v", err))
		http.Error(w, "Failed to build overview: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(overview); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOverview: failed to encode response: %v", err))
	}
}
