package equipment_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-landscaping/internal/auth"
	"ms-landscaping/internal/equipment"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
	"ms-landscaping/internal/utils"
)

type Handler struct {
	EquipmentService *equipment.EquipmentService
	Logger           *logger.Logger
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, equipment.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, equipment.ErrUnavailable):
		return http.StatusConflict
	default:
		return http.StatusNotFound
	}
}

func (h *Handler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	var req models.EquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.EquipmentService.CreateEquipment(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEquipment: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("equipment created", item)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEquipment: failed to encode response: %v", err))
	}
}

func (h *Handler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	equipmentID := chi.URLParam(r, "equipmentId")

	item, err := h.EquipmentService.GetEquipment(r.Context(), equipmentID)
	if err != nil {
		http.Error(w, "Equipment not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(item); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEquipment: failed to encode response: %v", err))
	}
}

func (h *Handler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	items, err := h.EquipmentService.ListEquipment(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEquipment: %v", err))
		http.Error(w, "Failed to list equipment: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(items); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEquipment: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	equipmentID := chi.URLParam(r, "equipmentId")

	var req models.EquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.EquipmentService.UpdateEquipment(r.Context(), equipmentID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEquipment: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("equipment updated", item)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEquipment: failed to encode response: %v", err))
	}
}

// GetTag serves the printable QR asset tag as a PNG.
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	equipmentID := chi.URLParam(r, "equipmentId")

	png, err := h.EquipmentService.GenerateTag(r.Context(), equipmentID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTag: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTag: failed to write response: %v", err))
	}
}

func (h *Handler) AssignEquipment(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req models.AssignEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	usage, err := h.EquipmentService.Assign(r.Context(), eventID, req, auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AssignEquipment: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("equipment assigned", usage)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AssignEquipment: failed to encode response: %v", err))
	}
}

func (h *Handler) ReleaseEquipment(w http.ResponseWriter, r *http.Request) {
	usageID := chi.URLParam(r, "usageId")

	if err := h.EquipmentService.Release(r.Context(), usageID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ReleaseEquipment: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("equipment released", nil)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ReleaseEquipment: failed to encode response: %v", err))
	}
}

func (h *Handler) ListEventEquipment(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	usages, err := h.EquipmentService.ListUsageByEvent(r.Context(), eventID)
	if err != nil {
		http.Error(w, "Failed to list equipment usage: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(usages); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEventEquipment: failed to encode response: %v", err))
	}
}
