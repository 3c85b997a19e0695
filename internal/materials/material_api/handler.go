package material_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-landscaping/internal/auth"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/materials"
	"ms-landscaping/internal/models"
	"ms-landscaping/internal/utils"
)

type Handler struct {
	MaterialService *materials.MaterialService
	Logger          *logger.Logger
}

func statusFor(err error) int {
	if errors.Is(err, materials.ErrValidation) || errors.Is(err, materials.ErrOverDelivery) {
		return http.StatusBadRequest
	}
	return http.StatusNotFound
}

func (h *Handler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req models.MaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	material, err := h.MaterialService.CreateMaterial(r.Context(), eventID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateMaterial: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("material created", material)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateMaterial: failed to encode response: %v", err))
	}
}

func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	list, err := h.MaterialService.ListMaterials(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMaterials: %v", err))
		http.Error(w, "Failed to list materials: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMaterials: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	materialID := chi.URLParam(r, "materialId")

	var req models.MaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	material, err := h.MaterialService.UpdateMaterial(r.Context(), materialID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateMaterial: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("material updated", material)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateMaterial: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	materialID := chi.URLParam(r, "materialId")

	if err := h.MaterialService.DeleteMaterial(r.Context(), materialID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteMaterial: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordDelivery(w http.ResponseWriter, r *http.Request) {
	materialID := chi.URLParam(r, "materialId")

	var req models.DeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	fulfillment, err := h.MaterialService.RecordDelivery(r.Context(), materialID, req, auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordDelivery: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("delivery recorded", fulfillment)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordDelivery: failed to encode response: %v", err))
	}
}

func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	materialID := chi.URLParam(r, "materialId")

	deliveries, err := h.MaterialService.ListDeliveries(r.Context(), materialID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(deliveries); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListDeliveries: failed to encode response: %v", err))
	}
}

// ---------------- ADDITIONAL MATERIALS ----------------

func (h *Handler) AddAdditionalMaterial(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req models.AdditionalMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	material, err := h.MaterialService.AddAdditionalMaterial(r.Context(), eventID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddAdditionalMaterial: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("additional material added", material)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddAdditionalMaterial: failed to encode response: %v", err))
	}
}

func (h *Handler) ListAdditionalMaterials(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	list, err := h.MaterialService.ListAdditionalMaterials(r.Context(), eventID)
	if err != nil {
		http.Error(w, "Failed to list additional materials: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAdditionalMaterials: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateAdditionalMaterial(w http.ResponseWriter, r *http.Request) {
	materialID := chi.URLParam(r, "extraId")

	var req models.AdditionalMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	material, err := h.MaterialService.UpdateAdditionalMaterial(r.Context(), materialID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateAdditionalMaterial: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("additional material updated", material)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateAdditionalMaterial: failed to encode response: %v", err))
	}
}
