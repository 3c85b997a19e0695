package profile_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-landscaping/internal/auth"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
	"ms-landscaping/internal/profiles"
	"ms-landscaping/internal/utils"
)

type Handler struct {
	ProfileService *profiles.ProfileService
	Logger         *logger.Logger
}

func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ProfileService.GetProfile(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(profile); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetMyProfile: failed to encode response: %v", err))
	}
}

func (h *Handler) SaveMyProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.ProfileService.SaveProfile(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SaveMyProfile: %v", err))
		status := http.StatusInternalServerError
		if errors.Is(err, profiles.ErrValidation) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("profile saved", profile)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SaveMyProfile: failed to encode response: %v", err))
	}
}
