package event_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-landscaping/internal/auth"
	"ms-landscaping/internal/events"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
	"ms-landscaping/internal/utils"
)

type Handler struct {
	EventService *events.EventService
	Logger       *logger.Logger
}

func (h *Handler) statusFor(err error) int {
	switch {
	case errors.Is(err, events.ErrValidation), errors.Is(err, events.ErrInvalidTransition):
		return http.StatusBadRequest
	default:
		return http.StatusNotFound
	}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.EventService.CreateEvent(r.Context(), req, auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		http.Error(w, err.Error(), h.statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("event created", event)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to encode response: %v", err))
	}
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	event, err := h.EventService.GetEvent(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEvent: event not found: %v", err))
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(event); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEvent: failed to encode response: %v", err))
	}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.EventService.ListEvents(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		http.Error(w, "Failed to list events: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.EventService.UpdateEvent(r.Context(), eventID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: %v", err))
		http.Error(w, err.Error(), h.statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("event updated", event)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: failed to encode response: %v", err))
	}
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req models.StatusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.EventService.ChangeStatus(r.Context(), eventID, req.Status)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ChangeStatus: %v", err))
		http.Error(w, err.Error(), h.statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("status changed", event)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ChangeStatus: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	if err := h.EventService.DeleteEvent(r.Context(), eventID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteEvent: %v", err))
		http.Error(w, err.Error(), h.statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetEventCount is the one public route, mirroring the dashboard's
// unauthenticated landing widget.
func (h *Handler) GetEventCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.EventService.CountEvents(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEventCount: %v", err))
		http.Error(w, "Failed to count events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]int{"count": count}); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEventCount: failed to encode response: %v", err))
	}
}

func (h *Handler) GetSetup(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	setup, err := h.EventService.GetSetup(r.Context(), eventID)
	if err != nil {
		http.Error(w, "Setup record not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(setup); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetSetup: failed to encode response: %v", err))
	}
}

func (h *Handler) PutSetup(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req models.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	setup, err := h.EventService.PutSetup(r.Context(), eventID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PutSetup: %v", err))
		http.Error(w, err.Error(), h.statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("setup saved", setup)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PutSetup: failed to encode response: %v", err))
	}
}
