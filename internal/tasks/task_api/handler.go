package task_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-landscaping/internal/auth"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
	"ms-landscaping/internal/tasks"
	"ms-landscaping/internal/utils"
)

type Handler struct {
	TaskService *tasks.TaskService
	Logger      *logger.Logger
}

func statusFor(err error) int {
	if errors.Is(err, tasks.ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusNotFound
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req models.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.TaskService.CreateTask(r.Context(), eventID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateTask: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("task created", task)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateTask: failed to encode response: %v", err))
	}
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	list, err := h.TaskService.ListTasks(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTasks: %v", err))
		http.Error(w, "Failed to list tasks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTasks: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	var req models.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.TaskService.UpdateTask(r.Context(), taskID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateTask: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("task updated", task)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateTask: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	if err := h.TaskService.DeleteTask(r.Context(), taskID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteTask: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	var req models.ProgressEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	completion, err := h.TaskService.RecordProgress(r.Context(), taskID, req, auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordProgress: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("progress recorded", completion)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordProgress: failed to encode response: %v", err))
	}
}

func (h *Handler) ListProgress(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	entries, err := h.TaskService.ListProgress(r.Context(), taskID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListProgress: failed to encode response: %v", err))
	}
}

// ---------------- CHECKLIST ----------------

func (h *Handler) AddChecklistItem(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req models.ChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.TaskService.AddChecklistItem(r.Context(), eventID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddChecklistItem: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("checklist item added", item)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddChecklistItem: failed to encode response: %v", err))
	}
}

func (h *Handler) ListChecklist(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	items, err := h.TaskService.ListChecklist(r.Context(), eventID)
	if err != nil {
		http.Error(w, "Failed to list checklist: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(items); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListChecklist: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	var req models.ChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.TaskService.UpdateChecklistItem(r.Context(), itemID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateChecklistItem: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("checklist item updated", item)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateChecklistItem: failed to encode response: %v", err))
	}
}

// ---------------- ADDITIONAL TASKS ----------------

func (h *Handler) AddAdditionalTask(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req models.AdditionalTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.TaskService.AddAdditionalTask(r.Context(), eventID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddAdditionalTask: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("additional task added", task)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddAdditionalTask: failed to encode response: %v", err))
	}
}

func (h *Handler) ListAdditionalTasks(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	list, err := h.TaskService.ListAdditionalTasks(r.Context(), eventID)
	if err != nil {
		http.Error(w, "Failed to list additional tasks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAdditionalTasks: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateAdditionalTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "extraId")

	var req models.AdditionalTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.TaskService.UpdateAdditionalTask(r.Context(), taskID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateAdditionalTask: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("additional task updated", task)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateAdditionalTask: failed to encode response: %v", err))
	}
}
