package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kowshikb/kidQuest-sub000/internal/logger"
	"github.com/kowshikb/kidQuest-sub000/internal/progression"
)

// CompleteTaskRequest is the body of the quest completion endpoint
type CompleteTaskRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	TaskID string `json:"task_id" validate:"required,max=64"`
}

// ProgressionHandlers groups the progression endpoints
type ProgressionHandlers struct {
	service progression.Service
}

// NewProgressionHandlers creates handlers backed by the progression service
func NewProgressionHandlers(service progression.Service) *ProgressionHandlers {
	return &ProgressionHandlers{service: service}
}

// HandleCompleteTask processes a quest completion
func (h *ProgressionHandlers) HandleCompleteTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req CompleteTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  ErrMsgInvalidRequest,
				"fields": FormatValidationError(err),
			})
			return
		}

		result, err := h.service.CompleteTask(r.Context(), req.UserID, req.TaskID)
		if err != nil {
			log.Warn("Quest completion rejected", "user_id", req.UserID, "task_id", req.TaskID, "error", err)
			status, message := mapServiceErrorToUserMessage(err)
			respondError(w, status, message)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

// HandleGetProfile returns the derived progression snapshot for a user
func (h *ProgressionHandlers) HandleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			respondError(w, http.StatusBadRequest, "Missing user_id query parameter")
			return
		}

		snapshot, err := h.service.GetSnapshot(r.Context(), userID)
		if err != nil {
			status, message := mapServiceErrorToUserMessage(err)
			respondError(w, status, message)
			return
		}

		respondJSON(w, http.StatusOK, snapshot)
	}
}

// HandleCheckAchievements runs an achievement evaluation for a user and
// returns the IDs granted by this call
func (h *ProgressionHandlers) HandleCheckAchievements() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			respondError(w, http.StatusBadRequest, "Missing user_id query parameter")
			return
		}

		granted, err := h.service.CheckAndGrantAchievements(r.Context(), userID)
		if err != nil {
			logger.FromContext(r.Context()).Error("Achievement check failed", "user_id", userID, "error", err)
			status, message := mapServiceErrorToUserMessage(err)
			respondError(w, status, message)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"granted_achievement_ids": granted,
		})
	}
}
