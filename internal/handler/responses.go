package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kowshikb/kidQuest-sub000/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := getBuffer()
	defer putBuffer(buf)

	// Encode to a pooled buffer first; headers are already sent, so an
	// encoding failure can only be logged.
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgInvalidRequestError = "Invalid request. Please check your inputs."
	ErrMsgUnavailableError    = "Server is temporarily unavailable. Please try again later."

	ErrMsgTaskNotFoundError     = "Quest not found"
	ErrMsgTaskInactiveError     = "Quest is not available right now"
	ErrMsgAlreadyCompletedError = "Quest already completed"
	ErrMsgPrerequisitesError    = "Finish the required quests first"
	ErrMsgProfileNotFoundError  = "Profile not found"
	ErrMsgProfileNotReadyError  = "Profile is still loading. Try again in a moment."
	ErrMsgAchievementCheckError = "Could not check achievements"
	ErrMsgAchievementUnknownErr = "Achievement not found"
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP
// responses. Validation rejections are client errors; store exhaustion is a
// 503 the client may retry.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, ErrMsgTaskNotFoundError
	case errors.Is(err, domain.ErrTaskInactive):
		return http.StatusConflict, ErrMsgTaskInactiveError
	case errors.Is(err, domain.ErrTaskAlreadyCompleted):
		return http.StatusConflict, ErrMsgAlreadyCompletedError
	case errors.Is(err, domain.ErrPrerequisitesNotMet):
		return http.StatusConflict, ErrMsgPrerequisitesError
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, ErrMsgProfileNotFoundError
	case errors.Is(err, domain.ErrProfileNotReady):
		return http.StatusServiceUnavailable, ErrMsgProfileNotReadyError
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequestError
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrStoreTimeout):
		return http.StatusServiceUnavailable, ErrMsgUnavailableError
	case errors.Is(err, domain.ErrAchievementNotFound):
		return http.StatusNotFound, ErrMsgAchievementUnknownErr
	case errors.Is(err, domain.ErrAchievementCheckFailed):
		return http.StatusInternalServerError, ErrMsgAchievementCheckError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
