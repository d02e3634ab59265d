package handler

import (
	"net/http"
	"strconv"

	"github.com/kowshikb/kidQuest-sub000/internal/leaderboard"
	"github.com/kowshikb/kidQuest-sub000/internal/logger"
)

// HandleGetLeaderboard returns the top users ranked by total reward
func HandleGetLeaderboard(service leaderboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := leaderboard.DefaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				respondError(w, http.StatusBadRequest, ErrMsgInvalidLimit)
				return
			}
			limit = parsed
		}

		entries, err := service.GetTop(r.Context(), limit)
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to load leaderboard", "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgGetLeaderboardFailed)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: entries})
	}
}
