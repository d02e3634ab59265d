package handler

import (
	"net/http"
	"sort"

	"github.com/kowshikb/kidQuest-sub000/internal/catalog"
	"github.com/kowshikb/kidQuest-sub000/internal/domain"
	"github.com/kowshikb/kidQuest-sub000/internal/logger"
)

// HandleGetTasks returns the active quest catalog
func HandleGetTasks(loader *catalog.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := loader.Tasks()
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to load task catalog", "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgGetTasksFailed)
			return
		}

		out := make([]domain.TaskDescriptor, 0, len(tasks))
		for _, t := range tasks {
			if t.Active {
				out = append(out, t)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

		respondJSON(w, http.StatusOK, DataResponse{Data: out})
	}
}

// HandleGetAchievements returns the achievement catalog
func HandleGetAchievements(loader *catalog.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		achievements, err := loader.Achievements()
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to load achievement catalog", "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgGetAchievementsFailed)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: achievements})
	}
}

// HandleReloadCatalogs drops the cached catalogs so the next read re-parses
// the config files. Admin surface.
func HandleReloadCatalogs(loader *catalog.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loader.Invalidate()
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgCatalogReloadedSuccess})
	}
}
