package handler

import (
	"net/http"

	"github.com/kowshikb/kidQuest-sub000/internal/cache"
)

// AdminCacheHandler exposes cache introspection for operators
type AdminCacheHandler struct {
	tiers *cache.Tiers
}

// NewAdminCacheHandler creates the admin cache handler
func NewAdminCacheHandler(tiers *cache.Tiers) *AdminCacheHandler {
	return &AdminCacheHandler{tiers: tiers}
}

// HandleGetCacheStats reports hit/miss/entry counts per tier
func (h *AdminCacheHandler) HandleGetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := make([]cache.Stats, 0, 4)
	for _, c := range h.tiers.All() {
		stats = append(stats, c.GetStats())
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: stats})
}

// HandleClearCaches empties every tier. Catalogs and profiles reload lazily.
func (h *AdminCacheHandler) HandleClearCaches(w http.ResponseWriter, r *http.Request) {
	h.tiers.ClearAll()
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgCacheClearedSuccess})
}
