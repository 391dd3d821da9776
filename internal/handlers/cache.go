package handlers

import (
	"log"
	"net/http"
)

// CacheStatsResponse reports the size of the route caches
type CacheStatsResponse struct {
	MatrixEntries int  `json:"matrix_entries"`
	DistancePairs *int `json:"distance_pairs,omitempty"`
}

// HandleMatrixCacheStats handles GET /api/v1/cache/matrix
func (h *Handler) HandleMatrixCacheStats(w http.ResponseWriter, r *http.Request) {
	var resp CacheStatsResponse
	if h.MatrixCache != nil {
		resp.MatrixEntries = h.MatrixCache.Len()
	}
	if h.DistanceCache != nil {
		count, err := h.DistanceCache.Count(r.Context())
		if err != nil {
			h.handleInternalError(w, r, err)
			return
		}
		resp.DistancePairs = &count
	}

	log.Printf("[HTTP] GET /api/v1/cache/matrix: matrix_entries=%d", resp.MatrixEntries)
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleClearMatrixCache handles DELETE /api/v1/cache/matrix
func (h *Handler) HandleClearMatrixCache(w http.ResponseWriter, r *http.Request) {
	cleared := 0
	if h.MatrixCache != nil {
		cleared = h.MatrixCache.Clear()
	}

	log.Printf("[HTTP] DELETE /api/v1/cache/matrix: request_id=%s cleared=%d", RequestID(r.Context()), cleared)
	h.writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

// HandleClearDistanceCache handles DELETE /api/v1/cache/distances.
// Cached matrices are built from these pairs, so both caches are emptied.
func (h *Handler) HandleClearDistanceCache(w http.ResponseWriter, r *http.Request) {
	if h.DistanceCache == nil {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", "No persistent distance cache is configured.", nil)
		return
	}

	pairs, err := h.DistanceCache.Count(r.Context())
	if err != nil {
		h.handleInternalError(w, r, err)
		return
	}
	if err := h.DistanceCache.Clear(r.Context()); err != nil {
		h.handleInternalError(w, r, err)
		return
	}
	matrices := 0
	if h.MatrixCache != nil {
		matrices = h.MatrixCache.Clear()
	}

	log.Printf("[HTTP] DELETE /api/v1/cache/distances: request_id=%s pairs=%d matrices=%d", RequestID(r.Context()), pairs, matrices)
	h.writeJSON(w, http.StatusOK, map[string]int{
		"cleared_pairs":    pairs,
		"cleared_matrices": matrices,
	})
}
