package handlers

import (
	"log"
	"net/http"
	"strconv"
)

// HandleAddressSearch handles GET /api/v1/address-search
func (h *Handler) HandleAddressSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("address")
	log.Printf("[HTTP] GET /api/v1/address-search: query=%s", query)

	if len(query) < 4 || h.Geocoder == nil {
		h.writeJSON(w, http.StatusOK, []interface{}{})
		return
	}

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 20 {
			h.handleValidationError(w, "limit must be between 1 and 20", nil)
			return
		}
		limit = n
	}

	results, err := h.Geocoder.Search(r.Context(), query, limit)
	if err != nil {
		log.Printf("[ERROR] Failed to search addresses: query=%s err=%v", query, err)
		h.writeJSON(w, http.StatusOK, []interface{}{})
		return
	}

	log.Printf("[HTTP] GET /api/v1/address-search: query=%s results_count=%d", query, len(results))
	h.writeJSON(w, http.StatusOK, results)
}
