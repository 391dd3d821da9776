package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tour-planner/internal/database"
	"tour-planner/internal/geocoding"
	"tour-planner/internal/routing"
)

// MatrixCacheAdmin exposes inspection and clearing of the matrix cache
type MatrixCacheAdmin interface {
	Len() int
	Clear() int
}

// HealthChecker reports whether a backing store is usable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler provides common handler utilities and dependencies
type Handler struct {
	Optimizer     routing.RouteOptimizer
	Geocoder      geocoding.Geocoder
	MatrixCache   MatrixCacheAdmin
	DistanceCache database.DistanceCacheRepository
	Store         HealthChecker

	// Metric names the unit of every cost in responses
	Metric       string
	MaxWaypoints int
	Version      string
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached by WithRequestID, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	h.writeEncoded(w, "application/json", status, data)
}

func (h *Handler) writeEncoded(w http.ResponseWriter, contentType string, status int, data interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[ERROR] Failed to encode response: err=%v", err)
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(w http.ResponseWriter, message string, details interface{}) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

// handleGeocodingError handles 422 errors for geocoding failures
func (h *Handler) handleGeocodingError(w http.ResponseWriter, err error) {
	var details interface{}
	var wpErr *geocoding.WaypointGeocodeError
	if errors.As(err, &wpErr) {
		details = map[string]interface{}{"waypoint_index": wpErr.Index}
	}
	h.writeError(w, http.StatusUnprocessableEntity, "GEOCODING_FAILED", err.Error(), details)
}

// handleOptimizeError maps optimizer errors onto status codes
func (h *Handler) handleOptimizeError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *routing.InvalidInputError
	var infeasible *routing.InfeasibleTourError

	switch {
	case errors.As(err, &inputErr):
		h.handleValidationError(w, inputErr.Error(), map[string]interface{}{
			"field":  inputErr.Field,
			"reason": inputErr.Reason,
		})
	case errors.As(err, &infeasible):
		h.writeError(w, http.StatusUnprocessableEntity, "INFEASIBLE_TOUR",
			"No visiting order connects every waypoint.",
			map[string]interface{}{
				"order":    infeasible.Tour,
				"strategy": infeasible.Strategy,
			})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "The request was cancelled before it completed.", nil)
	case errors.Is(err, routing.ErrMatrixFetchFailed):
		log.Printf("[ERROR] Matrix fetch failed: request_id=%s err=%v", RequestID(r.Context()), err)
		h.writeError(w, http.StatusBadGateway, "MATRIX_FETCH_FAILED", "Could not retrieve travel costs. Please try again.", nil)
	default:
		h.handleInternalError(w, r, err)
	}
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("[ERROR] Internal error: request_id=%s err=%v", RequestID(r.Context()), err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	storeStatus := "none"

	if h.Store != nil {
		storeStatus = "connected"
		if err := h.Store.HealthCheck(r.Context()); err != nil {
			log.Printf("[ERROR] Health check failed: err=%v", err)
			status = "degraded"
			storeStatus = "error"
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"version":  h.Version,
		"database": storeStatus,
		"metric":   h.Metric,
	})
}
