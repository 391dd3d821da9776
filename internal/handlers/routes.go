package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"

	"tour-planner/internal/export"
	"tour-planner/internal/geocoding"
	"tour-planner/internal/models"
	"tour-planner/internal/routing"
)

// maxBodyBytes bounds the optimize request body
const maxBodyBytes = 1 << 20

// OptimizeRequest represents the request for route-order optimization
type OptimizeRequest struct {
	Waypoints []models.Waypoint    `json:"waypoints"`
	Options   *RouteOptionsRequest `json:"options,omitempty"`
}

// RouteOptionsRequest mirrors models.RouteOptions with optional fields so
// omitted values take their defaults.
type RouteOptionsRequest struct {
	StartIndex   *int  `json:"start_index,omitempty"`
	EndIndex     *int  `json:"end_index,omitempty"`
	FixedStart   *bool `json:"fixed_start,omitempty"`
	FixedEnd     *bool `json:"fixed_end,omitempty"`
	IsClosedLoop *bool `json:"is_closed_loop,omitempty"`
}

// RouteOptions resolves the request options against the defaults
func (o *RouteOptionsRequest) RouteOptions() models.RouteOptions {
	opts := models.DefaultRouteOptions()
	if o == nil {
		return opts
	}
	if o.StartIndex != nil {
		opts.StartIndex = *o.StartIndex
	}
	if o.EndIndex != nil {
		opts.EndIndex = models.IntPtr(*o.EndIndex)
	}
	if o.FixedStart != nil {
		opts.FixedStart = *o.FixedStart
	}
	if o.FixedEnd != nil {
		opts.FixedEnd = *o.FixedEnd
	}
	if o.IsClosedLoop != nil {
		opts.IsClosedLoop = *o.IsClosedLoop
	}
	return opts
}

// LegResponse is one hop of the ordered route
type LegResponse struct {
	From           int      `json:"from"`
	To             int      `json:"to"`
	Cost           *float64 `json:"cost"`
	CumulativeCost *float64 `json:"cumulative_cost"`
}

// OptimizeResponse is the JSON form of an optimization result.
// Costs that are not finite are reported as null.
type OptimizeResponse struct {
	RequestID    string            `json:"request_id,omitempty"`
	Order        []int             `json:"order"`
	Waypoints    []models.Waypoint `json:"waypoints"`
	TotalCost    *float64          `json:"total_cost"`
	Feasible     bool              `json:"feasible"`
	Metric       string            `json:"metric,omitempty"`
	Legs         []LegResponse     `json:"legs"`
	Strategy     string            `json:"strategy"`
	ClosedLoop   bool              `json:"closed_loop"`
	Degraded     bool              `json:"degraded"`
	MatrixCached bool              `json:"matrix_cached"`
	Geocoded     int               `json:"geocoded"`
	ElapsedMs    int64             `json:"elapsed_ms"`
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func newOptimizeResponse(result *models.OptimizationResult) OptimizeResponse {
	legs := make([]LegResponse, len(result.Legs))
	for i, leg := range result.Legs {
		legs[i] = LegResponse{
			From:           leg.From,
			To:             leg.To,
			Cost:           finite(leg.Cost),
			CumulativeCost: finite(leg.CumulativeCost),
		}
	}
	return OptimizeResponse{
		Order:        result.Order,
		Waypoints:    result.Waypoints,
		TotalCost:    finite(result.TotalCost),
		Feasible:     result.Feasible(),
		Legs:         legs,
		Strategy:     result.Strategy,
		ClosedLoop:   result.ClosedLoop,
		Degraded:     result.Degraded,
		MatrixCached: result.MatrixCached,
		ElapsedMs:    result.ElapsedMs,
	}
}

// optimize decodes the request, geocodes address-only waypoints, and runs
// the optimizer. It writes the error response itself and returns nil on failure.
func (h *Handler) optimize(w http.ResponseWriter, r *http.Request, route string) (*models.OptimizationResult, int) {
	requestID := RequestID(r.Context())

	var req OptimizeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		log.Printf("[HTTP] POST %s: invalid_json request_id=%s err=%v", route, requestID, err)
		h.handleValidationError(w, "Invalid request body", err.Error())
		return nil, 0
	}

	if h.MaxWaypoints > 0 && len(req.Waypoints) > h.MaxWaypoints {
		log.Printf("[HTTP] POST %s: too many waypoints request_id=%s count=%d", route, requestID, len(req.Waypoints))
		h.handleValidationError(w,
			fmt.Sprintf("At most %d waypoints are allowed, got %d.", h.MaxWaypoints, len(req.Waypoints)),
			map[string]interface{}{"field": "waypoints"})
		return nil, 0
	}

	opts := req.Options.RouteOptions()
	log.Printf("[HTTP] POST %s: request_id=%s waypoints=%d %s", route, requestID, len(req.Waypoints), opts)

	// Bad options are rejected before any geocoding request goes out
	if _, err := routing.NormalizeOptions(len(req.Waypoints), opts); err != nil {
		log.Printf("[HTTP] POST %s: invalid options request_id=%s err=%v", route, requestID, err)
		h.handleOptimizeError(w, r, err)
		return nil, 0
	}

	waypoints := req.Waypoints
	geocoded := 0
	if h.Geocoder != nil {
		resolved, lookups, err := geocoding.ResolveWaypoints(r.Context(), h.Geocoder, waypoints, geocoding.DefaultMaxRetries)
		if err != nil {
			log.Printf("[HTTP] POST %s: geocoding failed request_id=%s err=%v", route, requestID, err)
			h.handleGeocodingError(w, err)
			return nil, 0
		}
		waypoints = resolved
		geocoded = lookups
	}

	result, err := h.Optimizer.Optimize(r.Context(), waypoints, opts)
	if err != nil {
		log.Printf("[HTTP] POST %s: optimize failed request_id=%s err=%v", route, requestID, err)
		h.handleOptimizeError(w, r, err)
		return nil, 0
	}

	log.Printf("[HTTP] POST %s: request_id=%s strategy=%s cost=%.1f cached=%t",
		route, requestID, result.Strategy, result.TotalCost, result.MatrixCached)
	return result, geocoded
}

// HandleOptimizeRoute handles POST /api/v1/routes/optimize
func (h *Handler) HandleOptimizeRoute(w http.ResponseWriter, r *http.Request) {
	result, geocoded := h.optimize(w, r, "/api/v1/routes/optimize")
	if result == nil {
		return
	}

	resp := newOptimizeResponse(result)
	resp.RequestID = RequestID(r.Context())
	resp.Metric = h.Metric
	resp.Geocoded = geocoded
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleOptimizeRouteGeoJSON handles POST /api/v1/routes/optimize/geojson
func (h *Handler) HandleOptimizeRouteGeoJSON(w http.ResponseWriter, r *http.Request) {
	result, _ := h.optimize(w, r, "/api/v1/routes/optimize/geojson")
	if result == nil {
		return
	}

	h.writeEncoded(w, "application/geo+json", http.StatusOK, export.RouteFeatureCollection(result))
}
