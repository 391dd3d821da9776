package models

import (
	"fmt"
	"math"
)

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// RoundCoordinate rounds to 5 decimal places (~1m), the per-pair distance cache precision
func RoundCoordinate(v float64) float64 {
	return math.Round(v*100000) / 100000
}

// RoundQueryCoordinate rounds to 6 decimal places, the precision used in provider queries
func RoundQueryCoordinate(v float64) float64 {
	return math.Round(v*1000000) / 1000000
}

// Waypoint is a stop submitted for route ordering
type Waypoint struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Address string  `json:"address,omitempty" yaml:"address,omitempty"`
	Lat     float64 `json:"lat" yaml:"lat"`
	Lng     float64 `json:"lng" yaml:"lng"`
}

// GetCoords returns the coordinates of the waypoint
func (w *Waypoint) GetCoords() Coordinates {
	return Coordinates{Lat: w.Lat, Lng: w.Lng}
}

// NeedsGeocoding reports whether the waypoint only carries an address
func (w *Waypoint) NeedsGeocoding() bool {
	return w.Address != "" && w.Lat == 0 && w.Lng == 0
}

// ValidCoords reports whether the coordinates lie on the globe
func (c Coordinates) ValidCoords() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// RouteOptions constrains the visiting order
type RouteOptions struct {
	StartIndex   int  `json:"start_index" yaml:"start_index"`
	EndIndex     *int `json:"end_index,omitempty" yaml:"end_index,omitempty"`
	FixedStart   bool `json:"fixed_start" yaml:"fixed_start"`
	FixedEnd     bool `json:"fixed_end" yaml:"fixed_end"`
	IsClosedLoop bool `json:"is_closed_loop" yaml:"is_closed_loop"`
}

// DefaultRouteOptions returns a fixed start at index 0 with a free, open end
func DefaultRouteOptions() RouteOptions {
	return RouteOptions{
		StartIndex: 0,
		FixedStart: true,
	}
}

// HasEnd reports whether a pinned end index is in effect
func (o RouteOptions) HasEnd() bool {
	return o.FixedEnd && o.EndIndex != nil
}

// End returns the pinned end index, or -1 when the end is free
func (o RouteOptions) End() int {
	if !o.HasEnd() {
		return -1
	}
	return *o.EndIndex
}

// IntPtr is a small helper for building options literals
func IntPtr(v int) *int {
	return &v
}

func (o RouteOptions) String() string {
	end := "none"
	if o.EndIndex != nil {
		end = fmt.Sprintf("%d", *o.EndIndex)
	}
	return fmt.Sprintf("start=%d end=%s fixed_start=%t fixed_end=%t closed=%t",
		o.StartIndex, end, o.FixedStart, o.FixedEnd, o.IsClosedLoop)
}

// Leg is one hop of an ordered route
type Leg struct {
	From           int     `json:"from"`
	To             int     `json:"to"`
	Cost           float64 `json:"cost"`
	CumulativeCost float64 `json:"cumulative_cost"`
	Reachable      bool    `json:"reachable"`
}

// OptimizationResult contains the full result of a route-order optimization
type OptimizationResult struct {
	Order        []int      `json:"order"`
	Waypoints    []Waypoint `json:"waypoints"`
	TotalCost    float64    `json:"total_cost"`
	Legs         []Leg      `json:"legs"`
	Strategy     string     `json:"strategy"`
	ClosedLoop   bool       `json:"closed_loop"`
	Degraded     bool       `json:"degraded"`
	MatrixCached bool       `json:"matrix_cached"`
	ElapsedMs    int64      `json:"elapsed_ms"`
}

// Feasible reports whether every leg of the route is reachable
func (r *OptimizationResult) Feasible() bool {
	return !IsUnreachable(r.TotalCost)
}

// DistanceCacheEntry represents a cached distance lookup
type DistanceCacheEntry struct {
	Origin         Coordinates `json:"origin"`
	Destination    Coordinates `json:"destination"`
	DistanceMeters float64     `json:"distance_meters"`
	DurationSecs   float64     `json:"duration_secs"`
}
