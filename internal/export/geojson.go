package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tour-planner/internal/models"
)

// RouteFeatureCollection renders an optimized route as GeoJSON: one
// LineString through the stops in visiting order (closed back to the first
// stop for round trips) followed by one Point per stop carrying its position
// in the route.
func RouteFeatureCollection(result *models.OptimizationResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if result == nil || len(result.Waypoints) == 0 {
		return fc
	}

	line := make(orb.LineString, 0, len(result.Waypoints)+1)
	for _, wp := range result.Waypoints {
		line = append(line, point(wp))
	}
	if result.ClosedLoop && len(line) > 1 {
		line = append(line, line[0])
	}

	if len(line) > 1 {
		route := geojson.NewFeature(line)
		route.Properties["kind"] = "route"
		route.Properties["strategy"] = result.Strategy
		route.Properties["stops"] = len(result.Waypoints)
		route.Properties["closed_loop"] = result.ClosedLoop
		if result.Feasible() {
			route.Properties["total_cost"] = result.TotalCost
		}
		fc.Append(route)
	}

	for i, wp := range result.Waypoints {
		stop := geojson.NewFeature(point(wp))
		stop.Properties["kind"] = "stop"
		stop.Properties["order"] = i
		stop.Properties["id"] = wp.ID
		if wp.Name != "" {
			stop.Properties["name"] = wp.Name
		}
		if i < len(result.Order) {
			stop.Properties["input_index"] = result.Order[i]
		}
		if i > 0 && i-1 < len(result.Legs) {
			stop.Properties["cumulative_cost"] = result.Legs[i-1].CumulativeCost
		}
		fc.Append(stop)
	}

	return fc
}

// GeoJSON uses longitude first
func point(wp models.Waypoint) orb.Point {
	return orb.Point{wp.Lng, wp.Lat}
}
