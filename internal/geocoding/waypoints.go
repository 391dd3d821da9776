package geocoding

import (
	"context"
	"fmt"
	"log"

	"tour-planner/internal/models"
)

// DefaultMaxRetries is the number of attempts made per address
const DefaultMaxRetries = 3

// WaypointGeocodeError identifies which waypoint could not be resolved
type WaypointGeocodeError struct {
	Index int
	Err   error
}

func (e *WaypointGeocodeError) Error() string {
	return fmt.Sprintf("waypoint %d: %v", e.Index, e.Err)
}

func (e *WaypointGeocodeError) Unwrap() error {
	return e.Err
}

// ResolveWaypoints returns a copy of waypoints in which every entry that only
// carries an address has been geocoded. Waypoints that already have
// coordinates are left untouched and the input slice is not modified.
// Identical addresses are looked up once.
func ResolveWaypoints(ctx context.Context, g Geocoder, waypoints []models.Waypoint, maxRetries int) ([]models.Waypoint, int, error) {
	out := make([]models.Waypoint, len(waypoints))
	copy(out, waypoints)

	resolved := make(map[string]models.Coordinates)
	lookups := 0
	for i := range out {
		wp := &out[i]
		if !wp.NeedsGeocoding() {
			continue
		}

		coords, ok := resolved[wp.Address]
		if !ok {
			result, err := g.GeocodeWithRetry(ctx, wp.Address, maxRetries)
			if err != nil {
				return nil, lookups, &WaypointGeocodeError{Index: i, Err: err}
			}
			lookups++
			coords = result.Coords
			resolved[wp.Address] = coords
		}

		wp.Lat = coords.Lat
		wp.Lng = coords.Lng
		if wp.Name == "" {
			wp.Name = wp.Address
		}
	}

	if lookups > 0 {
		log.Printf("[GEOCODING] Resolved waypoints: total=%d lookups=%d", len(out), lookups)
	}
	return out, lookups, nil
}
