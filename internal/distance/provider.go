package distance

import (
	"context"
	"fmt"

	"tour-planner/internal/models"
)

// MatrixProvider builds a pairwise travel-cost matrix for a list of points.
// Row and column i of the result correspond to points[i]. Pairs with no
// route are marked with models.Unreachable().
type MatrixProvider interface {
	FetchMatrix(ctx context.Context, points []models.Coordinates) (models.CostMatrix, error)
}

// CachingProvider is a MatrixProvider that can report whether a matrix was
// served from its cache without contacting the underlying provider.
type CachingProvider interface {
	MatrixProvider
	FetchMatrixCached(ctx context.Context, points []models.Coordinates) (models.CostMatrix, bool, error)
}

// CostMetric selects which OSRM annotation becomes the matrix cost
type CostMetric string

const (
	MetricDuration CostMetric = "duration" // seconds
	MetricDistance CostMetric = "distance" // meters
)

// ParseCostMetric accepts "duration" or "distance"; empty means duration
func ParseCostMetric(s string) (CostMetric, error) {
	switch CostMetric(s) {
	case "", MetricDuration:
		return MetricDuration, nil
	case MetricDistance:
		return MetricDistance, nil
	default:
		return "", fmt.Errorf("unknown cost metric %q (want duration or distance)", s)
	}
}

// pick returns the cost of an entry under this metric
func (m CostMetric) pick(distanceMeters, durationSecs float64) float64 {
	if m == MetricDistance {
		return distanceMeters
	}
	return durationSecs
}

// ErrMatrixRequestFailed is returned when the routing service cannot produce a matrix
type ErrMatrixRequestFailed struct {
	Points     int
	StatusCode int
	Reason     string
}

func (e *ErrMatrixRequestFailed) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("matrix request failed: HTTP %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("matrix request failed: %s", e.Reason)
}

// samePoint reports whether two coordinates collapse to the same per-pair cache key
func samePoint(a, b models.Coordinates) bool {
	return models.RoundCoordinate(a.Lat) == models.RoundCoordinate(b.Lat) &&
		models.RoundCoordinate(a.Lng) == models.RoundCoordinate(b.Lng)
}
