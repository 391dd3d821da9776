package distance

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"tour-planner/internal/models"
)

// DefaultAverageSpeedKmh converts straight-line distance into a travel time
const DefaultAverageSpeedKmh = 40.0

type haversineProvider struct {
	metric   CostMetric
	speedMps float64
}

// NewHaversineProvider creates an offline provider that costs each pair by
// great-circle distance. Under MetricDuration the distance is divided by
// speedKmh; a non-positive speed uses DefaultAverageSpeedKmh.
func NewHaversineProvider(metric CostMetric, speedKmh float64) MatrixProvider {
	if speedKmh <= 0 {
		speedKmh = DefaultAverageSpeedKmh
	}
	if metric == "" {
		metric = MetricDuration
	}
	return &haversineProvider{
		metric:   metric,
		speedMps: speedKmh * 1000 / 3600,
	}
}

func (p *haversineProvider) FetchMatrix(ctx context.Context, points []models.Coordinates) (models.CostMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(points)
	matrix := models.NewCostMatrix(n)
	for i := 0; i < n; i++ {
		a := orb.Point{points[i].Lng, points[i].Lat}
		for j := i + 1; j < n; j++ {
			b := orb.Point{points[j].Lng, points[j].Lat}
			meters := geo.DistanceHaversine(a, b)
			cost := p.metric.pick(meters, meters/p.speedMps)
			matrix[i][j] = cost
			matrix[j][i] = cost
		}
	}
	return matrix, nil
}
