package database

import (
	"context"
	"fmt"

	"tour-planner/internal/models"
)

// DistanceCacheRepository persists single origin/destination lookups so
// repeated matrix requests only ask the routing service for new pairs.
// Coordinates are matched at 5 decimal places.
type DistanceCacheRepository interface {
	Get(ctx context.Context, origin, dest models.Coordinates) (*models.DistanceCacheEntry, error)
	GetBatch(ctx context.Context, pairs []struct{ Origin, Dest models.Coordinates }) (map[string]*models.DistanceCacheEntry, error)
	Set(ctx context.Context, entry *models.DistanceCacheEntry) error
	SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// PairKey creates a unique key for a coordinate pair
func PairKey(origin, dest models.Coordinates) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f",
		models.RoundCoordinate(origin.Lat), models.RoundCoordinate(origin.Lng),
		models.RoundCoordinate(dest.Lat), models.RoundCoordinate(dest.Lng))
}
