package distance

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"tour-planner/internal/database"
	"tour-planner/internal/models"
)

// CachedProvider wraps a MatrixProvider with a MatrixCache. A point set that
// was fetched before, in any order, is served without calling the wrapped
// provider, and concurrent misses for the same set share one fetch.
type CachedProvider struct {
	inner MatrixProvider
	cache *database.MatrixCache
	group singleflight.Group
}

// NewCachedProvider creates a caching provider. A nil cache gets a fresh one.
func NewCachedProvider(inner MatrixProvider, cache *database.MatrixCache) *CachedProvider {
	if cache == nil {
		cache = database.NewMatrixCache()
	}
	return &CachedProvider{
		inner: inner,
		cache: cache,
	}
}

// Cache exposes the underlying matrix cache
func (p *CachedProvider) Cache() *database.MatrixCache {
	return p.cache
}

func (p *CachedProvider) FetchMatrix(ctx context.Context, points []models.Coordinates) (models.CostMatrix, error) {
	m, _, err := p.FetchMatrixCached(ctx, points)
	return m, err
}

// FetchMatrixCached returns the matrix for points in their given order and
// whether it came from the cache.
func (p *CachedProvider) FetchMatrixCached(ctx context.Context, points []models.Coordinates) (models.CostMatrix, bool, error) {
	key, order := database.MatrixKey(points)

	// pos[i] is the canonical position of points[i]
	pos := make([]int, len(order))
	for c, idx := range order {
		pos[idx] = c
	}

	if canonical, ok := p.cache.Get(key); ok {
		log.Printf("[CACHE] Matrix hit: points=%d", len(points))
		return canonical.Permuted(pos), true, nil
	}

	// The shared fetch outlives any one caller's cancellation; each caller
	// still stops waiting when its own ctx is done.
	fetchCtx := context.WithoutCancel(ctx)
	hit := false
	ch := p.group.DoChan(key, func() (interface{}, error) {
		if canonical, ok := p.cache.Get(key); ok {
			hit = true
			return canonical, nil
		}

		sorted := make([]models.Coordinates, len(order))
		for i, idx := range order {
			sorted[i] = points[idx]
		}

		log.Printf("[CACHE] Matrix miss: points=%d", len(points))
		canonical, err := p.inner.FetchMatrix(fetchCtx, sorted)
		if err != nil {
			return nil, err
		}
		if err := canonical.Validate(len(sorted)); err != nil {
			return nil, fmt.Errorf("provider returned malformed matrix: %w", err)
		}

		p.cache.Set(key, canonical)
		return canonical, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(models.CostMatrix).Permuted(pos), hit, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Clear empties the matrix cache
func (p *CachedProvider) Clear() int {
	n := p.cache.Clear()
	log.Printf("[CACHE] Matrix cache cleared: entries=%d", n)
	return n
}

// Len returns the number of cached matrices
func (p *CachedProvider) Len() int {
	return p.cache.Len()
}
