package database

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"tour-planner/internal/models"
)

// MatrixCache memoizes whole cost matrices by waypoint set for the lifetime
// of the process. Matrices are stored in canonical (sorted key) order and
// copied on the way in and out, so callers never share rows.
type MatrixCache struct {
	mu      sync.RWMutex
	entries map[string]models.CostMatrix
}

// NewMatrixCache creates an empty matrix cache
func NewMatrixCache() *MatrixCache {
	return &MatrixCache{
		entries: make(map[string]models.CostMatrix),
	}
}

// pointKey formats a coordinate at provider query precision
func pointKey(c models.Coordinates) string {
	lat := models.RoundQueryCoordinate(c.Lat)
	lng := models.RoundQueryCoordinate(c.Lng)
	// avoid "-0.000000"
	if lat == 0 {
		lat = 0
	}
	if lng == 0 {
		lng = 0
	}
	return fmt.Sprintf("%.6f,%.6f", lat, lng)
}

// MatrixKey returns the order-independent cache key of a point set and the
// canonical order: order[p] is the index into points of the p-th point in
// sorted key order.
func MatrixKey(points []models.Coordinates) (string, []int) {
	keys := make([]string, len(points))
	order := make([]int, len(points))
	for i, p := range points {
		keys[i] = pointKey(p)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] < keys[order[b]]
	})

	sorted := make([]string, len(order))
	for p, idx := range order {
		sorted[p] = keys[idx]
	}
	return strings.Join(sorted, "|"), order
}

// Get returns a copy of the canonical matrix stored under key
func (c *MatrixCache) Get(key string) (models.CostMatrix, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Set stores a copy of the canonical matrix under key, replacing any previous entry
func (c *MatrixCache) Set(key string, m models.CostMatrix) {
	stored := m.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = stored
}

// Clear removes every entry and returns how many there were
func (c *MatrixCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]models.CostMatrix)
	return n
}

// Len returns the number of cached matrices
func (c *MatrixCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
