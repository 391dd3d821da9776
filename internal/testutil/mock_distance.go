package testutil

import (
	"context"
	"fmt"
	"math"
	"sync"

	"tour-planner/internal/models"
)

// MockMatrixProvider is a mock MatrixProvider for testing.
// It costs each pair by scaled Euclidean distance so results are deterministic.
type MockMatrixProvider struct {
	ScaleFactor float64
	Overrides   map[string]float64
	Err         error
	// Matrix, when set, is returned as is regardless of the points
	Matrix models.CostMatrix
	// Gate, when set, blocks every fetch until it is closed
	Gate chan struct{}

	mu    sync.Mutex
	calls [][]models.Coordinates
}

func NewMockMatrixProvider() *MockMatrixProvider {
	return &MockMatrixProvider{
		ScaleFactor: 111000, // 1 degree ≈ 111km in meters
		Overrides:   make(map[string]float64),
	}
}

// NewFixedMatrixProvider returns a mock that always answers with m
func NewFixedMatrixProvider(m models.CostMatrix) *MockMatrixProvider {
	p := NewMockMatrixProvider()
	p.Matrix = m
	return p
}

func (m *MockMatrixProvider) makeKey(origin, dest models.Coordinates) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f", origin.Lat, origin.Lng, dest.Lat, dest.Lng)
}

// SetCost sets a custom cost for a specific origin-destination pair
func (m *MockMatrixProvider) SetCost(origin, dest models.Coordinates, cost float64) {
	m.Overrides[m.makeKey(origin, dest)] = cost
}

// SetUnreachable marks a directed pair as having no route
func (m *MockMatrixProvider) SetUnreachable(origin, dest models.Coordinates) {
	m.SetCost(origin, dest, models.Unreachable())
}

func (m *MockMatrixProvider) FetchMatrix(ctx context.Context, points []models.Coordinates) (models.CostMatrix, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]models.Coordinates(nil), points...))
	m.mu.Unlock()

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Matrix != nil {
		return m.Matrix.Clone(), nil
	}

	n := len(points)
	matrix := models.NewCostMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if cost, ok := m.Overrides[m.makeKey(points[i], points[j])]; ok {
				matrix[i][j] = cost
				continue
			}
			dLat := points[j].Lat - points[i].Lat
			dLng := points[j].Lng - points[i].Lng
			matrix[i][j] = math.Sqrt(dLat*dLat+dLng*dLng) * m.ScaleFactor
		}
	}
	return matrix, nil
}

// CallCount returns how many fetches were made
func (m *MockMatrixProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns the point lists of every fetch made so far
func (m *MockMatrixProvider) Calls() [][]models.Coordinates {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]models.Coordinates(nil), m.calls...)
}

// ResetCalls clears the recorded calls
func (m *MockMatrixProvider) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// MockDistanceCache is a mock implementation of DistanceCacheRepository for testing
type MockDistanceCache struct {
	mu      sync.Mutex
	entries map[string]*models.DistanceCacheEntry
}

func NewMockDistanceCache() *MockDistanceCache {
	return &MockDistanceCache{
		entries: make(map[string]*models.DistanceCacheEntry),
	}
}

func (c *MockDistanceCache) cacheKey(origin, dest models.Coordinates) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f",
		models.RoundCoordinate(origin.Lat), models.RoundCoordinate(origin.Lng),
		models.RoundCoordinate(dest.Lat), models.RoundCoordinate(dest.Lng))
}

func (c *MockDistanceCache) Get(ctx context.Context, origin, dest models.Coordinates) (*models.DistanceCacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[c.cacheKey(origin, dest)]; ok {
		return entry, nil
	}
	return nil, nil
}

func (c *MockDistanceCache) GetBatch(ctx context.Context, pairs []struct{ Origin, Dest models.Coordinates }) (map[string]*models.DistanceCacheEntry, error) {
	result := make(map[string]*models.DistanceCacheEntry)
	for _, pair := range pairs {
		entry, _ := c.Get(ctx, pair.Origin, pair.Dest)
		if entry != nil {
			result[c.cacheKey(pair.Origin, pair.Dest)] = entry
		}
	}
	return result, nil
}

func (c *MockDistanceCache) Set(ctx context.Context, entry *models.DistanceCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.cacheKey(entry.Origin, entry.Destination)] = entry
	return nil
}

func (c *MockDistanceCache) SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error {
	for i := range entries {
		c.Set(ctx, &entries[i])
	}
	return nil
}

func (c *MockDistanceCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*models.DistanceCacheEntry)
	return nil
}

// Len returns the number of entries in the cache
func (c *MockDistanceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MockDistanceCache) Count(ctx context.Context) (int, error) {
	return c.Len(), nil
}
