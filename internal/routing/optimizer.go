package routing

import (
	"context"
	"fmt"
	"log"
	"time"

	"tour-planner/internal/distance"
	"tour-planner/internal/models"
)

// optimizer implements RouteOptimizer on top of a matrix provider and the tiered solver
type optimizer struct {
	provider distance.MatrixProvider
	solver   *Solver
}

// NewOptimizer creates a route optimizer. If provider is a
// distance.CachingProvider, results report whether the matrix was cached.
func NewOptimizer(provider distance.MatrixProvider, tuning Tuning) RouteOptimizer {
	return &optimizer{
		provider: provider,
		solver:   NewSolver(tuning),
	}
}

func (o *optimizer) Optimize(ctx context.Context, waypoints []models.Waypoint, opts models.RouteOptions) (*models.OptimizationResult, error) {
	totalStart := time.Now()
	n := len(waypoints)

	opts, err := NormalizeOptions(n, opts)
	if err != nil {
		return nil, err
	}
	if err := validateWaypoints(waypoints); err != nil {
		return nil, err
	}

	log.Printf("[OPTIMIZE] Starting optimization: waypoints=%d %s", n, opts)

	if n < 2 {
		order := IdentityOrder(n)
		return &models.OptimizationResult{
			Order:      order,
			Waypoints:  reorder(waypoints, order),
			TotalCost:  0,
			Legs:       []models.Leg{},
			Strategy:   string(StrategyTrivial),
			ClosedLoop: opts.IsClosedLoop,
			ElapsedMs:  time.Since(totalStart).Milliseconds(),
		}, nil
	}

	points := make([]models.Coordinates, n)
	for i := range waypoints {
		points[i] = waypoints[i].GetCoords()
	}

	fetchStart := time.Now()
	matrix, cached, err := o.fetch(ctx, points)
	if err != nil {
		log.Printf("[ERROR] Matrix fetch failed: waypoints=%d err=%v", n, err)
		return nil, &MatrixFetchError{Reason: "provider error", Err: err}
	}
	if err := matrix.Validate(n); err != nil {
		log.Printf("[ERROR] Malformed matrix: waypoints=%d err=%v", n, err)
		return nil, &MatrixFetchError{Reason: "malformed matrix", Err: err}
	}
	log.Printf("[TIMING] Matrix fetch: %v (cached=%t)", time.Since(fetchStart), cached)

	solution, err := o.solver.Solve(matrix, opts)
	if err != nil {
		return nil, err
	}

	result := &models.OptimizationResult{
		Order:        solution.Tour,
		Waypoints:    reorder(waypoints, solution.Tour),
		TotalCost:    solution.Cost,
		Legs:         LegCosts(solution.Tour, matrix, opts),
		Strategy:     string(solution.Strategy),
		ClosedLoop:   opts.IsClosedLoop,
		Degraded:     solution.Degraded,
		MatrixCached: cached,
		ElapsedMs:    time.Since(totalStart).Milliseconds(),
	}

	log.Printf("[OPTIMIZE] Complete: waypoints=%d strategy=%s cost=%.1f degraded=%t", n, result.Strategy, result.TotalCost, result.Degraded)
	log.Printf("[TIMING] Total optimization: %v", time.Since(totalStart))
	return result, nil
}

func (o *optimizer) fetch(ctx context.Context, points []models.Coordinates) (models.CostMatrix, bool, error) {
	if cp, ok := o.provider.(distance.CachingProvider); ok {
		return cp.FetchMatrixCached(ctx, points)
	}
	m, err := o.provider.FetchMatrix(ctx, points)
	return m, false, err
}

func validateWaypoints(waypoints []models.Waypoint) error {
	for i := range waypoints {
		wp := &waypoints[i]
		if wp.NeedsGeocoding() {
			return &InvalidInputError{
				Field:  fmt.Sprintf("waypoints[%d]", i),
				Reason: "address has not been geocoded",
			}
		}
		if !wp.GetCoords().ValidCoords() {
			return &InvalidInputError{
				Field:  fmt.Sprintf("waypoints[%d]", i),
				Reason: fmt.Sprintf("coordinates (%.6f,%.6f) out of range", wp.Lat, wp.Lng),
			}
		}
	}
	return nil
}

func reorder(waypoints []models.Waypoint, order []int) []models.Waypoint {
	out := make([]models.Waypoint, len(order))
	for i, idx := range order {
		out[i] = waypoints[idx]
	}
	return out
}
