package routing

import (
	"tour-planner/internal/models"
)

// costEpsilon is the minimum saving a move must achieve to count as an improvement
const costEpsilon = 1e-9

// improves reports whether candidate is strictly cheaper than current
func improves(candidate, current float64) bool {
	return candidate < current-costEpsilon
}

// TourCost sums the matrix cost of consecutive stops, plus the edge back to
// the first stop when the route is a closed loop. An unreachable leg makes
// the whole tour +Inf.
func TourCost(tour []int, matrix models.CostMatrix, opts models.RouteOptions) float64 {
	if len(tour) < 2 {
		return 0
	}

	total := 0.0
	for i := 0; i < len(tour)-1; i++ {
		total += matrix[tour[i]][tour[i+1]]
	}
	if opts.IsClosedLoop {
		total += matrix[tour[len(tour)-1]][tour[0]]
	}
	return total
}

// LegCosts breaks a tour into its individual hops with running totals
func LegCosts(tour []int, matrix models.CostMatrix, opts models.RouteOptions) []models.Leg {
	if len(tour) < 2 {
		return []models.Leg{}
	}

	legs := make([]models.Leg, 0, len(tour))
	cumulative := 0.0
	add := func(from, to int) {
		cost := matrix[from][to]
		cumulative += cost
		legs = append(legs, models.Leg{
			From:           from,
			To:             to,
			Cost:           cost,
			CumulativeCost: cumulative,
			Reachable:      !models.IsUnreachable(cost),
		})
	}

	for i := 0; i < len(tour)-1; i++ {
		add(tour[i], tour[i+1])
	}
	if opts.IsClosedLoop {
		add(tour[len(tour)-1], tour[0])
	}
	return legs
}
