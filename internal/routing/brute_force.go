package routing

import (
	"fmt"

	"tour-planner/internal/models"
)

// MaxBruteForceSize caps exhaustive search; 9 waypoints is at most 9! = 362880 tours
const MaxBruteForceSize = 9

// BruteForce enumerates every order of the free waypoints (those not pinned
// as start or end) and returns the cheapest complete tour. On equal cost the
// first order enumerated wins. opts must already be normalized.
func BruteForce(matrix models.CostMatrix, opts models.RouteOptions) ([]int, error) {
	n := len(matrix)
	if n > MaxBruteForceSize {
		return nil, fmt.Errorf("brute force supports at most %d waypoints, got %d", MaxBruteForceSize, n)
	}
	if n < 2 {
		return IdentityOrder(n), nil
	}

	end := opts.End()
	free := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if opts.FixedStart && i == opts.StartIndex {
			continue
		}
		if i == end {
			continue
		}
		free = append(free, i)
	}

	build := func(perm []int) []int {
		tour := make([]int, 0, n)
		if opts.FixedStart {
			tour = append(tour, opts.StartIndex)
		}
		tour = append(tour, perm...)
		if end >= 0 {
			tour = append(tour, end)
		}
		return tour
	}

	var best []int
	bestCost := 0.0
	visit := func(perm []int) {
		tour := build(perm)
		cost := TourCost(tour, matrix, opts)
		if best == nil || cost < bestCost {
			best = tour
			bestCost = cost
		}
	}

	// Heap's algorithm, iterative form.
	perm := copyTour(free)
	k := len(perm)
	c := make([]int, k)
	visit(perm)
	i := 1
	for i < k {
		if c[i] < i {
			if i%2 == 0 {
				perm[0], perm[i] = perm[i], perm[0]
			} else {
				perm[c[i]], perm[i] = perm[i], perm[c[i]]
			}
			visit(perm)
			c[i]++
			i = 1
		} else {
			c[i] = 0
			i++
		}
	}

	return best, nil
}
