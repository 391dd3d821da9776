package routing

import (
	"tour-planner/internal/models"
)

const (
	// DefaultOrOptMaxSegment is the longest run of stops Or-Opt moves at once
	DefaultOrOptMaxSegment = 3
	// DefaultOrOptMaxIterations is a safety bound on accepted relocations
	DefaultOrOptMaxIterations = 1000
)

// OrOpt improves tour by moving runs of 1..maxSegment consecutive stops to a
// different position inside the mutable range. The first strictly improving
// relocation is accepted and the scan restarts; it stops when a pass yields
// no improvement. The input tour is not modified.
func OrOpt(tour []int, matrix models.CostMatrix, opts models.RouteOptions, maxSegment, maxIterations int) ([]int, int) {
	n := len(tour)
	current := copyTour(tour)
	if maxSegment <= 0 {
		maxSegment = DefaultOrOptMaxSegment
	}
	if maxIterations <= 0 {
		maxIterations = DefaultOrOptMaxIterations
	}

	lo, hi := mutableRange(n, opts)
	region := hi - lo + 1
	if region < 2 {
		return current, 0
	}
	if maxSegment > region-1 {
		maxSegment = region - 1
	}

	currentCost := TourCost(current, matrix, opts)
	iterations := 0

	for iterations < maxIterations {
		improved := false

	scan:
		for length := 1; length <= maxSegment; length++ {
			last := hi - length + 1
			for i := lo; i <= last; i++ {
				for j := lo; j <= last; j++ {
					if j == i {
						continue
					}
					candidate := relocated(current, i, length, j)
					candidateCost := TourCost(candidate, matrix, opts)
					if !improves(candidateCost, currentCost) {
						continue
					}

					current = candidate
					currentCost = candidateCost
					improved = true
					break scan
				}
			}
		}

		if !improved {
			break
		}
		iterations++
	}

	return current, iterations
}
