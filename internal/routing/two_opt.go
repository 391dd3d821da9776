package routing

import (
	"tour-planner/internal/models"
)

// DefaultTwoOptMaxIterations bounds the number of accepted 2-opt moves
const DefaultTwoOptMaxIterations = 1000

// pathSums holds prefix sums of the forward and backward cost of each hop
// tour[p]->tour[p+1], with unreachable hops counted separately so the sums
// stay finite.
type pathSums struct {
	fwd, bwd       []float64
	fwdInf, bwdInf []int
}

func newPathSums(tour []int, matrix models.CostMatrix) *pathSums {
	n := len(tour)
	s := &pathSums{
		fwd:    make([]float64, n),
		bwd:    make([]float64, n),
		fwdInf: make([]int, n),
		bwdInf: make([]int, n),
	}
	for p := 0; p < n-1; p++ {
		s.fwd[p+1], s.fwdInf[p+1] = s.fwd[p], s.fwdInf[p]
		s.bwd[p+1], s.bwdInf[p+1] = s.bwd[p], s.bwdInf[p]

		f := matrix[tour[p]][tour[p+1]]
		if models.IsUnreachable(f) {
			s.fwdInf[p+1]++
		} else {
			s.fwd[p+1] += f
		}
		b := matrix[tour[p+1]][tour[p]]
		if models.IsUnreachable(b) {
			s.bwdInf[p+1]++
		} else {
			s.bwd[p+1] += b
		}
	}
	return s
}

// segment returns the forward and backward cost of the path between
// positions i and k, and whether either direction has an unreachable hop.
func (s *pathSums) segment(i, k int) (fwd, bwd float64, blocked bool) {
	if s.fwdInf[k]-s.fwdInf[i] > 0 || s.bwdInf[k]-s.bwdInf[i] > 0 {
		return 0, 0, true
	}
	return s.fwd[k] - s.fwd[i], s.bwd[k] - s.bwd[i], false
}

// twoOptDelta computes the cost change of reversing tour[i..k]. ok is false
// when the move would remove or add an unreachable edge.
func twoOptDelta(tour []int, matrix models.CostMatrix, sums *pathSums, i, k int, closed bool) (delta float64, ok bool) {
	n := len(tour)
	fwd, bwd, blocked := sums.segment(i, k)
	if blocked {
		return 0, false
	}

	oldCost, newCost := fwd, bwd
	edge := func(from, to int, isNew bool) bool {
		c := matrix[from][to]
		if models.IsUnreachable(c) {
			return false
		}
		if isNew {
			newCost += c
		} else {
			oldCost += c
		}
		return true
	}

	if i > 0 {
		if !edge(tour[i-1], tour[i], false) || !edge(tour[i-1], tour[k], true) {
			return 0, false
		}
	}
	if k < n-1 {
		if !edge(tour[k], tour[k+1], false) || !edge(tour[i], tour[k+1], true) {
			return 0, false
		}
	}
	if closed {
		first, last := tour[0], tour[n-1]
		newFirst, newLast := first, last
		if i == 0 {
			newFirst = tour[k]
		}
		if k == n-1 {
			newLast = tour[i]
		}
		if !edge(last, first, false) || !edge(newLast, newFirst, true) {
			return 0, false
		}
	}

	return newCost - oldCost, true
}

// TwoOpt improves tour by reversing segments inside the mutable range.
// It accepts the first strictly improving reversal found, restarts the scan,
// and stops when a full pass finds nothing or after maxIterations accepted
// moves. Candidates touching an unreachable edge are never proposed. The
// input tour is not modified.
func TwoOpt(tour []int, matrix models.CostMatrix, opts models.RouteOptions, maxIterations int) ([]int, int) {
	n := len(tour)
	current := copyTour(tour)
	if maxIterations <= 0 {
		maxIterations = DefaultTwoOptMaxIterations
	}

	lo, hi := mutableRange(n, opts)
	if hi-lo < 1 {
		return current, 0
	}

	currentCost := TourCost(current, matrix, opts)
	iterations := 0

	for iterations < maxIterations {
		sums := newPathSums(current, matrix)
		improved := false

	scan:
		for i := lo; i < hi; i++ {
			for k := i + 1; k <= hi; k++ {
				delta, ok := twoOptDelta(current, matrix, sums, i, k, opts.IsClosedLoop)
				if !ok || delta >= -costEpsilon {
					continue
				}

				candidate := reversed(current, i, k)
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

		if !improved {
			break
		}
		iterations++
	}

	return current, iterations
}
