package routing

import (
	"tour-planner/internal/models"
)

// NearestNeighbor builds a tour greedily from opts.StartIndex, always moving
// to the cheapest reachable unvisited waypoint. Ties go to the lowest index.
// A pinned end is held back and appended last. When nothing reachable is
// left, the lowest-index unvisited waypoint is taken so the result is always
// a full permutation. opts must already be normalized.
func NearestNeighbor(matrix models.CostMatrix, opts models.RouteOptions) []int {
	n := len(matrix)
	if n == 0 {
		return []int{}
	}

	end := opts.End()
	visited := make([]bool, n)
	tour := make([]int, 0, n)
	tour = append(tour, opts.StartIndex)
	visited[opts.StartIndex] = true

	target := n
	if end >= 0 {
		target = n - 1
	}

	for len(tour) < target {
		last := tour[len(tour)-1]
		next := -1
		best := models.Unreachable()

		for j := 0; j < n; j++ {
			if visited[j] || j == end {
				continue
			}
			cost := matrix[last][j]
			if models.IsUnreachable(cost) {
				continue
			}
			if cost < best {
				best = cost
				next = j
			}
		}

		if next == -1 {
			for j := 0; j < n; j++ {
				if !visited[j] && j != end {
					next = j
					break
				}
			}
		}

		tour = append(tour, next)
		visited[next] = true
	}

	if end >= 0 {
		tour = append(tour, end)
	}
	return tour
}
