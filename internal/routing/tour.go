package routing

import (
	"fmt"

	"tour-planner/internal/models"
)

// NormalizeOptions validates opts against n waypoints and resolves the
// defaults the solver relies on: an end index is only kept while fixed_end
// is set, and a fixed end equal to the start becomes a closed loop.
func NormalizeOptions(n int, opts models.RouteOptions) (models.RouteOptions, error) {
	if n < 1 {
		return opts, &InvalidInputError{Field: "waypoints", Reason: "at least one waypoint is required"}
	}
	if opts.StartIndex < 0 || opts.StartIndex >= n {
		return opts, &InvalidInputError{
			Field:  "start_index",
			Reason: fmt.Sprintf("%d out of range [0,%d)", opts.StartIndex, n),
		}
	}
	if opts.FixedEnd && opts.EndIndex == nil {
		return opts, &InvalidInputError{Field: "end_index", Reason: "fixed_end requires an end_index"}
	}
	if opts.EndIndex != nil && (*opts.EndIndex < 0 || *opts.EndIndex >= n) {
		return opts, &InvalidInputError{
			Field:  "end_index",
			Reason: fmt.Sprintf("%d out of range [0,%d)", *opts.EndIndex, n),
		}
	}

	out := opts
	if !out.FixedEnd {
		out.EndIndex = nil
		return out, nil
	}

	end := *out.EndIndex
	out.EndIndex = models.IntPtr(end)
	if end == out.StartIndex {
		// Ending where we started is a round trip.
		out.FixedEnd = false
		out.EndIndex = nil
		out.IsClosedLoop = true
	}
	return out, nil
}

// mutableRange returns the inclusive tour positions local search may reorder
func mutableRange(n int, opts models.RouteOptions) (lo, hi int) {
	lo, hi = 0, n-1
	if opts.FixedStart {
		lo = 1
	}
	if opts.HasEnd() {
		hi = n - 2
	}
	return lo, hi
}

// ValidateTour checks that tour is a permutation of 0..n-1 that honours the pinned positions
func ValidateTour(tour []int, n int, opts models.RouteOptions) error {
	if len(tour) != n {
		return fmt.Errorf("tour has %d entries, want %d", len(tour), n)
	}
	seen := make([]bool, n)
	for pos, v := range tour {
		if v < 0 || v >= n {
			return fmt.Errorf("tour[%d]=%d out of range", pos, v)
		}
		if seen[v] {
			return fmt.Errorf("waypoint %d appears twice", v)
		}
		seen[v] = true
	}
	if n == 0 {
		return nil
	}
	if opts.FixedStart && tour[0] != opts.StartIndex {
		return fmt.Errorf("tour starts at %d, want pinned start %d", tour[0], opts.StartIndex)
	}
	if opts.HasEnd() && tour[n-1] != *opts.EndIndex {
		return fmt.Errorf("tour ends at %d, want pinned end %d", tour[n-1], *opts.EndIndex)
	}
	return nil
}

// IdentityOrder returns 0..n-1
func IdentityOrder(n int) []int {
	tour := make([]int, n)
	for i := range tour {
		tour[i] = i
	}
	return tour
}

// BaselineOrder is the ascending order with any pinned start moved to the
// front and pinned end moved to the back. With default options it is the
// identity order.
func BaselineOrder(n int, opts models.RouteOptions) []int {
	if n == 0 {
		return []int{}
	}
	end := opts.End()
	tour := make([]int, 0, n)
	if opts.FixedStart {
		tour = append(tour, opts.StartIndex)
	}
	for i := 0; i < n; i++ {
		if opts.FixedStart && i == opts.StartIndex {
			continue
		}
		if i == end {
			continue
		}
		tour = append(tour, i)
	}
	if end >= 0 {
		tour = append(tour, end)
	}
	return tour
}

func copyTour(tour []int) []int {
	return append([]int(nil), tour...)
}

// reversed returns a new tour with positions i..k reversed
func reversed(tour []int, i, k int) []int {
	out := copyTour(tour)
	for i < k {
		out[i], out[k] = out[k], out[i]
		i++
		k--
	}
	return out
}

// relocated returns a new tour with the segment tour[i:i+length] moved so it starts at position j
func relocated(tour []int, i, length, j int) []int {
	segment := tour[i : i+length]
	remaining := make([]int, 0, len(tour)-length)
	remaining = append(remaining, tour[:i]...)
	remaining = append(remaining, tour[i+length:]...)

	out := make([]int, 0, len(tour))
	out = append(out, remaining[:j]...)
	out = append(out, segment...)
	out = append(out, remaining[j:]...)
	return out
}
