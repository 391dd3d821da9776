package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-planner/internal/distance"
	"tour-planner/internal/models"
)

func unitSquare() models.CostMatrix {
	return pointMatrix([2]float64{0, 0}, [2]float64{1, 0}, [2]float64{1, 1}, [2]float64{0, 1})
}

func TestTwoOpt_RemovesCrossing(t *testing.T) {
	opts := models.DefaultRouteOptions()
	opts.IsClosedLoop = true
	m := unitSquare()

	start := []int{0, 2, 1, 3}
	assert.InDelta(t, 2+2*math.Sqrt2, TourCost(start, m, opts), 1e-9)

	tour, iterations := TwoOpt(start, m, opts, 0)
	assert.Equal(t, []int{0, 1, 2, 3}, tour)
	assert.InDelta(t, 4.0, TourCost(tour, m, opts), 1e-9)
	assert.Equal(t, 1, iterations)
	assert.Equal(t, []int{0, 2, 1, 3}, start, "input must not change")
}

func TestTwoOpt_DeltaMatchesFullCost(t *testing.T) {
	for _, closed := range []bool{false, true} {
		m := distance.RandomMatrix(8, 11)
		opts := models.RouteOptions{IsClosedLoop: closed}
		tour := []int{3, 0, 7, 5, 1, 6, 2, 4}
		sums := newPathSums(tour, m)
		base := TourCost(tour, m, opts)

		for i := 0; i < len(tour)-1; i++ {
			for k := i + 1; k < len(tour); k++ {
				delta, ok := twoOptDelta(tour, m, sums, i, k, closed)
				require.True(t, ok)
				want := TourCost(reversed(tour, i, k), m, opts) - base
				assert.InDelta(t, want, delta, 1e-6, "closed=%t i=%d k=%d", closed, i, k)
			}
		}
	}
}

func TestTwoOpt_DeltaRejectsUnreachableEdges(t *testing.T) {
	m := lineMatrix(0, 1, 2, 3, 4)
	m[0][3] = models.Unreachable()
	tour := []int{0, 1, 2, 3, 4}
	sums := newPathSums(tour, m)

	// reversing [1..3] would add the edge 0->3
	_, ok := twoOptDelta(tour, m, sums, 1, 3, false)
	assert.False(t, ok)

	_, ok = twoOptDelta(tour, m, sums, 2, 3, false)
	assert.True(t, ok)
}

func TestTwoOpt_LocallyOptimal(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		m := distance.RandomMatrix(12, seed)
		opts := models.DefaultRouteOptions()

		tour, _ := TwoOpt(IdentityOrder(12), m, opts, 10000)
		cost := TourCost(tour, m, opts)

		lo, hi := mutableRange(12, opts)
		for i := lo; i < hi; i++ {
			for k := i + 1; k <= hi; k++ {
				assert.False(t, improves(TourCost(reversed(tour, i, k), m, opts), cost),
					"seed=%d reversal %d..%d still improves", seed, i, k)
			}
		}
	}
}

func TestTwoOpt_RespectsIterationBound(t *testing.T) {
	m := distance.RandomMatrix(15, 3)
	_, iterations := TwoOpt(IdentityOrder(15), m, models.DefaultRouteOptions(), 2)
	assert.LessOrEqual(t, iterations, 2)
}

func TestOrOpt_RelocatesStop(t *testing.T) {
	m := lineMatrix(0, 1, 2, 3, 4)
	opts := models.DefaultRouteOptions()

	start := []int{0, 2, 1, 3, 4}
	assert.Equal(t, 6.0, TourCost(start, m, opts))

	tour, iterations := OrOpt(start, m, opts, 0, 0)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, tour)
	assert.Equal(t, 4.0, TourCost(tour, m, opts))
	assert.GreaterOrEqual(t, iterations, 1)
}

func TestOrOpt_MovesSegment(t *testing.T) {
	m := lineMatrix(0, 1, 2, 3, 4, 5)
	opts := models.DefaultRouteOptions()

	// the run 4,5 sits in the middle of the line
	start := []int{0, 4, 5, 1, 2, 3}
	tour, _ := OrOpt(start, m, opts, 3, 0)
	assert.Equal(t, 5.0, TourCost(tour, m, opts))
}

func TestOrOpt_LocallyOptimal(t *testing.T) {
	m := distance.RandomMatrix(9, 21)
	opts := models.DefaultRouteOptions()

	tour, _ := OrOpt(IdentityOrder(9), m, opts, 3, 10000)
	cost := TourCost(tour, m, opts)

	lo, hi := mutableRange(9, opts)
	for length := 1; length <= 3; length++ {
		last := hi - length + 1
		for i := lo; i <= last; i++ {
			for j := lo; j <= last; j++ {
				if i == j {
					continue
				}
				assert.False(t, improves(TourCost(relocated(tour, i, length, j), m, opts), cost))
			}
		}
	}
}

func TestImprovers_RespectPinsAndNeverWorsen(t *testing.T) {
	for n := 2; n <= 9; n++ {
		m := distance.RandomMatrix(n, uint64(40+n))
		for _, opts := range optionVariants(t, n) {
			start := BaselineOrder(n, opts)
			startCost := TourCost(start, m, opts)

			two, _ := TwoOpt(start, m, opts, 0)
			require.NoError(t, ValidateTour(two, n, opts), "2-opt n=%d opts=%+v", n, opts)
			assert.LessOrEqual(t, TourCost(two, m, opts), startCost+costEpsilon)

			or, _ := OrOpt(two, m, opts, 3, 0)
			require.NoError(t, ValidateTour(or, n, opts), "or-opt n=%d opts=%+v", n, opts)
			assert.LessOrEqual(t, TourCost(or, m, opts), TourCost(two, m, opts)+costEpsilon)
		}
	}
}

func TestImprovers_FeasibleStaysFeasible(t *testing.T) {
	m := distance.RandomMatrix(7, 5)
	inf := models.Unreachable()
	m[0][3], m[5][1], m[2][6], m[4][0], m[6][2] = inf, inf, inf, inf, inf
	opts := models.RouteOptions{IsClosedLoop: true}

	start := IdentityOrder(7)
	require.False(t, models.IsUnreachable(TourCost(start, m, opts)))

	two, _ := TwoOpt(start, m, opts, 0)
	assert.False(t, models.IsUnreachable(TourCost(two, m, opts)))

	or, _ := OrOpt(two, m, opts, 3, 0)
	assert.False(t, models.IsUnreachable(TourCost(or, m, opts)))
}

func TestImprovers_NothingToMove(t *testing.T) {
	m := lineMatrix(0, 1, 2)
	opts := models.RouteOptions{StartIndex: 0, FixedStart: true, FixedEnd: true, EndIndex: models.IntPtr(2)}

	tour, iterations := TwoOpt([]int{0, 1, 2}, m, opts, 0)
	assert.Equal(t, []int{0, 1, 2}, tour)
	assert.Zero(t, iterations)

	tour, iterations = OrOpt([]int{0, 1, 2}, m, opts, 3, 0)
	assert.Equal(t, []int{0, 1, 2}, tour)
	assert.Zero(t, iterations)
}
