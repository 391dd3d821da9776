package routing

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-planner/internal/distance"
	"tour-planner/internal/models"
)

func TestTuning_StrategyFor(t *testing.T) {
	tuning := DefaultTuning()
	tests := []struct {
		n    int
		want Strategy
	}{
		{0, StrategyTrivial},
		{1, StrategyTrivial},
		{2, StrategyBruteForce},
		{4, StrategyBruteForce},
		{5, StrategyMultiStart},
		{10, StrategyMultiStart},
		{11, StrategyNearestTwoOpt},
		{200, StrategyNearestTwoOpt},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tuning.StrategyFor(tt.n), "n=%d", tt.n)
	}
}

func TestTuning_Validate(t *testing.T) {
	assert.NoError(t, DefaultTuning().Validate())

	tests := []struct {
		name   string
		mutate func(*Tuning)
	}{
		{"brute force too large", func(t *Tuning) { t.BruteForceMaxN = MaxBruteForceSize + 1 }},
		{"negative brute force", func(t *Tuning) { t.BruteForceMaxN = -1 }},
		{"multi-start below brute force", func(t *Tuning) { t.MultiStartMaxN = 3 }},
		{"no seeds", func(t *Tuning) { t.MultiStartCount = 0 }},
		{"no 2-opt iterations", func(t *Tuning) { t.TwoOptMaxIterations = 0 }},
		{"no segment", func(t *Tuning) { t.OrOptMaxSegment = 0 }},
		{"no or-opt iterations", func(t *Tuning) { t.OrOptMaxIterations = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tuning := DefaultTuning()
			tt.mutate(&tuning)
			assert.Error(t, tuning.Validate())
		})
	}
}

func TestSolve_Trivial(t *testing.T) {
	sol, err := Solve(models.CostMatrix{{0}}, models.DefaultRouteOptions(), DefaultTuning())
	require.NoError(t, err)
	assert.Equal(t, []int{0}, sol.Tour)
	assert.Equal(t, StrategyTrivial, sol.Strategy)
	assert.Zero(t, sol.Cost)
}

func TestSolve_OpenTriangle(t *testing.T) {
	sol, err := Solve(triangleMatrix(), models.DefaultRouteOptions(), DefaultTuning())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, sol.Tour)
	assert.Equal(t, 10.0, sol.Cost)
	assert.Equal(t, StrategyBruteForce, sol.Strategy)
	assert.False(t, sol.Degraded)
}

func TestSolve_ClosedUnitSquare(t *testing.T) {
	// corners listed out of perimeter order
	m := pointMatrix([2]float64{0, 0}, [2]float64{1, 1}, [2]float64{1, 0}, [2]float64{0, 1})
	opts := models.DefaultRouteOptions()
	opts.IsClosedLoop = true

	sol, err := Solve(m, opts, DefaultTuning())
	require.NoError(t, err)
	assert.InDelta(t, 4.0, sol.Cost, 1e-9)
	assert.Equal(t, 0, sol.Tour[0])
	assert.Equal(t, StrategyBruteForce, sol.Strategy)
}

func TestSolve_Infeasible(t *testing.T) {
	inf := models.Unreachable()
	m := models.CostMatrix{{0, inf}, {inf, 0}}

	sol, err := Solve(m, models.DefaultRouteOptions(), DefaultTuning())
	assert.Nil(t, sol)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasibleTour))

	var infeasible *InfeasibleTourError
	require.True(t, errors.As(err, &infeasible))
	assert.Equal(t, []int{0, 1}, infeasible.Tour)
	assert.Equal(t, StrategyBruteForce, infeasible.Strategy)
	assert.Contains(t, err.Error(), "the best order found crosses an unreachable leg")
}

func TestSolve_FifteenWaypointsUsesHeuristic(t *testing.T) {
	m := distance.RandomMatrix(15, 1)
	s := NewSolver(DefaultTuning())
	bruteCalls := 0
	s.bruteForce = func(m models.CostMatrix, o models.RouteOptions) ([]int, error) {
		bruteCalls++
		return BruteForce(m, o)
	}

	start := time.Now()
	sol, err := s.Solve(m, models.DefaultRouteOptions())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, StrategyNearestTwoOpt, sol.Strategy)
	assert.Zero(t, bruteCalls)
	assert.NoError(t, ValidateTour(sol.Tour, 15, models.DefaultRouteOptions()))
	assert.Equal(t, 0, sol.Tour[0])

	nn := NearestNeighbor(m, models.DefaultRouteOptions())
	assert.LessOrEqual(t, sol.Cost, TourCost(nn, m, models.DefaultRouteOptions())+costEpsilon)
}

func TestSolve_ExactForSmallInputs(t *testing.T) {
	for n := 2; n <= 4; n++ {
		for seed := uint64(1); seed <= 4; seed++ {
			m := distance.RandomMatrix(n, seed*10+uint64(n))
			for _, opts := range optionVariants(t, n) {
				sol, err := Solve(m, opts, DefaultTuning())
				require.NoError(t, err)
				assert.InDelta(t, exhaustiveBest(m, opts), sol.Cost, 1e-9, "n=%d seed=%d opts=%+v", n, seed, opts)
			}
		}
	}
}

func TestSolve_RespectsConstraintsAtEverySize(t *testing.T) {
	for n := 2; n <= 14; n++ {
		m := distance.RandomMatrix(n, uint64(n))
		for _, opts := range optionVariants(t, n) {
			t.Run(fmt.Sprintf("n=%d/%s", n, opts), func(t *testing.T) {
				sol, err := Solve(m, opts, DefaultTuning())
				require.NoError(t, err)
				require.NoError(t, ValidateTour(sol.Tour, n, opts))
				assert.InDelta(t, TourCost(sol.Tour, m, opts), sol.Cost, 1e-9)
				assert.False(t, sol.Degraded)
			})
		}
	}
}

func TestSolve_MultiStartNoWorseThanSingleStart(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		m := distance.RandomMatrix(8, seed)
		opts := models.RouteOptions{StartIndex: 0, FixedStart: false}

		sol, err := Solve(m, opts, DefaultTuning())
		require.NoError(t, err)
		assert.Equal(t, StrategyMultiStart, sol.Strategy)

		single, _ := TwoOpt(NearestNeighbor(m, opts), m, opts, DefaultTwoOptMaxIterations)
		assert.LessOrEqual(t, sol.Cost, TourCost(single, m, opts)+costEpsilon, "seed=%d", seed)
	}
}

func TestSolve_CustomTuningSkipsBruteForce(t *testing.T) {
	tuning := DefaultTuning()
	tuning.BruteForceMaxN = 0

	sol, err := Solve(triangleMatrix(), models.DefaultRouteOptions(), tuning)
	require.NoError(t, err)
	assert.Equal(t, StrategyMultiStart, sol.Strategy)
	assert.Equal(t, 10.0, sol.Cost)
}

func TestSolve_StagePanicDegradesToBaseline(t *testing.T) {
	m := distance.RandomMatrix(6, 9)
	opts := models.RouteOptions{StartIndex: 2, FixedStart: true, FixedEnd: true, EndIndex: models.IntPtr(0)}

	s := NewSolver(DefaultTuning())
	s.twoOpt = func([]int, models.CostMatrix, models.RouteOptions, int) ([]int, int) {
		panic("boom")
	}

	sol, err := s.Solve(m, opts)
	require.NoError(t, err)
	assert.Equal(t, StrategyBaseline, sol.Strategy)
	assert.True(t, sol.Degraded)
	assert.Equal(t, BaselineOrder(6, opts), sol.Tour)
	assert.Equal(t, TourCost(sol.Tour, m, opts), sol.Cost)
}

func TestSolve_StageErrorDegradesToBaseline(t *testing.T) {
	s := NewSolver(DefaultTuning())
	s.bruteForce = func(models.CostMatrix, models.RouteOptions) ([]int, error) {
		return nil, errors.New("out of budget")
	}

	sol, err := s.Solve(triangleMatrix(), models.DefaultRouteOptions())
	require.NoError(t, err)
	assert.True(t, sol.Degraded)
	assert.Equal(t, []int{0, 1, 2}, sol.Tour)
}

func TestSolve_InvalidStageOutputIsInvariantViolation(t *testing.T) {
	m := distance.RandomMatrix(12, 4)
	s := NewSolver(DefaultTuning())
	s.twoOpt = func(tour []int, _ models.CostMatrix, _ models.RouteOptions, _ int) ([]int, int) {
		out := copyTour(tour)
		out[len(out)-1] = out[1]
		return out, 1
	}

	sol, err := s.Solve(m, models.DefaultRouteOptions())
	assert.Nil(t, sol)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.False(t, errors.Is(err, ErrInfeasibleTour))
}

func TestMultiStartSeeds(t *testing.T) {
	free := models.RouteOptions{StartIndex: 2}
	assert.Equal(t, []int{2, 0, 1, 3, 4}, multiStartSeeds(6, free, 5))

	withEnd := models.RouteOptions{StartIndex: 2, FixedEnd: true, EndIndex: models.IntPtr(0)}
	assert.Equal(t, []int{2, 1, 3, 4, 5}, multiStartSeeds(6, withEnd, 5))

	assert.Equal(t, []int{2, 0, 1}, multiStartSeeds(3, free, 5))
	assert.Equal(t, []int{2}, multiStartSeeds(6, models.RouteOptions{StartIndex: 2, FixedStart: true}, 5))
	assert.Equal(t, []int{2}, multiStartSeeds(6, free, 1))
}
