package routing

import (
	"fmt"
	"log"
	"time"

	"tour-planner/internal/models"
)

// Strategy names the algorithm tier that produced a tour
type Strategy string

const (
	StrategyTrivial       Strategy = "trivial"               // fewer than two waypoints
	StrategyBruteForce    Strategy = "brute_force"           // exhaustive search
	StrategyMultiStart    Strategy = "multi_start"           // NN + 2-opt from several seeds, then Or-opt
	StrategyNearestTwoOpt Strategy = "nearest_neighbor_2opt" // single NN + 2-opt
	StrategyBaseline      Strategy = "baseline"              // fallback after a stage failure
)

// Tuning holds the size thresholds and search limits of the solver
type Tuning struct {
	BruteForceMaxN      int `yaml:"brute_force_max_n"`
	MultiStartMaxN      int `yaml:"multi_start_max_n"`
	MultiStartCount     int `yaml:"multi_start_count"`
	TwoOptMaxIterations int `yaml:"two_opt_max_iterations"`
	OrOptMaxSegment     int `yaml:"or_opt_max_segment"`
	OrOptMaxIterations  int `yaml:"or_opt_max_iterations"`
}

// DefaultTuning returns the standard thresholds: exact search up to 4
// waypoints, multi-start up to 10, nearest neighbor + 2-opt beyond.
func DefaultTuning() Tuning {
	return Tuning{
		BruteForceMaxN:      4,
		MultiStartMaxN:      10,
		MultiStartCount:     5,
		TwoOptMaxIterations: DefaultTwoOptMaxIterations,
		OrOptMaxSegment:     DefaultOrOptMaxSegment,
		OrOptMaxIterations:  DefaultOrOptMaxIterations,
	}
}

// Validate rejects thresholds the solver cannot honour
func (t Tuning) Validate() error {
	if t.BruteForceMaxN < 0 || t.BruteForceMaxN > MaxBruteForceSize {
		return fmt.Errorf("brute_force_max_n must be between 0 and %d, got %d", MaxBruteForceSize, t.BruteForceMaxN)
	}
	if t.MultiStartMaxN < t.BruteForceMaxN {
		return fmt.Errorf("multi_start_max_n (%d) must not be below brute_force_max_n (%d)", t.MultiStartMaxN, t.BruteForceMaxN)
	}
	if t.MultiStartCount < 1 {
		return fmt.Errorf("multi_start_count must be at least 1, got %d", t.MultiStartCount)
	}
	if t.TwoOptMaxIterations < 1 {
		return fmt.Errorf("two_opt_max_iterations must be at least 1, got %d", t.TwoOptMaxIterations)
	}
	if t.OrOptMaxSegment < 1 {
		return fmt.Errorf("or_opt_max_segment must be at least 1, got %d", t.OrOptMaxSegment)
	}
	if t.OrOptMaxIterations < 1 {
		return fmt.Errorf("or_opt_max_iterations must be at least 1, got %d", t.OrOptMaxIterations)
	}
	return nil
}

// StrategyFor returns the tier used for n waypoints
func (t Tuning) StrategyFor(n int) Strategy {
	switch {
	case n < 2:
		return StrategyTrivial
	case n <= t.BruteForceMaxN:
		return StrategyBruteForce
	case n <= t.MultiStartMaxN:
		return StrategyMultiStart
	default:
		return StrategyNearestTwoOpt
	}
}

// Solution is the outcome of solving one cost matrix
type Solution struct {
	Tour       []int
	Cost       float64
	Strategy   Strategy
	Degraded   bool
	Iterations int
}

// Solver runs the tiered construction and improvement pipeline.
// The stage functions are fields so tests can substitute faulty stages.
type Solver struct {
	tuning Tuning

	bruteForce      func(models.CostMatrix, models.RouteOptions) ([]int, error)
	nearestNeighbor func(models.CostMatrix, models.RouteOptions) []int
	twoOpt          func([]int, models.CostMatrix, models.RouteOptions, int) ([]int, int)
	orOpt           func([]int, models.CostMatrix, models.RouteOptions, int, int) ([]int, int)
}

// NewSolver creates a solver with the given tuning
func NewSolver(tuning Tuning) *Solver {
	return &Solver{
		tuning:          tuning,
		bruteForce:      BruteForce,
		nearestNeighbor: NearestNeighbor,
		twoOpt:          TwoOpt,
		orOpt:           OrOpt,
	}
}

// Solve is shorthand for NewSolver(tuning).Solve(matrix, opts)
func Solve(matrix models.CostMatrix, opts models.RouteOptions, tuning Tuning) (*Solution, error) {
	return NewSolver(tuning).Solve(matrix, opts)
}

// Tuning returns the solver's thresholds
func (s *Solver) Tuning() Tuning {
	return s.tuning
}

// Solve orders the waypoints of matrix. opts must already be normalized
// for len(matrix). If a stage fails, the baseline order is returned with
// Degraded set. A tour that is not a valid permutation is never returned.
func (s *Solver) Solve(matrix models.CostMatrix, opts models.RouteOptions) (*Solution, error) {
	n := len(matrix)
	strategy := s.tuning.StrategyFor(n)
	if strategy == StrategyTrivial {
		return &Solution{Tour: IdentityOrder(n), Strategy: strategy}, nil
	}

	start := time.Now()
	tour, iterations, err := s.run(strategy, matrix, opts)
	degraded := false
	if err != nil {
		log.Printf("[OPTIMIZE] %s stage failed, using baseline order: %v", strategy, err)
		tour = BaselineOrder(n, opts)
		iterations = 0
		strategy = StrategyBaseline
		degraded = true
	}
	log.Printf("[TIMING] Solve (%s, n=%d): %v (iterations=%d)", strategy, n, time.Since(start), iterations)

	if err := ValidateTour(tour, n, opts); err != nil {
		log.Printf("[ERROR] %s returned an invalid tour %v: %v", strategy, tour, err)
		return nil, &invariantError{stage: strategy, reason: err.Error()}
	}

	cost := TourCost(tour, matrix, opts)
	if models.IsUnreachable(cost) {
		return nil, &InfeasibleTourError{Tour: tour, Strategy: strategy}
	}

	return &Solution{
		Tour:       tour,
		Cost:       cost,
		Strategy:   strategy,
		Degraded:   degraded,
		Iterations: iterations,
	}, nil
}

// run executes one strategy, turning a panic in any stage into an error
func (s *Solver) run(strategy Strategy, matrix models.CostMatrix, opts models.RouteOptions) (tour []int, iterations int, err error) {
	defer func() {
		if r := recover(); r != nil {
			tour, iterations = nil, 0
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch strategy {
	case StrategyBruteForce:
		tour, err = s.bruteForce(matrix, opts)
		return tour, 0, err
	case StrategyMultiStart:
		tour, iterations = s.multiStart(matrix, opts)
		return tour, iterations, nil
	case StrategyNearestTwoOpt:
		tour = s.nearestNeighbor(matrix, opts)
		tour, iterations = s.twoOpt(tour, matrix, opts, s.tuning.TwoOptMaxIterations)
		return tour, iterations, nil
	default:
		return nil, 0, fmt.Errorf("unknown strategy %q", strategy)
	}
}

// multiStart runs nearest neighbor + 2-opt from each seed, keeps the
// cheapest tour, then polishes it with Or-opt.
func (s *Solver) multiStart(matrix models.CostMatrix, opts models.RouteOptions) ([]int, int) {
	var best []int
	bestCost := 0.0
	total := 0

	for _, seed := range multiStartSeeds(len(matrix), opts, s.tuning.MultiStartCount) {
		seedOpts := opts
		seedOpts.StartIndex = seed

		tour := s.nearestNeighbor(matrix, seedOpts)
		tour, iterations := s.twoOpt(tour, matrix, opts, s.tuning.TwoOptMaxIterations)
		total += iterations

		cost := TourCost(tour, matrix, opts)
		if best == nil || improves(cost, bestCost) {
			best = tour
			bestCost = cost
		}
	}

	best, iterations := s.orOpt(best, matrix, opts, s.tuning.OrOptMaxSegment, s.tuning.OrOptMaxIterations)
	return best, total + iterations
}

// multiStartSeeds lists the construction start points: only the pinned start
// when the start is fixed, otherwise StartIndex followed by ascending indices,
// skipping a pinned end, up to count seeds.
func multiStartSeeds(n int, opts models.RouteOptions, count int) []int {
	if opts.FixedStart || count <= 1 {
		return []int{opts.StartIndex}
	}

	end := opts.End()
	seeds := []int{opts.StartIndex}
	for i := 0; i < n && len(seeds) < count; i++ {
		if i == opts.StartIndex || i == end {
			continue
		}
		seeds = append(seeds, i)
	}
	return seeds
}
