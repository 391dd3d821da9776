package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tour-planner/internal/distance"
	"tour-planner/internal/models"
	"tour-planner/internal/routing"
)

var (
	benchN    int
	benchSeed uint64
	benchRuns int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time the solver on random cost matrices",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchN, "n", 15, "Number of waypoints")
	benchCmd.Flags().Uint64Var(&benchSeed, "seed", 1, "Random seed")
	benchCmd.Flags().IntVar(&benchRuns, "runs", 1, "Number of matrices to solve")
	rootCmd.AddCommand(benchCmd)
}

// benchWaypoints places n distinct points; the random provider ignores them
func benchWaypoints(n int) []models.Waypoint {
	wps := make([]models.Waypoint, n)
	for i := range wps {
		wps[i] = models.Waypoint{
			ID:  fmt.Sprintf("wp-%d", i),
			Lat: float64(i/10) * 0.01,
			Lng: float64(i%10) * 0.01,
		}
	}
	return wps
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchN < 1 {
		return fmt.Errorf("--n must be at least 1, got %d", benchN)
	}
	if benchRuns < 1 {
		return fmt.Errorf("--runs must be at least 1, got %d", benchRuns)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	optimizer := routing.NewOptimizer(distance.NewRandomProvider(benchSeed, 1000), cfg.Solver)
	waypoints := benchWaypoints(benchN)
	out := cmd.OutOrStdout()

	var total time.Duration
	for run := 1; run <= benchRuns; run++ {
		start := time.Now()
		result, err := optimizer.Optimize(cmd.Context(), waypoints, models.DefaultRouteOptions())
		if err != nil {
			return fmt.Errorf("run %d: %w", run, err)
		}
		elapsed := time.Since(start)
		total += elapsed
		fmt.Fprintf(out, "run %d: n=%d strategy=%s cost=%.1f elapsed=%v\n",
			run, benchN, result.Strategy, result.TotalCost, elapsed)
	}
	fmt.Fprintf(out, "mean elapsed: %v\n", total/time.Duration(benchRuns))
	return nil
}
