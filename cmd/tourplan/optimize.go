package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tour-planner/internal/export"
	"tour-planner/internal/geocoding"
	"tour-planner/internal/models"
	"tour-planner/internal/routing"
	"tour-planner/internal/server"
)

var (
	routeFile      string
	providerName   string
	geojsonOutput  bool
	closedOverride bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Optimize the visiting order of a waypoint file",
	Long: `Reads waypoints and route options from a YAML or JSON file, fetches the
travel-cost matrix, and prints the optimized order.`,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVarP(&routeFile, "file", "f", "", "Waypoint file, YAML or JSON (required)")
	optimizeCmd.Flags().StringVar(&providerName, "provider", server.ProviderOSRM, "Matrix provider: osrm or haversine")
	optimizeCmd.Flags().BoolVar(&geojsonOutput, "geojson", false, "Print the route as a GeoJSON FeatureCollection")
	optimizeCmd.Flags().BoolVar(&closedOverride, "closed", false, "Return to the start (overrides the file)")

	optimizeCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(optimizeCmd)
}

// RouteFile is the on-disk form of an optimization request. JSON files
// parse as YAML, so one decoder serves both.
type RouteFile struct {
	Waypoints []models.Waypoint   `yaml:"waypoints"`
	Options   models.RouteOptions `yaml:"options"`
}

func loadRouteFile(path string) (*RouteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read waypoint file: %w", err)
	}
	return parseRouteFile(data)
}

func parseRouteFile(data []byte) (*RouteFile, error) {
	rf := &RouteFile{Options: models.DefaultRouteOptions()}
	if err := yaml.Unmarshal(data, rf); err != nil {
		return nil, fmt.Errorf("failed to parse waypoint file: %w", err)
	}
	if len(rf.Waypoints) == 0 {
		return nil, fmt.Errorf("waypoint file has no waypoints")
	}
	return rf, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rf, err := loadRouteFile(routeFile)
	if err != nil {
		return err
	}
	if closedOverride {
		rf.Options.IsClosedLoop = true
	}
	if _, err := routing.NormalizeOptions(len(rf.Waypoints), rf.Options); err != nil {
		return err
	}

	backend, err := server.NewBackend(cfg, providerName)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx := cmd.Context()
	waypoints := rf.Waypoints
	if backend.Geocoder != nil {
		waypoints, _, err = geocoding.ResolveWaypoints(ctx, backend.Geocoder, waypoints, geocoding.DefaultMaxRetries)
		if err != nil {
			return err
		}
	}

	result, err := backend.Optimizer.Optimize(ctx, waypoints, rf.Options)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if geojsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(export.RouteFeatureCollection(result))
	}
	return printResult(out, result, cfg.Metric)
}

func printResult(out io.Writer, result *models.OptimizationResult, metric string) error {
	fmt.Fprintf(out, "strategy: %s", result.Strategy)
	if result.Degraded {
		fmt.Fprint(out, " (degraded)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "total %s: %.1f\n\n", metric, result.TotalCost)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tNAME\tINPUT\tCUMULATIVE")
	for i, wp := range result.Waypoints {
		cumulative := 0.0
		if i > 0 && i-1 < len(result.Legs) {
			cumulative = result.Legs[i-1].CumulativeCost
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.1f\n", i+1, wp.ID, wp.Name, result.Order[i], cumulative)
	}
	if result.ClosedLoop && len(result.Legs) > 0 {
		last := result.Legs[len(result.Legs)-1]
		fmt.Fprintf(tw, "-\t%s\t%s\t%d\t%.1f\n", result.Waypoints[0].ID, "(return)", result.Order[0], last.CumulativeCost)
	}
	return tw.Flush()
}
