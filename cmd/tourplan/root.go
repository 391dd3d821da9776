package main

import (
	"io"
	"log"

	"github.com/spf13/cobra"

	"tour-planner/internal/config"
)

var (
	configPath string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "tourplan",
	Short: "Order the stops of a multi-stop route",
	Long: `tourplan finds a short visiting order for a list of waypoints, using
exact search for small inputs and local search heuristics for larger ones.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			log.SetOutput(io.Discard)
			return
		}
		log.SetOutput(cmd.ErrOrStderr())
		log.SetPrefix("[tourplan] ")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $TOURPLAN_CONFIG or ~/.tour-planner/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Discard log output")
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}
