package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tour-planner/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tourplan version %s\n", server.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
