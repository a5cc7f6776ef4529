package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "galaxysim",
	Short: "Persistent galaxy simulation engine",
	Long:  "galaxysim runs a persistent space-strategy universe: resource production, fleet missions, combat, and colonization, advanced one tick at a time.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(dashboardCmd)
}
