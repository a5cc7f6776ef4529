package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"galaxysim/internal/config"
	"galaxysim/internal/logging"
	"galaxysim/internal/sim"
	"galaxysim/internal/store"
)

var (
	tickConfigPath string
	tickSchemaPath string
	tickCount      int
	tickColor      bool
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Advance the universe manually",
	Long:  "tick runs one or more pipeline passes against the configured store and prints each tick summary. Useful for testing and scripted scenarios.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(tickConfigPath, tickSchemaPath)
		if err != nil {
			return err
		}

		log := logging.New(cfg.Log.Format, cfg.Log.Level)
		ctx := logging.NewContext(context.Background(), log)

		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		writer, _, err := newWriter(cfg, true, tickColor, "")
		if err != nil {
			return err
		}

		simulator := sim.NewSimulator(cfg, db, writer)
		if err := simulator.EnsureSeeded(ctx); err != nil {
			return err
		}

		for i := 0; i < tickCount; i++ {
			summary, err := simulator.RunTick(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("tick %d: %d resource changes, %d fleet events, %d guard repairs\n",
				summary.Tick, summary.ResourceChanges, summary.FleetEvents, summary.GuardRepairs)
		}
		return nil
	},
}

func init() {
	tickCmd.Flags().StringVar(&tickConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	tickCmd.Flags().StringVar(&tickSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	tickCmd.Flags().IntVar(&tickCount, "n", 1, "Number of ticks to run")
	tickCmd.Flags().BoolVar(&tickColor, "color", false, "Colorize journal output")
}
