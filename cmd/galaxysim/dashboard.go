package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"galaxysim/internal/config"
	"galaxysim/internal/dashboard"
	"galaxysim/internal/store"
)

var (
	dashConfigPath string
	dashSchemaPath string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive terminal view of the universe",
	Long:  "dashboard opens a read-only TUI over the configured store: planets, fleets, and the recent tick journal. Run it next to a serve process.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(dashConfigPath, dashSchemaPath)
		if err != nil {
			return err
		}
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		p := tea.NewProgram(dashboard.New(db), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	dashboardCmd.Flags().StringVar(&dashSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
}
