package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"galaxysim/internal/admin"
	"galaxysim/internal/config"
	"galaxysim/internal/logging"
	"galaxysim/internal/sim"
	"galaxysim/internal/store"
)

var (
	servePrintOnly  bool
	serveColor      bool
	serveConfigPath string
	serveSchemaPath string
	serveLogFile    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the universe tick loop and admin API",
	Long:  "serve seeds the universe if empty, then advances it on the configured tick interval until interrupted. The travel guard admin API listens alongside.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveConfigPath, serveSchemaPath)
		if err != nil {
			return err
		}

		log := logging.New(cfg.Log.Format, cfg.Log.Level)
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		writer, cleanup, err := newWriter(cfg, servePrintOnly, serveColor, serveLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		simulator := sim.NewSimulator(cfg, db, writer)
		if err := simulator.EnsureSeeded(ctx); err != nil {
			return err
		}

		srv := admin.NewServer(simulator)
		go func() {
			log.Info("admin API listening", "addr", cfg.Admin.Addr)
			if err := srv.Start(cfg.Admin.Addr); err != nil {
				log.Error("admin server failed", "err", err)
			}
		}()

		go simulator.Run(ctx)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		cancel()
		log.Info("simulation stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&servePrintOnly, "print-only", false, "Print journal rows to STDOUT instead of writing to GreptimeDB")
	serveCmd.Flags().BoolVar(&serveColor, "color", false, "Colorize STDOUT journal output")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	serveCmd.Flags().StringVar(&serveSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Path to export journal rows (JSONL)")
}
