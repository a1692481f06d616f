package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iliyamo/streamhub/internal/database"
	"github.com/iliyamo/streamhub/internal/queue"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		db, err := database.Open(cmd.Context(), cfg.DB)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := database.Migrate(cmd.Context(), db, cfg.DB.Driver); err != nil {
			return err
		}
		logger.Info("schema up to date", slog.String("driver", cfg.DB.Driver))
		return nil
	},
}

// consumeCmd appends every engagement event from the broker to the
// engagement log until interrupted.
var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Write engagement events from the broker to the engagement log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		err = queue.NewConsumer(cfg.Queue, logger).Run(cmd.Context())
		if cmd.Context().Err() != nil {
			return nil
		}
		return err
	},
}
