package main // Entry point package

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/streamhub/internal/config"
	"github.com/iliyamo/streamhub/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "streamhub",
	Short:         "Video sharing backend: accounts, videos, comments, likes and subscriptions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, consumeCmd)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

// setup loads the configuration and installs the process logger.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.New(cfg.Production())
	slog.SetDefault(logger)
	return cfg, logger, nil
}
