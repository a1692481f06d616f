package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iliyamo/streamhub/internal/app"
	"github.com/iliyamo/streamhub/internal/config"
	"github.com/iliyamo/streamhub/internal/database"
	"github.com/iliyamo/streamhub/internal/queue"
	"github.com/iliyamo/streamhub/internal/service"
	"github.com/iliyamo/streamhub/internal/storage"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply the schema before listening")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if serveMigrate {
		if err := database.Migrate(ctx, db, cfg.DB.Driver); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	media, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("media storage: %w", err)
	}

	var rdb *redis.Client
	if cfg.RateLimit.Enabled {
		rdb, err = config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, using in-process rate limiter", slog.Any("error", err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var events service.EventPublisher = queue.Discard{}
	if cfg.Queue.Enabled {
		pub := queue.NewPublisher(cfg.Queue, logger)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := pub.Close(closeCtx); err != nil {
				logger.Warn("event publisher did not drain", slog.Any("error", err))
			}
		}()
		events = pub
	}

	e := app.NewServer(app.Deps{
		Config: cfg,
		DB:     db,
		Media:  media,
		Events: events,
		Redis:  rdb,
		Logger: logger,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
