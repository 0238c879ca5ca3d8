package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/circulars-tracker/internal/common"
	"github.com/joseph-ayodele/circulars-tracker/internal/repository"
)

// dbhealth connects to the configured database, pings it, and reports the
// circular item summary. Exit code 0 means healthy.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := repository.NewPool(ctx, cfg.Database.DSN, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.HealthCheck(ctx, pool); err != nil {
		logger.Error("health check failed", "error", err)
		os.Exit(1)
	}

	summary, err := repository.NewCircularItemRepository(pool, logger).Summary(ctx)
	if err != nil {
		logger.Error("summary failed", "error", err)
		os.Exit(1)
	}
	logger.Info("db healthy",
		"total_items", summary.TotalItems,
		"retailers", summary.Retailers,
	)
}
