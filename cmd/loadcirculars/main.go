package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/circulars-tracker/internal/common"
	"github.com/joseph-ayodele/circulars-tracker/internal/document"
	"github.com/joseph-ayodele/circulars-tracker/internal/extraction"
	"github.com/joseph-ayodele/circulars-tracker/internal/loader"
	"github.com/joseph-ayodele/circulars-tracker/internal/ocr"
	"github.com/joseph-ayodele/circulars-tracker/internal/parser"
	"github.com/joseph-ayodele/circulars-tracker/internal/repository"
)

// loadcirculars extracts every configured retailer's circulars from the
// data directory and loads the items into the database, then exits.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	retailerFlag := flag.String("retailer", "", "load only this retailer")
	timeoutFlag := flag.Duration("timeout", 2*time.Hour, "overall load budget")
	flag.Parse()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	pool, err := repository.NewPool(ctx, cfg.Database.DSN, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	repo := repository.NewCircularItemRepository(pool, logger)

	mode, err := extraction.ParseMode(cfg.Extraction.Mode)
	if err != nil {
		logger.Error("invalid extraction mode", "error", err)
		os.Exit(1)
	}

	runner := document.ExecRunner{}
	linear := ocr.NewLinearEngine(ocr.LinearConfig{TessdataDir: cfg.Extraction.TessdataDir}, runner, logger)
	spatial := ocr.NewSpatialEngine(ocr.SpatialConfig{TessdataDir: cfg.Extraction.TessdataDir}, logger)
	extractor := document.NewExtractor(document.Config{
		DPI:            cfg.Extraction.DPI,
		MaxPages:       cfg.Extraction.MaxPages,
		FetchTimeout:   cfg.Extraction.FetchTimeout,
		OCRPageTimeout: cfg.Extraction.OCRPageTimeout,
	}, runner, linear, logger)
	orchestrator := extraction.NewOrchestrator(extraction.Config{
		Mode:     mode,
		MaxPages: cfg.Extraction.MaxPages,
		DPI:      cfg.Extraction.DPI,
	}, extractor, []ocr.Engine{linear, spatial}, parser.New(parser.Config{}, logger), logger)

	// Force auto-load on: running this binary is an explicit load request.
	svc := loader.NewService(cfg.Extraction.CircularDir, true, nil, orchestrator, repo, logger)

	start := time.Now()
	if *retailerFlag != "" {
		res, err := svc.ReloadRetailer(ctx, *retailerFlag)
		if err != nil {
			logger.Error("reload failed", "retailer", *retailerFlag, "error", err)
			os.Exit(1)
		}
		logger.Info("reload finished",
			"retailer", res.Retailer,
			"items_loaded", res.ItemsLoaded,
			"files", res.Files,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}

	results := svc.LoadAll(ctx)
	var total int64
	for _, r := range results {
		total += r.ItemsLoaded
	}
	logger.Info("load finished",
		"retailers", len(results),
		"total_items", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
