package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/joseph-ayodele/circulars-tracker/internal/common"
	"github.com/joseph-ayodele/circulars-tracker/internal/document"
	"github.com/joseph-ayodele/circulars-tracker/internal/export"
	"github.com/joseph-ayodele/circulars-tracker/internal/extraction"
	"github.com/joseph-ayodele/circulars-tracker/internal/loader"
	"github.com/joseph-ayodele/circulars-tracker/internal/ocr"
	"github.com/joseph-ayodele/circulars-tracker/internal/offers"
	"github.com/joseph-ayodele/circulars-tracker/internal/parser"
	"github.com/joseph-ayodele/circulars-tracker/internal/repository"
	"github.com/joseph-ayodele/circulars-tracker/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.Database.DSN, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.NewCircularItemRepository(pool, logger)

	// Extraction pipeline: linear tesseract engine doubles as the page OCR
	// for the plain-text fallback path.
	runner := document.ExecRunner{}
	linear := ocr.NewLinearEngine(ocr.LinearConfig{TessdataDir: cfg.Extraction.TessdataDir}, runner, logger)
	spatial := ocr.NewSpatialEngine(ocr.SpatialConfig{TessdataDir: cfg.Extraction.TessdataDir}, logger)
	extractor := document.NewExtractor(document.Config{
		DPI:            cfg.Extraction.DPI,
		MaxPages:       cfg.Extraction.MaxPages,
		FetchTimeout:   cfg.Extraction.FetchTimeout,
		OCRPageTimeout: cfg.Extraction.OCRPageTimeout,
	}, runner, linear, logger)

	mode, err := extraction.ParseMode(cfg.Extraction.Mode)
	if err != nil {
		logger.Error("invalid extraction mode", "error", err)
		os.Exit(1)
	}
	orchestrator := extraction.NewOrchestrator(extraction.Config{
		Mode:     mode,
		MaxPages: cfg.Extraction.MaxPages,
		DPI:      cfg.Extraction.DPI,
	}, extractor, []ocr.Engine{linear, spatial}, parser.New(parser.Config{}, logger), logger)

	ldr := loader.NewService(cfg.Extraction.CircularDir, cfg.Extraction.AutoLoad, nil, orchestrator, repo, logger)
	go ldr.LoadAll(ctx)

	if cfg.Extraction.WatchDir {
		watcher := loader.NewWatcher(cfg.Extraction.CircularDir, ldr, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	// Offer providers, curated sources first.
	registrations := []offers.Registration{
		{Name: "Safeway Weekly Ad", Provider: offers.NewSafewayProvider(nil, logger), Enabled: true},
		{Name: "Smith's Weekly Ad", Provider: offers.NewSmithsProvider(), Enabled: true},
		{Name: "Circular DB", Provider: offers.NewCircularDBProvider(repo, logger), Enabled: true},
		{Name: "PDF Extraction", Provider: offers.NewPDFProvider(orchestrator, pdfSources(cfg.Extraction.CircularDir, ldr), logger), Enabled: true},
		{Name: "Walmart Weekly Ad", Provider: offers.NewWalmartProvider(nil, logger), Enabled: cfg.Pricing.WalmartEnabled},
		{Name: "Flipp", Provider: offers.NewFlippProvider(cfg.Pricing.FlippAPIKey, logger), Enabled: true},
		{Name: "Basket", Provider: offers.NewBasketProvider(cfg.Pricing.BasketAPIKey), Enabled: true},
	}
	if cfg.Pricing.CuratedDBPath != "" {
		curated, err := offers.OpenCuratedProvider(cfg.Pricing.CuratedDBPath, "", logger)
		if err != nil {
			logger.Error("open curated db", "error", err)
			os.Exit(1)
		}
		defer func() { _ = curated.Close() }()
		registrations = append([]offers.Registration{
			{Name: "Curated DB", Provider: curated, Enabled: true},
		}, registrations...)
	}

	aggregator := offers.NewAggregator(registrations, logger)
	if cfg.Pricing.RadiusMiles > 0 {
		aggregator.DefaultRadiusMiles = cfg.Pricing.RadiusMiles
	}

	var source server.OfferSource = aggregator
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		source = offers.NewCachedAggregator(aggregator, rdb, cfg.Cache.OfferTTL, logger)
		logger.Info("offer cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.OfferTTL)
	}

	svc := server.NewService(source, repo, ldr, export.NewService(repo, logger), pool, logger)
	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      svc.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // extraction-triggering reloads are slow
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("stopped")
}

// pdfSources enumerates circulars already on disk so the live-extraction
// provider can answer queries even before a retailer is loaded into the
// database. Files that match no retailer pattern are skipped.
func pdfSources(dir string, ldr *loader.Service) []offers.PDFSource {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.pdf"))
	sources := make([]offers.PDFSource, 0, len(matches))
	for _, m := range matches {
		retailer, ok := ldr.RetailerForFile(m)
		if !ok {
			continue
		}
		sources = append(sources, offers.PDFSource{Store: retailer, Source: m})
	}
	return sources
}
