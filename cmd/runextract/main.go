package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/circulars-tracker/internal/common"
	"github.com/joseph-ayodele/circulars-tracker/internal/document"
	"github.com/joseph-ayodele/circulars-tracker/internal/extraction"
	"github.com/joseph-ayodele/circulars-tracker/internal/ocr"
	"github.com/joseph-ayodele/circulars-tracker/internal/parser"
)

// runextract extracts products from one circular PDF and prints them as
// JSON. Useful for checking what the pipeline sees before loading a
// retailer.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	modeFlag := flag.String("mode", "", "engine combination: fallback or ensemble (default from EXTRACT_MODE)")
	timeoutFlag := flag.Duration("timeout", 30*time.Minute, "overall extraction budget")
	flag.Parse()

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runextract [-mode fallback|ensemble] <circular.pdf or URL>")
		os.Exit(2)
	}
	source := flag.Arg(0)

	cfg := common.LoadConfig()
	modeStr := cfg.Extraction.Mode
	if *modeFlag != "" {
		modeStr = *modeFlag
	}
	mode, err := extraction.ParseMode(modeStr)
	if err != nil {
		logger.Error("invalid mode", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

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

	if n, err := extractor.PageCount(source); err == nil {
		logger.Info("document opened", "source", source, "pages", n)
	} else {
		logger.Warn("page count unavailable", "source", source, "error", err)
	}

	start := time.Now()
	products, err := orchestrator.ProductsWithMode(ctx, source, mode)
	if err != nil {
		logger.Error("extraction failed", "source", source, "error", err)
		os.Exit(1)
	}
	logger.Info("extraction finished",
		"source", source,
		"mode", mode,
		"products", len(products),
		"status", orchestrator.Status(source),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(products); err != nil {
		logger.Error("encode products", "error", err)
		os.Exit(1)
	}
}
