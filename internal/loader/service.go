// Package loader reads circular PDFs from a directory and replaces each
// retailer's items in the database with freshly extracted ones.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/circulars-tracker/constants"
	"github.com/joseph-ayodele/circulars-tracker/internal/common"
	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
	"github.com/joseph-ayodele/circulars-tracker/internal/extraction"
	"github.com/joseph-ayodele/circulars-tracker/internal/repository"
)

// Extractor is the slice of the extraction orchestrator the loader needs.
type Extractor interface {
	ProductsWithMode(ctx context.Context, source string, mode extraction.Mode) ([]entity.Product, error)
	Invalidate(source string)
}

// RetailerConfig binds a retailer to the filename pattern of its circulars
// and the extraction mode that works best for its layouts.
type RetailerConfig struct {
	Name    string
	Pattern string // filepath.Glob pattern relative to the circular dir
	Mode    extraction.Mode
}

// DefaultRetailers covers the circulars currently dropped into the data
// directory.
var DefaultRetailers = []RetailerConfig{
	{Name: "Raley's", Pattern: "*raley*.pdf", Mode: extraction.ModeEnsemble},
	{Name: "Safeway", Pattern: "*safeway*.pdf", Mode: extraction.ModeFallback},
	{Name: "Smith's", Pattern: "*smith*.pdf", Mode: extraction.ModeFallback},
}

// ReloadResult reports one retailer's reload outcome.
type ReloadResult struct {
	Retailer    string `json:"retailer"`
	ItemsLoaded int64  `json:"items_loaded"`
	Files       int    `json:"files"`
}

// validityDays is how long a weekly circular's prices are assumed to hold.
const validityDays = 7

type Service struct {
	dir       string
	autoLoad  bool
	retailers []RetailerConfig
	extractor Extractor
	repo      repository.CircularItemRepository
	logger    *slog.Logger
}

func NewService(dir string, autoLoad bool, retailers []RetailerConfig, extractor Extractor, repo repository.CircularItemRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if len(retailers) == 0 {
		retailers = DefaultRetailers
	}
	return &Service{
		dir:       dir,
		autoLoad:  autoLoad,
		retailers: retailers,
		extractor: extractor,
		repo:      repo,
		logger:    logger,
	}
}

// LoadAll loads every configured retailer. Retailers without files are
// skipped quietly; per-retailer failures are logged and do not stop the
// rest. Disabled auto-load returns immediately.
func (s *Service) LoadAll(ctx context.Context) []ReloadResult {
	if !s.autoLoad {
		s.logger.Info("loader.autoload.disabled")
		return nil
	}

	runID := uuid.NewString()
	s.logger.Info("loader.load_all.start", "run_id", runID, "dir", s.dir)

	var results []ReloadResult
	for _, rc := range s.retailers {
		res, err := s.ReloadRetailer(ctx, rc.Name)
		if err != nil {
			if errors.Is(err, common.ErrNoDocuments) {
				s.logger.Debug("loader.no_documents", "run_id", runID, "retailer", rc.Name)
			} else {
				s.logger.Error("loader.retailer.failed", "run_id", runID, "retailer", rc.Name, "error", err)
			}
			continue
		}
		results = append(results, res)
	}
	s.logger.Info("loader.load_all.done", "run_id", runID, "retailers", len(results))
	return results
}

// ReloadRetailer re-extracts a retailer's circulars and replaces its items
// wholesale.
func (s *Service) ReloadRetailer(ctx context.Context, retailer string) (ReloadResult, error) {
	rc, ok := s.retailerConfig(retailer)
	if !ok {
		return ReloadResult{}, fmt.Errorf("%w: %s", common.ErrUnknownRetailer, retailer)
	}

	files, err := filepath.Glob(filepath.Join(s.dir, rc.Pattern))
	if err != nil {
		return ReloadResult{}, fmt.Errorf("glob %s: %w", rc.Pattern, err)
	}
	if len(files) == 0 {
		return ReloadResult{}, fmt.Errorf("%w: %s (%s)", common.ErrNoDocuments, retailer, rc.Pattern)
	}

	validFrom := time.Now().UTC().Truncate(24 * time.Hour)
	validUntil := validFrom.AddDate(0, 0, validityDays)

	var items []entity.CircularItem
	for _, file := range files {
		// Re-extract rather than serve a stale product cache for a file
		// that may have been replaced on disk.
		s.extractor.Invalidate(file)

		products, err := s.extractor.ProductsWithMode(ctx, file, rc.Mode)
		if err != nil {
			s.logger.Warn("loader.extract.failed", "retailer", retailer, "file", file, "error", err)
			continue
		}
		for _, prod := range products {
			if prod.Price == nil {
				// Discount-only promos have no absolute price to store.
				continue
			}
			category := prod.Section
			if category == "" {
				category = "General"
			}
			items = append(items, entity.CircularItem{
				Retailer:        retailer,
				ItemName:        prod.Name,
				Price:           *prod.Price,
				RegularPrice:    prod.RegularPrice,
				DiscountPercent: prod.DiscountPercent,
				Unit:            prod.Unit,
				Category:        &category,
				Source:          constants.SourcePDF,
				ValidFrom:       &validFrom,
				ValidUntil:      &validUntil,
			})
		}
	}

	inserted, err := s.repo.ReplaceForRetailer(ctx, retailer, items)
	if err != nil {
		return ReloadResult{}, fmt.Errorf("replace %s items: %w", retailer, err)
	}

	res := ReloadResult{Retailer: retailer, ItemsLoaded: inserted, Files: len(files)}
	s.logger.Info("loader.reloaded", "retailer", retailer, "items", inserted, "files", len(files))
	return res, nil
}

// RetailerForFile maps a circular filename to its owning retailer.
func (s *Service) RetailerForFile(name string) (string, bool) {
	base := strings.ToLower(filepath.Base(name))
	for _, rc := range s.retailers {
		if ok, err := filepath.Match(strings.ToLower(rc.Pattern), base); err == nil && ok {
			return rc.Name, true
		}
	}
	return "", false
}

func (s *Service) retailerConfig(name string) (RetailerConfig, bool) {
	for _, rc := range s.retailers {
		if rc.Name == name {
			return rc, true
		}
	}
	return RetailerConfig{}, false
}
