// Package extraction coordinates the document pipeline end to end: text
// layer, OCR engines, parsing, merging, and the per-document product cache.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/joseph-ayodele/circulars-tracker/constants"
	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
	"github.com/joseph-ayodele/circulars-tracker/internal/ocr"
	"github.com/joseph-ayodele/circulars-tracker/internal/parser"
)

// Mode selects how multiple OCR engines are combined.
type Mode string

const (
	// ModeFallback runs engines in registration order and keeps the first
	// non-empty result.
	ModeFallback Mode = "fallback"
	// ModeEnsemble runs every engine and merges their products by
	// normalized name.
	ModeEnsemble Mode = "ensemble"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFallback, "":
		return ModeFallback, nil
	case ModeEnsemble:
		return ModeEnsemble, nil
	}
	return "", fmt.Errorf("unknown extraction mode %q", s)
}

// MergePolicy controls how ensemble mode reconciles prices when several
// engines report the same product.
type MergePolicy int

const (
	// MergeMeanAll averages every reported price.
	MergeMeanAll MergePolicy = iota
	// MergeConfidenceWeighted weights each price by its engine confidence.
	MergeConfidenceWeighted
	// MergeDropLowConfidence discards candidates under the OCR confidence
	// floor before averaging.
	MergeDropLowConfidence
)

type Config struct {
	Mode        Mode
	MergePolicy MergePolicy
	MaxPages    int     // default 20
	DPI         int     // default 600
	LineGap     float64 // default ocr.DefaultLineGap
}

// TextExtractor is the slice of the document extractor the orchestrator
// needs. *document.Extractor satisfies it.
type TextExtractor interface {
	Extract(ctx context.Context, source string, maxPages int) (string, error)
	RenderPages(ctx context.Context, source string, maxPages, dpi int) ([]string, func(), error)
	Invalidate(source string)
}

// Orchestrator owns document status and the per-(document, mode) product
// cache. It is safe for concurrent use.
type Orchestrator struct {
	cfg       Config
	extractor TextExtractor
	engines   []ocr.Engine
	parser    *parser.Parser
	logger    *slog.Logger

	mu       sync.Mutex
	statuses map[string]constants.DocStatus
	cache    map[string][]entity.Product
}

func NewOrchestrator(cfg Config, extractor TextExtractor, engines []ocr.Engine, p *parser.Parser, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeFallback
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 20
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 600
	}
	if cfg.LineGap <= 0 {
		cfg.LineGap = ocr.DefaultLineGap
	}
	return &Orchestrator{
		cfg:       cfg,
		extractor: extractor,
		engines:   engines,
		parser:    p,
		logger:    logger,
		statuses:  make(map[string]constants.DocStatus),
		cache:     make(map[string][]entity.Product),
	}
}

// Products extracts and parses one document using the configured mode.
func (o *Orchestrator) Products(ctx context.Context, source string) ([]entity.Product, error) {
	return o.ProductsWithMode(ctx, source, o.cfg.Mode)
}

// ProductsWithMode behaves like Products with an explicit engine combination
// mode. Results are cached per (document, mode); an empty result is cached
// too so a blank flyer is not re-OCRed on every request.
func (o *Orchestrator) ProductsWithMode(ctx context.Context, source string, mode Mode) ([]entity.Product, error) {
	key := cacheKey(source, mode)

	o.mu.Lock()
	if cached, ok := o.cache[key]; ok {
		o.mu.Unlock()
		o.logger.Debug("extraction.cache.hit", "source", source, "mode", mode)
		return cached, nil
	}
	o.mu.Unlock()

	products, err := o.run(ctx, source, mode)
	if err != nil {
		o.setStatus(source, constants.DocStatusFailed)
		return nil, err
	}

	o.mu.Lock()
	o.cache[key] = products
	o.mu.Unlock()

	if len(products) == 0 {
		// Extraction worked but found nothing sellable. Not an error.
		o.setStatus(source, constants.DocStatusFailed)
	} else {
		o.setStatus(source, constants.DocStatusCached)
	}
	o.logger.Info("extraction.done", "source", source, "mode", mode, "products", len(products))
	return products, nil
}

func (o *Orchestrator) run(ctx context.Context, source string, mode Mode) ([]entity.Product, error) {
	o.setStatus(source, constants.DocStatusNotStarted)

	text, err := o.extractor.Extract(ctx, source, o.cfg.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", source, err)
	}
	if strings.TrimSpace(text) != "" {
		o.setStatus(source, constants.DocStatusTextExtracted)
		if products := o.parser.ParseLines(text); len(products) > 0 {
			o.setStatus(source, constants.DocStatusParsed)
			return dedupeByName(products), nil
		}
	}

	if len(o.engines) == 0 {
		return nil, nil
	}
	o.setStatus(source, constants.DocStatusOCRAttempted)

	images, cleanup, err := o.extractor.RenderPages(ctx, source, o.cfg.MaxPages, o.cfg.DPI)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", source, err)
	}
	defer cleanup()

	var products []entity.Product
	switch mode {
	case ModeEnsemble:
		products = o.runEnsemble(ctx, images)
	default:
		products = o.runFallback(ctx, images)
	}
	if len(products) > 0 {
		o.setStatus(source, constants.DocStatusParsed)
	}
	return products, nil
}

// runFallback tries each engine over the whole document; the first engine
// that yields any product wins.
func (o *Orchestrator) runFallback(ctx context.Context, images []string) []entity.Product {
	for _, eng := range o.engines {
		products := o.engineProducts(ctx, eng, images)
		if len(products) > 0 {
			o.logger.Debug("extraction.fallback.selected", "engine", eng.Name(), "products", len(products))
			return products
		}
	}
	return nil
}

// runEnsemble runs every engine and merges their results. Engines are
// processed in name order so the merged output does not depend on
// registration order.
func (o *Orchestrator) runEnsemble(ctx context.Context, images []string) []entity.Product {
	byEngine := make(map[string][]entity.Product, len(o.engines))
	names := make([]string, 0, len(o.engines))
	for _, eng := range o.engines {
		if _, seen := byEngine[eng.Name()]; seen {
			continue
		}
		names = append(names, eng.Name())
		byEngine[eng.Name()] = o.engineProducts(ctx, eng, images)
	}
	sort.Strings(names)

	merged := make(map[string]*mergeAcc)
	var order []string
	for _, name := range names {
		for _, prod := range byEngine[name] {
			key := parser.NormalizeName(prod.Name)
			acc, ok := merged[key]
			if !ok {
				acc = &mergeAcc{}
				merged[key] = acc
				order = append(order, key)
			}
			acc.add(prod, name, o.cfg.MergePolicy)
		}
	}

	sort.Strings(order)
	out := make([]entity.Product, 0, len(order))
	for _, key := range order {
		if prod, ok := merged[key].resolve(o.cfg.MergePolicy); ok {
			out = append(out, prod)
		}
	}
	return out
}

func (o *Orchestrator) engineProducts(ctx context.Context, eng ocr.Engine, images []string) []entity.Product {
	var products []entity.Product
	for _, img := range images {
		spans, err := eng.Recognize(ctx, img)
		if err != nil {
			o.logger.Warn("extraction.engine.page_failed", "engine", eng.Name(), "image", img, "error", err)
			continue
		}
		for _, group := range ocr.GroupSpans(spans, o.cfg.LineGap) {
			if prod, ok := o.parser.ParseGroup(group); ok {
				prod.Sources = []string{eng.Name()}
				products = append(products, prod)
			}
		}
	}
	return dedupeByName(products)
}

// mergeAcc accumulates one normalized product across engines.
type mergeAcc struct {
	name       string
	nameConf   float64
	unit       string
	section    string
	priceSum   float64
	weightSum  float64
	priceCount int
	confMax    float64
	sources    []string
}

func (a *mergeAcc) add(p entity.Product, engine string, policy MergePolicy) {
	if policy == MergeDropLowConfidence && p.Confidence > 0 && p.Confidence < ocr.ConfidenceFloor {
		return
	}
	// Keep the spelling the most confident engine produced; ties go to the
	// lexicographically smaller name so merging stays order-independent.
	if a.name == "" || p.Confidence > a.nameConf || (p.Confidence == a.nameConf && p.Name < a.name) {
		a.name = p.Name
		a.nameConf = p.Confidence
		a.unit = p.Unit
		a.section = p.Section
	}
	if p.Price != nil {
		w := 1.0
		if policy == MergeConfidenceWeighted && p.Confidence > 0 {
			w = p.Confidence
		}
		a.priceSum += *p.Price * w
		a.weightSum += w
		a.priceCount++
	}
	if p.Confidence > a.confMax {
		a.confMax = p.Confidence
	}
	for _, s := range a.sources {
		if s == engine {
			return
		}
	}
	a.sources = append(a.sources, engine)
}

func (a *mergeAcc) resolve(policy MergePolicy) (entity.Product, bool) {
	if a.name == "" {
		return entity.Product{}, false
	}
	prod := entity.Product{
		Name:       a.name,
		Unit:       a.unit,
		Section:    a.section,
		Confidence: a.confMax,
	}
	if a.priceCount > 0 && a.weightSum > 0 {
		price := a.priceSum / a.weightSum
		prod.Price = &price
	}
	sort.Strings(a.sources)
	prod.Sources = a.sources
	return prod, true
}

// Status reports the last observed pipeline stage for a document.
func (o *Orchestrator) Status(source string) constants.DocStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.statuses[source]; ok {
		return st
	}
	return constants.DocStatusNotStarted
}

// Invalidate drops cached products and text for one document only. Other
// documents keep their entries.
func (o *Orchestrator) Invalidate(source string) {
	o.mu.Lock()
	for key := range o.cache {
		if strings.HasPrefix(key, source+"|") {
			delete(o.cache, key)
		}
	}
	delete(o.statuses, source)
	o.mu.Unlock()
	o.extractor.Invalidate(source)
	o.logger.Debug("extraction.invalidated", "source", source)
}

func (o *Orchestrator) setStatus(source string, st constants.DocStatus) {
	o.mu.Lock()
	o.statuses[source] = st
	o.mu.Unlock()
}

func cacheKey(source string, mode Mode) string {
	return source + "|" + string(mode)
}

// dedupeByName keeps the first occurrence of each normalized name.
func dedupeByName(products []entity.Product) []entity.Product {
	seen := make(map[string]struct{}, len(products))
	out := products[:0]
	for _, p := range products {
		key := parser.NormalizeName(p.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
