package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/circulars-tracker/constants"
)

// PageOCR recognizes a single preprocessed page image into plain text. The
// linear OCR engine satisfies this; tests stub it.
type PageOCR interface {
	RecognizeText(ctx context.Context, imagePath string) (string, error)
}

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"

	DPI            int // rasterization DPI for scanned PDFs, default 600
	MaxPages       int // 0 = no limit
	MinPageChars   int // per-page keep threshold, default 50
	MinNativeChars int // combined native-text threshold below which OCR runs, default 200

	FetchTimeout   time.Duration // URL download timeout, default 30s
	OCRPageTimeout time.Duration // per-page OCR budget, default 120s
}

// Extractor turns a PDF (path or URL) into raw text, preferring the native
// text layer and falling back to rasterization + OCR.
type Extractor struct {
	cfg    Config
	runner Runner
	ocr    PageOCR
	logger *slog.Logger
	pages  func(path string) (int, error)

	mu    sync.Mutex
	cache map[string]string // (source, maxPages) -> text, empty results included
}

func NewExtractor(cfg Config, runner Runner, ocr PageOCR, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 600
	}
	if cfg.MinPageChars <= 0 {
		cfg.MinPageChars = 50
	}
	if cfg.MinNativeChars <= 0 {
		cfg.MinNativeChars = 200
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.OCRPageTimeout <= 0 {
		cfg.OCRPageTimeout = 120 * time.Second
	}
	return &Extractor{
		cfg:    cfg,
		runner: runner,
		ocr:    ocr,
		logger: logger,
		pages:  pageCount,
		cache:  make(map[string]string),
	}
}

func cacheKey(source string, maxPages int) string {
	return fmt.Sprintf("%s:pages:%d", source, maxPages)
}

// Extract returns the document's text. Results (including empty ones) are
// cached per (source, maxPages) for the process lifetime; repeated calls
// never re-run OCR. Extraction failures degrade to empty text: callers get
// an error only for programming mistakes, not for bad documents.
func (e *Extractor) Extract(ctx context.Context, source string, maxPages int) (string, error) {
	if maxPages <= 0 {
		maxPages = e.cfg.MaxPages
	}
	key := cacheKey(source, maxPages)

	e.mu.Lock()
	if txt, ok := e.cache[key]; ok {
		e.mu.Unlock()
		e.logger.Debug("extract.cache.hit", "source", source, "max_pages", maxPages)
		return txt, nil
	}
	e.mu.Unlock()

	text := e.extract(ctx, source, maxPages)

	e.mu.Lock()
	// insert-if-absent: a concurrent extraction of the same key wins once.
	if cached, ok := e.cache[key]; ok {
		text = cached
	} else {
		e.cache[key] = text
	}
	e.mu.Unlock()
	return text, nil
}

// Invalidate drops the cached text for one source across all page limits.
// Other documents' entries are untouched.
func (e *Extractor) Invalidate(source string) {
	prefix := source + ":pages:"
	e.mu.Lock()
	for k := range e.cache {
		if strings.HasPrefix(k, prefix) {
			delete(e.cache, k)
		}
	}
	e.mu.Unlock()
}

func (e *Extractor) extract(ctx context.Context, source string, maxPages int) string {
	path, cleanup, ok := e.localPath(source)
	if !ok {
		return ""
	}
	if cleanup != nil {
		defer cleanup()
	}
	maxPages = e.boundPages(path, maxPages)

	// Fast path: native text layer.
	pages, err := textLayerPages(path, maxPages, e.cfg.MinPageChars)
	if err != nil {
		e.logger.Debug("extract.textlayer.failed", "source", source, "error", err)
	}
	combined := strings.Join(pages, PageBreak)
	if len(combined) > e.cfg.MinNativeChars {
		e.logger.Info("extract.textlayer.ok", "source", source, "chars", len(combined), "pages", len(pages))
		return combined
	}

	// Slow path: rasterize and OCR. 10-100x slower than the text layer, so
	// only reached when the document is effectively image-only.
	if e.ocr == nil {
		e.logger.Warn("extract.ocr.unavailable", "source", source)
		return combined
	}
	images, imgCleanup, err := e.renderPages(ctx, path, maxPages, e.cfg.DPI)
	if err != nil {
		e.logger.Error("extract.raster.failed", "source", source, "error", err)
		return ""
	}
	defer imgCleanup()

	var kept []string
	for i, img := range images {
		txt, err := e.ocrPage(ctx, img)
		if err != nil {
			e.logger.Warn("extract.ocr.page_failed", "source", source, "page", i+1, "error", err)
			continue
		}
		if len(strings.TrimSpace(txt)) > e.cfg.MinPageChars {
			kept = append(kept, txt)
		} else {
			e.logger.Debug("extract.ocr.page_empty", "source", source, "page", i+1, "chars", len(txt))
		}
	}
	result := strings.Join(kept, PageBreak)
	if len(kept) == 0 {
		e.logger.Warn("extract.ocr.no_text", "source", source)
	} else {
		e.logger.Info("extract.ocr.ok", "source", source, "pages", len(kept), "chars", len(result))
	}
	return result
}

// boundPages caps the page budget at the document's real page count, so
// rasterization never asks pdftoppm for pages that do not exist. When the
// count cannot be read the requested budget stands.
func (e *Extractor) boundPages(path string, maxPages int) int {
	n, err := e.pages(path)
	if err != nil {
		e.logger.Debug("extract.pagecount.failed", "path", path, "error", err)
		return maxPages
	}
	if maxPages <= 0 || maxPages > n {
		return n
	}
	return maxPages
}

func (e *Extractor) ocrPage(ctx context.Context, imagePath string) (string, error) {
	pctx, cancel := context.WithTimeout(ctx, e.cfg.OCRPageTimeout)
	defer cancel()
	return e.ocr.RecognizeText(pctx, imagePath)
}

// localPath resolves a source to a file on disk, downloading URLs to a temp
// file. A failed download is logged and reported as "no document".
func (e *Extractor) localPath(source string) (string, func(), bool) {
	if !constants.IsURL(source) {
		if _, err := os.Stat(source); err != nil {
			e.logger.Error("extract.open.failed", "source", source, "error", err)
			return "", nil, false
		}
		return source, nil, true
	}
	path, cleanup, err := fetchToTemp(source, e.cfg.FetchTimeout)
	if err != nil {
		e.logger.Error("extract.fetch.failed", "source", source, "error", err)
		return "", nil, false
	}
	return path, cleanup, true
}

// RenderPages rasterizes and preprocesses up to maxPages pages at the given
// DPI, returning image paths for span-level OCR. The caller must invoke
// cleanup when done.
func (e *Extractor) RenderPages(ctx context.Context, source string, maxPages, dpi int) ([]string, func(), error) {
	path, docCleanup, ok := e.localPath(source)
	if !ok {
		return nil, func() {}, fmt.Errorf("document unavailable: %s", source)
	}
	maxPages = e.boundPages(path, maxPages)
	images, imgCleanup, err := e.renderPages(ctx, path, maxPages, dpi)
	cleanup := func() {
		imgCleanup()
		if docCleanup != nil {
			docCleanup()
		}
	}
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return images, cleanup, nil
}

func (e *Extractor) renderPages(ctx context.Context, path string, maxPages, dpi int) ([]string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "ct-pp-*")
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", fmt.Sprintf("%d", dpi), "-png"}
	if maxPages > 0 {
		args = append(args, "-f", "1", "-l", fmt.Sprintf("%d", maxPages))
	}
	args = append(args, path, prefix)
	// pdftoppm -r <dpi> -png [-f 1 -l N] <in.pdf> <tmp/page>
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		cleanup()
		return nil, func() {}, fmt.Errorf("no pages rendered")
	}

	// Scale up low-DPI renders; tesseract accuracy drops sharply below ~300.
	upscale := 1
	if dpi > 0 && dpi < 300 {
		upscale = 2
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		pre, err := PreprocessImage(m, upscale)
		if err != nil {
			e.logger.Warn("extract.preprocess.failed", "image", m, "error", err)
			out = append(out, m)
			continue
		}
		out = append(out, pre)
	}
	return out, cleanup, nil
}

// PageCount exposes the document's page count for callers that bound work
// before extraction.
func (e *Extractor) PageCount(source string) (int, error) {
	path, cleanup, ok := e.localPath(source)
	if !ok {
		return 0, fmt.Errorf("document unavailable: %s", source)
	}
	if cleanup != nil {
		defer cleanup()
	}
	return pageCount(path)
}
