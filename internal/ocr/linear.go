package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/circulars-tracker/internal/document"
	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// Pass is one tesseract configuration. A single configuration reliably misses
// some items on busy circular layouts, so the linear engine sweeps several.
type Pass struct {
	DPI int
	PSM int
}

// DefaultPasses sweeps DPI and segmentation modes; downstream deduplication
// by normalized name absorbs the overlap between passes.
var DefaultPasses = []Pass{
	{DPI: 150, PSM: 6},
	{DPI: 200, PSM: 6},
	{DPI: 100, PSM: 3},
	{DPI: 150, PSM: 3},
	{DPI: 300, PSM: 6},
}

type LinearConfig struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
	OEM         int // 3 = default+LSTM
	Passes      []Pass
}

// lineStride spaces synthetic span positions far wider than any grouping
// gap, so each output line stays its own candidate group. The counter runs
// across passes: lines from different passes never share a position and are
// reconciled downstream by normalized-name deduplication instead.
const lineStride = 1000.0

// LinearEngine shells out to tesseract for whole-page text. It emits one span
// per output line, positioned so grouping yields per-line candidates.
type LinearEngine struct {
	cfg    LinearConfig
	runner document.Runner
	logger *slog.Logger
}

func NewLinearEngine(cfg LinearConfig, runner document.Runner, logger *slog.Logger) *LinearEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = document.ExecRunner{}
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.OEM <= 0 {
		cfg.OEM = 3
	}
	if len(cfg.Passes) == 0 {
		cfg.Passes = DefaultPasses
	}
	return &LinearEngine{cfg: cfg, runner: runner, logger: logger}
}

func (e *LinearEngine) Name() string { return "tesseract" }

// Recognize runs every configured pass over the image and concatenates the
// resulting line spans. Pass failures are logged and skipped; the engine
// fails only when all passes fail.
func (e *LinearEngine) Recognize(ctx context.Context, imagePath string) ([]entity.TextSpan, error) {
	var spans []entity.TextSpan
	var lastErr error
	failed := 0
	line := 0

	for _, pass := range e.cfg.Passes {
		txt, err := e.runPass(ctx, imagePath, pass)
		if err != nil {
			e.logger.Warn("ocr.linear.pass_failed", "image", imagePath, "dpi", pass.DPI, "psm", pass.PSM, "error", err)
			lastErr = err
			failed++
			continue
		}
		for _, raw := range strings.Split(txt, "\n") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			spans = append(spans, entity.TextSpan{Text: raw, YPos: float64(line) * lineStride})
			line++
		}
	}
	if failed == len(e.cfg.Passes) && lastErr != nil {
		return nil, fmt.Errorf("all tesseract passes failed: %w", lastErr)
	}
	return spans, nil
}

// RecognizeText runs a single PSM-6 pass and returns the raw blob. This is
// the page OCR used by the document extractor's fallback path.
func (e *LinearEngine) RecognizeText(ctx context.Context, imagePath string) (string, error) {
	return e.runPass(ctx, imagePath, Pass{PSM: 6})
}

func (e *LinearEngine) runPass(ctx context.Context, imagePath string, pass Pass) (string, error) {
	args := []string{imagePath, "stdout", "-l", e.cfg.Lang}
	if pass.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", pass.PSM))
	}
	args = append(args, "--oem", fmt.Sprintf("%d", e.cfg.OEM))
	if pass.DPI > 0 {
		args = append(args, "--dpi", fmt.Sprintf("%d", pass.DPI))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang> --psm N --oem N
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}
