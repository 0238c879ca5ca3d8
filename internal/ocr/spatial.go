package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

type SpatialConfig struct {
	Lang            string  // default "eng"
	TessdataDir     string
	ConfidenceFloor float64 // default ConfidenceFloor
}

// SpatialEngine uses the tesseract C API through gosseract to get per-line
// detections with bounding boxes and confidences, enabling layout-aware
// grouping of wrapped names with their prices.
type SpatialEngine struct {
	cfg           SpatialConfig
	clientFactory func() *gosseract.Client
	logger        *slog.Logger
}

func NewSpatialEngine(cfg SpatialConfig, logger *slog.Logger) *SpatialEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.ConfidenceFloor <= 0 {
		cfg.ConfidenceFloor = ConfidenceFloor
	}
	return &SpatialEngine{cfg: cfg, clientFactory: gosseract.NewClient, logger: logger}
}

func (e *SpatialEngine) Name() string { return "gosseract" }

// Recognize returns one span per detected text line, tagged with its top-edge
// Y position. Detections under the confidence floor are discarded before
// grouping ever sees them.
func (e *SpatialEngine) Recognize(ctx context.Context, imagePath string) ([]entity.TextSpan, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer func() { _ = c.Close() }()

	if err := c.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(e.cfg.Lang); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if e.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
			return nil, fmt.Errorf("set tessdata dir: %w", err)
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes: %w", err)
	}

	spans := make([]entity.TextSpan, 0, len(boxes))
	dropped := 0
	for _, b := range boxes {
		conf := b.Confidence / 100.0
		if conf < e.cfg.ConfidenceFloor {
			dropped++
			continue
		}
		spans = append(spans, entity.TextSpan{
			Text:       b.Word,
			Confidence: conf,
			YPos:       float64(b.Box.Min.Y),
		})
	}
	e.logger.Debug("ocr.spatial.ok", "image", imagePath, "spans", len(spans), "dropped_low_conf", dropped)
	return spans, nil
}
