// Package ocr wraps interchangeable OCR backends behind one span-producing
// contract so the extraction orchestrator can run them as a fallback chain or
// an ensemble.
package ocr

import (
	"context"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// Engine recognizes one page image into text spans. Implementations must not
// panic past this boundary; a broken backend returns an error and the
// orchestrator moves on.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) ([]entity.TextSpan, error)
}

// ConfidenceFloor drops spatial detections the backend itself is unsure
// about; below this they are more often noise than product text.
const ConfidenceFloor = 0.5
