package ocr

import (
	"sort"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// DefaultLineGap is the vertical distance (px) under which two detections are
// considered part of the same printed line.
const DefaultLineGap = 20.0

// GroupSpans merges spans that sit on the same printed line. OCR backends
// frequently emit a wrapped product name and its price as separate
// detections; sorting by vertical position and merging while the gap stays
// under the threshold reassembles them. Each returned group is one candidate
// product entry.
func GroupSpans(spans []entity.TextSpan, gap float64) [][]entity.TextSpan {
	if gap <= 0 {
		gap = DefaultLineGap
	}
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]entity.TextSpan, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].YPos < sorted[j].YPos })

	var groups [][]entity.TextSpan
	current := []entity.TextSpan{sorted[0]}
	lastY := sorted[0].YPos

	for _, span := range sorted[1:] {
		if span.YPos-lastY < gap {
			current = append(current, span)
		} else {
			groups = append(groups, current)
			current = []entity.TextSpan{span}
		}
		lastY = span.YPos
	}
	return append(groups, current)
}
