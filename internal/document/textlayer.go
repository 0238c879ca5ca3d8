package document

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageBreak separates kept pages in the combined extraction output.
const PageBreak = "\n\n--- PAGE BREAK ---\n\n"

// pageCount asks pdfcpu for the page count without parsing content streams.
func pageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

// textLayerPages pulls the native text layer page by page. A page is kept only
// when its stripped text exceeds minChars; image-only pages frequently report
// a few stray characters and must not count as extracted text. Per-page
// failures skip that page only.
func textLayerPages(path string, maxPages, minChars int) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	total := r.NumPage()
	if maxPages > 0 && maxPages < total {
		total = maxPages
	}

	var kept []string
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if len(strings.TrimSpace(txt)) > minChars {
			kept = append(kept, txt)
		}
	}
	return kept, nil
}
