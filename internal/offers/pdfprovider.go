package offers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// ProductExtractor is the slice of the extraction orchestrator this provider
// needs.
type ProductExtractor interface {
	Products(ctx context.Context, source string) ([]entity.Product, error)
}

// PDFSource pairs a circular location with the store it belongs to.
type PDFSource struct {
	Store  string
	Source string // local path or URL
}

// PDFProvider runs live extraction over configured circulars and filters the
// parsed products by the query. Extraction results are cached inside the
// orchestrator, so repeated queries only pay for OCR once per document.
type PDFProvider struct {
	extractor ProductExtractor
	sources   []PDFSource
	logger    *slog.Logger
}

func NewPDFProvider(extractor ProductExtractor, sources []PDFSource, logger *slog.Logger) *PDFProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFProvider{extractor: extractor, sources: sources, logger: logger}
}

func (p *PDFProvider) Name() string { return "PDF Extraction" }

func (p *PDFProvider) Fetch(ctx context.Context, q Query) ([]entity.Offer, error) {
	tokens := strings.Fields(strings.ReplaceAll(strings.ToLower(q.Term), "-", " "))
	if len(tokens) == 0 {
		return nil, nil
	}

	var offers []entity.Offer
	for _, src := range p.sources {
		products, err := p.extractor.Products(ctx, src.Source)
		if err != nil {
			p.logger.Warn("offers.pdf.extract_failed", "source", src.Source, "error", err)
			continue
		}
		for _, prod := range products {
			if !anyTokenIn(tokens, strings.ToLower(prod.Name)) {
				continue
			}
			unit := prod.Unit
			promo := "Weekly Ad - PDF Extract"
			if prod.PromoText != "" {
				promo = prod.PromoText
			}
			offers = append(offers, entity.Offer{
				Provider:    p.Name(),
				Store:       src.Store,
				ProductName: prod.Name,
				Price:       prod.Price,
				Unit:        &unit,
				PromoText:   &promo,
			})
		}
	}
	p.logger.Debug("offers.pdf.done", "term", q.Term, "offers", len(offers))
	return offers, nil
}

func anyTokenIn(tokens []string, text string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
