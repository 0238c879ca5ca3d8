package extraction

import (
	"context"
	"testing"

	"github.com/joseph-ayodele/circulars-tracker/constants"
	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
	"github.com/joseph-ayodele/circulars-tracker/internal/ocr"
	"github.com/joseph-ayodele/circulars-tracker/internal/parser"
)

type stubExtractor struct {
	text        string
	pages       []string
	extractCnt  int
	invalidated []string
}

func (s *stubExtractor) Extract(ctx context.Context, source string, maxPages int) (string, error) {
	s.extractCnt++
	return s.text, nil
}

func (s *stubExtractor) RenderPages(ctx context.Context, source string, maxPages, dpi int) ([]string, func(), error) {
	return s.pages, func() {}, nil
}

func (s *stubExtractor) Invalidate(source string) {
	s.invalidated = append(s.invalidated, source)
}

type stubEngine struct {
	name  string
	spans []entity.TextSpan
	err   error
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Recognize(ctx context.Context, imagePath string) ([]entity.TextSpan, error) {
	return e.spans, e.err
}

func newTestOrchestrator(ext TextExtractor, engines []ocr.Engine, mode Mode, policy MergePolicy) *Orchestrator {
	return NewOrchestrator(
		Config{Mode: mode, MergePolicy: policy},
		ext,
		engines,
		parser.New(parser.Config{}, nil),
		nil,
	)
}

func TestTextLayerShortCircuitsOCR(t *testing.T) {
	ext := &stubExtractor{text: "Gala Apples $2.99"}
	eng := &stubEngine{name: "tesseract", spans: []entity.TextSpan{{Text: "Should Not Run $9.99", YPos: 1}}}
	o := newTestOrchestrator(ext, []ocr.Engine{eng}, ModeFallback, MergeMeanAll)

	products, err := o.Products(context.Background(), "weekly.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].Name != "Gala Apples" {
		t.Fatalf("products = %+v", products)
	}
	if got := o.Status("weekly.pdf"); got != constants.DocStatusCached {
		t.Errorf("status = %s", got)
	}
}

func TestFallbackFirstNonEmptyEngineWins(t *testing.T) {
	ext := &stubExtractor{pages: []string{"p1.png"}}
	empty := &stubEngine{name: "tesseract"}
	full := &stubEngine{name: "gosseract", spans: []entity.TextSpan{
		{Text: "Russet Potatoes $3.49", Confidence: 0.9, YPos: 10},
	}}
	o := newTestOrchestrator(ext, []ocr.Engine{empty, full}, ModeFallback, MergeMeanAll)

	products, err := o.Products(context.Background(), "scan.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 {
		t.Fatalf("products = %+v", products)
	}
	if got := products[0].Sources; len(got) != 1 || got[0] != "gosseract" {
		t.Errorf("sources = %v", got)
	}
}

func TestEnsembleMergesByNormalizedName(t *testing.T) {
	ext := &stubExtractor{pages: []string{"p1.png"}}
	a := &stubEngine{name: "tesseract", spans: []entity.TextSpan{
		{Text: "Tri Tip Roast $5.50", Confidence: 0.8, YPos: 10},
	}}
	b := &stubEngine{name: "gosseract", spans: []entity.TextSpan{
		{Text: "tri tip roast $7.50", Confidence: 0.6, YPos: 10},
	}}
	o := newTestOrchestrator(ext, []ocr.Engine{a, b}, ModeEnsemble, MergeMeanAll)

	products, err := o.Products(context.Background(), "scan.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 {
		t.Fatalf("products = %+v", products)
	}
	got := products[0]
	if got.Price == nil || *got.Price != 6.50 {
		t.Errorf("price = %v, want mean 6.50", got.Price)
	}
	if len(got.Sources) != 2 || got.Sources[0] != "gosseract" || got.Sources[1] != "tesseract" {
		t.Errorf("sources = %v", got.Sources)
	}
	if got.Name != "Tri Tip Roast" {
		t.Errorf("name = %q, want the higher-confidence spelling", got.Name)
	}
}

func TestEnsembleOrderIndependent(t *testing.T) {
	mk := func(engines []ocr.Engine) []entity.Product {
		ext := &stubExtractor{pages: []string{"p1.png"}}
		o := newTestOrchestrator(ext, engines, ModeEnsemble, MergeMeanAll)
		products, err := o.Products(context.Background(), "scan.pdf")
		if err != nil {
			t.Fatal(err)
		}
		return products
	}

	a := &stubEngine{name: "tesseract", spans: []entity.TextSpan{
		{Text: "Whole Milk $3.19", Confidence: 0.7, YPos: 10},
		{Text: "Cheddar Block $4.99", Confidence: 0.7, YPos: 60},
	}}
	b := &stubEngine{name: "gosseract", spans: []entity.TextSpan{
		{Text: "Whole Milk $3.59", Confidence: 0.7, YPos: 10},
	}}

	fwd := mk([]ocr.Engine{a, b})
	rev := mk([]ocr.Engine{b, a})

	if len(fwd) != len(rev) {
		t.Fatalf("lengths differ: %d vs %d", len(fwd), len(rev))
	}
	for i := range fwd {
		if fwd[i].Name != rev[i].Name || *fwd[i].Price != *rev[i].Price {
			t.Errorf("entry %d differs: %+v vs %+v", i, fwd[i], rev[i])
		}
	}
}

func TestBlankDocumentCachesEmptyAndFails(t *testing.T) {
	ext := &stubExtractor{}
	eng := &stubEngine{name: "tesseract"}
	o := newTestOrchestrator(ext, []ocr.Engine{eng}, ModeFallback, MergeMeanAll)

	products, err := o.Products(context.Background(), "blank.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 0 {
		t.Fatalf("products = %+v", products)
	}
	if got := o.Status("blank.pdf"); got != constants.DocStatusFailed {
		t.Errorf("status = %s", got)
	}

	// The empty result is served from cache on repeat calls.
	if _, err := o.Products(context.Background(), "blank.pdf"); err != nil {
		t.Fatal(err)
	}
	if ext.extractCnt != 1 {
		t.Errorf("extract ran %d times, want 1", ext.extractCnt)
	}
}

func TestInvalidateIsPerDocument(t *testing.T) {
	ext := &stubExtractor{text: "Gala Apples $2.99"}
	o := newTestOrchestrator(ext, nil, ModeFallback, MergeMeanAll)

	if _, err := o.Products(context.Background(), "a.pdf"); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Products(context.Background(), "b.pdf"); err != nil {
		t.Fatal(err)
	}
	o.Invalidate("a.pdf")

	if got := o.Status("a.pdf"); got != constants.DocStatusNotStarted {
		t.Errorf("a.pdf status = %s", got)
	}
	if got := o.Status("b.pdf"); got != constants.DocStatusCached {
		t.Errorf("b.pdf status = %s", got)
	}
	if len(ext.invalidated) != 1 || ext.invalidated[0] != "a.pdf" {
		t.Errorf("extractor invalidations = %v", ext.invalidated)
	}

	if _, err := o.Products(context.Background(), "a.pdf"); err != nil {
		t.Fatal(err)
	}
	if ext.extractCnt != 3 {
		t.Errorf("extract ran %d times, want 3", ext.extractCnt)
	}
}
