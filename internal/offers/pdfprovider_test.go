package offers

import (
	"context"
	"fmt"
	"testing"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

type fakeProductExtractor struct {
	products map[string][]entity.Product
	err      error
}

func (f *fakeProductExtractor) Products(_ context.Context, source string) ([]entity.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products[source], nil
}

func TestPDFProviderFiltersByQuery(t *testing.T) {
	price := 5.99
	extractor := &fakeProductExtractor{products: map[string][]entity.Product{
		"raleys.pdf": {
			{Name: "Tri Tip Roast", Price: &price, Unit: "lb"},
			{Name: "Hass Avocados", Price: &price, Unit: "each"},
		},
	}}
	p := NewPDFProvider(extractor, []PDFSource{{Store: "Raley's", Source: "raleys.pdf"}}, nil)

	got, err := p.Fetch(context.Background(), Query{Term: "tri tip"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("offers = %d, want 1", len(got))
	}
	if got[0].ProductName != "Tri Tip Roast" || got[0].Store != "Raley's" {
		t.Fatalf("unexpected offer %+v", got[0])
	}
	if got[0].Price == nil || *got[0].Price != 5.99 {
		t.Fatalf("price = %v, want 5.99", got[0].Price)
	}
}

func TestPDFProviderExtractionFailureYieldsNoOffers(t *testing.T) {
	extractor := &fakeProductExtractor{err: fmt.Errorf("document unavailable")}
	p := NewPDFProvider(extractor, []PDFSource{{Store: "Raley's", Source: "raleys.pdf"}}, nil)

	got, err := p.Fetch(context.Background(), Query{Term: "roast"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("offers = %d, want 0", len(got))
	}
}

func TestPDFProviderEmptyQuery(t *testing.T) {
	extractor := &fakeProductExtractor{}
	p := NewPDFProvider(extractor, []PDFSource{{Store: "Raley's", Source: "raleys.pdf"}}, nil)

	got, err := p.Fetch(context.Background(), Query{Term: "   "})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != nil {
		t.Fatalf("offers = %v, want nil", got)
	}
}
