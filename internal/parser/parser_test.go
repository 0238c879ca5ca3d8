package parser

import (
	"testing"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

func TestParseLinesNamePriceUnit(t *testing.T) {
	p := New(Config{}, nil)

	products := p.ParseLines("Tri Tip Roast $5.99/lb")
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	got := products[0]
	if got.Name != "Tri Tip Roast" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Price == nil || *got.Price != 5.99 {
		t.Errorf("price = %v", got.Price)
	}
	if got.Unit != "lb" {
		t.Errorf("unit = %q", got.Unit)
	}
}

func TestParseLinesDefaultUnit(t *testing.T) {
	p := New(Config{}, nil)

	products := p.ParseLines("Large Avocados $1.25")
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if products[0].Unit != "each" {
		t.Errorf("unit = %q, want each", products[0].Unit)
	}
}

func TestParseLinesRejectsOutOfRangePrice(t *testing.T) {
	p := New(Config{}, nil)

	if got := p.ParseLines("Some Gadget $1234.56"); len(got) != 0 {
		t.Errorf("expected no products for out-of-range price, got %v", got)
	}
	if got := p.ParseLines("Tiny Thing $0.05"); len(got) != 0 {
		t.Errorf("expected no products below minimum price, got %v", got)
	}
}

func TestParseLinesRejectsBoilerplate(t *testing.T) {
	p := New(Config{}, nil)

	for _, line := range []string{
		"Member Price $3.99",
		"Limit 4 per card $2.49",
		"Save now $1.99",
	} {
		if got := p.ParseLines(line); len(got) != 0 {
			t.Errorf("%q: expected rejection, got %v", line, got)
		}
	}
}

func TestParseLinesNameOnNextLine(t *testing.T) {
	p := New(Config{}, nil)

	products := p.ParseLines("$2.99\nGala Apples")
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if products[0].Name != "Gala Apples" {
		t.Errorf("name = %q", products[0].Name)
	}
}

func TestParseLinesSectionTracking(t *testing.T) {
	p := New(Config{}, nil)

	text := "Fresh Produce\nBananas $0.59/lb\nMeat & Poultry\nChicken Thighs $1.99/lb"
	products := p.ParseLines(text)
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].Section != "Produce" {
		t.Errorf("first section = %q", products[0].Section)
	}
	if products[1].Section != "Meat" {
		t.Errorf("second section = %q", products[1].Section)
	}
}

func TestParseLinesDiscountOnly(t *testing.T) {
	p := New(Config{}, nil)

	products := p.ParseLines("All Greeting Items 50% off")
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	got := products[0]
	if got.Price != nil {
		t.Errorf("price = %v, want nil", got.Price)
	}
	if got.DiscountPercent == nil || *got.DiscountPercent != 50 {
		t.Errorf("discount = %v", got.DiscountPercent)
	}
}

func TestParseGroup(t *testing.T) {
	p := New(Config{}, nil)

	group := []entity.TextSpan{
		{Text: "Boneless Pork", Confidence: 0.9, YPos: 100},
		{Text: "Chops", Confidence: 0.8, YPos: 112},
		{Text: "$2.49/lb", Confidence: 0.95, YPos: 118},
	}
	got, ok := p.ParseGroup(group)
	if !ok {
		t.Fatal("expected a product")
	}
	if got.Name != "Boneless Pork Chops" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Price == nil || *got.Price != 2.49 {
		t.Errorf("price = %v", got.Price)
	}
	if got.Unit != "lb" {
		t.Errorf("unit = %q", got.Unit)
	}
	if got.Confidence < 0.88 || got.Confidence > 0.89 {
		t.Errorf("confidence = %v", got.Confidence)
	}
}

func TestParseGroupStripsLeadingGlyph(t *testing.T) {
	p := New(Config{}, nil)

	group := []entity.TextSpan{{Text: "X Russet Potatoes $3.99", Confidence: 0.7, YPos: 10}}
	got, ok := p.ParseGroup(group)
	if !ok {
		t.Fatal("expected a product")
	}
	if got.Name != "Russet Potatoes" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestParseGroupNoPrice(t *testing.T) {
	p := New(Config{}, nil)

	if _, ok := p.ParseGroup([]entity.TextSpan{{Text: "Just a headline", YPos: 5}}); ok {
		t.Error("expected rejection without a price token")
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Tri Tip Roast":            "tri tip roast",
		"Tri  Tip   Roast":         "tri tip roast",
		"Chicken Breast, Boneless": "chicken breast",
		"Carrots Sliced Fresh":     "carrots",
		"Fresh":                    "fresh",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
