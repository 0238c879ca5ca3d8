package offers

import (
	"context"
	"errors"
	"testing"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

type fakeProvider struct {
	name   string
	offers []entity.Offer
	err    error
	panics bool
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context, q Query) ([]entity.Offer, error) {
	f.calls++
	if f.panics {
		panic("provider blew up")
	}
	return f.offers, f.err
}

func fp(v float64) *float64 { return &v }

func offer(provider, store string, price *float64) entity.Offer {
	return entity.Offer{Provider: provider, Store: store, ProductName: "x", Price: price}
}

func TestOffersSortedPriceAscendingNilLast(t *testing.T) {
	p := &fakeProvider{name: "a", offers: []entity.Offer{
		offer("a", "s1", nil),
		offer("a", "s2", fp(3.99)),
		offer("a", "s3", fp(1.49)),
		offer("a", "s4", nil),
		offer("a", "s5", fp(2.00)),
	}}
	agg := NewAggregator([]Registration{{Name: "a", Provider: p, Enabled: true}}, nil)

	got, _, err := agg.Offers(context.Background(), "milk", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("offers = %d", len(got))
	}
	wantPrices := []*float64{fp(1.49), fp(2.00), fp(3.99), nil, nil}
	for i, want := range wantPrices {
		have := got[i].Price
		if (want == nil) != (have == nil) {
			t.Fatalf("offer %d: price = %v, want %v", i, have, want)
		}
		if want != nil && *have != *want {
			t.Errorf("offer %d: price = %v, want %v", i, *have, *want)
		}
	}
}

func TestOffersDeduplicated(t *testing.T) {
	u := "https://example.com/deal"
	dup := entity.Offer{Provider: "a", Store: "Safeway", ProductName: "Milk", Price: fp(3.19), URL: &u}
	p := &fakeProvider{name: "a", offers: []entity.Offer{dup, dup, dup}}
	agg := NewAggregator([]Registration{{Name: "a", Provider: p, Enabled: true}}, nil)

	got, _, err := agg.Offers(context.Background(), "milk", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("offers = %d, want 1", len(got))
	}
}

func TestProviderFailuresAreIsolated(t *testing.T) {
	boom := &fakeProvider{name: "boom", err: errors.New("upstream down")}
	crash := &fakeProvider{name: "crash", panics: true}
	good := &fakeProvider{name: "good", offers: []entity.Offer{offer("good", "s", fp(1.99))}}
	agg := NewAggregator([]Registration{
		{Name: "boom", Provider: boom, Enabled: true},
		{Name: "crash", Provider: crash, Enabled: true},
		{Name: "good", Provider: good, Enabled: true},
	}, nil)

	got, _, err := agg.Offers(context.Background(), "milk", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Provider != "good" {
		t.Errorf("offers = %+v", got)
	}
}

func TestDisabledProviderNeverCalled(t *testing.T) {
	off := &fakeProvider{name: "off", offers: []entity.Offer{offer("off", "s", fp(0.99))}}
	agg := NewAggregator([]Registration{{Name: "off", Provider: off, Enabled: false}}, nil)

	got, _, err := agg.Offers(context.Background(), "milk", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("offers = %+v", got)
	}
	if off.calls != 0 {
		t.Errorf("disabled provider called %d times", off.calls)
	}
}

func TestOffersReturnsNormalizedQuery(t *testing.T) {
	agg := NewAggregator(nil, nil)
	_, term, err := agg.Offers(context.Background(), "2 tablespoons white sugar", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if term != "sugar" {
		t.Errorf("normalized = %q", term)
	}
}
