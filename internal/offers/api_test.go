package offers

import (
	"context"
	"net/http"
	"testing"
)

func TestFlippWithoutKeyDoesNoIO(t *testing.T) {
	p := NewFlippProvider("", nil)
	p.do = func(req *http.Request) (*http.Response, error) {
		t.Fatal("HTTP request made without an API key")
		return nil, nil
	}

	got, err := p.Fetch(context.Background(), Query{Term: "milk"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("offers = %+v", got)
	}
}

func TestBasketWithoutKeyReturnsEmpty(t *testing.T) {
	p := NewBasketProvider("")
	got, err := p.Fetch(context.Background(), Query{Term: "milk"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("offers = %+v", got)
	}
}

func TestParseFlexiblePrice(t *testing.T) {
	if got := parseFlexiblePrice([]byte(`3.49`)); got == nil || *got != 3.49 {
		t.Errorf("number: %v", got)
	}
	if got := parseFlexiblePrice([]byte(`"$2.99 ea"`)); got == nil || *got != 2.99 {
		t.Errorf("string: %v", got)
	}
	if got := parseFlexiblePrice([]byte(`null`)); got != nil {
		t.Errorf("null: %v", got)
	}
	if got := parseFlexiblePrice(nil); got != nil {
		t.Errorf("missing: %v", got)
	}
}
