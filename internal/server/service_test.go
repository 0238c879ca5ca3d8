package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
	"github.com/joseph-ayodele/circulars-tracker/internal/extraction"
	"github.com/joseph-ayodele/circulars-tracker/internal/loader"
	"github.com/joseph-ayodele/circulars-tracker/internal/offers"
	"github.com/joseph-ayodele/circulars-tracker/internal/repository"
)

type fakeOfferSource struct {
	offers []entity.Offer
}

func (f *fakeOfferSource) Offers(ctx context.Context, rawQuery string, q offers.Query) ([]entity.Offer, string, error) {
	return f.offers, offers.NormalizeQuery(rawQuery), nil
}

type fakeRepo struct {
	repository.CircularItemRepository
	items []entity.CircularItem
}

func (f *fakeRepo) Search(ctx context.Context, term, retailer string) ([]entity.CircularItem, error) {
	return f.items, nil
}

func (f *fakeRepo) ReplaceForRetailer(ctx context.Context, retailer string, items []entity.CircularItem) (int64, error) {
	return int64(len(items)), nil
}

type noopExtractor struct{}

func (noopExtractor) ProductsWithMode(ctx context.Context, source string, mode extraction.Mode) ([]entity.Product, error) {
	return nil, nil
}

func (noopExtractor) Invalidate(source string) {}

func newTestService(src OfferSource, repo repository.CircularItemRepository, t *testing.T) *Service {
	ldr := loader.NewService(t.TempDir(), true, nil, noopExtractor{}, repo, nil)
	return NewService(src, repo, ldr, nil, nil, nil)
}

func TestOffersEndpoint(t *testing.T) {
	price := 2.49
	src := &fakeOfferSource{offers: []entity.Offer{
		{Provider: "Curated DB", Store: "Raley's", ProductName: "Sugar", Price: &price},
	}}
	svc := newTestService(src, &fakeRepo{}, t)

	req := httptest.NewRequest(http.MethodPost, "/pricing/offers",
		strings.NewReader(`{"query": "2 tablespoons white sugar"}`))
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Offers          []entity.Offer `json:"offers"`
		NormalizedQuery string         `json:"normalized_query"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.NormalizedQuery != "sugar" {
		t.Errorf("normalized_query = %q", resp.NormalizedQuery)
	}
	if len(resp.Offers) != 1 || resp.Offers[0].Store != "Raley's" {
		t.Errorf("offers = %+v", resp.Offers)
	}
}

func TestOffersEndpointRequiresQuery(t *testing.T) {
	svc := newTestService(&fakeOfferSource{}, &fakeRepo{}, t)

	req := httptest.NewRequest(http.MethodPost, "/pricing/offers", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	repo := &fakeRepo{items: []entity.CircularItem{
		{Retailer: "Raley's", ItemName: "Tri Tip Roast", Price: 5.97, Unit: "lb"},
	}}
	svc := newTestService(&fakeOfferSource{}, repo, t)

	req := httptest.NewRequest(http.MethodGet, "/circulars/search?q=tri+tip", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []entity.CircularItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ItemName != "Tri Tip Roast" {
		t.Errorf("items = %+v", items)
	}
}

func TestReloadUnknownRetailer(t *testing.T) {
	svc := newTestService(&fakeOfferSource{}, &fakeRepo{}, t)

	req := httptest.NewRequest(http.MethodPost, "/circulars/reload/Nowhere", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	svc := newTestService(&fakeOfferSource{}, &fakeRepo{}, t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
