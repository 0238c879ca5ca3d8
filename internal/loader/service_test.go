package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/circulars-tracker/internal/common"
	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
	"github.com/joseph-ayodele/circulars-tracker/internal/extraction"
	"github.com/joseph-ayodele/circulars-tracker/internal/repository"
)

type fakeExtractor struct {
	products    []entity.Product
	invalidated []string
}

func (f *fakeExtractor) ProductsWithMode(ctx context.Context, source string, mode extraction.Mode) ([]entity.Product, error) {
	return f.products, nil
}

func (f *fakeExtractor) Invalidate(source string) {
	f.invalidated = append(f.invalidated, source)
}

type fakeRepo struct {
	repository.CircularItemRepository
	replaced map[string][]entity.CircularItem
}

func (f *fakeRepo) ReplaceForRetailer(ctx context.Context, retailer string, items []entity.CircularItem) (int64, error) {
	if f.replaced == nil {
		f.replaced = make(map[string][]entity.CircularItem)
	}
	f.replaced[retailer] = items
	return int64(len(items)), nil
}

func price(v float64) *float64 { return &v }

func TestReloadRetailerReplacesWholesale(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "raleys-weekly.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	ext := &fakeExtractor{products: []entity.Product{
		{Name: "Tri Tip Roast", Price: price(5.99), Unit: "lb", Section: "Meat"},
		{Name: "Promo Only", DiscountPercent: price(50), Unit: "each"},
		{Name: "Hass Avocados", Price: price(0.97), Unit: "ea"},
	}}
	repo := &fakeRepo{}
	svc := NewService(dir, true, nil, ext, repo, nil)

	res, err := svc.ReloadRetailer(context.Background(), "Raley's")
	if err != nil {
		t.Fatal(err)
	}
	if res.Retailer != "Raley's" || res.Files != 1 {
		t.Errorf("result = %+v", res)
	}
	// The priceless promo is dropped before persistence.
	if res.ItemsLoaded != 2 {
		t.Errorf("items_loaded = %d, want 2", res.ItemsLoaded)
	}

	items := repo.replaced["Raley's"]
	if len(items) != 2 {
		t.Fatalf("replaced items = %d", len(items))
	}
	first := items[0]
	if first.ItemName != "Tri Tip Roast" || first.Price != 5.99 || first.Source != "pdf" {
		t.Errorf("item = %+v", first)
	}
	if first.ValidFrom == nil || first.ValidUntil == nil {
		t.Fatal("validity window not set")
	}
	if got := first.ValidUntil.Sub(*first.ValidFrom).Hours(); got != 24*7 {
		t.Errorf("validity window = %v hours", got)
	}
	if len(ext.invalidated) != 1 {
		t.Errorf("invalidations = %v", ext.invalidated)
	}
}

func TestReloadUnknownRetailer(t *testing.T) {
	svc := NewService(t.TempDir(), true, nil, &fakeExtractor{}, &fakeRepo{}, nil)
	_, err := svc.ReloadRetailer(context.Background(), "Piggly Wiggly")
	if !errors.Is(err, common.ErrUnknownRetailer) {
		t.Errorf("err = %v", err)
	}
}

func TestReloadNoDocuments(t *testing.T) {
	svc := NewService(t.TempDir(), true, nil, &fakeExtractor{}, &fakeRepo{}, nil)
	_, err := svc.ReloadRetailer(context.Background(), "Raley's")
	if !errors.Is(err, common.ErrNoDocuments) {
		t.Errorf("err = %v", err)
	}
}

func TestLoadAllRespectsAutoLoadFlag(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "raleys-weekly.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	ext := &fakeExtractor{products: []entity.Product{{Name: "Milk", Price: price(3.19), Unit: "ea"}}}
	repo := &fakeRepo{}

	if got := NewService(dir, false, nil, ext, repo, nil).LoadAll(context.Background()); got != nil {
		t.Errorf("disabled auto-load returned %+v", got)
	}
	if got := NewService(dir, true, nil, ext, repo, nil).LoadAll(context.Background()); len(got) != 1 {
		t.Errorf("results = %+v", got)
	}
}

func TestRetailerForFile(t *testing.T) {
	svc := NewService(t.TempDir(), true, nil, &fakeExtractor{}, &fakeRepo{}, nil)
	if got, ok := svc.RetailerForFile("/data/circulars/Raleys-2026-08.pdf"); !ok || got != "Raley's" {
		t.Errorf("got %q ok=%v", got, ok)
	}
	if _, ok := svc.RetailerForFile("/data/circulars/unrelated.pdf"); ok {
		t.Error("unexpected match")
	}
}
