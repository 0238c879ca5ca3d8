// Package offers aggregates grocery price offers from several unreliable
// sources behind one failure boundary: curated databases, loaded circular
// items, live PDF extraction, weekly-ad scrapers, and third-party APIs.
package offers

import (
	"context"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// Query carries the normalized search term and the shopper's location.
type Query struct {
	Term        string
	ZipCode     string
	Lat         *float64
	Lng         *float64
	RadiusMiles float64
}

// Provider is one offer source. Implementations return an empty slice when
// they have nothing, and an error only for genuine failures; the aggregator
// turns both into an empty contribution.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]entity.Offer, error)
}

// Registration pins a provider to a position in the call order. Curated
// sources come before speculative scrapers so their offers survive
// deduplication.
type Registration struct {
	Name     string
	Provider Provider
	Enabled  bool
}
