package offers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// Aggregator fans a query out to every enabled provider in order and folds
// the results into one deduplicated, price-sorted list. No provider failure
// of any kind escapes it.
type Aggregator struct {
	registrations []Registration
	logger        *slog.Logger

	// DefaultRadiusMiles fills in Query.RadiusMiles when the caller leaves
	// it unset.
	DefaultRadiusMiles float64
}

func NewAggregator(registrations []Registration, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{registrations: registrations, logger: logger, DefaultRadiusMiles: 5.0}
}

// Offers normalizes the raw query, queries providers sequentially, and
// returns the merged offers plus the normalized term actually searched.
func (a *Aggregator) Offers(ctx context.Context, rawQuery string, q Query) ([]entity.Offer, string, error) {
	term := NormalizeQuery(rawQuery)
	q.Term = term
	if q.RadiusMiles <= 0 {
		q.RadiusMiles = a.DefaultRadiusMiles
	}
	a.logger.Info("offers.query", "raw", rawQuery, "normalized", term)

	var collected []entity.Offer
	for _, reg := range a.registrations {
		if !reg.Enabled {
			continue
		}
		collected = append(collected, a.fetchOne(ctx, reg, q)...)
	}

	result := dedupeOffers(collected)
	sortOffers(result)
	offersReturned.Observe(float64(len(result)))
	a.logger.Info("offers.done", "normalized", term, "offers", len(result))
	return result, term, nil
}

// fetchOne is the failure boundary: a provider that errors or panics
// contributes an empty slice and the query moves on.
func (a *Aggregator) fetchOne(ctx context.Context, reg Registration, q Query) (offers []entity.Offer) {
	start := time.Now()
	defer func() {
		providerDuration.WithLabelValues(reg.Name).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			providerCalls.WithLabelValues(reg.Name, "panic").Inc()
			a.logger.Error("offers.provider.panic", "provider", reg.Name, "panic", fmt.Sprint(r))
			offers = nil
		}
	}()

	got, err := reg.Provider.Fetch(ctx, q)
	if err != nil {
		providerCalls.WithLabelValues(reg.Name, "error").Inc()
		a.logger.Warn("offers.provider.failed", "provider", reg.Name, "error", err)
		return nil
	}
	providerCalls.WithLabelValues(reg.Name, "ok").Inc()
	if len(got) > 0 {
		a.logger.Debug("offers.provider.ok", "provider", reg.Name, "offers", len(got))
	}
	return got
}

type offerKey struct {
	provider string
	store    string
	price    float64
	hasPrice bool
	url      string
}

// dedupeOffers keeps the first offer per (provider, store, price, url),
// preserving arrival order so earlier providers win.
func dedupeOffers(offers []entity.Offer) []entity.Offer {
	seen := make(map[offerKey]struct{}, len(offers))
	out := make([]entity.Offer, 0, len(offers))
	for _, o := range offers {
		if o.Provider == "" {
			o.Provider = "unknown"
		}
		if o.Store == "" {
			o.Store = "Unknown Store"
		}
		key := offerKey{provider: o.Provider, store: o.Store}
		if o.Price != nil {
			key.price = *o.Price
			key.hasPrice = true
		}
		if o.URL != nil {
			key.url = *o.URL
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, o)
	}
	return out
}

// sortOffers orders by price ascending with unpriced offers last. The sort
// is stable so equal prices keep provider order.
func sortOffers(offers []entity.Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		pi, pj := offers[i].Price, offers[j].Price
		switch {
		case pi == nil && pj == nil:
			return false
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return *pi < *pj
		}
	})
}
