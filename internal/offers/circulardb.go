package offers

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// ItemSearcher is the slice of the circular item repository this provider
// needs.
type ItemSearcher interface {
	Search(ctx context.Context, term, retailer string) ([]entity.CircularItem, error)
}

// CircularDBProvider serves offers from circular items already extracted and
// loaded into Postgres.
type CircularDBProvider struct {
	repo   ItemSearcher
	logger *slog.Logger
}

func NewCircularDBProvider(repo ItemSearcher, logger *slog.Logger) *CircularDBProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CircularDBProvider{repo: repo, logger: logger}
}

func (p *CircularDBProvider) Name() string { return "Circular DB" }

func (p *CircularDBProvider) Fetch(ctx context.Context, q Query) ([]entity.Offer, error) {
	items, err := p.repo.Search(ctx, q.Term, "")
	if err != nil {
		return nil, err
	}

	offers := make([]entity.Offer, 0, len(items))
	for _, it := range items {
		price := it.Price
		unit := it.Unit
		promo := "Weekly Ad"
		if it.Category != nil && *it.Category != "" {
			promo = "Weekly Ad - " + *it.Category
		}
		offers = append(offers, entity.Offer{
			Provider:    p.Name(),
			Store:       it.Retailer,
			ProductName: it.ItemName,
			Price:       &price,
			Unit:        &unit,
			PromoText:   &promo,
		})
	}
	p.logger.Debug("offers.circulardb.done", "term", q.Term, "offers", len(offers))
	return offers, nil
}
