package offers

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

var (
	reNameClass    = regexp.MustCompile(`(?i)prod.*name|title`)
	reItemClass    = regexp.MustCompile(`(?i)prod.*name|title|item`)
	rePriceClass   = regexp.MustCompile(`(?i)price`)
	reCostClass    = regexp.MustCompile(`(?i)price|cost`)
	reProductHref  = regexp.MustCompile(`/ip/`)
)

// maxCards bounds how many page cards a scraper inspects per fetch.
const maxCards = 100

// SafewayProvider scrapes Safeway's weekly deals page for cards matching
// the query.
type SafewayProvider struct {
	client  *htmlClient
	baseURL string
	logger  *slog.Logger
}

func NewSafewayProvider(client *htmlClient, logger *slog.Logger) *SafewayProvider {
	if client == nil {
		client = newHTMLClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SafewayProvider{client: client, baseURL: "https://www.safeway.com", logger: logger}
}

func (p *SafewayProvider) Name() string { return "Safeway Weekly Ad" }

func (p *SafewayProvider) Fetch(ctx context.Context, q Query) ([]entity.Offer, error) {
	doc, err := p.client.fetch(ctx, p.baseURL+"/deals.html")
	if err != nil {
		return nil, err
	}

	var offers []entity.Offer
	for _, card := range findAll(doc, []string{"div", "article"}, maxCards) {
		text := nodeText(card)
		if !matchesQuery(q.Term, text) {
			continue
		}
		nameNode := findFirst(card, []string{"h2", "h3", "h4", "span"}, reItemClass)
		if nameNode == nil {
			continue
		}
		name := strings.TrimSpace(nodeText(nameNode))
		var price *float64
		if priceNode := findFirst(card, []string{"span", "div"}, reCostClass); priceNode != nil {
			price = extractPrice(nodeText(priceNode))
		}
		if name == "" || price == nil {
			continue
		}
		promo := "Weekly Ad"
		offers = append(offers, entity.Offer{
			Provider:    p.Name(),
			Store:       "Safeway",
			ProductName: name,
			Price:       price,
			PromoText:   &promo,
		})
	}
	p.logger.Debug("offers.safeway.done", "term", q.Term, "offers", len(offers))
	return offers, nil
}

// SmithsProvider has no parseable weekly ad source yet and always returns
// empty.
// TODO: parse Smith's circular PDFs once a stable download URL exists.
type SmithsProvider struct{}

func NewSmithsProvider() *SmithsProvider { return &SmithsProvider{} }

func (p *SmithsProvider) Name() string { return "Smith's Weekly Ad" }

func (p *SmithsProvider) Fetch(ctx context.Context, q Query) ([]entity.Offer, error) {
	return nil, nil
}

// WalmartProvider scrapes Walmart's rollback deals page. Those deals skew
// toward general merchandise, so registration keeps it disabled unless
// explicitly turned on.
type WalmartProvider struct {
	client  *htmlClient
	baseURL string
	logger  *slog.Logger
}

func NewWalmartProvider(client *htmlClient, logger *slog.Logger) *WalmartProvider {
	if client == nil {
		client = newHTMLClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WalmartProvider{client: client, baseURL: "https://www.walmart.com", logger: logger}
}

func (p *WalmartProvider) Name() string { return "Walmart Weekly Ad" }

func (p *WalmartProvider) Fetch(ctx context.Context, q Query) ([]entity.Offer, error) {
	doc, err := p.client.fetch(ctx, p.baseURL+"/shop/deals/rollback")
	if err != nil {
		return nil, err
	}

	var offers []entity.Offer
	for _, card := range findAll(doc, []string{"div", "article"}, maxCards) {
		text := nodeText(card)
		if !matchesQuery(q.Term, text) {
			continue
		}
		nameNode := findFirst(card, []string{"h2", "h3", "h4", "span"}, reNameClass)
		if nameNode == nil {
			nameNode = findLink(card, reProductHref)
		}
		if nameNode == nil {
			continue
		}
		name := strings.TrimSpace(nodeText(nameNode))
		var price *float64
		if priceNode := findFirst(card, []string{"span", "div"}, rePriceClass); priceNode != nil {
			price = extractPrice(nodeText(priceNode))
		}
		if name == "" || price == nil {
			continue
		}

		var url *string
		if link := findLink(card, nil); link != nil {
			href := attrVal(link, "href")
			if !strings.HasPrefix(href, "http") {
				href = p.baseURL + href
			}
			url = &href
		}
		promo := "Rollback"
		offers = append(offers, entity.Offer{
			Provider:    p.Name(),
			Store:       "Walmart",
			ProductName: name,
			Price:       price,
			URL:         url,
			PromoText:   &promo,
		})
	}
	p.logger.Debug("offers.walmart.done", "term", q.Term, "offers", len(offers))
	return offers, nil
}
