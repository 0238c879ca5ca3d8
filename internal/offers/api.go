package offers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// flippItemsSchema guards against the aggregator ingesting garbage when the
// upstream API changes shape under us.
const flippItemsSchema = `{
  "type": "object",
  "required": ["items"],
  "properties": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "merchant": {"type": "string"},
          "current_price": {"type": ["number", "string", "null"]},
          "clipping_image_url": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

type flippItem struct {
	Name         string          `json:"name"`
	Merchant     string          `json:"merchant"`
	CurrentPrice json.RawMessage `json:"current_price"`
	ImageURL     *string         `json:"clipping_image_url"`
}

type flippResponse struct {
	Items []flippItem `json:"items"`
}

// FlippProvider queries the Flipp item search API. Without an API key it
// contributes nothing and performs no network I/O.
type FlippProvider struct {
	apiKey  string
	baseURL string
	do      func(req *http.Request) (*http.Response, error)
	schema  *jsonschema.Schema
	logger  *slog.Logger
}

func NewFlippProvider(apiKey string, logger *slog.Logger) *FlippProvider {
	if logger == nil {
		logger = slog.Default()
	}
	schema := jsonschema.MustCompileString("flipp_items.json", flippItemsSchema)
	client := &http.Client{Timeout: 10 * time.Second}
	return &FlippProvider{
		apiKey:  apiKey,
		baseURL: "https://backflipp.wishabi.com/flipp",
		do:      client.Do,
		schema:  schema,
		logger:  logger,
	}
}

func (p *FlippProvider) Name() string { return "Flipp" }

func (p *FlippProvider) Fetch(ctx context.Context, q Query) ([]entity.Offer, error) {
	if p.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("locale", "en-us")
	params.Set("q", q.Term)
	if q.ZipCode != "" {
		params.Set("postal_code", q.ZipCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/items/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.do(req)
	if err != nil {
		return nil, fmt.Errorf("flipp request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("flipp status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("flipp read: %w", err)
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("flipp decode: %w", err)
	}
	if err := p.schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("flipp response schema: %w", err)
	}

	var parsed flippResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("flipp decode: %w", err)
	}

	offers := make([]entity.Offer, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		store := it.Merchant
		if store == "" {
			store = "Unknown Store"
		}
		offers = append(offers, entity.Offer{
			Provider:    p.Name(),
			Store:       store,
			ProductName: it.Name,
			Price:       parseFlexiblePrice(it.CurrentPrice),
			URL:         it.ImageURL,
		})
	}
	p.logger.Debug("offers.flipp.done", "term", q.Term, "offers", len(offers))
	return offers, nil
}

// parseFlexiblePrice handles the API returning prices as numbers or strings.
func parseFlexiblePrice(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return &num
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return extractPrice(s)
	}
	return nil
}

// BasketProvider is reserved for the Basket price comparison API. Without a
// key it contributes nothing, and the integration is not implemented yet, so
// it always returns empty rather than fabricate data.
type BasketProvider struct {
	apiKey string
}

func NewBasketProvider(apiKey string) *BasketProvider {
	return &BasketProvider{apiKey: apiKey}
}

func (p *BasketProvider) Name() string { return "Basket" }

func (p *BasketProvider) Fetch(ctx context.Context, q Query) ([]entity.Offer, error) {
	if p.apiKey == "" {
		return nil, nil
	}
	return nil, nil
}
