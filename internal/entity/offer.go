package entity

// Offer is a priced product from one provider. Offers are request-scoped and
// never persisted.
type Offer struct {
	Provider      string   `json:"provider"`
	Store         string   `json:"store"`
	ProductName   string   `json:"product_name"`
	Price         *float64 `json:"price,omitempty"`
	Unit          *string  `json:"unit,omitempty"`
	URL           *string  `json:"url,omitempty"`
	PromoText     *string  `json:"promo_text,omitempty"`
	DistanceMiles *float64 `json:"distance_miles,omitempty"`
}
