package entity

// TextSpan is a single OCR detection. Spans are ephemeral: an engine emits
// them and the grouping logic consumes them immediately.
type TextSpan struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0..1; 0 means the engine reports none
	YPos       float64 `json:"y_pos"`      // vertical position of the bounding box
}

// Product is a candidate extracted from a circular, before persistence.
// At least one of Price or DiscountPercent is non-nil and Name has at least
// one letter and four characters; the parser discards anything else.
type Product struct {
	Name            string   `json:"name"`
	Price           *float64 `json:"price,omitempty"`
	RegularPrice    *float64 `json:"regular_price,omitempty"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	Unit            string   `json:"unit"`
	Category        string   `json:"category,omitempty"`
	Section         string   `json:"section,omitempty"`
	PromoText       string   `json:"promo_text,omitempty"`
	Sources         []string `json:"sources,omitempty"` // contributing OCR engines
	Confidence      float64  `json:"confidence,omitempty"`
}
