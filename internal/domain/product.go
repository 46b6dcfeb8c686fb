package domain

import (
	"encoding/json"
)

// Product is the canonical, provider-tagged record produced by normalization.
// Exactly one of the success fields or Error is populated.
type Product struct {
	Platform string        `json:"platform"`
	ID       *string       `json:"id"`
	UPC      *string       `json:"upc"`
	Title    *string       `json:"title"`
	URL      *string       `json:"url"`
	Image    *string       `json:"image"`
	Offers   []Offer       `json:"offers,omitempty"`
	Reviews  []Review      `json:"reviews"`
	Error    *ProductError `json:"error,omitempty"`
}

// Offer is a single seller's listing within a multi-seller marketplace
type Offer struct {
	SellerName string   `json:"seller_name"`
	Condition  string   `json:"condition"`
	Price      *float64 `json:"price"`
	Currency   string   `json:"currency"`
	PriceRaw   *string  `json:"price_raw"`
	Link       string   `json:"link"`
	Shipping   *string  `json:"shipping,omitempty"`
}

// Review is a normalized customer review
type Review struct {
	Text         *string  `json:"text"`
	Rating       *float64 `json:"rating"`
	Date         *string  `json:"date"`
	UserName     string   `json:"user_name"`
	FullfilledBy string   `json:"fullfilled_by"`
}

// ProductError describes why a provider could not be normalized.
// The raw payloads are kept verbatim for diagnosis.
type ProductError struct {
	Message    string          `json:"message"`
	RawSearch  json.RawMessage `json:"raw_search"`
	RawProduct json.RawMessage `json:"raw_product"`
}

// SearchResult is the aggregate response for one query
type SearchResult struct {
	Query   string    `json:"query"`
	Results []Product `json:"results"`
}

// NewProductError builds the error variant of Product
func NewProductError(platform, message string, rawSearch, rawProduct json.RawMessage) Product {
	return Product{
		Platform: platform,
		Error: &ProductError{
			Message:    message,
			RawSearch:  orNull(rawSearch),
			RawProduct: orNull(rawProduct),
		},
	}
}

// Failed reports whether p is the error variant
func (p Product) Failed() bool {
	return p.Error != nil
}

// MarshalJSON emits only platform and error for the error variant
func (p Product) MarshalJSON() ([]byte, error) {
	if p.Error != nil {
		return json.Marshal(struct {
			Platform string        `json:"platform"`
			Error    *ProductError `json:"error"`
		}{p.Platform, p.Error})
	}

	type plain Product
	out := plain(p)
	if out.Reviews == nil {
		out.Reviews = []Review{}
	}
	return json.Marshal(out)
}

// orNull keeps raw payloads embeddable: empty becomes null, invalid JSON a string
func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	if !json.Valid(raw) {
		quoted, _ := json.Marshal(string(raw))
		return quoted
	}
	return raw
}
