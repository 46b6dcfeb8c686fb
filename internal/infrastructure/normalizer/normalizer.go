// Package normalizer maps raw provider search and detail payloads onto the
// canonical domain.Product record.
package normalizer

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/pricescan/backend/internal/domain"
)

// Defaults applied to fields a provider leaves out
const (
	DefaultUserName  = "Anonymous"
	DefaultCondition = "Unknown"
)

// Input carries everything fetched for one provider during a pipeline run
type Input struct {
	Platform  string
	Search    json.RawMessage
	Product   json.RawMessage
	SearchErr error
}

// source selects which document a field path is read from
type source int

const (
	fromDetail  source = iota // nested detail record
	fromProduct               // whole detail payload
	fromFirst                 // first search result
	fromSearch                // whole search payload
)

type field struct {
	src  source
	path string
}

func detail(path string) field  { return field{fromDetail, path} }
func product(path string) field { return field{fromProduct, path} }
func first(path string) field   { return field{fromFirst, path} }
func search(path string) field  { return field{fromSearch, path} }

// shape is the per-provider knowledge of where each canonical field lives.
// Every list is a fallback chain tried in order.
type shape struct {
	results  []string // names of the search result sequence
	idFields []string // identifier field on the first result
	detail   []string // nested detail record inside the detail payload

	id    []field
	title []field
	url   []field
	image []field

	specs []field // {name, value} lists scanned for the UPC
	upc   []field // direct UPC fields tried after the specs

	// offers is nil for providers without a multi-seller marketplace
	offers      []field
	reviews     []field
	fulfilledBy string
}

// variants is the closed set of supported providers
var variants = map[string]*shape{
	"amazon":  &amazonShape,
	"walmart": &walmartShape,
	"ebay":    &ebayShape,
}

// Supported reports whether platform has a normalizer
func Supported(platform string) bool {
	_, ok := variants[platform]
	return ok
}

// payload holds the parsed documents of one provider
type payload struct {
	search  gjson.Result
	first   gjson.Result
	product gjson.Result
	detail  gjson.Result
}

func (p payload) doc(src source) gjson.Result {
	switch src {
	case fromDetail:
		return p.detail
	case fromProduct:
		return p.product
	case fromFirst:
		return p.first
	default:
		return p.search
	}
}

func (p payload) lookups(fields []field) []Lookup {
	out := make([]Lookup, len(fields))
	for i, f := range fields {
		out[i] = At(p.doc(f.src), f.path)
	}
	return out
}

// ExtractID returns the identifier of the first search result, if any
func ExtractID(platform string, rawSearch json.RawMessage) (string, bool) {
	s, ok := variants[platform]
	if !ok || len(rawSearch) == 0 || !gjson.ValidBytes(rawSearch) {
		return "", false
	}
	firstResult := firstOf(gjson.ParseBytes(rawSearch), s.results)
	id := FirstString(Chain(firstResult, s.idFields...)...)
	if id == nil || *id == "" {
		return "", false
	}
	return *id, true
}

// Normalize maps one provider's payloads onto a Product. It never fails:
// every problem is reported through the error variant.
func Normalize(in Input) (out domain.Product) {
	s, ok := variants[in.Platform]
	if !ok {
		return domain.NewProductError(in.Platform,
			fmt.Sprintf("%s: %q", domain.ErrUnsupportedPlatform, in.Platform), in.Search, in.Product)
	}

	if len(in.Search) == 0 && in.SearchErr != nil {
		return domain.NewProductError(in.Platform, in.SearchErr.Error(), nil, in.Product)
	}

	defer func() {
		if r := recover(); r != nil {
			out = domain.NewProductError(in.Platform, fmt.Sprintf("normalization failed: %v", r), in.Search, in.Product)
		}
	}()

	p, err := parse(in, s)
	if err != nil {
		return domain.NewProductError(in.Platform, err.Error(), in.Search, in.Product)
	}

	return s.normalize(in.Platform, p)
}

func parse(in Input, s *shape) (payload, error) {
	var p payload
	if len(in.Search) > 0 {
		if !gjson.ValidBytes(in.Search) {
			return p, fmt.Errorf("malformed search payload")
		}
		p.search = gjson.ParseBytes(in.Search)
		p.first = firstOf(p.search, s.results)
	}
	if len(in.Product) > 0 {
		if !gjson.ValidBytes(in.Product) {
			return p, fmt.Errorf("malformed product payload")
		}
		p.product = gjson.ParseBytes(in.Product)
		p.detail = p.product
		if nested := FirstDefined(Chain(p.product, s.detail...)...); nested.IsObject() {
			p.detail = nested
		}
	}
	return p, nil
}

func (s *shape) normalize(platform string, p payload) domain.Product {
	out := domain.Product{
		Platform: platform,
		ID:       FirstString(p.lookups(s.id)...),
		Title:    FirstString(p.lookups(s.title)...),
		URL:      FirstString(p.lookups(s.url)...),
		Image:    FirstString(p.lookups(s.image)...),
		UPC:      s.findUPC(p),
		Reviews:  mapReviews(FirstArray(p.lookups(s.reviews)...), s.fulfilledBy),
	}
	if s.offers != nil {
		out.Offers = mapOffers(FirstArray(p.lookups(s.offers)...))
		if out.Offers == nil {
			out.Offers = []domain.Offer{}
		}
	}
	return out
}

func (s *shape) findUPC(p payload) *string {
	for _, f := range s.specs {
		if upc := FindSpecByName(p.doc(f.src).Get(f.path), "upc"); upc != nil {
			return upc
		}
	}
	return FirstString(p.lookups(s.upc)...)
}

// firstOf returns the first entry of the first result sequence found
func firstOf(doc gjson.Result, names []string) gjson.Result {
	seq := FirstArray(Chain(doc, names...)...)
	if !seq.IsArray() {
		return gjson.Result{}
	}
	if entry := seq.Get("0"); entry.IsObject() {
		return entry
	}
	return gjson.Result{}
}

// mapOffers drops offers without a seller, a link or any price, then keeps
// the first offer per (seller, condition, link).
func mapOffers(raw gjson.Result) []domain.Offer {
	var offers []domain.Offer
	seen := make(map[[3]string]bool)

	raw.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}

		seller := FirstString(Chain(item, "seller_name", "seller.name", "seller", "sold_by")...)
		link := FirstString(Chain(item, "link", "seller.link", "url", "offer_link")...)
		amount := FirstNumeric(Chain(item, "extracted_price", "price.extracted_value", "price.value", "price")...)
		priceRaw := FirstString(Chain(item, "price_raw", "price.raw", "price")...)
		currency := FirstString(Chain(item, "currency", "price.currency")...)
		condition := FirstString(Chain(item, "condition", "item_condition")...)

		if seller == nil || *seller == "" || link == nil || *link == "" {
			return true
		}
		cur := ""
		if currency != nil {
			cur = *currency
		}
		money := NormalizeCurrency(amount, cur)
		if money.Value == nil && priceRaw == nil {
			return true
		}

		offer := domain.Offer{
			SellerName: *seller,
			Condition:  DefaultCondition,
			Price:      money.Value,
			Currency:   money.Currency,
			PriceRaw:   priceRaw,
			Link:       *link,
			Shipping:   FirstString(Chain(item, "shipping", "shipping.raw", "delivery")...),
		}
		if condition != nil && *condition != "" {
			offer.Condition = *condition
		}

		key := [3]string{offer.SellerName, offer.Condition, offer.Link}
		if seen[key] {
			return true
		}
		seen[key] = true
		offers = append(offers, offer)
		return true
	})

	return offers
}

// mapReviews converts raw reviews, defaulting each missing field on its own
func mapReviews(raw gjson.Result, fulfilledBy string) []domain.Review {
	reviews := []domain.Review{}

	raw.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}

		review := domain.Review{
			Text:         FirstString(Chain(item, "text", "body", "snippet", "content", "review")...),
			Rating:       FirstNumber(Chain(item, "rating", "stars", "rating.value")...),
			Date:         NormalizeDate(FirstText(Chain(item, "date", "reviewed_at", "submission_time", "date.raw")...)),
			UserName:     DefaultUserName,
			FullfilledBy: fulfilledBy,
		}
		if name := FirstString(Chain(item, "user_name", "author", "user.name", "profile.name", "reviewer", "username")...); name != nil && *name != "" {
			review.UserName = *name
		}
		if by := FirstString(Chain(item, "fullfilled_by", "fulfilled_by", "fulfillment")...); by != nil && *by != "" {
			review.FullfilledBy = *by
		}

		reviews = append(reviews, review)
		return true
	})

	return reviews
}
