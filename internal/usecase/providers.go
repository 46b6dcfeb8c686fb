package usecase

import (
	"encoding/json"
	"fmt"

	"github.com/pricescan/backend/internal/domain"
	"github.com/pricescan/backend/internal/infrastructure/normalizer"
)

// Provider describes how one marketplace is searched and normalized.
// Enabling a marketplace is a matter of adding it to the registry.
type Provider struct {
	Tag          string
	SearchEngine string
	QueryParam   string
	DetailEngine string
	IDParam      string
	ExtractID    func(search json.RawMessage) (string, bool)
	Normalize    func(in normalizer.Input) domain.Product
}

// registry lists every known provider in output priority order
var registry = []Provider{
	newProvider("amazon", "amazon", "q", "amazon_product", "asin"),
	newProvider("walmart", "walmart", "query", "walmart_product", "product_id"),
	newProvider("ebay", "ebay", "_nkw", "ebay_product", "product_id"),
}

func newProvider(tag, searchEngine, queryParam, detailEngine, idParam string) Provider {
	return Provider{
		Tag:          tag,
		SearchEngine: searchEngine,
		QueryParam:   queryParam,
		DetailEngine: detailEngine,
		IDParam:      idParam,
		ExtractID: func(search json.RawMessage) (string, bool) {
			return normalizer.ExtractID(tag, search)
		},
		Normalize: normalizer.Normalize,
	}
}

// EnabledProviders returns the registry entries named in enabled, in registry order
func EnabledProviders(enabled []string) ([]Provider, error) {
	want := make(map[string]bool, len(enabled))
	for _, tag := range enabled {
		want[tag] = true
	}

	var out []Provider
	for _, p := range registry {
		if want[p.Tag] {
			out = append(out, p)
			delete(want, p.Tag)
		}
	}
	for tag := range want {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedPlatform, tag)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no providers enabled")
	}
	return out, nil
}
