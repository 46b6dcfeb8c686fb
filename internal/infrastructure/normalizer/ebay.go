package normalizer

// ebayShape covers the ebay and ebay_product engines. eBay listings are
// single-seller, so no offers are produced.
var ebayShape = shape{
	results:  []string{"organic_results", "search_results", "items"},
	idFields: []string{"product_id", "item_id", "epid"},
	detail:   []string{"product_results", "product"},

	id:    []field{detail("product_id"), detail("item_id"), first("product_id"), first("item_id")},
	title: []field{detail("title"), first("title")},
	url:   []field{detail("link"), detail("url"), first("link")},
	image: []field{detail("media.0.image.link"), detail("images.0"), detail("thumbnail"), first("thumbnail")},

	specs: []field{detail("specifications"), detail("item_specifics"), first("specifications"), search("specifications")},
	upc:   []field{detail("upc")},

	reviews:     []field{detail("reviews"), product("reviews"), product("reviews_results.reviews")},
	fulfilledBy: "N/A",
}
