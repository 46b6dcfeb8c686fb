package normalizer

// walmartShape covers the walmart and walmart_product engines
var walmartShape = shape{
	results:  []string{"organic_results", "search_results", "products", "items"},
	idFields: []string{"us_item_id", "product_id", "item_id"},
	detail:   []string{"product_result", "product"},

	id:    []field{detail("us_item_id"), detail("product_id"), first("us_item_id"), first("product_id")},
	title: []field{detail("title"), detail("name"), first("title")},
	url:   []field{detail("product_page_url"), detail("link"), first("product_page_url"), first("link")},
	image: []field{detail("images.0"), detail("thumbnail"), first("thumbnail"), first("image")},

	specs: []field{detail("specifications"), first("specifications"), search("specifications")},
	upc:   []field{detail("upc"), first("upc")},

	offers: []field{detail("offers"), detail("sellers"), detail("other_sellers"), product("offers")},
	reviews: []field{
		product("reviews_results.reviews"), product("reviews"),
		detail("reviews"), detail("top_reviews"),
	},
	fulfilledBy: "Walmart",
}
