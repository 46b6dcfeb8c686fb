package normalizer

// amazonShape covers the amazon and amazon_product engines. Older responses
// use search_results and a top-level product object.
var amazonShape = shape{
	results:  []string{"organic_results", "search_results", "products", "results"},
	idFields: []string{"asin"},
	detail:   []string{"product", "product_results"},

	id:    []field{detail("asin"), first("asin"), detail("product_id"), first("product_id")},
	title: []field{detail("title"), detail("name"), first("title")},
	url:   []field{detail("link"), detail("url"), detail("product_link"), first("link"), first("url")},
	image: []field{
		detail("main_image"), detail("main_image.link"),
		detail("thumbnail"),
		detail("images.0"), detail("images.0.link"),
		first("thumbnail"), first("image"),
	},

	specs: []field{detail("specifications"), product("specifications"), first("specifications"), search("specifications")},
	upc:   []field{detail("upc"), detail("product_details.upc")},

	offers:      []field{detail("offers"), detail("other_sellers"), detail("buying_options"), product("offers"), product("other_sellers")},
	reviews:     []field{detail("reviews"), detail("top_reviews"), product("reviews"), product("top_reviews"), product("reviews_information.authors_reviews")},
	fulfilledBy: "N/A",
}
