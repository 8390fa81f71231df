package api

import (
	"net/url"
	"strings"
)

const (
	productsBase = "/api/products"
	reviewsBase  = "/api/reviews"
)

// Endpoint paths consumed from the backend.
const (
	CategoriesPath       = productsBase + "/categories/"
	ProductsPath         = productsBase + "/products/"
	FeaturedProductsPath = productsBase + "/products/featured/"
	SearchPath           = productsBase + "/products/search/"
	CreateReviewPath     = reviewsBase + "/create/"
	CreateContactPath    = reviewsBase + "/contact/"
)

// CategoryPath is the detail endpoint of a category.
func CategoryPath(slug string) string {
	return CategoriesPath + url.PathEscape(slug) + "/"
}

// CategoryProductsPath lists the products of a category.
func CategoryProductsPath(slug string) string {
	return CategoryPath(slug) + "products/"
}

// ProductPath is the detail endpoint of a product.
func ProductPath(slug string) string {
	return ProductsPath + url.PathEscape(slug) + "/"
}

// ProductReviewsPath lists the reviews of a product.
func ProductReviewsPath(slug string) string {
	return ProductPath(slug) + "reviews/"
}

// ReviewStatsPath returns aggregate review stats of a product.
func ReviewStatsPath(slug string) string {
	return ProductReviewsPath(slug) + "stats/"
}

var orderingFields = map[string]struct{}{
	"price":       {},
	"created_at":  {},
	"rating":      {},
	"views_count": {},
}

// NormalizeOrdering returns the ordering key when it names a sortable field
// (optionally prefixed with "-"), otherwise "".
func NormalizeOrdering(ordering string) string {
	ordering = strings.TrimSpace(ordering)
	if _, ok := orderingFields[strings.TrimPrefix(ordering, "-")]; ok {
		return ordering
	}
	return ""
}
