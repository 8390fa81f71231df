package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"lebem.uz/storefront/internal/catalog"
)

// ReviewRequest is the payload of the review creation endpoint.
type ReviewRequest struct {
	ProductSlug string `json:"product_slug"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
}

// ContactRequest is the payload of the contact endpoint.
type ContactRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Categories lists active categories.
func (c *Client) Categories(ctx context.Context) ([]catalog.Category, error) {
	var out catalog.List[catalog.Category]
	if err := c.Get(ctx, CategoriesPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Category fetches a category by slug.
func (c *Client) Category(ctx context.Context, slug string) (catalog.Category, error) {
	var out catalog.Category
	err := c.Get(ctx, CategoryPath(slug), nil, &out)
	return out, err
}

// CategoryProducts lists the products of a category, optionally sorted.
func (c *Client) CategoryProducts(ctx context.Context, slug, ordering string) ([]catalog.Product, error) {
	var query url.Values
	if ordering = NormalizeOrdering(ordering); ordering != "" {
		query = url.Values{"ordering": {ordering}}
	}
	var out catalog.List[catalog.Product]
	if err := c.Get(ctx, CategoryProductsPath(slug), query, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Products lists active products.
func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	var out catalog.List[catalog.Product]
	if err := c.Get(ctx, ProductsPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// FeaturedProducts lists the featured subset.
func (c *Client) FeaturedProducts(ctx context.Context) ([]catalog.Product, error) {
	var out catalog.List[catalog.Product]
	if err := c.Get(ctx, FeaturedProductsPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Product fetches product detail. The backend counts this as a view.
func (c *Client) Product(ctx context.Context, slug string) (catalog.Product, error) {
	var out catalog.Product
	err := c.Get(ctx, ProductPath(slug), nil, &out)
	return out, err
}

// Reviews lists the published reviews of a product, newest first.
func (c *Client) Reviews(ctx context.Context, slug string) ([]catalog.Review, error) {
	var out catalog.List[catalog.Review]
	if err := c.Get(ctx, ProductReviewsPath(slug), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ReviewStats returns aggregate review numbers of a product.
func (c *Client) ReviewStats(ctx context.Context, slug string) (catalog.ReviewStats, error) {
	var out catalog.ReviewStats
	err := c.Get(ctx, ReviewStatsPath(slug), nil, &out)
	return out, err
}

// Search runs a full-text product search.
func (c *Client) Search(ctx context.Context, query string) ([]catalog.Product, error) {
	var out catalog.List[catalog.Product]
	q := url.Values{"search": {strings.TrimSpace(query)}}
	if err := c.Get(ctx, SearchPath, q, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateReview submits a review.
func (c *Client) CreateReview(ctx context.Context, req ReviewRequest) error {
	return c.Call(ctx, http.MethodPost, CreateReviewPath, req, nil)
}

// CreateContact submits a contact message.
func (c *Client) CreateContact(ctx context.Context, req ContactRequest) error {
	return c.Call(ctx, http.MethodPost, CreateContactPath, req, nil)
}
