package render

import (
	"html/template"
	"strconv"

	"lebem.uz/storefront/internal/catalog"
	"lebem.uz/storefront/internal/format"
	"lebem.uz/storefront/internal/route"
)

// FeaturedLimit caps the featured products grid on the home page.
const FeaturedLimit = 8

// CategoryCard is the view model of a category tile.
type CategoryCard struct {
	Name          string
	Description   string
	ProductsCount int
	Href          string
	Fragment      string
}

// ProductCard is the view model of a product tile.
type ProductCard struct {
	Name         string
	Image        string
	Summary      string
	Rating       float64
	ReviewsCount int
	Views        int
	Price        string
	OldPrice     string
	Href         string
	Fragment     string
}

// NewCategoryCard builds the tile of c.
func (r *Renderer) NewCategoryCard(lang string, c catalog.Category) CategoryCard {
	rt := route.Route{Page: route.Category, CategorySlug: c.Slug}
	desc := c.Description
	if desc == "" {
		desc = r.T(lang, "category.description_default")
	}
	return CategoryCard{
		Name:          c.Name,
		Description:   desc,
		ProductsCount: c.ProductsCount,
		Href:          rt.PublicPath(),
		Fragment:      rt.Path(),
	}
}

// NewProductCard builds the tile of p. OldPrice is set only for a discount.
func (r *Renderer) NewProductCard(lang string, p catalog.Product) ProductCard {
	rt := route.Route{Page: route.Product, ProductSlug: p.Slug}
	card := ProductCard{
		Name:         p.Name,
		Image:        p.ImageURL(),
		Summary:      p.Summary(),
		Rating:       p.Rating.Float(),
		ReviewsCount: p.ReviewsCount,
		Views:        p.ViewsCount,
		Price:        format.Price(p.Price.Float(), lang),
		Href:         rt.PublicPath(),
		Fragment:     rt.Path(),
	}
	if p.HasDiscount() {
		card.OldPrice = format.Price(p.OldPrice.Float(), lang)
	}
	return card
}

type categoriesView struct {
	view
	Items []CategoryCard
}

// Categories renders the category grid, or a placeholder when empty.
func (r *Renderer) Categories(lang string, categories []catalog.Category) (template.HTML, error) {
	items := make([]CategoryCard, 0, len(categories))
	for _, c := range categories {
		items = append(items, r.NewCategoryCard(lang, c))
	}
	return r.execute("categories", categoriesView{view: r.view(lang), Items: items})
}

type productsView struct {
	view
	Items    []ProductCard
	EmptyKey string
	Detailed bool
}

func (r *Renderer) cards(lang string, products []catalog.Product) []ProductCard {
	items := make([]ProductCard, 0, len(products))
	for _, p := range products {
		items = append(items, r.NewProductCard(lang, p))
	}
	return items
}

// FeaturedProducts renders at most FeaturedLimit products, or a placeholder
// when there are none.
func (r *Renderer) FeaturedProducts(lang string, products []catalog.Product) (template.HTML, error) {
	if len(products) > FeaturedLimit {
		products = products[:FeaturedLimit]
	}
	return r.execute("products", productsView{
		view:     r.view(lang),
		Items:    r.cards(lang, products),
		EmptyKey: "empty.featured",
	})
}

// CategoryProducts renders the product grid of a category page. An empty
// list renders nothing; the page toggles its own placeholder.
func (r *Renderer) CategoryProducts(lang string, products []catalog.Product) (template.HTML, error) {
	if len(products) == 0 {
		return "", nil
	}
	return r.execute("products", productsView{
		view:     r.view(lang),
		Items:    r.cards(lang, products),
		Detailed: true,
	})
}

// ProductsCount is the "N ta mahsulot topildi" label.
func (r *Renderer) ProductsCount(lang string, n int) string {
	return strconv.Itoa(n) + " " + r.T(lang, "products.found")
}

// CategoryTitle is the heading of a category page.
func (r *Renderer) CategoryTitle(lang string, c catalog.Category) string {
	return c.Name + " " + r.T(lang, "category.products_suffix")
}

// CategoryDescription falls back to generic copy.
func (r *Renderer) CategoryDescription(lang string, c catalog.Category) string {
	if c.Description != "" {
		return c.Description
	}
	return r.T(lang, "category.description_default")
}

type searchView struct {
	view
	Query string
	Items []ProductCard
}

// SearchResults renders the result list of a search query.
func (r *Renderer) SearchResults(lang, query string, products []catalog.Product) (template.HTML, error) {
	return r.execute("search-results", searchView{
		view:  r.view(lang),
		Query: query,
		Items: r.cards(lang, products),
	})
}

// SearchHint is shown while the query is too short.
func (r *Renderer) SearchHint(lang string) (template.HTML, error) {
	return r.execute("search-hint", r.view(lang))
}
