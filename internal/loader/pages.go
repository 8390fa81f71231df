package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lebem.uz/storefront/internal/api"
	"lebem.uz/storefront/internal/catalog"
	"lebem.uz/storefront/internal/dom"
	"lebem.uz/storefront/internal/forms"
	"lebem.uz/storefront/internal/observability"
	"lebem.uz/storefront/internal/partials"
	"lebem.uz/storefront/internal/render"
	"lebem.uz/storefront/internal/rating"
	"lebem.uz/storefront/internal/route"
)

// Container ids written by the entry points.
const (
	CategoriesContainer = "categories-container"
	FeaturedContainer   = "featured-products-container"
	ProductsContainer   = "products-container"
	ProductsCount       = "products-count"
	NoProducts          = "no-products"
	SortSelect          = "sort-select"
	ReviewsContainer    = "reviews-container"
	ReviewsCount        = "reviews-count"
	ReviewStatsID       = "review-stats"
	RatingInput         = "rating-input"
	ReviewProduct       = "review-product"
)

// LoadHome renders the category grid and the featured products.
func (n *Navigator) LoadHome(ctx context.Context, doc *dom.Document, lang string) (Result, error) {
	var res Result
	out, err := n.page(ctx, doc, lang, route.ToHome(), partials.Index, "error.page",
		func(ctx context.Context) (func() error, error) {
			var (
				categories []catalog.Category
				featured   []catalog.Product
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				categories, err = n.loader.api.Categories(gctx)
				return err
			})
			g.Go(func() (err error) {
				featured, err = n.loader.api.FeaturedProducts(gctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			catHTML, err := n.loader.render.Categories(lang, categories)
			if err != nil {
				return nil, err
			}
			featHTML, err := n.loader.render.FeaturedProducts(lang, featured)
			if err != nil {
				return nil, err
			}
			res.Categories = categories
			return func() error {
				w := &writer{doc: doc}
				w.html(CategoriesContainer, catHTML)
				w.html(FeaturedContainer, featHTML)
				return w.err
			}, nil
		})
	out.Categories = res.Categories
	out.Title = n.loader.render.T(lang, "site.title")
	return out, err
}

// LoadCategory renders a category's header and its products, optionally
// sorted by ordering.
func (n *Navigator) LoadCategory(ctx context.Context, doc *dom.Document, lang, slug, ordering string) (Result, error) {
	var res Result
	ordering = api.NormalizeOrdering(ordering)
	out, err := n.page(ctx, doc, lang, route.ToCategory(slug), partials.CategoryProducts, "error.category",
		func(ctx context.Context) (func() error, error) {
			var (
				category catalog.Category
				products []catalog.Product
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				category, err = n.loader.api.Category(gctx, slug)
				return err
			})
			g.Go(func() (err error) {
				products, err = n.loader.api.CategoryProducts(gctx, slug, ordering)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			write, err := n.loader.productsWriter(doc, lang, products)
			if err != nil {
				return nil, err
			}
			res.Category = category
			r := n.loader.render
			return func() error {
				w := &writer{doc: doc}
				w.text("category-name", category.Name)
				w.text("category-title", r.CategoryTitle(lang, category))
				w.text("category-description", r.CategoryDescription(lang, category))
				w.attr(SortSelect, "hx-get", route.Route{Page: route.Category, CategorySlug: slug}.Path()+"/products")
				w.selectOption(SortSelect, ordering)
				if w.err != nil {
					return w.err
				}
				return write()
			}, nil
		})
	out.Category = res.Category
	out.Title = res.Category.Name
	return out, err
}

// productsWriter renders products and returns the write that fills the
// product grid, the count label and the empty placeholder.
func (l *Loader) productsWriter(doc *dom.Document, lang string, products []catalog.Product) (func() error, error) {
	grid, err := l.render.CategoryProducts(lang, products)
	if err != nil {
		return nil, err
	}
	count := l.render.ProductsCount(lang, len(products))
	return func() error {
		w := &writer{doc: doc}
		w.text(ProductsCount, count)
		w.html(ProductsContainer, grid)
		w.visible(NoProducts, len(products) == 0)
		return w.err
	}, nil
}

// LoadCategoryProductsSorted re-renders only the product grid of the current
// category page. It does not navigate, but a navigation that starts while it
// runs supersedes it.
func (n *Navigator) LoadCategoryProductsSorted(ctx context.Context, doc *dom.Document, lang, slug, ordering string) error {
	r := n.Current()
	ctx = api.WithLanguage(ctx, lang)
	products, err := n.loader.api.CategoryProducts(ctx, slug, api.NormalizeOrdering(ordering))
	if err == nil {
		var write func() error
		write, err = n.loader.productsWriter(doc, lang, products)
		if err == nil {
			err = n.commit(r, write)
		}
	}
	if err == nil || errors.Is(err, ErrSuperseded) {
		return err
	}
	observability.FromContext(ctx).Error("sorting products failed", zap.String("category", slug), zap.Error(err))
	if werr := n.commit(r, func() error { return n.loader.notify(doc, lang, render.Danger, "error.sort") }); werr != nil {
		return werr
	}
	return err
}

// LoadProduct renders a product with its reviews and review stats, and
// prepares the review form.
func (n *Navigator) LoadProduct(ctx context.Context, doc *dom.Document, lang, slug string) (Result, error) {
	var res Result
	out, err := n.page(ctx, doc, lang, route.ToProduct(slug), partials.ProductDetail, "error.product",
		func(ctx context.Context) (func() error, error) {
			var (
				product catalog.Product
				reviews []catalog.Review
				stats   catalog.ReviewStats
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				product, err = n.loader.api.Product(gctx, slug)
				return err
			})
			g.Go(func() (err error) {
				reviews, err = n.loader.api.Reviews(gctx, slug)
				return err
			})
			g.Go(func() (err error) {
				stats, err = n.loader.api.ReviewStats(gctx, slug)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			detail, err := n.loader.render.NewProductDetail(lang, product)
			if err != nil {
				return nil, err
			}
			writeReviews, err := n.loader.reviewsWriter(doc, lang, reviews, stats)
			if err != nil {
				return nil, err
			}
			widget, err := n.loader.render.RatingWidget(rating.New())
			if err != nil {
				return nil, err
			}
			res.Product, res.Stats = product, stats
			return func() error {
				w := &writer{doc: doc}
				w.text("product-name", detail.Name)
				w.html("product-description", detail.Description)
				w.text("product-price", detail.Price)
				w.text("product-views", detail.Views)
				w.attr("product-image", "src", detail.Image)
				w.attr("product-image", "alt", detail.Name)
				w.text("product-breadcrumb", detail.Name)
				if detail.CategorySlug != "" {
					w.text("category-breadcrumb", detail.CategoryName)
					w.attr("category-breadcrumb", "href", detail.CategoryHref)
					w.attr("category-breadcrumb", "hx-get", detail.CategoryFragment)
					w.attr("category-breadcrumb", "hx-push-url", detail.CategoryHref)
					w.attr("category-breadcrumb", "data-slug", detail.CategorySlug)
				}
				w.visible("product-old-price", detail.ShowOldPrice())
				w.text("product-old-price", detail.OldPrice)
				w.html("product-rating-stars", detail.Stars)
				w.text("product-rating-text", detail.RatingText)
				// review form: product slug and the rating widget in its default state
				w.attr(ReviewProduct, "value", slug)
				w.html(RatingInput, widget)
				if w.err != nil {
					return w.err
				}
				return writeReviews()
			}, nil
		})
	out.Product, out.Stats = res.Product, res.Stats
	out.Title = res.Product.Name
	return out, err
}

// reviewsWriter renders the review list and stats.
func (l *Loader) reviewsWriter(doc *dom.Document, lang string, reviews []catalog.Review, stats catalog.ReviewStats) (func() error, error) {
	list, err := l.render.Reviews(lang, reviews)
	if err != nil {
		return nil, err
	}
	summary, err := l.render.ReviewStats(lang, stats)
	if err != nil {
		return nil, err
	}
	return func() error {
		w := &writer{doc: doc}
		w.text(ReviewsCount, strconv.Itoa(stats.TotalReviews))
		w.html(ReviewStatsID, summary)
		w.html(ReviewsContainer, list)
		return w.err
	}, nil
}

// ReloadReviews re-fetches reviews and stats concurrently and re-renders
// them into doc.
func (l *Loader) ReloadReviews(ctx context.Context, doc *dom.Document, lang, slug string) error {
	ctx = api.WithLanguage(ctx, lang)
	var (
		reviews []catalog.Review
		stats   catalog.ReviewStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		reviews, err = l.api.Reviews(gctx, slug)
		return err
	})
	g.Go(func() (err error) {
		stats, err = l.api.ReviewStats(gctx, slug)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loader: reload reviews of %s: %w", slug, err)
	}
	write, err := l.reviewsWriter(doc, lang, reviews, stats)
	if err != nil {
		return err
	}
	return write()
}

// LoadContact splices the contact page and prepares its form.
func (n *Navigator) LoadContact(ctx context.Context, doc *dom.Document, lang string) (Result, error) {
	out, err := n.page(ctx, doc, lang, route.ToContact(), partials.Contact, "error.contact",
		func(context.Context) (func() error, error) {
			return func() error {
				w := &writer{doc: doc}
				w.selectOption("contact-subject", forms.DefaultSubject)
				return w.err
			}, nil
		})
	out.Title = n.loader.render.T(lang, "contact.title")
	return out, err
}

// SplicePartial replaces the main container with a partial, without
// navigating. Form handlers redraw forms on top of it.
func (l *Loader) SplicePartial(ctx context.Context, doc *dom.Document, lang string, name partials.Name) error {
	body, err := l.partials.Partial(ctx, name, lang)
	if err != nil {
		return err
	}
	return doc.SetInnerHTML(dom.MainContent, body)
}
