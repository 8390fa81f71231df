package render

import (
	"html/template"
	"strconv"

	"lebem.uz/storefront/internal/catalog"
	"lebem.uz/storefront/internal/format"
	"lebem.uz/storefront/internal/rating"
	"lebem.uz/storefront/internal/route"
)

// ProductDetail holds the values written into the product page.
type ProductDetail struct {
	Name             string
	Description      template.HTML
	Price            string
	OldPrice         string
	Views            string
	Image            string
	CategoryName     string
	CategorySlug     string
	CategoryHref     string
	CategoryFragment string
	Stars            template.HTML
	RatingText       string
}

// ShowOldPrice reports whether the struck-through price is displayed.
func (d ProductDetail) ShowOldPrice() bool { return d.OldPrice != "" }

// NewProductDetail formats p for the detail page.
func (r *Renderer) NewProductDetail(lang string, p catalog.Product) (ProductDetail, error) {
	stars, err := r.Stars(p.Rating.Float())
	if err != nil {
		return ProductDetail{}, err
	}
	d := ProductDetail{
		Name:        p.Name,
		Description: r.Markdown(p.Description),
		Price:       format.Price(p.Price.Float(), lang),
		Views:       strconv.Itoa(p.ViewsCount),
		Image:       p.ImageURL(),
		Stars:       stars,
		RatingText:  "(" + strconv.Itoa(p.ReviewsCount) + " " + r.T(lang, "reviews.word") + ")",
	}
	if d.Description == "" {
		d.Description = template.HTML(template.HTMLEscapeString(r.T(lang, "product.no_description")))
	}
	if p.HasDiscount() {
		d.OldPrice = format.Price(p.OldPrice.Float(), lang)
	}
	if p.Category.Slug != "" {
		rt := route.Route{Page: route.Category, CategorySlug: p.Category.Slug}
		d.CategorySlug = p.Category.Slug
		d.CategoryName = p.CategoryLabel()
		d.CategoryHref = rt.PublicPath()
		d.CategoryFragment = rt.Path()
	}
	return d, nil
}

// Stars renders five icons for rating.
func (r *Renderer) Stars(rating float64) (template.HTML, error) {
	return r.execute("stars", format.Stars(rating))
}

type reviewItem struct {
	Name    string
	Rating  float64
	Comment string
	Date    string
}

type reviewsView struct {
	view
	Items []reviewItem
}

// Reviews renders the review list, or the "no reviews yet" placeholder.
func (r *Renderer) Reviews(lang string, reviews []catalog.Review) (template.HTML, error) {
	items := make([]reviewItem, 0, len(reviews))
	for _, rv := range reviews {
		items = append(items, reviewItem{
			Name:    rv.Name,
			Rating:  float64(rv.Rating),
			Comment: rv.Comment,
			Date:    format.Date(rv.CreatedAt, lang),
		})
	}
	return r.execute("reviews", reviewsView{view: r.view(lang), Items: items})
}

type breakdownRow struct {
	Rating  int
	Count   int
	Percent int
}

type statsView struct {
	view
	Total   int
	Average string
	Stars   float64
	Rows    []breakdownRow
}

// ReviewStats renders the average rating and the per-star breakdown.
func (r *Renderer) ReviewStats(lang string, stats catalog.ReviewStats) (template.HTML, error) {
	v := statsView{
		view:    r.view(lang),
		Total:   stats.TotalReviews,
		Average: format.Number(stats.AverageRating.Float(), lang),
		Stars:   stats.AverageRating.Float(),
	}
	for i := rating.Max; i >= rating.Min; i-- {
		n := stats.CountFor(i)
		row := breakdownRow{Rating: i, Count: n}
		if stats.TotalReviews > 0 {
			row.Percent = n * 100 / stats.TotalReviews
		}
		v.Rows = append(v.Rows, row)
	}
	return r.execute("review-stats", v)
}

type ratingIcon struct {
	rating.Icon
	Committed int
}

type ratingView struct {
	Committed int
	Icons     []ratingIcon
}

// RatingWidget renders the five interactive icons and the hidden input that
// carries the committed value.
func (r *Renderer) RatingWidget(w rating.Widget) (template.HTML, error) {
	v := ratingView{Committed: w.Committed()}
	for _, icon := range w.Icons() {
		v.Icons = append(v.Icons, ratingIcon{Icon: icon, Committed: w.Committed()})
	}
	return r.execute("rating-widget", v)
}
