package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// NoImage is served when a product or category has no uploaded image.
const NoImage = "/assets/images/no-image.svg"

const summaryRunes = 100

// Decimal is a numeric value that the API may serialise either as a JSON number
// or as a decimal string ("150000.00").
type Decimal float64

// UnmarshalJSON accepts numbers, numeric strings and null.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*d = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*d = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("catalog: invalid decimal %q: %w", raw, err)
	}
	*d = Decimal(v)
	return nil
}

// Float returns the value as float64.
func (d Decimal) Float() float64 { return float64(d) }

// Category is a catalogue section.
type Category struct {
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Image         string `json:"image,omitempty"`
	ProductsCount int    `json:"products_count,omitempty"`
}

// CategoryRef is the category embedded in a product payload. Some serializers
// send only the primary key, in which case the reference stays empty.
type CategoryRef struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// UnmarshalJSON ignores non-object payloads.
func (c *CategoryRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		*c = CategoryRef{}
		return nil
	}
	type plain CategoryRef
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = CategoryRef(p)
	return nil
}

// Product is a snapshot of a catalogue item.
type Product struct {
	Slug             string      `json:"slug"`
	Name             string      `json:"name"`
	Description      string      `json:"description,omitempty"`
	ShortDescription string      `json:"short_description,omitempty"`
	Price            Decimal     `json:"price"`
	OldPrice         *Decimal    `json:"old_price,omitempty"`
	Image            string      `json:"image,omitempty"`
	Rating           Decimal     `json:"rating,omitempty"`
	ReviewsCount     int         `json:"reviews_count,omitempty"`
	ViewsCount       int         `json:"views_count,omitempty"`
	Category         CategoryRef `json:"category,omitempty"`
	CategoryName     string      `json:"category_name,omitempty"`
}

// HasDiscount reports whether a struck-through old price should be shown.
func (p Product) HasDiscount() bool {
	return p.OldPrice != nil && *p.OldPrice > p.Price
}

// ImageURL returns the product image or the placeholder.
func (p Product) ImageURL() string {
	if strings.TrimSpace(p.Image) == "" {
		return NoImage
	}
	return p.Image
}

// CategoryLabel prefers the embedded category name.
func (p Product) CategoryLabel() string {
	if p.Category.Name != "" {
		return p.Category.Name
	}
	return p.CategoryName
}

// Summary is the card blurb: the short description, or the first 100
// characters of the description followed by an ellipsis.
func (p Product) Summary() string {
	if s := strings.TrimSpace(p.ShortDescription); s != "" {
		return s
	}
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return ""
	}
	if utf8.RuneCountInString(desc) > summaryRunes {
		desc = string([]rune(desc)[:summaryRunes])
	}
	return desc + "..."
}

// Review is a published customer review.
type Review struct {
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingCount is one row of the rating breakdown.
type RatingCount struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// ReviewStats aggregates reviews of a product.
type ReviewStats struct {
	TotalReviews    int           `json:"total_reviews"`
	AverageRating   Decimal       `json:"average_rating,omitempty"`
	RatingBreakdown []RatingCount `json:"rating_breakdown,omitempty"`
}

// CountFor returns the number of reviews with the given star rating.
func (s ReviewStats) CountFor(rating int) int {
	for _, rc := range s.RatingBreakdown {
		if rc.Rating == rating {
			return rc.Count
		}
	}
	return 0
}

// List decodes either a bare JSON array or a paginated envelope
// ({"count": n, "results": [...]}).
type List[T any] struct {
	Items []T
	Count int
	Next  string
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = List[T]{}
		return nil
	}
	if b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = List[T]{Items: items, Count: len(items)}
		return nil
	}
	var page struct {
		Count   int     `json:"count"`
		Next    *string `json:"next"`
		Results []T     `json:"results"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		return err
	}
	out := List[T]{Items: page.Results, Count: page.Count}
	if page.Next != nil {
		out.Next = *page.Next
	}
	if out.Count == 0 {
		out.Count = len(page.Results)
	}
	*l = out
	return nil
}
