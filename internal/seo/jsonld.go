package seo

import (
	"encoding/json"
	"html/template"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Script marshals v for a <script type="application/ld+json"> element.
func Script(v any) template.JS {
	// encoding/json escapes '<', so string values cannot close the element
	return template.JS(JSON(v))
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// ProductInput carries the product fields published as structured data.
type ProductInput struct {
	Name         string
	Description  string
	URL          string
	Image        string
	SKU          string
	Price        float64
	Currency     string
	Rating       float64
	ReviewsCount int
}

// Product returns a product schema payload with an offer and, when reviewed,
// an aggregate rating.
func Product(in ProductInput) map[string]any {
	m := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Product",
		"name":        in.Name,
		"description": in.Description,
	}
	if in.URL != "" {
		m["url"] = in.URL
	}
	if in.Image != "" {
		m["image"] = in.Image
	}
	if in.SKU != "" {
		m["sku"] = in.SKU
	}
	if in.Price > 0 {
		currency := in.Currency
		if currency == "" {
			currency = "UZS"
		}
		m["offers"] = map[string]any{
			"@type":         "Offer",
			"price":         in.Price,
			"priceCurrency": currency,
			"availability":  "https://schema.org/InStock",
		}
	}
	if in.ReviewsCount > 0 {
		m["aggregateRating"] = map[string]any{
			"@type":       "AggregateRating",
			"ratingValue": in.Rating,
			"reviewCount": in.ReviewsCount,
		}
	}
	return m
}
