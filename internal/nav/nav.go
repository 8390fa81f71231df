package nav

import (
	"strings"

	"lebem.uz/storefront/internal/route"
)

// Item represents a top-level navigation item.
type Item struct {
	Page     route.Page
	Path     string // e.g. "/contact"
	Fragment string // htmx target, e.g. "/pages/contact"
	LabelKey string // i18n key, e.g. "nav.contact"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	Fragment string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	Fragment string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Page: route.Home, Path: "/", Fragment: "/pages/home", LabelKey: "nav.home"},
	{Page: route.Contact, Path: "/contact", Fragment: "/pages/contact", LabelKey: "nav.contact"},
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			Fragment: it.Fragment,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// Breadcrumbs builds the trail for a route. Names of the category and
// product come from the loaded data; empty names fall back to the slug.
func Breadcrumbs(r route.Route, categorySlug, categoryName, productName string) []Crumb {
	crumbs := []Crumb{{Href: "/", Fragment: "/pages/home", LabelKey: "nav.home", Active: r.Page == route.Home}}
	switch r.Page {
	case route.Contact:
		crumbs = append(crumbs, Crumb{Href: "/contact", Fragment: "/pages/contact", LabelKey: "nav.contact", Active: true})
	case route.Category:
		crumbs = append(crumbs, categoryCrumb(r.CategorySlug, categoryName, true))
	case route.Product:
		if categorySlug != "" {
			crumbs = append(crumbs, categoryCrumb(categorySlug, categoryName, false))
		}
		crumbs = append(crumbs, Crumb{
			Href:   r.PublicPath(),
			Label:  orSlug(productName, r.ProductSlug),
			Active: true,
		})
	}
	return crumbs
}

func categoryCrumb(slug, name string, active bool) Crumb {
	cr := route.Route{Page: route.Category, CategorySlug: slug}
	return Crumb{
		Href:     cr.PublicPath(),
		Fragment: cr.Path(),
		Label:    orSlug(name, slug),
		Active:   active,
	}
}

func orSlug(name, slug string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return titleFromSegment(slug)
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	// replace hyphens/underscores with spaces and capitalize first letter
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
