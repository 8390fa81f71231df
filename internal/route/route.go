// Package route holds the storefront's navigation state as an immutable value.
package route

import (
	"fmt"
	"strings"
)

// Page identifies one of the logical storefront pages.
type Page string

const (
	Home     Page = "home"
	Category Page = "category"
	Product  Page = "product"
	Contact  Page = "contact"
)

// Valid reports whether p is a known page.
func (p Page) Valid() bool {
	switch p {
	case Home, Category, Product, Contact:
		return true
	}
	return false
}

// Route is the current navigation state. Only the slug matching Page is set.
type Route struct {
	Page         Page
	CategorySlug string
	ProductSlug  string
	Generation   uint64
}

// Nav is a navigation request.
type Nav struct {
	Page Page
	Slug string
}

// ToHome, ToContact, ToCategory and ToProduct build navigation requests.
func ToHome() Nav                { return Nav{Page: Home} }
func ToContact() Nav             { return Nav{Page: Contact} }
func ToCategory(slug string) Nav { return Nav{Page: Category, Slug: slug} }
func ToProduct(slug string) Nav  { return Nav{Page: Product, Slug: slug} }

// Validate checks that the page is known and carries a slug when it needs one.
func (n Nav) Validate() error {
	if !n.Page.Valid() {
		return fmt.Errorf("route: unknown page %q", n.Page)
	}
	if (n.Page == Category || n.Page == Product) && strings.TrimSpace(n.Slug) == "" {
		return fmt.Errorf("route: %s page requires a slug", n.Page)
	}
	return nil
}

// Transition derives the next route from prev. The generation always
// advances, so a route can be compared against the latest one to detect a
// superseded navigation.
func Transition(prev Route, n Nav) Route {
	next := Route{Page: n.Page, Generation: prev.Generation + 1}
	slug := strings.TrimSpace(n.Slug)
	switch n.Page {
	case Category:
		next.CategorySlug = slug
	case Product:
		next.ProductSlug = slug
	case Home, Contact:
	default:
		next.Page = Home
	}
	return next
}

// Slug returns the slug that is meaningful for the route's page.
func (r Route) Slug() string {
	switch r.Page {
	case Category:
		return r.CategorySlug
	case Product:
		return r.ProductSlug
	}
	return ""
}

// Path returns the fragment URL that reloads the route.
func (r Route) Path() string {
	switch r.Page {
	case Category:
		return "/pages/category/" + r.CategorySlug
	case Product:
		return "/pages/product/" + r.ProductSlug
	case Contact:
		return "/pages/contact"
	}
	return "/pages/home"
}

// PublicPath returns the shareable URL pushed into the browser history.
func (r Route) PublicPath() string {
	switch r.Page {
	case Category:
		return "/category/" + r.CategorySlug
	case Product:
		return "/product/" + r.ProductSlug
	case Contact:
		return "/contact"
	}
	return "/"
}

func (r Route) String() string {
	if s := r.Slug(); s != "" {
		return fmt.Sprintf("%s:%s#%d", r.Page, s, r.Generation)
	}
	return fmt.Sprintf("%s#%d", r.Page, r.Generation)
}
