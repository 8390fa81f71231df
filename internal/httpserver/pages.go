package httpserver

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lebem.uz/storefront/internal/api"
	"lebem.uz/storefront/internal/catalog"
	"lebem.uz/storefront/internal/dom"
	"lebem.uz/storefront/internal/format"
	"lebem.uz/storefront/internal/loader"
	custommw "lebem.uz/storefront/internal/middleware"
	"lebem.uz/storefront/internal/nav"
	"lebem.uz/storefront/internal/observability"
	"lebem.uz/storefront/internal/partials"
	"lebem.uz/storefront/internal/render"
	"lebem.uz/storefront/internal/route"
	"lebem.uz/storefront/internal/seo"
)

type target func(r *http.Request) route.Nav

func homeTarget(*http.Request) route.Nav    { return route.ToHome() }
func contactTarget(*http.Request) route.Nav { return route.ToContact() }

func categoryTarget(r *http.Request) route.Nav {
	return route.ToCategory(chi.URLParam(r, "slug"))
}

func productTarget(r *http.Request) route.Nav {
	return route.ToProduct(chi.URLParam(r, "slug"))
}

func (s *server) navigator(r *http.Request) *loader.Navigator {
	return s.navigators.Navigator(custommw.GetSession(r).ID)
}

// load runs a navigation on nav into a fresh document. ok is false when the
// response has already been written.
func (s *server) load(w http.ResponseWriter, r *http.Request, nav *loader.Navigator, t target) (*dom.Document, loader.Result, bool) {
	lang := custommw.Lang(r)
	doc := dom.NewShell()
	res, err := nav.Dispatch(r.Context(), doc, lang, t(r), r.URL.Query().Get("ordering"))
	switch {
	case errors.Is(err, loader.ErrSuperseded):
		// a newer navigation of this visitor owns the page
		w.WriteHeader(http.StatusNoContent)
		return nil, res, false
	case err != nil:
		s.notFound(w, r)
		return nil, res, false
	}
	return doc, res, true
}

func statusOf(res loader.Result) int {
	if res.Err != nil && api.IsNotFound(res.Err) {
		return http.StatusNotFound
	}
	return http.StatusOK
}

func pushURL(res loader.Result, ordering string) string {
	p := res.Route.PublicPath()
	if res.Route.Page == route.Category {
		if o := api.NormalizeOrdering(ordering); o != "" {
			p += "?ordering=" + url.QueryEscape(o)
		}
	}
	return p
}

// fragment answers htmx navigation with the new main container content.
// Fragments of one visitor share a navigator, so the last one started wins.
func (s *server) fragment(t target) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, res, ok := s.load(w, r, s.navigator(r), t)
		if !ok {
			return
		}
		lang := custommw.Lang(r)
		var out htmlResponse
		out.title(s.title(lang, res))
		out.inner(doc, dom.MainContent)
		out.alerts(doc)
		if custommw.IsHTMX(r.Context()) {
			custommw.PushURL(w, pushURL(res, r.URL.Query().Get("ordering")))
		}
		out.write(w, statusOf(res))
	}
}

// fullPage renders the whole document with the page loaded. Each document
// belongs to its own tab, so it runs on a navigator nobody else can advance.
func (s *server) fullPage(t target) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, res, ok := s.load(w, r, s.loader.NewNavigator(), t)
		if !ok {
			return
		}
		content, _ := doc.InnerHTML(dom.MainContent)
		alerts, _ := doc.InnerHTML(dom.Alerts)
		s.writeLayout(w, r, statusOf(res), res, template.HTML(content), template.HTML(alerts))
	}
}

func (s *server) notFound(w http.ResponseWriter, r *http.Request) {
	lang := custommw.Lang(r)
	if custommw.IsHTMX(r.Context()) {
		s.alertOnly(w, lang, render.Warning, "error.not_found", http.StatusNotFound)
		return
	}
	alert, _ := s.render.Alert(lang, render.NewNotification(render.Warning, s.render.T(lang, "error.not_found")))
	s.writeLayout(w, r, http.StatusNotFound, loader.Result{Route: route.Route{Page: route.Home}}, "", alert)
}

// sortedProducts re-renders the product grid of a category page.
func (s *server) sortedProducts(w http.ResponseWriter, r *http.Request) {
	lang := custommw.Lang(r)
	slug := chi.URLParam(r, "slug")
	ordering := r.URL.Query().Get("ordering")
	doc := dom.NewShell()
	if err := s.loader.SplicePartial(r.Context(), doc, lang, partials.CategoryProducts); err != nil {
		observability.FromContext(r.Context()).Error("category partial unavailable", zap.Error(err))
		s.alertOnly(w, lang, render.Danger, "error.sort", http.StatusOK)
		return
	}
	err := s.navigator(r).LoadCategoryProductsSorted(r.Context(), doc, lang, slug, ordering)
	if errors.Is(err, loader.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var out htmlResponse
	if err != nil {
		out.alerts(doc)
		noSwap(w)
		out.write(w, http.StatusOK)
		return
	}
	out.inner(doc, loader.ProductsContainer)
	out.oob(doc, loader.ProductsCount)
	out.oob(doc, loader.NoProducts)
	rt := route.Route{Page: route.Category, CategorySlug: slug}
	w.Header().Set("HX-Replace-Url", pushURL(loader.Result{Route: rt}, ordering))
	out.write(w, http.StatusOK)
}

// title is the document title of a loaded page.
func (s *server) title(lang string, res loader.Result) string {
	site := s.render.T(lang, "site.title")
	if res.Route.Page == route.Home || res.Title == "" {
		return site
	}
	return res.Title + " | " + site
}

func (s *server) description(lang string, res loader.Result) string {
	switch res.Route.Page {
	case route.Product:
		if d := res.Product.Summary(); d != "" {
			return d
		}
	case route.Category:
		return s.render.CategoryDescription(lang, res.Category)
	case route.Contact:
		return s.render.T(lang, "contact.intro")
	}
	return s.render.T(lang, "site.description")
}

func (s *server) writeLayout(w http.ResponseWriter, r *http.Request, status int, res loader.Result, content, alerts template.HTML) {
	lang := custommw.Lang(r)
	canonical := absURL(r, res.Route.PublicPath())
	page := render.Page{
		Lang: lang,
		Meta: seo.Meta{
			Title:       s.title(lang, res),
			Description: s.description(lang, res),
			Canonical:   canonical,
			Alternates:  s.alternates(canonical),
		},
		JSONLD:          s.structuredData(r, lang, res),
		Nav:             nav.Build(r.URL.Path),
		Categories:      s.menuCategories(r, lang, res),
		Languages:       s.languages(r, lang),
		Content:         content,
		Alerts:          alerts,
		CSRFToken:       custommw.CSRFToken(r),
		CSRFHeader:      custommw.CSRFHeaderName,
		GAMeasurementID: s.ga,
		Year:            time.Now().In(format.Tashkent).Year(),
	}
	if res.Route.Page == route.Product && res.Err == nil {
		page.Meta.OG = seo.OpenGraph{Type: "product", Image: absURL(r, res.Product.ImageURL())}
	}
	var buf bytes.Buffer
	if err := s.render.Layout(&buf, page); err != nil {
		observability.FromContext(r.Context()).Error("layout render failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// menuCategories lists categories for the navbar. A failure only drops the menu.
func (s *server) menuCategories(r *http.Request, lang string, res loader.Result) []render.CategoryCard {
	categories := res.Categories
	if categories == nil {
		var err error
		categories, err = s.catalog.Categories(api.WithLanguage(r.Context(), lang))
		if err != nil {
			observability.FromContext(r.Context()).Warn("navbar categories unavailable", zap.Error(err))
			return nil
		}
	}
	cards := make([]render.CategoryCard, 0, len(categories))
	for _, c := range categories {
		cards = append(cards, s.render.NewCategoryCard(lang, c))
	}
	return cards
}

func (s *server) languages(r *http.Request, current string) []render.Language {
	out := make([]render.Language, 0, len(s.bundle.Supported()))
	for _, code := range s.bundle.Supported() {
		q := url.Values{custommw.LangParam: {code}}
		out = append(out, render.Language{Code: code, Href: r.URL.Path + "?" + q.Encode(), Active: code == current})
	}
	return out
}

func (s *server) alternates(canonical string) []seo.Alternate {
	out := make([]seo.Alternate, 0, len(s.bundle.Supported()))
	for _, code := range s.bundle.Supported() {
		q := url.Values{custommw.LangParam: {code}}
		out = append(out, seo.Alternate{Lang: code, Href: canonical + "?" + q.Encode()})
	}
	return out
}

func (s *server) structuredData(r *http.Request, lang string, res loader.Result) []template.JS {
	site := s.render.T(lang, "site.title")
	out := []template.JS{seo.Script(seo.Organization(site, absURL(r, "/"), ""))}
	if res.Err != nil {
		return out
	}

	var categorySlug, categoryName, productName string
	switch res.Route.Page {
	case route.Category:
		categorySlug, categoryName = res.Route.CategorySlug, res.Category.Name
	case route.Product:
		categorySlug, categoryName, productName = res.Product.Category.Slug, res.Product.CategoryLabel(), res.Product.Name
	}
	crumbs := nav.Breadcrumbs(res.Route, categorySlug, categoryName, productName)
	if len(crumbs) > 1 {
		items := make([]seo.BreadcrumbItem, 0, len(crumbs))
		for _, c := range crumbs {
			label := c.Label
			if label == "" {
				label = s.render.T(lang, c.LabelKey)
			}
			items = append(items, seo.BreadcrumbItem{Name: label, Item: absURL(r, c.Href)})
		}
		out = append(out, seo.Script(seo.BreadcrumbList(items)))
	}
	if res.Route.Page == route.Product {
		out = append(out, seo.Script(seo.Product(productInput(r, res.Product))))
	}
	return out
}

func productInput(r *http.Request, p catalog.Product) seo.ProductInput {
	return seo.ProductInput{
		Name:         p.Name,
		Description:  p.Summary(),
		URL:          absURL(r, route.Route{Page: route.Product, ProductSlug: p.Slug}.PublicPath()),
		Image:        absURL(r, p.ImageURL()),
		SKU:          p.Slug,
		Price:        p.Price.Float(),
		Rating:       p.Rating.Float(),
		ReviewsCount: p.ReviewsCount,
	}
}

// absURL resolves path against the request origin.
func absURL(r *http.Request, path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}
