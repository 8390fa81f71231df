package render

import (
	"html/template"
	"io"

	"lebem.uz/storefront/internal/nav"
	"lebem.uz/storefront/internal/seo"
)

// Language is an entry of the language switcher.
type Language struct {
	Code   string
	Href   string
	Active bool
}

// Page is the data of a full document render.
type Page struct {
	Lang            string
	Meta            seo.Meta
	JSONLD          []template.JS
	Nav             []nav.RenderedItem
	Categories      []CategoryCard
	Languages       []Language
	Content         template.HTML
	Alerts          template.HTML
	CSRFToken       string
	CSRFHeader      string
	GAMeasurementID string
	Year            int
}

type pageView struct {
	view
	Page
	HXHeaders string
}

// Layout writes the full document with p.Content inside #main-content.
func (r *Renderer) Layout(w io.Writer, p Page) error {
	if p.Meta.Title == "" {
		p.Meta.Title = r.T(p.Lang, "site.title")
	}
	if p.Meta.Description == "" {
		p.Meta.Description = r.T(p.Lang, "site.description")
	}
	headers := map[string]string{}
	if p.CSRFToken != "" && p.CSRFHeader != "" {
		headers[p.CSRFHeader] = p.CSRFToken
	}
	return r.write(w, "layout", pageView{
		view:      r.view(p.Lang),
		Page:      p,
		HXHeaders: seo.JSON(headers),
	})
}
