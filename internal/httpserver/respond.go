package httpserver

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"lebem.uz/storefront/internal/dom"
	custommw "lebem.uz/storefront/internal/middleware"
	"lebem.uz/storefront/internal/render"
)

// htmlResponse accumulates a fragment body: the swap target content followed
// by out-of-band elements.
type htmlResponse struct {
	buf bytes.Buffer
}

func (h *htmlResponse) raw(s string) { h.buf.WriteString(s) }

// title updates the document title on the client.
func (h *htmlResponse) title(t string) {
	if t == "" {
		return
	}
	h.buf.WriteString("<title>")
	h.buf.WriteString(template.HTMLEscapeString(t))
	h.buf.WriteString("</title>")
}

// inner appends the children of id.
func (h *htmlResponse) inner(doc *dom.Document, id string) {
	if s, err := doc.InnerHTML(id); err == nil {
		h.buf.WriteString(s)
	}
}

// outer appends id itself.
func (h *htmlResponse) outer(doc *dom.Document, id string) {
	if s, err := doc.OuterHTML(id); err == nil {
		h.buf.WriteString(s)
	}
}

// oob appends id as an out-of-band swap of the element with the same id.
func (h *htmlResponse) oob(doc *dom.Document, id string) {
	if !doc.Has(id) {
		return
	}
	_ = doc.SetAttr(id, "hx-swap-oob", "true")
	h.outer(doc, id)
}

// alerts appends the notification region when it holds anything.
func (h *htmlResponse) alerts(doc *dom.Document) {
	inner, err := doc.InnerHTML(dom.Alerts)
	if err != nil || strings.TrimSpace(inner) == "" {
		return
	}
	h.buf.WriteString(`<div id="` + dom.Alerts + `" hx-swap-oob="innerHTML">`)
	h.buf.WriteString(inner)
	h.buf.WriteString(`</div>`)
}

func (h *htmlResponse) write(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(h.buf.Bytes())
}

// noSwap tells htmx to leave the target alone. Out-of-band elements in the
// body are still applied.
func noSwap(w http.ResponseWriter) {
	w.Header().Set(custommw.HeaderHXReswap, "none")
}

// alertOnly answers with a single notification and no main swap.
func (s *server) alertOnly(w http.ResponseWriter, lang string, kind render.Kind, key string, status int) {
	doc := dom.NewShell()
	alert, err := s.render.Alert(lang, render.NewNotification(kind, s.render.T(lang, key)))
	if err == nil {
		_ = doc.SetInnerHTML(dom.Alerts, alert)
	}
	var out htmlResponse
	out.alerts(doc)
	noSwap(w)
	out.write(w, status)
}
