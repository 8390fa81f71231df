package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"lebem.uz/storefront/internal/api"
	"lebem.uz/storefront/internal/dom"
	custommw "lebem.uz/storefront/internal/middleware"
	"lebem.uz/storefront/internal/observability"
	"lebem.uz/storefront/internal/rating"
	"lebem.uz/storefront/internal/render"
	"lebem.uz/storefront/internal/search"
)

// ratingWidget applies one pointer event to the widget state carried in the
// query and renders the result.
func (s *server) ratingWidget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ev, err := rating.ParseEvent(q.Get("event"))
	if err != nil {
		custommw.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	index, _ := strconv.Atoi(q.Get("index"))
	committed, _ := strconv.Atoi(q.Get("committed"))
	widget := rating.Restore(committed).Apply(ev, index)
	html, err := s.render.RatingWidget(widget)
	if err != nil {
		observability.FromContext(r.Context()).Error("rating widget render failed", zap.Error(err))
		custommw.WriteError(w, r, http.StatusInternalServerError, "render failed")
		return
	}
	var out htmlResponse
	out.raw(string(html))
	out.write(w, http.StatusOK)
}

// search runs the visitor's debounced query. A query replaced by a newer one
// answers 204 so htmx keeps the newer results.
func (s *server) search(w http.ResponseWriter, r *http.Request) {
	lang := custommw.Lang(r)
	q := r.URL.Query().Get("q")
	products, err := s.searches.Session(custommw.GetSession(r).ID).Query(api.WithLanguage(r.Context(), lang), q)
	var out htmlResponse
	switch {
	case errors.Is(err, search.ErrSuperseded):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, search.ErrQueryTooShort):
		if q != "" {
			hint, _ := s.render.SearchHint(lang)
			out.raw(string(hint))
		}
	case err != nil:
		if r.Context().Err() != nil {
			return
		}
		observability.FromContext(r.Context()).Error("search failed", zap.String("query", q), zap.Error(err))
		doc := dom.NewShell()
		if alert, aerr := s.render.Alert(lang, render.NewNotification(render.Danger, s.render.T(lang, "error.search"))); aerr == nil {
			_ = doc.SetInnerHTML(dom.Alerts, alert)
		}
		out.alerts(doc)
	default:
		html, rerr := s.render.SearchResults(lang, q, products)
		if rerr != nil {
			observability.FromContext(r.Context()).Error("search render failed", zap.Error(rerr))
			custommw.WriteError(w, r, http.StatusInternalServerError, "render failed")
			return
		}
		out.raw(string(html))
	}
	out.write(w, http.StatusOK)
}
