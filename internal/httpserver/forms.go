package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"lebem.uz/storefront/internal/dom"
	"lebem.uz/storefront/internal/forms"
	"lebem.uz/storefront/internal/loader"
	custommw "lebem.uz/storefront/internal/middleware"
	"lebem.uz/storefront/internal/observability"
	"lebem.uz/storefront/internal/partials"
	"lebem.uz/storefront/internal/render"
)

func submitKey(r *http.Request, form string) string {
	return custommw.GetSession(r).ID + ":" + form
}

// formDocument parses the post and prepares a document holding the page
// partial of the form. ok is false when the response has been written.
func (s *server) formDocument(w http.ResponseWriter, r *http.Request, name partials.Name, failKey string) (*dom.Document, bool) {
	lang := custommw.Lang(r)
	if err := r.ParseForm(); err != nil {
		custommw.WriteError(w, r, http.StatusBadRequest, "invalid form")
		return nil, false
	}
	doc := dom.NewShell()
	if err := s.loader.SplicePartial(r.Context(), doc, lang, name); err != nil {
		observability.FromContext(r.Context()).Error("form partial unavailable", zap.String("partial", string(name)), zap.Error(err))
		s.alertOnly(w, lang, render.Danger, failKey, http.StatusOK)
		return nil, false
	}
	return doc, true
}

// submitReview answers with the redrawn form; after success the review list,
// stats and count are swapped out of band.
func (s *server) submitReview(w http.ResponseWriter, r *http.Request) {
	key := submitKey(r, "review")
	if s.submitter.Busy(key) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	doc, ok := s.formDocument(w, r, partials.ProductDetail, "error.review")
	if !ok {
		return
	}
	f := forms.ParseReview(r.PostForm)
	sub := s.loader.SubmitReview(r.Context(), doc, custommw.Lang(r), s.submitter, key, f)
	if loader.IsBusy(sub.Err) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var out htmlResponse
	out.outer(doc, forms.ReviewLayout.FormID)
	out.alerts(doc)
	if sub.Reloaded {
		out.oob(doc, loader.ReviewsCount)
		out.oob(doc, loader.ReviewStatsID)
		out.oob(doc, loader.ReviewsContainer)
	}
	out.write(w, http.StatusOK)
}

// submitContact answers with the redrawn contact form.
func (s *server) submitContact(w http.ResponseWriter, r *http.Request) {
	key := submitKey(r, "contact")
	if s.submitter.Busy(key) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	doc, ok := s.formDocument(w, r, partials.Contact, "error.contact_submit")
	if !ok {
		return
	}
	f := forms.ParseContact(r.PostForm)
	sub := s.loader.SubmitContact(r.Context(), doc, custommw.Lang(r), s.submitter, key, f)
	if loader.IsBusy(sub.Err) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var out htmlResponse
	out.outer(doc, forms.ContactLayout.FormID)
	out.alerts(doc)
	out.write(w, http.StatusOK)
}
