package loader

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"lebem.uz/storefront/internal/api"
	"lebem.uz/storefront/internal/dom"
	"lebem.uz/storefront/internal/forms"
	"lebem.uz/storefront/internal/observability"
	"lebem.uz/storefront/internal/rating"
	"lebem.uz/storefront/internal/render"
)

// Submission is the outcome of a form post. Validation failures never reach
// the backend.
type Submission struct {
	OK         bool
	Validation *forms.ValidationError
	Err        error
	// Reloaded is set when the review list was re-rendered after success.
	Reloaded bool
}

// SubmitReview validates f, sends it and redraws the review form in doc,
// which must hold the product partial. On success the form returns to its
// defaults (rating 5) and the reviews and stats are reloaded. The submit
// control is re-enabled on every path.
func (l *Loader) SubmitReview(ctx context.Context, doc *dom.Document, lang string, sub *forms.Submitter, key string, f forms.Review) Submission {
	layout := forms.ReviewLayout
	ctx = api.WithLanguage(ctx, lang)
	logger := observability.FromContext(ctx).With(zap.String("product", f.ProductSlug))
	busy(doc, layout)
	defer func() { _ = layout.EnableSubmit(doc) }()

	_ = ignoreMissing(doc.SetAttr(ReviewProduct, "value", f.ProductSlug))
	translate := func(k string) string { return l.render.T(lang, k) }

	if err := f.Validate(); err != nil {
		verr, _ := forms.AsValidation(err)
		_ = layout.Fill(doc, f.Values())
		_ = layout.MarkInvalid(doc, verr, translate)
		l.drawRating(doc, rating.Restore(f.Rating))
		return Submission{Validation: verr, Err: err}
	}

	err := sub.Submit(ctx, key, func(ctx context.Context) error {
		return l.api.CreateReview(ctx, f.Request())
	})
	if err != nil {
		logger.Warn("review submission failed", zap.Error(err))
		_ = l.notify(doc, lang, render.Danger, "error.review")
		_ = layout.Fill(doc, f.Values())
		_ = layout.MarkInvalid(doc, nil, translate)
		l.drawRating(doc, rating.Restore(f.Rating))
		return Submission{Err: err}
	}

	_ = l.notify(doc, lang, render.Success, "success.review")
	_ = layout.Reset(doc)
	l.drawRating(doc, rating.New())
	out := Submission{OK: true}
	if err := l.ReloadReviews(ctx, doc, lang, f.ProductSlug); err != nil {
		logger.Warn("reloading reviews failed", zap.Error(err))
		return out
	}
	out.Reloaded = true
	return out
}

// SubmitContact validates f, sends it and redraws the contact form in doc,
// which must hold the contact partial. On success the form is cleared.
func (l *Loader) SubmitContact(ctx context.Context, doc *dom.Document, lang string, sub *forms.Submitter, key string, f forms.Contact) Submission {
	layout := forms.ContactLayout
	ctx = api.WithLanguage(ctx, lang)
	busy(doc, layout)
	defer func() { _ = layout.EnableSubmit(doc) }()

	translate := func(k string) string { return l.render.T(lang, k) }
	if err := f.Validate(); err != nil {
		verr, _ := forms.AsValidation(err)
		_ = layout.Fill(doc, f.Values())
		_ = layout.MarkInvalid(doc, verr, translate)
		return Submission{Validation: verr, Err: err}
	}

	err := sub.Submit(ctx, key, func(ctx context.Context) error {
		return l.api.CreateContact(ctx, f.Request())
	})
	if err != nil {
		observability.FromContext(ctx).Warn("contact submission failed", zap.Error(err))
		_ = l.notify(doc, lang, render.Danger, "error.contact_submit")
		_ = layout.Fill(doc, f.Values())
		_ = layout.MarkInvalid(doc, nil, translate)
		return Submission{Err: err}
	}
	_ = l.notify(doc, lang, render.Success, "success.contact")
	_ = layout.Reset(doc)
	return Submission{OK: true}
}

func busy(doc *dom.Document, layout forms.Layout) {
	if !doc.Has(layout.SubmitID) {
		return
	}
	_ = doc.SetAttr(layout.SubmitID, "disabled", "disabled")
	_ = doc.SetAttr(layout.SubmitID, "aria-busy", "true")
}

func (l *Loader) drawRating(doc *dom.Document, w rating.Widget) {
	html, err := l.render.RatingWidget(w)
	if err != nil {
		return
	}
	_ = ignoreMissing(doc.SetInnerHTML(RatingInput, html))
}

// IsBusy reports whether err came from a duplicate submission.
func IsBusy(err error) bool { return errors.Is(err, forms.ErrBusy) }
