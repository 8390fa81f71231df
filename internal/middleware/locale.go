package middleware

import (
	"context"
	"net/http"

	"lebem.uz/storefront/internal/i18n"
)

// LangParam is the query parameter and cookie that override the language.
const LangParam = "lang"

// bundle fallback, read by Lang when the session has no locale yet
const ctxKeyLocaleFB ctxKey = "locale_fallback"

// Locale resolves the visitor language and stores it in the session and the
// `lang` cookie. Precedence: ?lang=, session, cookie, Accept-Language.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKeyLocaleFB, bundle.Fallback())
			r = r.WithContext(ctx)
			s := GetSession(r)
			if q := bundle.Normalize(r.URL.Query().Get(LangParam)); q != "" {
				if s.Locale != q {
					s.Locale = q
					s.MarkDirty()
				}
				http.SetCookie(w, &http.Cookie{Name: LangParam, Value: q, Path: "/", SameSite: http.SameSiteLaxMode})
			} else if bundle.Normalize(s.Locale) == "" {
				if c, err := r.Cookie(LangParam); err == nil && bundle.Normalize(c.Value) != "" {
					s.Locale = bundle.Normalize(c.Value)
				} else {
					s.Locale = bundle.Resolve(r.Header.Get("Accept-Language"))
				}
				s.MarkDirty()
			}
			w.Header().Set("Content-Language", s.Locale)
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r)
		})
	}
}

// Lang returns the current language from the session, or the bundle fallback.
func Lang(r *http.Request) string {
	if s := GetSession(r); s.Locale != "" {
		return s.Locale
	}
	if fb, ok := r.Context().Value(ctxKeyLocaleFB).(string); ok && fb != "" {
		return fb
	}
	return i18n.DefaultLanguages[0]
}
