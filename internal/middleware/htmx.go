package middleware

import (
	"context"
	"net/http"
)

// ctxKey namespaces the values this package stores on request contexts.
type ctxKey string

const ctxKeyIsHTMX ctxKey = "is_htmx"

// htmx request and response headers
const (
	HeaderHXRequest  = "HX-Request"
	HeaderHXPushURL  = "HX-Push-Url"
	HeaderHXRetarget = "HX-Retarget"
	HeaderHXReswap   = "HX-Reswap"
	HeaderHXTrigger  = "HX-Trigger"
)

// HTMX marks requests coming from htmx so handlers/middlewares can adapt responses
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get(HeaderHXRequest) == "true"
		ctx := WithHTMX(r.Context(), is)
		if is {
			w.Header().Add("Vary", HeaderHXRequest)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithHTMX records whether the request came from htmx.
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX reports what HTMX recorded; false when the middleware did not run.
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}

// PushURL asks htmx to push url onto the browser history.
func PushURL(w http.ResponseWriter, url string) {
	w.Header().Set(HeaderHXPushURL, url)
}
