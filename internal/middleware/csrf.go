package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

const (
	// CSRFCookieName holds the double-submit token readable by page scripts.
	CSRFCookieName = "csrftoken"
	// CSRFHeaderName must echo the cookie on unsafe requests.
	CSRFHeaderName = "X-CSRFToken"
)

// CSRF issues the token cookie and rejects unsafe requests whose header does
// not match the session token. It runs after Sessions.Middleware.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := GetSession(r)
			token := s.CSRFToken
			if token == "" {
				token = newCSRFToken()
				s.CSRFToken = token
				s.MarkDirty()
			}

			if c, err := r.Cookie(CSRFCookieName); err != nil || c.Value != token {
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(24 * time.Hour),
				})
			}

			if !isSafeMethod(r.Method) {
				hdr := r.Header.Get(CSRFHeaderName)
				if hdr == "" || hdr != token {
					WriteError(w, r, http.StatusForbidden, "invalid CSRF token")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFToken returns the token of the current session.
func CSRFToken(r *http.Request) string { return GetSession(r).CSRFToken }

func newCSRFToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
