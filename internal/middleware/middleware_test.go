package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"lebem.uz/storefront/internal/i18n"
	"lebem.uz/storefront/internal/observability"
)

func newSessions(t *testing.T) *Sessions {
	t.Helper()
	s, err := NewSessions("test-signing-key", false)
	require.NoError(t, err)
	return s
}

func cookieNamed(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestNewSessionsRequiresKey(t *testing.T) {
	_, err := NewSessions(" ", false)
	require.ErrorIs(t, err, ErrNoSigningKey)
}

func TestSessionIssuesAndRestoresCookie(t *testing.T) {
	s := newSessions(t)
	var seen []string
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, GetSession(r).ID)
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	c := cookieNamed(rec.Result(), sessionCookieName)
	require.NotNil(t, c)
	require.True(t, c.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Nil(t, cookieNamed(rec.Result(), sessionCookieName))
	require.Len(t, seen, 2)
	require.NotEmpty(t, seen[0])
	require.Equal(t, seen[0], seen[1])
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	s := newSessions(t)
	other, err := NewSessions("another-key", false)
	require.NoError(t, err)
	forged := other.Encode(&SessionData{ID: "forged"})

	var id string
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetSession(r).ID
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: forged})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotEqual(t, "forged", id)
	require.NotNil(t, cookieNamed(rec.Result(), sessionCookieName))
}

func csrfHandler(t *testing.T) http.Handler {
	s := newSessions(t)
	return s.Middleware(CSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
}

func TestCSRFIssuesCookieOnSafeRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	csrfHandler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	c := cookieNamed(rec.Result(), CSRFCookieName)
	require.NotNil(t, c)
	require.False(t, c.HttpOnly)
	require.Len(t, c.Value, 32)
}

func TestCSRFRejectsMissingOrWrongHeader(t *testing.T) {
	h := csrfHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	sess := cookieNamed(rec.Result(), sessionCookieName)
	token := cookieNamed(rec.Result(), CSRFCookieName).Value

	post := func(header string) int {
		req := httptest.NewRequest(http.MethodPost, "/forms/contact", strings.NewReader("name=x"))
		req.AddCookie(sess)
		if header != "" {
			req.Header.Set(CSRFHeaderName, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusForbidden, post(""))
	require.Equal(t, http.StatusForbidden, post("nope"))
	require.Equal(t, http.StatusNoContent, post(token))
}

func TestWriteErrorJSONForHTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithHTMX(req.Context(), true))
	rec := httptest.NewRecorder()
	WriteError(rec, req, http.StatusForbidden, "invalid CSRF token")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.JSONEq(t, `{"error":"invalid CSRF token"}`, rec.Body.String())
}

func TestHTMXFlag(t *testing.T) {
	var is bool
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is = IsHTMX(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/pages/home", nil)
	req.Header.Set(HeaderHXRequest, "true")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, is)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, is)
}

func TestLocalePrecedence(t *testing.T) {
	bundle, err := i18n.Default()
	require.NoError(t, err)
	s := newSessions(t)
	var lang string
	h := s.Middleware(Locale(bundle)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = Lang(r)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "ru", lang)
	require.Equal(t, "ru", rec.Header().Get("Content-Language"))
	sess := cookieNamed(rec.Result(), sessionCookieName)

	req = httptest.NewRequest(http.MethodGet, "/?lang=EN", nil)
	req.AddCookie(sess)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "en", lang)
	require.Equal(t, "en", cookieNamed(rec.Result(), LangParam).Value)
	sess = cookieNamed(rec.Result(), sessionCookieName)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sess)
	req.Header.Set("Accept-Language", "ru")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "en", lang)

	req = httptest.NewRequest(http.MethodGet, "/?lang=fr", nil)
	req.Header.Set("Accept-Language", "de")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "uz", lang)
}

func TestLoggerEmitsRequestLine(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := chi.NewRouter()
	r.Use(chiMid.RequestID)
	r.Use(HTMX)
	r.Use(Logger(zap.New(core)))
	r.Get("/pages/home", func(w http.ResponseWriter, r *http.Request) {
		observability.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/pages/home", nil)
	req.Header.Set(HeaderHXRequest, "true")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "/pages/home", fields["path"])
	require.EqualValues(t, http.StatusTeapot, fields["status"])
	require.Equal(t, true, fields["htmx"])
	require.NotEmpty(t, fields["request_id"])
	require.Equal(t, 1, logs.FilterMessage("inside").Len())
}

func TestAssetsWithCache(t *testing.T) {
	fsys := fstest.MapFS{"css/site.css": {Data: []byte("body{}")}}
	h := AssetsWithCache(fsys, "/assets")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/css/site.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.True(t, strings.HasPrefix(etag, `W/"`))
	require.Contains(t, rec.Header().Get("Cache-Control"), "max-age=604800")

	req := httptest.NewRequest(http.MethodGet, "/assets/css/site.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestResponseRecorderRunsHookOnce(t *testing.T) {
	calls := 0
	rw := NewResponseRecorder(httptest.NewRecorder())
	rw.SetBeforeWrite(func(http.ResponseWriter) { calls++ })
	rw.WriteHeader(http.StatusCreated)
	_, _ = rw.Write([]byte("x"))
	require.Equal(t, 1, calls)
	require.Equal(t, http.StatusCreated, rw.Status())
	require.True(t, rw.Wrote())
}
