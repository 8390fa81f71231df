package testutil

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"lebem.uz/storefront/internal/api"
	"lebem.uz/storefront/internal/httpserver"
	"lebem.uz/storefront/internal/i18n"
	"lebem.uz/storefront/internal/loader"
	"lebem.uz/storefront/internal/middleware"
	"lebem.uz/storefront/internal/partials"
	"lebem.uz/storefront/internal/render"
	"lebem.uz/storefront/public"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithSearchDelay overrides the search quiet period.
func WithSearchDelay(d time.Duration) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.SearchDelay = d
	}
}

// WithGAMeasurementID enables the analytics snippet.
func WithGAMeasurementID(id string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.GAMeasurementID = id
	}
}

// NewServer constructs an httptest server running the storefront stack
// against backend.
func NewServer(t testing.TB, backend *Backend, opts ...ServerOption) *httptest.Server {
	t.Helper()

	client, err := api.NewClient(backend.URL(), api.WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	bundle, err := i18n.Default()
	if err != nil {
		t.Fatalf("i18n: %v", err)
	}
	src, err := partials.NewEmbedSource(bundle)
	if err != nil {
		t.Fatalf("partials: %v", err)
	}
	renderer, err := render.New(bundle)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	sessions, err := middleware.NewSessions("test-signing-key", false)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	assets, err := public.AssetsFS()
	if err != nil {
		t.Fatalf("assets: %v", err)
	}

	cfg := httpserver.Config{
		Address:        ":0",
		Catalog:        client,
		Searcher:       client,
		Loader:         loader.New(client, src, renderer),
		Bundle:         bundle,
		Sessions:       sessions,
		Assets:         assets,
		SearchDelay:    10 * time.Millisecond,
		SearchMinChars: 3,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("httpserver: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// NewClient returns a browser-like client that keeps cookies and does not
// follow redirects.
func NewClient(t testing.TB) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// CSRFToken returns the anti-forgery cookie the storefront issued to client.
func CSRFToken(t testing.TB, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == middleware.CSRFCookieName {
			return c.Value
		}
	}
	return ""
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
