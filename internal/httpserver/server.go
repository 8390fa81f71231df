// Package httpserver wires the storefront routes: full pages, htmx page
// fragments, form posts, the rating widget and debounced search.
package httpserver

import (
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"lebem.uz/storefront/internal/forms"
	"lebem.uz/storefront/internal/i18n"
	"lebem.uz/storefront/internal/loader"
	custommw "lebem.uz/storefront/internal/middleware"
	"lebem.uz/storefront/internal/render"
	"lebem.uz/storefront/internal/search"
)

const (
	defaultMaxVisitors    = 4096
	defaultVisitorIdleTTL = 30 * time.Minute
	requestTimeout        = 30 * time.Second
)

// Config holds runtime options for the storefront HTTP server.
type Config struct {
	Address string
	// Catalog feeds the navbar category menu on full pages.
	Catalog  loader.Catalog
	Searcher search.Searcher
	Loader   *loader.Loader
	Bundle   *i18n.Bundle
	Sessions *custommw.Sessions
	Logger   *zap.Logger
	Assets   fs.FS

	// TracerProvider receives server spans; nil disables them.
	TracerProvider trace.TracerProvider

	SearchDelay     time.Duration
	SearchMinChars  int
	MaxVisitors     int
	VisitorIdleTTL  time.Duration
	GAMeasurementID string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ErrIncompleteConfig is returned by New when a collaborator is missing.
var ErrIncompleteConfig = errors.New("httpserver: loader, catalog, searcher, bundle and sessions are required")

type server struct {
	loader     *loader.Loader
	render     *render.Renderer
	catalog    loader.Catalog
	bundle     *i18n.Bundle
	navigators *loader.Sessions
	searches   *search.Registry
	submitter  *forms.Submitter
	ga         string
}

// New constructs the HTTP server with its middleware stack.
func New(cfg Config) (*http.Server, error) {
	if cfg.Loader == nil || cfg.Catalog == nil || cfg.Searcher == nil || cfg.Bundle == nil || cfg.Sessions == nil {
		return nil, ErrIncompleteConfig
	}
	if cfg.MaxVisitors <= 0 {
		cfg.MaxVisitors = defaultMaxVisitors
	}
	if cfg.VisitorIdleTTL <= 0 {
		cfg.VisitorIdleTTL = defaultVisitorIdleTTL
	}
	s := &server{
		loader:     cfg.Loader,
		render:     cfg.Loader.Renderer(),
		catalog:    cfg.Catalog,
		bundle:     cfg.Bundle,
		navigators: cfg.Loader.NewSessions(cfg.MaxVisitors, cfg.VisitorIdleTTL),
		searches:   search.NewRegistry(cfg.Searcher, cfg.SearchDelay, cfg.SearchMinChars, cfg.MaxVisitors, cfg.VisitorIdleTTL),
		submitter:  forms.NewSubmitter(),
		ga:         cfg.GAMeasurementID,
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(custommw.Trace(cfg.TracerProvider))
	router.Use(custommw.Logger(cfg.Logger))
	router.Use(chimw.Recoverer)
	router.Use(chimw.Compress(5))
	router.Use(chimw.Timeout(requestTimeout))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Assets != nil {
		router.Handle("/assets/*", custommw.AssetsWithCache(cfg.Assets, "/assets"))
	}

	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX)
		r.Use(cfg.Sessions.Middleware)
		r.Use(custommw.CSRF(cfg.Sessions.Secure()))
		r.Use(custommw.Locale(cfg.Bundle))
		s.mount(r)
	})

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       orDefault(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      orDefault(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       orDefault(cfg.IdleTimeout, 60*time.Second),
	}, nil
}

func (s *server) mount(r chi.Router) {
	// full documents
	r.Get("/", s.fullPage(homeTarget))
	r.Get("/contact", s.fullPage(contactTarget))
	r.Get("/category/{slug}", s.fullPage(categoryTarget))
	r.Get("/product/{slug}", s.fullPage(productTarget))

	// htmx navigation fragments
	r.Route("/pages", func(r chi.Router) {
		r.Get("/home", s.fragment(homeTarget))
		r.Get("/contact", s.fragment(contactTarget))
		r.Get("/category/{slug}", s.fragment(categoryTarget))
		r.Get("/category/{slug}/products", s.sortedProducts)
		r.Get("/product/{slug}", s.fragment(productTarget))
	})

	r.Get("/widgets/rating", s.ratingWidget)
	r.Get("/search", s.search)
	r.Post("/forms/review", s.submitReview)
	r.Post("/forms/contact", s.submitContact)

	r.NotFound(s.notFound)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
