package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"lebem.uz/storefront/internal/api"
	"lebem.uz/storefront/internal/catalog"
)

// BackendCSRFToken is the token the fake backend hands out.
const BackendCSRFToken = "backend-csrf"

// Backend is an in-memory catalogue/review API served over HTTP.
type Backend struct {
	mu sync.Mutex

	Categories       []catalog.Category
	Featured         []catalog.Product
	CategoryProducts map[string][]catalog.Product
	Products         map[string]catalog.Product
	Reviews          map[string][]catalog.Review
	Stats            map[string]catalog.ReviewStats
	// Fail maps a route pattern (e.g. "/api/products/products/featured/") to a status.
	Fail map[string]int
	// Delay holds a route pattern back before it is answered.
	Delay map[string]time.Duration

	PostedReviews  []api.ReviewRequest
	PostedContacts []api.ContactRequest
	Orderings      []string
	Queries        []string
	ReviewHeaders  []http.Header

	srv *httptest.Server
}

// NewBackend starts a backend seeded with a small catalogue.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	old := catalog.Decimal(1_500_000)
	b := &Backend{
		Categories: []catalog.Category{
			{Slug: "divanlar", Name: "Divanlar", Description: "Yumshoq divanlar", ProductsCount: 2},
			{Slug: "stollar", Name: "Stollar", ProductsCount: 0},
		},
		Featured: []catalog.Product{
			{Slug: "alfa", Name: "Alfa divan", Price: 1_200_000, OldPrice: &old, Rating: 4.5, ReviewsCount: 2},
		},
		CategoryProducts: map[string][]catalog.Product{
			"divanlar": {
				{Slug: "alfa", Name: "Alfa divan", Price: 1_200_000},
				{Slug: "beta", Name: "Beta divan", Price: 900_000},
			},
		},
		Products: map[string]catalog.Product{
			"alfa": {
				Slug: "alfa", Name: "Alfa divan", Description: "**Qulay** divan", Price: 1_200_000, OldPrice: &old,
				Rating: 4.5, ReviewsCount: 2, ViewsCount: 10,
				Category: catalog.CategoryRef{Slug: "divanlar", Name: "Divanlar"},
			},
		},
		Reviews: map[string][]catalog.Review{
			"alfa": {{Name: "Ali", Rating: 5, Comment: "Zo'r divan"}, {Name: "Vali", Rating: 4, Comment: "Yaxshi"}},
		},
		Stats: map[string]catalog.ReviewStats{
			"alfa": {TotalReviews: 2, AverageRating: 4.5, RatingBreakdown: []catalog.RatingCount{{Rating: 5, Count: 1}, {Rating: 4, Count: 1}}},
		},
		Fail:  map[string]int{},
		Delay: map[string]time.Duration{},
	}

	r := chi.NewRouter()
	r.Use(b.csrfCookie)
	r.Get("/api/products/categories/", b.withFail("/api/products/categories/", func(w http.ResponseWriter, r *http.Request) {
		b.json(w, b.Categories)
	}))
	r.Get("/api/products/categories/{slug}/", b.withFail("/api/products/categories/{slug}/", func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		for _, c := range b.Categories {
			if c.Slug == slug {
				b.json(w, c)
				return
			}
		}
		http.NotFound(w, r)
	}))
	r.Get("/api/products/categories/{slug}/products/", b.withFail("/api/products/categories/{slug}/products/", func(w http.ResponseWriter, r *http.Request) {
		b.Orderings = append(b.Orderings, r.URL.Query().Get("ordering"))
		items := b.CategoryProducts[chi.URLParam(r, "slug")]
		b.json(w, map[string]any{"count": len(items), "next": nil, "results": nonNil(items)})
	}))
	r.Get("/api/products/products/featured/", b.withFail("/api/products/products/featured/", func(w http.ResponseWriter, r *http.Request) {
		b.json(w, nonNil(b.Featured))
	}))
	r.Get("/api/products/products/search/", b.withFail("/api/products/products/search/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("search")
		b.Queries = append(b.Queries, q)
		var out []catalog.Product
		for _, p := range b.Products {
			if containsFold(p.Name, q) {
				out = append(out, p)
			}
		}
		b.json(w, nonNil(out))
	}))
	r.Get("/api/products/products/{slug}/", b.withFail("/api/products/products/{slug}/", func(w http.ResponseWriter, r *http.Request) {
		p, ok := b.Products[chi.URLParam(r, "slug")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		b.json(w, p)
	}))
	r.Get("/api/products/products/{slug}/reviews/", b.withFail("/api/products/products/{slug}/reviews/", func(w http.ResponseWriter, r *http.Request) {
		b.json(w, nonNil(b.Reviews[chi.URLParam(r, "slug")]))
	}))
	r.Get("/api/products/products/{slug}/reviews/stats/", b.withFail("/api/products/products/{slug}/reviews/stats/", func(w http.ResponseWriter, r *http.Request) {
		b.json(w, b.Stats[chi.URLParam(r, "slug")])
	}))
	r.Post("/api/reviews/create/", b.withFail("/api/reviews/create/", func(w http.ResponseWriter, r *http.Request) {
		var req api.ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		b.PostedReviews = append(b.PostedReviews, req)
		b.ReviewHeaders = append(b.ReviewHeaders, r.Header.Clone())
		b.Reviews[req.ProductSlug] = append([]catalog.Review{{Name: req.Name, Rating: req.Rating, Comment: req.Comment}}, b.Reviews[req.ProductSlug]...)
		st := b.Stats[req.ProductSlug]
		st.TotalReviews++
		b.Stats[req.ProductSlug] = st
		w.WriteHeader(http.StatusCreated)
		b.json(w, req)
	}))
	r.Post("/api/reviews/contact/", b.withFail("/api/reviews/contact/", func(w http.ResponseWriter, r *http.Request) {
		var req api.ContactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		b.PostedContacts = append(b.PostedContacts, req)
		w.WriteHeader(http.StatusCreated)
		b.json(w, req)
	}))

	b.srv = httptest.NewServer(r)
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the backend root.
func (b *Backend) URL() string { return b.srv.URL }

// SetFail makes pattern answer status until cleared with 0.
func (b *Backend) SetFail(pattern string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.Fail, pattern)
		return
	}
	b.Fail[pattern] = status
}

// Snapshot runs fn while the backend is locked, for reading recorded calls.
func (b *Backend) Snapshot(fn func(b *Backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

// SetDelay makes pattern wait d before answering. Zero clears it.
func (b *Backend) SetDelay(pattern string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d <= 0 {
		delete(b.Delay, pattern)
		return
	}
	b.Delay[pattern] = d
}

func (b *Backend) withFail(pattern string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		delay := b.Delay[pattern]
		b.mu.Unlock()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if status, ok := b.Fail[pattern]; ok {
			http.Error(w, http.StatusText(status), status)
			return
		}
		h(w, r)
	}
}

func (b *Backend) csrfCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: api.CSRFCookieName, Value: BackendCSRFToken, Path: "/"})
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) json(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
