package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeBackend) record(r *http.Request) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
}

func (f *fakeBackend) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.record(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	return c, fb
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	require.ErrorIs(t, err, ErrNoBaseURL)
}

func TestCallSendsJSONHeadersAndCSRFFromCookie(t *testing.T) {
	c, fb := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CategoriesPath:
			http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "tok-123", Path: "/"})
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"slug":"divanlar","name":"Divanlar","products_count":4}]`))
		case CreateReviewPath:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"name":"Ali"}`))
		default:
			http.NotFound(w, r)
		}
	})

	ctx := WithLanguage(context.Background(), "ru")
	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Equal(t, 4, cats[0].ProductsCount)
	first := fb.last()
	require.Equal(t, "application/json", first.Header.Get("Accept"))
	require.Equal(t, "ru", first.Header.Get("Accept-Language"))
	require.Empty(t, first.Header.Get(CSRFHeaderName))

	require.Equal(t, "tok-123", c.CSRFToken())

	err = c.CreateReview(context.Background(), ReviewRequest{
		ProductSlug: "divan-alfa",
		Name:        "Ali",
		Phone:       "+998 90 123 45 67",
		Rating:      5,
		Comment:     "Zo'r",
	})
	require.NoError(t, err)
	post := fb.last()
	require.Equal(t, http.MethodPost, post.Method)
	require.Equal(t, "tok-123", post.Header.Get(CSRFHeaderName))
	require.Equal(t, "application/json", post.Header.Get("Content-Type"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(post.Body, &payload))
	require.Equal(t, "divan-alfa", payload["product_slug"])
	require.EqualValues(t, 5, payload["rating"])
	require.Equal(t, "Zo'r", payload["comment"])
}

func TestCallNonSuccessStatusIsNetworkError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Product(context.Background(), "missing")
	require.Error(t, err)
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	require.Equal(t, http.StatusInternalServerError, ne.Status)
	require.ErrorIs(t, err, ErrStatus)
	require.Equal(t, http.StatusInternalServerError, StatusCode(err))
	require.False(t, IsNotFound(err))
}

func TestCallNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.Category(context.Background(), "yoq")
	require.True(t, IsNotFound(err))
}

func TestCallTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(base)
	require.NoError(t, err)
	_, err = c.Categories(context.Background())
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	require.Zero(t, ne.Status)
	require.Contains(t, ne.URL, CategoriesPath)
}

func TestCallDecodeFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	_, err := c.ReviewStats(context.Background(), "x")
	require.ErrorIs(t, err, ErrDecode)
}

func TestCategoryProductsOrdering(t *testing.T) {
	c, fb := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":1,"next":null,"results":[{"slug":"a","name":"A","price":"10.00"}]}`))
	})

	products, err := c.CategoryProducts(context.Background(), "divanlar", "-price")
	require.NoError(t, err)
	require.Len(t, products, 1)
	req := fb.last()
	require.Equal(t, "/api/products/categories/divanlar/products/", req.Path)
	require.Equal(t, "ordering=-price", req.Query)

	_, err = c.CategoryProducts(context.Background(), "divanlar", "drop table")
	require.NoError(t, err)
	require.Empty(t, fb.last().Query)
}

func TestSearchQuery(t *testing.T) {
	c, fb := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	out, err := c.Search(context.Background(), "  yumshoq divan ")
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, SearchPath, fb.last().Path)
	require.Equal(t, "search=yumshoq+divan", fb.last().Query)
}

func TestFetchText(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/templates/contact.html" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<form id="contact-form"></form>`))
	})

	body, err := c.FetchText(context.Background(), "/templates/contact.html")
	require.NoError(t, err)
	require.Contains(t, body, `id="contact-form"`)

	_, err = c.FetchText(context.Background(), "/templates/missing.html")
	require.True(t, IsNotFound(err))
}

func TestEndpointPaths(t *testing.T) {
	require.Equal(t, "/api/products/categories/", CategoriesPath)
	require.Equal(t, "/api/products/categories/stol/", CategoryPath("stol"))
	require.Equal(t, "/api/products/categories/stol/products/", CategoryProductsPath("stol"))
	require.Equal(t, "/api/products/products/featured/", FeaturedProductsPath)
	require.Equal(t, "/api/products/products/kreslo/", ProductPath("kreslo"))
	require.Equal(t, "/api/products/products/kreslo/reviews/", ProductReviewsPath("kreslo"))
	require.Equal(t, "/api/products/products/kreslo/reviews/stats/", ReviewStatsPath("kreslo"))
	require.Equal(t, "/api/products/products/search/", SearchPath)
	require.Equal(t, "/api/reviews/create/", CreateReviewPath)
	require.Equal(t, "/api/reviews/contact/", CreateContactPath)
	require.Equal(t, "/api/products/products/a%2Fb/", ProductPath("a/b"))
}
