// Package partials supplies the page-level HTML fragments spliced into the
// main content container.
package partials

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"lebem.uz/storefront/internal/i18n"
	"lebem.uz/storefront/internal/observability"
)

// Name identifies a partial by its file name on the template host.
type Name string

const (
	Index            Name = "index.html"
	CategoryProducts Name = "category_products.html"
	ProductDetail    Name = "product_detail.html"
	Contact          Name = "contact.html"
)

// All lists every partial in navigation order.
var All = []Name{Index, CategoryProducts, ProductDetail, Contact}

// ErrUnknownPartial is returned for names outside All.
var ErrUnknownPartial = errors.New("partials: unknown partial")

func (n Name) valid() bool {
	for _, known := range All {
		if n == known {
			return true
		}
	}
	return false
}

// Source returns the markup of a partial.
type Source interface {
	Partial(ctx context.Context, name Name, lang string) (template.HTML, error)
}

//go:embed static/*.html
var staticFS embed.FS

// EmbedSource renders the partials compiled into the binary.
type EmbedSource struct {
	tmpl   *template.Template
	bundle *i18n.Bundle
}

type partialData struct {
	Lang   string
	bundle *i18n.Bundle
}

func (d partialData) T(key string) string { return d.bundle.T(d.Lang, key) }

// NewEmbedSource parses the embedded partials.
func NewEmbedSource(bundle *i18n.Bundle) (*EmbedSource, error) {
	if bundle == nil {
		return nil, errors.New("partials: i18n bundle is required")
	}
	tmpl, err := template.ParseFS(staticFS, "static/*.html")
	if err != nil {
		return nil, fmt.Errorf("partials: parse: %w", err)
	}
	return &EmbedSource{tmpl: tmpl, bundle: bundle}, nil
}

func (s *EmbedSource) Partial(_ context.Context, name Name, lang string) (template.HTML, error) {
	if !name.valid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownPartial, name)
	}
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, string(name), partialData{Lang: lang, bundle: s.bundle}); err != nil {
		return "", fmt.Errorf("partials: render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// TextFetcher performs a plain-text GET.
type TextFetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}

// HTTPSource fetches partials from a template host, caching each body for
// the configured TTL. The host serves one file per partial regardless of
// language.
type HTTPSource struct {
	fetcher TextFetcher
	base    string
	cache   *expirable.LRU[Name, template.HTML]
}

const defaultCacheTTL = 5 * time.Minute

// NewHTTPSource fetches <baseURL>/<name>. ttl <= 0 selects five minutes.
func NewHTTPSource(fetcher TextFetcher, baseURL string, ttl time.Duration) *HTTPSource {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &HTTPSource{
		fetcher: fetcher,
		base:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		cache:   expirable.NewLRU[Name, template.HTML](len(All), nil, ttl),
	}
}

func (s *HTTPSource) Partial(ctx context.Context, name Name, _ string) (template.HTML, error) {
	if !name.valid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownPartial, name)
	}
	if body, ok := s.cache.Get(name); ok {
		return body, nil
	}
	text, err := s.fetcher.FetchText(ctx, s.base+"/"+string(name))
	if err != nil {
		return "", fmt.Errorf("partials: fetch %s: %w", name, err)
	}
	// the template host is a trusted collaborator; its markup is spliced as is
	body := template.HTML(text)
	s.cache.Add(name, body)
	return body, nil
}

// FallbackSource consults Primary and falls back to Secondary when it fails.
type FallbackSource struct {
	Primary   Source
	Secondary Source
}

func (s FallbackSource) Partial(ctx context.Context, name Name, lang string) (template.HTML, error) {
	body, err := s.Primary.Partial(ctx, name, lang)
	if err == nil || s.Secondary == nil || errors.Is(err, ErrUnknownPartial) || ctx.Err() != nil {
		return body, err
	}
	observability.FromContext(ctx).Warn("partial host failed, using embedded copy",
		zap.String("partial", string(name)),
		zap.Error(err),
	)
	return s.Secondary.Partial(ctx, name, lang)
}
