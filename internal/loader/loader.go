// Package loader is the storefront's content loader. Each entry point splices
// a page partial into the main container, fetches the page's JSON
// concurrently, and renders it into the partial's containers.
package loader

import (
	"context"
	"errors"
	"html/template"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"lebem.uz/storefront/internal/api"
	"lebem.uz/storefront/internal/catalog"
	"lebem.uz/storefront/internal/dom"
	"lebem.uz/storefront/internal/observability"
	"lebem.uz/storefront/internal/partials"
	"lebem.uz/storefront/internal/render"
	"lebem.uz/storefront/internal/route"
)

// ErrSuperseded is returned by a load that finished after a newer navigation
// began. Such a load writes nothing.
var ErrSuperseded = errors.New("loader: navigation superseded")

// Catalog is the backend surface the loader consumes. *api.Client
// implements it.
type Catalog interface {
	Categories(ctx context.Context) ([]catalog.Category, error)
	Category(ctx context.Context, slug string) (catalog.Category, error)
	CategoryProducts(ctx context.Context, slug, ordering string) ([]catalog.Product, error)
	FeaturedProducts(ctx context.Context) ([]catalog.Product, error)
	Product(ctx context.Context, slug string) (catalog.Product, error)
	Reviews(ctx context.Context, slug string) ([]catalog.Review, error)
	ReviewStats(ctx context.Context, slug string) (catalog.ReviewStats, error)
	CreateReview(ctx context.Context, req api.ReviewRequest) error
	CreateContact(ctx context.Context, req api.ContactRequest) error
}

// Loader holds the collaborators shared by every visitor.
type Loader struct {
	api      Catalog
	partials partials.Source
	render   *render.Renderer
}

// New wires a loader.
func New(c Catalog, src partials.Source, r *render.Renderer) *Loader {
	return &Loader{api: c, partials: src, render: r}
}

// Renderer exposes the renderer used for fragments.
func (l *Loader) Renderer() *render.Renderer { return l.render }

// Result describes a finished page load.
type Result struct {
	Route      route.Route
	Title      string
	Categories []catalog.Category
	Category   catalog.Category
	Product    catalog.Product
	Stats      catalog.ReviewStats
	// Err is the failure surfaced to the visitor as a notification. The page
	// stays partially rendered.
	Err error
}

// Failed reports whether the load surfaced an error notification.
func (r Result) Failed() bool { return r.Err != nil }

// Navigator is the navigation state of one visitor. The route it holds is
// replaced, never mutated, and every navigation advances its generation.
type Navigator struct {
	loader *Loader

	mu      sync.Mutex
	current route.Route
}

// NewNavigator starts a visitor at generation zero.
func (l *Loader) NewNavigator() *Navigator {
	return &Navigator{loader: l, current: route.Route{Page: route.Home}}
}

// Current returns the latest route.
func (n *Navigator) Current() route.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) begin(nav route.Nav) route.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = route.Transition(n.current, nav)
	return n.current
}

// commit runs write while r is still the latest route. Holding the lock
// keeps a newer navigation from interleaving with the write.
func (n *Navigator) commit(r route.Route, write func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current.Generation != r.Generation {
		return ErrSuperseded
	}
	return write()
}

// Dispatch runs the entry point matching nav. ordering applies to category
// pages only.
func (n *Navigator) Dispatch(ctx context.Context, doc *dom.Document, lang string, nav route.Nav, ordering string) (Result, error) {
	if err := nav.Validate(); err != nil {
		return Result{}, err
	}
	switch nav.Page {
	case route.Category:
		return n.LoadCategory(ctx, doc, lang, nav.Slug, ordering)
	case route.Product:
		return n.LoadProduct(ctx, doc, lang, nav.Slug)
	case route.Contact:
		return n.LoadContact(ctx, doc, lang)
	default:
		return n.LoadHome(ctx, doc, lang)
	}
}

// page wraps one page load in a span; the backend calls it makes become
// children of that span.
func (n *Navigator) page(ctx context.Context, doc *dom.Document, lang string, nav route.Nav, name partials.Name, failKey string,
	fetch func(ctx context.Context) (func() error, error)) (Result, error) {
	ctx, span := observability.StartSpan(ctx, "load "+string(nav.Page),
		attribute.String("page.slug", nav.Slug),
		attribute.String("lang", lang),
	)
	res, err := n.load(ctx, doc, lang, nav, name, failKey, fetch)
	span.SetAttributes(
		attribute.Int64("route.generation", int64(res.Route.Generation)),
		attribute.Bool("superseded", errors.Is(err, ErrSuperseded)),
	)
	observability.EndSpan(span, res.Err)
	return res, err
}

// load runs the shared protocol: transition, show the indicator, splice the
// partial, fetch, render. The indicator is hidden on every exit path, and
// failures become a notification instead of an error.
func (n *Navigator) load(ctx context.Context, doc *dom.Document, lang string, nav route.Nav, name partials.Name, failKey string,
	fetch func(ctx context.Context) (func() error, error)) (Result, error) {
	r := n.begin(nav)
	res := Result{Route: r}
	ctx = api.WithLanguage(ctx, lang)
	logger := observability.FromContext(ctx).With(zap.Stringer("route", r))
	started := time.Now()

	_ = n.commit(r, func() error { return doc.Show(dom.LoadingSpinner) })
	defer func() {
		_ = n.commit(r, func() error { return doc.Hide(dom.LoadingSpinner) })
	}()

	fail := func(err error) (Result, error) {
		if errors.Is(err, ErrSuperseded) {
			return res, ErrSuperseded
		}
		werr := n.commit(r, func() error {
			return n.loader.notify(doc, lang, render.Danger, failKey)
		})
		if errors.Is(werr, ErrSuperseded) {
			return res, ErrSuperseded
		}
		logger.Error("page load failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		res.Err = err
		return res, nil
	}

	body, err := n.loader.partials.Partial(ctx, name, lang)
	if err != nil {
		return fail(err)
	}
	if err := n.commit(r, func() error { return doc.SetInnerHTML(dom.MainContent, body) }); err != nil {
		return fail(err)
	}

	write, err := fetch(ctx)
	if err != nil {
		return fail(err)
	}
	if err := n.commit(r, write); err != nil {
		return fail(err)
	}
	logger.Debug("page loaded", zap.Duration("elapsed", time.Since(started)))
	return res, nil
}

// notify replaces the alert region with a single notification.
func (l *Loader) notify(doc *dom.Document, lang string, kind render.Kind, key string) error {
	return l.notifyText(doc, lang, kind, l.render.T(lang, key))
}

func (l *Loader) notifyText(doc *dom.Document, lang string, kind render.Kind, message string) error {
	alert, err := l.render.Alert(lang, render.NewNotification(kind, message))
	if err != nil {
		return err
	}
	return ignoreMissing(doc.SetInnerHTML(dom.Alerts, alert))
}

// ignoreMissing treats an absent element as nothing to write. Partials
// served by a template host may omit optional containers.
func ignoreMissing(err error) error {
	if errors.Is(err, dom.ErrNoElement) {
		return nil
	}
	return err
}

type writer struct {
	doc *dom.Document
	err error
}

func (w *writer) text(id, s string) {
	if w.err == nil {
		w.err = ignoreMissing(w.doc.SetText(id, s))
	}
}

func (w *writer) html(id string, h template.HTML) {
	if w.err == nil {
		w.err = ignoreMissing(w.doc.SetInnerHTML(id, h))
	}
}

func (w *writer) attr(id, name, value string) {
	if w.err == nil {
		w.err = ignoreMissing(w.doc.SetAttr(id, name, value))
	}
}

func (w *writer) visible(id string, show bool) {
	if w.err != nil {
		return
	}
	if show {
		w.err = ignoreMissing(w.doc.Show(id))
	} else {
		w.err = ignoreMissing(w.doc.Hide(id))
	}
}

func (w *writer) selectOption(id, value string) {
	if w.err == nil {
		w.err = ignoreMissing(w.doc.SelectOption(id, value))
	}
}

// Sessions keeps one Navigator per visitor and forgets idle visitors.
type Sessions struct {
	loader *Loader
	mu     sync.Mutex
	cache  *expirable.LRU[string, *Navigator]
}

// NewSessions keeps at most size navigators, each for ttl after last use.
func (l *Loader) NewSessions(size int, ttl time.Duration) *Sessions {
	if size <= 0 {
		size = 4096
	}
	return &Sessions{loader: l, cache: expirable.NewLRU[string, *Navigator](size, nil, ttl)}
}

// Navigator returns the navigator of id, creating it when needed.
func (s *Sessions) Navigator(id string) *Navigator {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.cache.Get(id); ok {
		s.cache.Add(id, n)
		return n
	}
	n := s.loader.NewNavigator()
	s.cache.Add(id, n)
	return n
}
