// Package search runs debounced product searches per visitor session.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"lebem.uz/storefront/internal/catalog"
	"lebem.uz/storefront/internal/debounce"
)

const (
	DefaultDelay    = 300 * time.Millisecond
	DefaultMinChars = 3
)

var (
	// ErrSuperseded is returned to a caller whose query was replaced by a
	// newer one before its quiet period elapsed.
	ErrSuperseded = errors.New("search: superseded by a newer query")
	// ErrQueryTooShort is returned without contacting the backend.
	ErrQueryTooShort = errors.New("search: query too short")
)

// Searcher performs the backend query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]catalog.Product, error)
}

type outcome struct {
	products []catalog.Product
	err      error
}

type request struct {
	ctx    context.Context
	query  string
	result chan outcome
}

// Session debounces the queries of one visitor.
type Session struct {
	searcher Searcher
	minChars int

	mu        sync.Mutex
	pending   *request
	debounced *debounce.Debounced[*request]
}

// NewSession builds a session. Non-positive delay or minChars select the
// defaults.
func NewSession(searcher Searcher, delay time.Duration, minChars int) *Session {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	s := &Session{searcher: searcher, minChars: minChars}
	s.debounced = debounce.New(delay, s.run)
	return s
}

// Query waits for the quiet period and searches q, unless a newer Query
// arrives first. Queries shorter than the minimum never reach the backend
// but still supersede a pending one.
func (s *Session) Query(ctx context.Context, q string) ([]catalog.Product, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < s.minChars {
		s.mu.Lock()
		s.supersedeLocked()
		s.debounced.Cancel()
		s.mu.Unlock()
		return nil, ErrQueryTooShort
	}

	req := &request{ctx: ctx, query: q, result: make(chan outcome, 1)}
	s.mu.Lock()
	s.supersedeLocked()
	s.pending = req
	s.debounced.Call(req)
	s.mu.Unlock()

	select {
	case o := <-req.result:
		return o.products, o.err
	case <-ctx.Done():
		s.mu.Lock()
		if s.pending == req {
			s.pending = nil
			s.debounced.Cancel()
		}
		s.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (s *Session) supersedeLocked() {
	if s.pending != nil {
		s.pending.result <- outcome{err: ErrSuperseded}
		s.pending = nil
	}
}

func (s *Session) run(req *request) {
	s.mu.Lock()
	if s.pending != req {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()

	products, err := s.searcher.Search(req.ctx, req.query)
	req.result <- outcome{products: products, err: err}
}

// Registry hands out one Session per visitor and forgets idle ones.
type Registry struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, *Session]
	searcher Searcher
	delay    time.Duration
	minChars int
}

// NewRegistry keeps at most size sessions, each for ttl after last use.
func NewRegistry(searcher Searcher, delay time.Duration, minChars, size int, ttl time.Duration) *Registry {
	if size <= 0 {
		size = 4096
	}
	return &Registry{
		sessions: expirable.NewLRU[string, *Session](size, nil, ttl),
		searcher: searcher,
		delay:    delay,
		minChars: minChars,
	}
}

// Session returns the session of id, creating it when needed.
func (r *Registry) Session(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions.Get(id); ok {
		// re-adding refreshes the expiry
		r.sessions.Add(id, s)
		return s
	}
	s := NewSession(r.searcher, r.delay, r.minChars)
	r.sessions.Add(id, s)
	return s
}
