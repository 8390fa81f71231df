package forms

import (
	"context"
	"sync"
)

// Submitter serialises submissions per form key (visitor and form). While a
// submission runs its key is busy; the key is always released afterwards.
type Submitter struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewSubmitter() *Submitter {
	return &Submitter{busy: map[string]struct{}{}}
}

// Submit runs send unless key is already busy, in which case it returns
// ErrBusy without calling send.
func (s *Submitter) Submit(ctx context.Context, key string, send func(context.Context) error) error {
	if !s.acquire(key) {
		return ErrBusy
	}
	defer s.release(key)
	return send(ctx)
}

// Busy reports whether a submission for key is in flight.
func (s *Submitter) Busy(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.busy[key]
	return ok
}

func (s *Submitter) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[key]; ok {
		return false
	}
	s.busy[key] = struct{}{}
	return true
}

func (s *Submitter) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, key)
}
