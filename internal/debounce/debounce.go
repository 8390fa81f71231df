// Package debounce delays an action until its trigger has been quiet for a
// fixed period.
package debounce

import (
	"sync"
	"time"
)

// Debounced wraps an action taking the latest argument. Only the most recent
// Call's timer survives; earlier pending arguments are dropped.
type Debounced[T any] struct {
	delay  time.Duration
	action func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
	seq     uint64
}

// New returns a debounced wrapper around action.
func New[T any](delay time.Duration, action func(T)) *Debounced[T] {
	return &Debounced[T]{delay: delay, action: action}
}

// Call schedules action(v) after the quiet period, replacing any pending call.
func (d *Debounced[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending, d.armed = v, true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debounced[T]) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.timer = nil
	d.mu.Unlock()
	d.action(v)
}

// Cancel drops the pending call, if any. It reports whether one was dropped.
func (d *Debounced[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	was := d.armed
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.armed = false
	d.seq++
	return was
}
