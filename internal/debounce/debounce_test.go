package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 16)} }

func (r *recorder) action(v string) {
	r.mu.Lock()
	r.calls = append(r.calls, v)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestTenCallsWithinQuietPeriodRunOnceWithLastValue(t *testing.T) {
	rec := newRecorder()
	d := New(300*time.Millisecond, rec.action)
	for _, v := range []string{"d", "di", "div", "diva", "divan", "divan ", "divan y", "divan yu", "divan yum", "divan yums"} {
		d.Call(v)
		time.Sleep(5 * time.Millisecond)
	}
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced action never ran")
	}
	time.Sleep(400 * time.Millisecond)
	require.Equal(t, []string{"divan yums"}, rec.snapshot())
	require.False(t, d.Cancel())
}

func TestCancelDropsPendingCall(t *testing.T) {
	rec := newRecorder()
	d := New(50*time.Millisecond, rec.action)
	d.Call("x")
	require.True(t, d.Cancel())
	require.False(t, d.Cancel())
	time.Sleep(120 * time.Millisecond)
	require.Empty(t, rec.snapshot())
}
