// Package rating models the five-star rating input of the review form.
package rating

import (
	"fmt"
	"strings"
)

const (
	Min     = 1
	Max     = 5
	Default = Max
)

// Event is a pointer interaction with the widget.
type Event string

const (
	Hover Event = "hover"
	Click Event = "click"
	Leave Event = "leave"
)

// ParseEvent accepts the event names used by the widget markup.
func ParseEvent(s string) (Event, error) {
	switch ev := Event(strings.ToLower(strings.TrimSpace(s))); ev {
	case Hover, Click, Leave:
		return ev, nil
	}
	return "", fmt.Errorf("rating: unknown event %q", s)
}

// Widget is the committed rating plus what is currently displayed. The zero
// value is not valid; use New or Restore.
type Widget struct {
	committed int
	display   int
}

// New returns a widget showing the default rating.
func New() Widget { return Widget{committed: Default, display: Default} }

// Restore rebuilds a widget from a committed value. Values outside 1..5
// restore the default.
func Restore(committed int) Widget {
	if !inRange(committed) {
		return New()
	}
	return Widget{committed: committed, display: committed}
}

func inRange(i int) bool { return i >= Min && i <= Max }

// Committed is the value submitted with the form.
func (w Widget) Committed() int { return w.committed }

// Display is the number of filled icons.
func (w Widget) Display() int { return w.display }

// Hover previews icons 1..i without committing.
func (w Widget) Hover(i int) Widget {
	if !inRange(i) {
		return w
	}
	w.display = i
	return w
}

// Click commits rating i.
func (w Widget) Click(i int) Widget {
	if !inRange(i) {
		return w
	}
	w.committed, w.display = i, i
	return w
}

// Leave restores the display to the committed value.
func (w Widget) Leave() Widget {
	w.display = w.committed
	return w
}

// Apply dispatches ev. index is ignored for Leave.
func (w Widget) Apply(ev Event, index int) Widget {
	switch ev {
	case Hover:
		return w.Hover(index)
	case Click:
		return w.Click(index)
	case Leave:
		return w.Leave()
	}
	return w
}

// Icon is one star of the widget.
type Icon struct {
	Index  int
	Filled bool
}

// Icons returns exactly five icons, the first Display ones filled.
func (w Widget) Icons() []Icon {
	out := make([]Icon, Max)
	for i := range out {
		out[i] = Icon{Index: i + 1, Filled: i < w.display}
	}
	return out
}
