package render

import (
	"html/template"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind is the Bootstrap contextual class of a notification.
type Kind string

const (
	Success Kind = "success"
	Danger  Kind = "danger"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// AlertTimeout is how long a notification stays before it dismisses itself.
const AlertTimeout = 5 * time.Second

// Notification is a transient dismissible message.
type Notification struct {
	ID      string
	Kind    Kind
	Message string
}

// NewNotification stamps a notification with a unique, time-ordered id.
func NewNotification(kind Kind, message string) Notification {
	return Notification{ID: "alert-" + ulid.Make().String(), Kind: kind, Message: message}
}

type alertView struct {
	view
	Notification
	TimeoutMS int64
}

// Alert renders n. The message is escaped.
func (r *Renderer) Alert(lang string, n Notification) (template.HTML, error) {
	if n.Kind == "" {
		n.Kind = Info
	}
	return r.execute("alert", alertView{
		view:         r.view(lang),
		Notification: n,
		TimeoutMS:    AlertTimeout.Milliseconds(),
	})
}
