// Package dom wraps a parsed HTML document with the id-addressed operations
// the content loader needs: replace a container, set text or attributes and
// toggle visibility.
package dom

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Well-known element ids of the layout shell.
const (
	MainContent    = "main-content"
	LoadingSpinner = "loading-spinner"
	Alerts         = "alerts"
)

// HiddenClass hides an element.
const HiddenClass = "d-none"

// ErrNoElement is returned when an id is absent from the document.
var ErrNoElement = errors.New("dom: element not found")

// Document is safe for concurrent use.
type Document struct {
	mu  sync.Mutex
	doc *goquery.Document
}

// Parse builds a document from markup.
func Parse(markup string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &Document{doc: doc}, nil
}

const shellMarkup = `<!doctype html><html><head></head><body>` +
	`<div id="` + LoadingSpinner + `" class="` + HiddenClass + `"></div>` +
	`<div id="` + Alerts + `"></div>` +
	`<main id="` + MainContent + `"></main>` +
	`</body></html>`

// NewShell returns a minimal document carrying the main container, loading
// indicator and alert region.
func NewShell() *Document {
	d, err := Parse(shellMarkup)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Document) find(id string) (*goquery.Selection, error) {
	sel := d.doc.Find("#" + id).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: #%s", ErrNoElement, id)
	}
	return sel, nil
}

// Has reports whether an element with id exists.
func (d *Document) Has(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.find(id)
	return err == nil
}

// SetInnerHTML replaces the children of #id.
func (d *Document) SetInnerHTML(id string, markup template.HTML) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return err
	}
	sel.SetHtml(string(markup))
	return nil
}

// SetText replaces the children of #id with escaped text.
func (d *Document) SetText(id, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return err
	}
	sel.SetText(text)
	return nil
}

// SetAttr sets an attribute on #id.
func (d *Document) SetAttr(id, name, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return err
	}
	sel.SetAttr(name, value)
	return nil
}

// RemoveAttr drops an attribute from #id.
func (d *Document) RemoveAttr(id, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return err
	}
	sel.RemoveAttr(name)
	return nil
}

// Attr returns the value of an attribute on #id.
func (d *Document) Attr(id, name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return "", false
	}
	return sel.Attr(name)
}

// Show makes #id visible.
func (d *Document) Show(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return err
	}
	sel.RemoveClass(HiddenClass)
	return nil
}

// Hide makes #id invisible.
func (d *Document) Hide(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return err
	}
	sel.AddClass(HiddenClass)
	return nil
}

// AddClass adds a class to #id.
func (d *Document) AddClass(id, class string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return err
	}
	sel.AddClass(class)
	return nil
}

// RemoveClass drops a class from #id.
func (d *Document) RemoveClass(id, class string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return err
	}
	sel.RemoveClass(class)
	return nil
}

// HasClass reports whether #id carries class.
func (d *Document) HasClass(id, class string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return false
	}
	return sel.HasClass(class)
}

// SelectOption marks the <option> of the <select> #id whose value matches.
// Other options lose their selected flag.
func (d *Document) SelectOption(id, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return err
	}
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		if opt.AttrOr("value", "") == value {
			opt.SetAttr("selected", "selected")
		} else {
			opt.RemoveAttr("selected")
		}
	})
	return nil
}

// Visible reports whether #id exists and is not hidden.
func (d *Document) Visible(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return false
	}
	return !sel.HasClass(HiddenClass)
}

// Text returns the text content of #id.
func (d *Document) Text(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(sel.Text())
}

// InnerHTML serialises the children of #id.
func (d *Document) InnerHTML(id string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return "", err
	}
	return sel.Html()
}

// OuterHTML serialises #id itself.
func (d *Document) OuterHTML(id string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, err := d.find(id)
	if err != nil {
		return "", err
	}
	return goquery.OuterHtml(sel)
}

// HTML serialises the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

// Selection exposes the underlying goquery selection for read-only queries.
func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}
