// Package render turns catalogue data into escaped HTML fragments and the
// full page layout.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"lebem.uz/storefront/internal/format"
	"lebem.uz/storefront/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the fragment and layout templates.
type Renderer struct {
	tmpl   *template.Template
	bundle *i18n.Bundle
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New parses the embedded templates.
func New(bundle *i18n.Bundle) (*Renderer, error) {
	if bundle == nil {
		return nil, errors.New("render: i18n bundle is required")
	}
	tmpl, err := template.New("render").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{
		tmpl:   tmpl,
		bundle: bundle,
		md:     goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
		policy: bluemonday.UGCPolicy(),
	}, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"stars": func(rating float64) format.StarCounts { return format.Stars(rating) },
		"times": func(n int) []int { return make([]int, max(n, 0)) },
	}
}

// Bundle exposes the translations the renderer was built with.
func (r *Renderer) Bundle() *i18n.Bundle { return r.bundle }

// T translates key for lang.
func (r *Renderer) T(lang, key string) string { return r.bundle.T(lang, key) }

// view is embedded by every template payload so templates can call .T.
type view struct {
	Lang string
	r    *Renderer
}

func (v view) T(key string) string { return v.r.bundle.T(v.Lang, key) }

func (r *Renderer) view(lang string) view { return view{Lang: lang, r: r} }

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) write(w io.Writer, name string, data any) error {
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// Markdown renders trusted-or-not markdown and sanitises the result.
func (r *Renderer) Markdown(source string) template.HTML {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}
