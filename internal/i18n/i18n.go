package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embedded embed.FS

// DefaultLanguages lists the shipped locales, default first.
var DefaultLanguages = []string{"uz", "ru", "en"}

type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported map[string]struct{}
	matcher   language.Matcher
	tags      []string
}

// Default loads the embedded uz/ru/en locales.
func Default() (*Bundle, error) {
	return Embedded("uz")
}

// Embedded loads the shipped locales with fallback as the default language.
func Embedded(fallback string) (*Bundle, error) {
	return Load(embedded, fallback, DefaultLanguages)
}

// Load reads <lang>.json from the locales directory of fsys for every
// supported language. Only the fallback locale is mandatory.
func Load(fsys fs.FS, fallback string, supported []string) (*Bundle, error) {
	if len(supported) == 0 {
		supported = DefaultLanguages
	}
	b := &Bundle{
		dict:      map[string]map[string]string{},
		fallback:  fallback,
		supported: map[string]struct{}{},
	}
	// matcher order decides ties, so the fallback goes first
	ordered := append([]string{fallback}, supported...)
	tags := make([]language.Tag, 0, len(ordered))
	for _, l := range ordered {
		if _, seen := b.supported[l]; seen {
			continue
		}
		b.supported[l] = struct{}{}
		raw, err := fs.ReadFile(fsys, path.Join("locales", l+".json"))
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
		tags = append(tags, language.Make(l))
		b.tags = append(b.tags, l)
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

func (b *Bundle) Supported() []string {
	out := make([]string, 0, len(b.supported))
	for k := range b.supported {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang has a loaded dictionary.
func (b *Bundle) IsSupported(lang string) bool {
	_, ok := b.dict[lang]
	return ok
}

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
	if lang != "" {
		if m, ok := b.dict[lang]; ok {
			if v, ok := m[key]; ok {
				return v
			}
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Resolve chooses best language from Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	acceptLang = strings.TrimSpace(acceptLang)
	if acceptLang == "" {
		return b.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No {
		return b.fallback
	}
	return b.tags[idx]
}

// Normalize maps a user supplied value ("ru-RU", "EN") to a supported
// language, or "" when none matches.
func (b *Bundle) Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i != -1 {
		lang = lang[:i]
	}
	if b.IsSupported(lang) {
		return lang
	}
	return ""
}
