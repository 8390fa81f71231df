package seo

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	Alternates  []Alternate
}

// Alternate is a hreflang link to the same page in another language.
type Alternate struct {
	Lang string
	Href string
}
