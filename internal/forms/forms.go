// Package forms parses, validates and redraws the review and contact forms.
package forms

import (
	"net/mail"
	"net/url"
	"strconv"
	"strings"

	"lebem.uz/storefront/internal/api"
	"lebem.uz/storefront/internal/format"
	"lebem.uz/storefront/internal/rating"
)

// Message keys of validation failures.
const (
	KeyRequired = "validation.required"
	KeyPhone    = "validation.phone"
	KeyEmail    = "validation.email"
	KeyRating   = "validation.rating"
	KeySubject  = "validation.subject"
)

// Subjects accepted by the contact endpoint, default first.
var Subjects = []string{"general", "order", "complaint", "suggestion"}

// DefaultSubject is used when the visitor leaves the subject empty.
const DefaultSubject = "general"

// Review is a submitted review form.
type Review struct {
	ProductSlug string
	Name        string
	Phone       string
	Rating      int
	Comment     string
}

// ParseReview reads the review form. A missing rating means the widget was
// never touched and keeps its default.
func ParseReview(v url.Values) Review {
	r := Review{
		ProductSlug: strings.TrimSpace(v.Get("product_slug")),
		Name:        strings.TrimSpace(v.Get("name")),
		Phone:       strings.TrimSpace(v.Get("phone")),
		Comment:     strings.TrimSpace(v.Get("comment")),
		Rating:      rating.Default,
	}
	if raw := strings.TrimSpace(v.Get("rating")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = 0
		}
		r.Rating = n
	}
	return r
}

// Validate returns a *ValidationError or nil.
func (r Review) Validate() error {
	verr := &ValidationError{}
	if r.ProductSlug == "" {
		verr.add("product_slug", KeyRequired)
	}
	if r.Name == "" {
		verr.add("name", KeyRequired)
	}
	checkPhone(verr, r.Phone)
	if r.Rating < rating.Min || r.Rating > rating.Max {
		verr.add("rating", KeyRating)
	}
	if r.Comment == "" {
		verr.add("comment", KeyRequired)
	}
	return verr.orNil()
}

// Request converts the form into the API payload with a normalised phone.
func (r Review) Request() api.ReviewRequest {
	return api.ReviewRequest{
		ProductSlug: r.ProductSlug,
		Name:        r.Name,
		Phone:       format.Phone(r.Phone),
		Rating:      r.Rating,
		Comment:     r.Comment,
	}
}

// Values returns the form fields for redrawing.
func (r Review) Values() map[string]string {
	return map[string]string{
		"name":    r.Name,
		"phone":   format.Phone(r.Phone),
		"comment": r.Comment,
	}
}

// Contact is a submitted contact form.
type Contact struct {
	Name    string
	Phone   string
	Email   string
	Subject string
	Message string
}

// ParseContact reads the contact form.
func ParseContact(v url.Values) Contact {
	c := Contact{
		Name:    strings.TrimSpace(v.Get("name")),
		Phone:   strings.TrimSpace(v.Get("phone")),
		Email:   strings.TrimSpace(v.Get("email")),
		Subject: strings.ToLower(strings.TrimSpace(v.Get("subject"))),
		Message: strings.TrimSpace(v.Get("message")),
	}
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
	return c
}

// Validate returns a *ValidationError or nil.
func (c Contact) Validate() error {
	verr := &ValidationError{}
	if c.Name == "" {
		verr.add("name", KeyRequired)
	}
	checkPhone(verr, c.Phone)
	if c.Email != "" {
		if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
			verr.add("email", KeyEmail)
		}
	}
	if !validSubject(c.Subject) {
		verr.add("subject", KeySubject)
	}
	if c.Message == "" {
		verr.add("message", KeyRequired)
	}
	return verr.orNil()
}

// Request converts the form into the API payload with a normalised phone.
func (c Contact) Request() api.ContactRequest {
	return api.ContactRequest{
		Name:    c.Name,
		Phone:   format.Phone(c.Phone),
		Email:   c.Email,
		Subject: c.Subject,
		Message: c.Message,
	}
}

// Values returns the form fields for redrawing.
func (c Contact) Values() map[string]string {
	return map[string]string{
		"name":    c.Name,
		"phone":   format.Phone(c.Phone),
		"email":   c.Email,
		"subject": c.Subject,
		"message": c.Message,
	}
}

func checkPhone(verr *ValidationError, phone string) {
	switch {
	case strings.TrimSpace(phone) == "" || format.SignificantDigits(phone) == "":
		verr.add("phone", KeyRequired)
	case !format.IsCompletePhone(phone):
		verr.add("phone", KeyPhone)
	}
}

func validSubject(s string) bool {
	for _, known := range Subjects {
		if s == known {
			return true
		}
	}
	return false
}
