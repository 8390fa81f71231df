package forms

import (
	"lebem.uz/storefront/internal/dom"
)

// InvalidClass marks a field that failed validation.
const InvalidClass = "is-invalid"

type fieldKind int

const (
	inputField fieldKind = iota
	textareaField
	selectField
	hiddenField
)

type field struct {
	name string
	kind fieldKind
}

// Layout ties a form's field names to element ids: field "name" lives at
// Prefix+"name" and its message at Prefix+"name-feedback".
type Layout struct {
	FormID   string
	Prefix   string
	SubmitID string
	fields   []field
}

var (
	ReviewLayout = Layout{
		FormID:   "review-form",
		Prefix:   "review-",
		SubmitID: "review-submit",
		fields: []field{
			{"name", inputField},
			{"phone", inputField},
			{"comment", textareaField},
			{"rating", hiddenField},
		},
	}
	ContactLayout = Layout{
		FormID:   "contact-form",
		Prefix:   "contact-",
		SubmitID: "contact-submit",
		fields: []field{
			{"name", inputField},
			{"phone", inputField},
			{"email", inputField},
			{"subject", selectField},
			{"message", textareaField},
		},
	}
)

// FieldID returns the element id of a field.
func (l Layout) FieldID(name string) string { return l.Prefix + name }

func (l Layout) feedbackID(name string) string { return l.Prefix + name + "-feedback" }

// Fill writes values back into the form. Fields absent from values are left
// as they are; hidden fields are skipped.
func (l Layout) Fill(doc *dom.Document, values map[string]string) error {
	for _, f := range l.fields {
		v, ok := values[f.name]
		if !ok {
			continue
		}
		id := l.FieldID(f.name)
		var err error
		switch f.kind {
		case inputField:
			err = doc.SetAttr(id, "value", v)
		case textareaField:
			err = doc.SetText(id, v)
		case selectField:
			err = doc.SelectOption(id, v)
		case hiddenField:
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Reset clears every visible field, selects the first option of selects and
// removes validation marks.
func (l Layout) Reset(doc *dom.Document) error {
	for _, f := range l.fields {
		id := l.FieldID(f.name)
		var err error
		switch f.kind {
		case inputField:
			err = doc.RemoveAttr(id, "value")
		case textareaField:
			err = doc.SetText(id, "")
		case selectField:
			if f.name == "subject" {
				err = doc.SelectOption(id, DefaultSubject)
			}
		case hiddenField:
			continue
		}
		if err != nil {
			return err
		}
	}
	return l.clearMarks(doc)
}

// MarkInvalid flags the fields of verr and writes their translated messages.
// translate maps a message key to text.
func (l Layout) MarkInvalid(doc *dom.Document, verr *ValidationError, translate func(key string) string) error {
	if err := l.clearMarks(doc); err != nil {
		return err
	}
	if verr == nil {
		return nil
	}
	for _, f := range l.fields {
		key, bad := verr.Fields[f.name]
		if !bad {
			continue
		}
		if doc.Has(l.FieldID(f.name)) {
			if err := doc.AddClass(l.FieldID(f.name), InvalidClass); err != nil {
				return err
			}
		}
		if doc.Has(l.feedbackID(f.name)) {
			if err := doc.SetText(l.feedbackID(f.name), translate(key)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l Layout) clearMarks(doc *dom.Document) error {
	for _, f := range l.fields {
		if doc.Has(l.FieldID(f.name)) {
			if err := doc.RemoveClass(l.FieldID(f.name), InvalidClass); err != nil {
				return err
			}
		}
		if doc.Has(l.feedbackID(f.name)) {
			if err := doc.SetText(l.feedbackID(f.name), ""); err != nil {
				return err
			}
		}
	}
	return nil
}

// EnableSubmit re-enables the submit control.
func (l Layout) EnableSubmit(doc *dom.Document) error {
	if !doc.Has(l.SubmitID) {
		return nil
	}
	if err := doc.RemoveAttr(l.SubmitID, "disabled"); err != nil {
		return err
	}
	return doc.RemoveAttr(l.SubmitID, "aria-busy")
}
