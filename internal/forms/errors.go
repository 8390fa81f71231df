package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrBusy is returned when the same form is submitted again before the
// previous submission finished.
var ErrBusy = errors.New("forms: submission already in progress")

// ValidationError lists the fields that failed client-side checks. Values
// are i18n message keys.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "forms: invalid submission"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("forms: invalid fields: %s", strings.Join(names, ", "))
}

func (e *ValidationError) add(field, key string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = key
	}
}

// Has reports whether field failed.
func (e *ValidationError) Has(field string) bool {
	if e == nil {
		return false
	}
	_, ok := e.Fields[field]
	return ok
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidation unwraps a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
