package handler

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

// ValidationError maps field names to messages. Rendered as 400 with the
// messages under error.details.
type ValidationError url.Values

func NewValidationError() ValidationError {
	return make(ValidationError)
}

// FromValidator converts validator.ValidationErrors.
func FromValidator(ve validator.ValidationErrors) ValidationError {
	out := NewValidationError()
	for _, e := range ve {
		out.Add(e.Field, e.Message)
	}
	return out
}

func (e ValidationError) Add(field, message string) {
	url.Values(e).Add(field, message)
}

func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(e[f]) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", f, e[f][0]))
		}
	}
	return "validation error: " + strings.Join(parts, ", ")
}
