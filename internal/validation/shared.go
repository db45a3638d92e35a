package validation

import (
	"fmt"
	"strings"
)

// Error collects field-level validation failures for one request.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(msgs, "; ")
}

// validateDate checks a required YYYY-MM-DD field, recording failures in errors.
func validateDate(errors map[string]string, field, value string) {
	if strings.TrimSpace(value) == "" {
		errors[field] = field + " is required"
		return
	}
	if !isDate(value) {
		errors[field] = "must be a date in YYYY-MM-DD format"
	}
}
