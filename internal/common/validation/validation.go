// Package validation checks job input against the JSON schemas of the
// activity registry and Go structs against their validate tags, and
// reports both in one field-keyed shape.
package validation

import (
	"fmt"
	"sort"
	"strings"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newResult(errs []ValidationError) *ValidationResult {
	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Add appends a field error.
func (r *ValidationResult) Add(field, code, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Code: code})
	r.Valid = false
}

// Merge appends other's errors to r.
func (r *ValidationResult) Merge(other *ValidationResult) *ValidationResult {
	if other == nil {
		return r
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Valid = len(r.Errors) == 0
	return r
}

func (r *ValidationResult) HasErrors(field string) bool {
	return len(r.GetErrorsForField(field)) > 0
}

func (r *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var out []ValidationError
	for _, e := range r.Errors {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

func (r *ValidationResult) GetErrorMessages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.String())
	}
	return out
}

// FormErrors groups messages by field, in field order.
func (r *ValidationResult) FormErrors() map[string][]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, e := range r.Errors {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// Fields lists the distinct fields with errors, sorted.
func (r *ValidationResult) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range r.Errors {
		if !seen[e.Field] {
			seen[e.Field] = true
			out = append(out, e.Field)
		}
	}
	sort.Strings(out)
	return out
}

// Summary joins the messages into one line for error details.
func (r *ValidationResult) Summary() string {
	return strings.Join(r.GetErrorMessages(), "; ")
}
