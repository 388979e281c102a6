package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema.
type Schema struct {
	compiled *gojsonschema.Schema
}

// CompileSchema compiles a JSON schema given as a decoded document, as
// stored in the activity registry.
func CompileSchema(schema map[string]interface{}) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks doc, a value decoded from JSON, against the schema.
func (s *Schema) Validate(doc interface{}) (*ValidationResult, error) {
	res, err := s.compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var errs []ValidationError
	for _, re := range res.Errors() {
		errs = append(errs, ValidationError{
			Field:   schemaField(re),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	return newResult(errs), nil
}

// ValidateDocument compiles schema and validates doc against it.
func ValidateDocument(doc interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	s, err := CompileSchema(schema)
	if err != nil {
		return nil, err
	}
	return s.Validate(doc)
}

// schemaField renders the failing field in the same dotted form the
// struct validator uses: participants[0].email.
func schemaField(re gojsonschema.ResultError) string {
	field := re.Field()
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
				field = prop
			} else {
				field = field + "." + prop
			}
		}
	}
	if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		return ""
	}

	parts := strings.Split(field, ".")
	var b strings.Builder
	for i, p := range parts {
		if isIndex(p) {
			b.WriteString("[" + p + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(p)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
