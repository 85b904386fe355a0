// Package validation checks method parameters before a handler runs.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/developer-mesh/mcp-github-server/internal/models"
)

// ValidationError describes one invalid field
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", e.Field, e.Message)
}

// Missing reports whether a parameter value counts as absent. Null and the
// empty string are treated the same as a missing key.
func Missing(v interface{}, present bool) bool {
	if !present || v == nil {
		return true
	}
	if s, ok := v.(string); ok && s == "" {
		return true
	}
	return false
}

// CheckRequired returns a validation error naming every missing field, in
// the order given.
func CheckRequired(params map[string]interface{}, required []string) error {
	var missing []string
	for _, field := range required {
		v, ok := params[field]
		if Missing(v, ok) {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return models.NewMissingParametersError(missing)
}

// Schema is a compiled JSON schema for one method's parameters
type Schema struct {
	schema *gojsonschema.Schema
}

// CompileSchema compiles a schema document expressed as Go values
func CompileSchema(doc map[string]interface{}) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, errors.Wrap(err, "invalid parameter schema")
	}
	return &Schema{schema: compiled}, nil
}

// Violations lists every schema violation in params, sorted by field.
func (s *Schema) Violations(params map[string]interface{}) ([]*ValidationError, error) {
	if s == nil {
		return nil, nil
	}

	result, err := s.schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return nil, errors.Wrap(err, "schema validation failed")
	}

	violations := make([]*ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		violations = append(violations, &ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    re.Type(),
		})
	}
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Field < violations[j].Field
	})
	return violations, nil
}

// Validate checks params against the schema and reports all violations in
// one validation error.
func (s *Schema) Validate(params map[string]interface{}) error {
	violations, err := s.Violations(params)
	if err != nil {
		return models.NewValidationError("invalid parameters: " + err.Error())
	}
	if len(violations) == 0 {
		return nil
	}

	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		if v.Field == "(root)" {
			parts = append(parts, v.Message)
			continue
		}
		parts = append(parts, v.Field+": "+v.Message)
	}
	return models.NewValidationError(strings.Join(parts, "; "))
}
