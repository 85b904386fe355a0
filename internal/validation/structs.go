package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/developer-mesh/mcp-github-server/internal/models"
)

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

func getValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		v := validator.New()
		// Report fields under their parameter names
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("param"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		structValidator = v
	})
	return structValidator
}

// ValidateStruct checks the `validate` tags of a decoded operation input.
// Missing required fields are reported together, like CheckRequired; the
// first other violation is reported on its own.
func ValidateStruct(input interface{}) error {
	err := getValidator().Struct(input)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return models.NewValidationError("invalid parameters: " + err.Error())
	}

	var missing []string
	var other *ValidationError
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		if other == nil {
			other = &ValidationError{Field: fe.Field(), Message: describe(fe), Code: fe.Tag()}
		}
	}

	if len(missing) > 0 {
		return models.NewMissingParametersError(missing)
	}
	return models.NewValidationError(other.Field + ": " + other.Message)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
