// Package validation runs struct-tag validation for request DTOs and turns
// failures into domain validation errors.
package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "ascend/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates v and reports the first offending field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return dErrors.New(dErrors.CodeValidation, "invalid "+strings.ToLower(first.Field())).
			WithDetail("field", first.Field()).
			WithDetail("rule", first.Tag())
	}
	return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
}
