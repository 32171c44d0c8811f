package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// New creates the validator instance used across the application and tests,
// with custom validations registered.
func New() *validator.Validate {
	v := validator.New()

	// "notblank" rejects whitespace-only strings; plain "required" accepts
	// them. Identifier fields carried in request bodies use it.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	return v
}
