package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// rgbColorPattern accepts the #rgb and #rrggbb forms SVG paint understands.
var rgbColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var Validate *validator.Validate

func InitValidator() {
	Validate = NewValidator()
}

func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("rgbcolor", func(fl validator.FieldLevel) bool {
		return rgbColorPattern.MatchString(fl.Field().String())
	})
	return v
}
