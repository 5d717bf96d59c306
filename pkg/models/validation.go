package models

import "github.com/go-playground/validator/v10"

// NewValidator returns a validator that knows the event_kind tag.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	_ = validate.RegisterValidation("event_kind", func(fl validator.FieldLevel) bool {
		return EventKind(fl.Field().String()).IsValid()
	})

	return validate
}
