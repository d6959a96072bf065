package validators

import (
	"github.com/go-playground/validator/v10"

	"github.com/loopline-app/backend/internal/apperrors"
)

// RequestValidator adapts go-playground/validator to echo's Validator interface
type RequestValidator struct {
	validate *validator.Validate
}

func New() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate checks struct tags and converts failures into a BadRequest error
func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	return nil
}
