package http

import (
	"errors"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
)

// RequestValidator plugs validator/v10 into echo's c.Validate
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate reports the first failing field as a ValidationError
func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return domainErrors.NewValidationError(verrs[0].Field(), "failed on '"+verrs[0].Tag()+"'")
	}
	return domainErrors.NewValidationError("body", err.Error())
}
